package harden

import (
	"os"
	"strings"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const defaultSettingsLocation = "csp-hardener.yaml"

// Default values for every configuration field. Absent fields fall back to
// these during hydration.
const (
	DefaultPlaceholder        = "{{CSP_NONCE}}"
	DefaultDefaultSrc         = "'self'"
	DefaultImgSrc             = "'self' data:"
	DefaultFontSrc            = "'self'"
	DefaultObjectSrc          = "'none'"
	DefaultFrameSrc           = "'self'"
	DefaultBaseURI            = "'self'"
	DefaultFormAction         = "'self'"
	DefaultFrameAncestors     = "'self'"
	DefaultWorkerSrc          = "'self'"
	DefaultConnectSrc         = "'self'"
	DefaultXSSProtection      = "1; mode=block"
	DefaultFrameOptions       = "SAMEORIGIN"
	DefaultContentTypeOptions = "nosniff"
	DefaultReferrerPolicy     = "strict-origin-when-cross-origin"
	DefaultPermissionsPolicy  = "camera=(), microphone=(), geolocation=()"
	DefaultCacheControl       = "no-store"
	DefaultI18nModule         = "vue-i18n"
	DefaultI18nServeTarget    = "vue-i18n/dist/vue-i18n.esm-browser.js"
	DefaultI18nBundleTarget   = "vue-i18n/dist/vue-i18n.esm-browser.prod.js"
)

// SourceExpr is a CSP source list that is either a literal string or a
// function of the nonce, resolved lazily every time a policy is assembled.
// Settings files can only supply the literal form; the function form is for
// embedding callers.
type SourceExpr struct {
	Value string
	Build func(nonce string) string
}

func (s *SourceExpr) UnmarshalYAML(node *yaml.Node) error {
	return node.Decode(&s.Value)
}

func (s SourceExpr) MarshalYAML() (interface{}, error) {
	return s.Value, nil
}

// Resolve returns the source list for the given nonce. An unset expression
// resolves to the self-plus-nonce default.
func (s SourceExpr) Resolve(nonce string) string {
	if s.Build != nil {
		return s.Build(nonce)
	}
	if s.Value != "" {
		return s.Value
	}
	return "'self' 'nonce-" + nonce + "'"
}

// Config is the options record supplied once per run. Read-only after
// LoadConfig returns; no component mutates it. The auxiliary header fields
// are pointers so that an explicitly configured empty value suppresses the
// header entirely instead of falling back to the default.
type Config struct {
	ReportOnly bool `yaml:"report_only,omitempty"`

	I18n             bool   `yaml:"i18n,omitempty"`
	I18nModule       string `yaml:"i18n_module,omitempty"`
	I18nServeTarget  string `yaml:"i18n_serve_target,omitempty"`
	I18nBundleTarget string `yaml:"i18n_bundle_target,omitempty"`

	Placeholder string `yaml:"placeholder,omitempty"`

	DefaultSrc     string     `yaml:"default_src,omitempty"`
	ScriptSrc      SourceExpr `yaml:"script_src,omitempty"`
	StyleSrc       SourceExpr `yaml:"style_src,omitempty"`
	ImgSrc         string     `yaml:"img_src,omitempty"`
	FontSrc        string     `yaml:"font_src,omitempty"`
	ObjectSrc      string     `yaml:"object_src,omitempty"`
	FrameSrc       string     `yaml:"frame_src,omitempty"`
	BaseURI        string     `yaml:"base_uri,omitempty"`
	FormAction     string     `yaml:"form_action,omitempty"`
	FrameAncestors string     `yaml:"frame_ancestors,omitempty"`
	WorkerSrc      string     `yaml:"worker_src,omitempty"`
	ConnectSrc     string     `yaml:"connect_src,omitempty"`

	XSSProtection      *string `yaml:"xss_protection,omitempty"`
	FrameOptions       *string `yaml:"frame_options,omitempty"`
	ContentTypeOptions *string `yaml:"content_type_options,omitempty"`
	ReferrerPolicy     *string `yaml:"referrer_policy,omitempty"`
	PermissionsPolicy  *string `yaml:"permissions_policy,omitempty"`
	CacheControl       *string `yaml:"cache_control,omitempty"`

	// BundleShim controls whether the dynamic-injection shim is also baked
	// into static bundle output. Defaults to true so that production pages
	// carry the same protection as development pages.
	BundleShim *bool `yaml:"bundle_shim,omitempty"`

	// BundleInclude selects which bundle output paths get rewritten.
	BundleInclude []string `yaml:"bundle_include,omitempty"`
}

// DefaultConfig returns a configuration with every field at its default.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.hydrate()
	return cfg
}

// LoadConfig reads the settings file at location, falling back to the
// default location when none is given. A missing default file yields the
// built-in defaults; a missing explicit file is an error.
func LoadConfig(location string) (*Config, error) {
	explicit := location != ""
	if !explicit {
		location = defaultSettingsLocation
	}

	cfg := &Config{}
	data, err := os.ReadFile(location)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			cfg.hydrate()
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "could not read settings file %s", location)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "could not parse settings file %s", location)
	}
	cfg.hydrate()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid settings in %s", location)
	}
	return cfg, nil
}

func (c *Config) hydrate() {
	fallback(&c.Placeholder, DefaultPlaceholder)
	fallback(&c.DefaultSrc, DefaultDefaultSrc)
	fallback(&c.ImgSrc, DefaultImgSrc)
	fallback(&c.FontSrc, DefaultFontSrc)
	fallback(&c.ObjectSrc, DefaultObjectSrc)
	fallback(&c.FrameSrc, DefaultFrameSrc)
	fallback(&c.BaseURI, DefaultBaseURI)
	fallback(&c.FormAction, DefaultFormAction)
	fallback(&c.FrameAncestors, DefaultFrameAncestors)
	fallback(&c.WorkerSrc, DefaultWorkerSrc)
	fallback(&c.ConnectSrc, DefaultConnectSrc)
	fallback(&c.I18nModule, DefaultI18nModule)
	fallback(&c.I18nServeTarget, DefaultI18nServeTarget)
	fallback(&c.I18nBundleTarget, DefaultI18nBundleTarget)

	fallbackPtr(&c.XSSProtection, DefaultXSSProtection)
	fallbackPtr(&c.FrameOptions, DefaultFrameOptions)
	fallbackPtr(&c.ContentTypeOptions, DefaultContentTypeOptions)
	fallbackPtr(&c.ReferrerPolicy, DefaultReferrerPolicy)
	fallbackPtr(&c.PermissionsPolicy, DefaultPermissionsPolicy)
	fallbackPtr(&c.CacheControl, DefaultCacheControl)

	if c.BundleShim == nil {
		enabled := true
		c.BundleShim = &enabled
	}
	if len(c.BundleInclude) == 0 {
		c.BundleInclude = []string{"*.html"}
	}
}

func fallback(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func fallbackPtr(field **string, value string) {
	if *field == nil {
		*field = &value
	}
}

// Validate surfaces configuration misuse at setup time instead of letting it
// become a silent runtime malfunction.
func (c *Config) Validate() error {
	if c.Placeholder == "" {
		return errors.New("nonce placeholder must not be empty")
	}
	directives := map[string]string{
		dirDefaultSrc:     c.DefaultSrc,
		dirScriptSrc:      c.ScriptSrc.Value,
		dirStyleSrc:       c.StyleSrc.Value,
		dirImgSrc:         c.ImgSrc,
		dirFontSrc:        c.FontSrc,
		dirObjectSrc:      c.ObjectSrc,
		dirFrameSrc:       c.FrameSrc,
		dirBaseURI:        c.BaseURI,
		dirFormAction:     c.FormAction,
		dirFrameAncestors: c.FrameAncestors,
		dirWorkerSrc:      c.WorkerSrc,
		dirConnectSrc:     c.ConnectSrc,
	}
	for name, value := range directives {
		if strings.Contains(value, ";") {
			return errors.Errorf("directive %s must not contain ';'", name)
		}
	}
	for _, pattern := range c.BundleInclude {
		if _, err := glob.Compile(pattern); err != nil {
			return errors.Wrapf(err, "invalid bundle include pattern %q", pattern)
		}
	}
	return nil
}
