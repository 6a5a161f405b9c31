package harden

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/projectdiscovery/gologger"
)

// Hooks is the host-pipeline boundary: one method per lifecycle stage. The
// host calls MutateConfig and ConfigResolved exactly once per run, then only
// the stages belonging to the resolved phase.
type Hooks interface {
	// MutateConfig registers module-resolution aliases with the host before
	// resolution starts.
	MutateConfig(phase Phase, rc *ResolveConfig) error
	// ConfigResolved freezes the per-run build context, minting the nonce.
	ConfigResolved(phase Phase) (*BuildContext, error)
	// ServeMiddleware returns the request middleware for the serve phase.
	ServeMiddleware() Middleware
	// TransformHTML rewrites one served document.
	TransformHTML(doc string) (string, error)
	// FinalizeBundle rewrites the finished output set in place.
	FinalizeBundle(bundle Bundle) error
}

// Hardener wires the nonce provider, policy assembler, header emitter and
// HTML rewriter into the host pipeline's lifecycle. It implements Hooks.
type Hardener struct {
	options *Options
	config  *Config
	ctx     *BuildContext
}

var _ Hooks = (*Hardener)(nil)

// NewHardener loads the settings and applies command-line overrides.
func NewHardener(options *Options) (*Hardener, error) {
	cfg, err := LoadConfig(options.SettingsFile)
	if err != nil {
		return nil, err
	}
	if options.ReportOnly {
		cfg.ReportOnly = true
	}
	return &Hardener{options: options, config: cfg}, nil
}

// Config exposes the resolved configuration. Read-only by contract.
func (h *Hardener) Config() *Config {
	return h.config
}

// Context returns the frozen build context, nil before ConfigResolved.
func (h *Hardener) Context() *BuildContext {
	return h.ctx
}

func (h *Hardener) MutateConfig(phase Phase, rc *ResolveConfig) error {
	if !h.config.I18n {
		return nil
	}
	if rc.Aliases == nil {
		rc.Aliases = make(map[string]string)
	}
	target := h.config.I18nServeTarget
	if phase == PhaseBundle {
		target = h.config.I18nBundleTarget
	}
	rc.Aliases[h.config.I18nModule] = target
	gologger.Debug().Msgf("Registered alias %s -> %s", h.config.I18nModule, target)
	return nil
}

func (h *Hardener) ConfigResolved(phase Phase) (*BuildContext, error) {
	if h.ctx != nil {
		return nil, errors.New("configuration already resolved for this run")
	}
	nonce, err := ProvideNonce(phase, h.config)
	if err != nil {
		return nil, err
	}
	rc := ResolveConfig{}
	if err := h.MutateConfig(phase, &rc); err != nil {
		return nil, err
	}
	h.ctx = &BuildContext{
		Phase:   phase,
		Nonce:   nonce,
		Config:  h.config,
		Resolve: rc,
	}
	return h.ctx, nil
}

func (h *Hardener) ServeMiddleware() Middleware {
	return SecurityHeaders(h.ctx)
}

func (h *Hardener) TransformHTML(doc string) (string, error) {
	if h.ctx == nil {
		return "", errors.New("configuration has not been resolved yet")
	}
	return Rewrite(doc, h.ctx.Nonce, RewriteOptions{InjectShim: true}), nil
}

func (h *Hardener) FinalizeBundle(bundle Bundle) error {
	if h.ctx == nil {
		return errors.New("configuration has not been resolved yet")
	}
	rewritten, err := FinalizeBundle(h.ctx, bundle)
	if err != nil {
		return err
	}
	gologger.Info().Msgf("Rewrote %d bundle asset(s) with placeholder %s", rewritten, h.ctx.Nonce)
	return nil
}

// Run dispatches on the requested mode: an interactive dev server or a
// one-shot pass over a bundle directory.
func (h *Hardener) Run() error {
	switch h.options.Mode {
	case ModeServe:
		if _, err := h.ConfigResolved(PhaseServe); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		server := NewServer(h, h.options.Root, h.options.Port)
		return server.ListenAndServe(ctx)
	case ModeBuild:
		if _, err := h.ConfigResolved(PhaseBundle); err != nil {
			return err
		}
		return h.runBuild()
	default:
		return errors.Errorf("unknown mode %q", h.options.Mode)
	}
}

func (h *Hardener) runBuild() error {
	gologger.Info().Msgf("Rewriting bundle under %s", h.options.Root)
	bundle, err := LoadBundle(h.options.Root)
	if err != nil {
		return err
	}
	if err := h.FinalizeBundle(bundle); err != nil {
		return err
	}
	if h.options.Audit {
		if findings := AuditBundle(h.ctx, bundle); findings > 0 {
			gologger.Warning().Msgf("Audit reported %d finding(s)", findings)
		} else {
			gologger.Info().Msgf("Audit clean")
		}
	}
	if err := WriteBundle(h.options.OutputDir, bundle); err != nil {
		return err
	}
	gologger.Info().Msgf("Finished writing hardened bundle to %s", h.options.OutputDir)
	return nil
}
