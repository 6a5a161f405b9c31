package harden

const VERSION = "0.1.0"

// Phase is the lifecycle mode of the host build pipeline.
type Phase string

const (
	// PhaseServe is the interactive development server phase.
	PhaseServe Phase = "serve"
	// PhaseBundle is the static bundle phase producing a fixed asset set.
	PhaseBundle Phase = "bundle"
)

// BuildContext is the immutable per-run context threaded through every
// component. It is frozen once the configuration is resolved; the nonce is
// never regenerated for the lifetime of the run. Templates served during the
// interactive phase can read Nonce directly instead of re-deriving it.
type BuildContext struct {
	Phase   Phase
	Nonce   string
	Config  *Config
	Resolve ResolveConfig
}

// ResolveConfig carries the module-resolution aliases registered with the
// host pipeline during the config-mutate stage.
type ResolveConfig struct {
	Aliases map[string]string
}

// Asset kind discriminators used by the host pipeline's bundle map.
const (
	KindAsset = "asset"
	KindCode  = "code"
)

// Asset is one entry of a finished output set.
type Asset struct {
	Kind     string
	FileName string
	Source   string
}

// Bundle is the complete set of generated output, keyed by output path.
type Bundle map[string]*Asset
