package harden

import (
	"os"

	"github.com/projectdiscovery/goflags"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/levels"
)

// Run modes accepted on the command line.
const (
	ModeServe = "serve"
	ModeBuild = "build"
)

// Options holds the parsed command line flags.
type Options struct {
	Mode         string
	SettingsFile string
	Root         string
	OutputDir    string
	Port         int
	ReportOnly   bool
	Audit        bool
	Verbose      bool
	Version      bool
}

// ParseOptions parses the command line flags and prepares logging.
func ParseOptions() *Options {
	options := &Options{}

	flagSet := goflags.NewFlagSet()
	flagSet.SetDescription("csp-hardener injects a CSP nonce and hardening headers into served and bundled HTML.")

	flagSet.CreateGroup("input", "Input",
		flagSet.StringVarP(&options.Mode, "mode", "m", ModeServe, "run mode (serve or build)"),
		flagSet.StringVarP(&options.SettingsFile, "settings", "s", "", "settings file location"),
		flagSet.StringVarP(&options.Root, "root", "r", ".", "directory to serve or bundle directory to rewrite"),
	)
	flagSet.CreateGroup("output", "Output",
		flagSet.StringVarP(&options.OutputDir, "output", "o", "dist", "output directory for rewritten bundles"),
	)
	flagSet.CreateGroup("config", "Configuration",
		flagSet.IntVarP(&options.Port, "port", "p", 8080, "port for the development server"),
		flagSet.BoolVar(&options.ReportOnly, "report-only", false, "emit the report-only policy header"),
		flagSet.BoolVar(&options.Audit, "audit", false, "audit nonce coverage after bundle rewriting"),
	)
	flagSet.CreateGroup("debug", "Debug",
		flagSet.BoolVarP(&options.Verbose, "verbose", "v", false, "show verbose output"),
		flagSet.BoolVar(&options.Version, "version", false, "show version of the project"),
	)

	if err := flagSet.Parse(); err != nil {
		gologger.Fatal().Msgf("Could not parse flags: %s\n", err)
	}

	options.configureOutput()

	if options.Version {
		gologger.Info().Msgf("Current version: %s", VERSION)
		os.Exit(0)
	}

	if options.Mode != ModeServe && options.Mode != ModeBuild {
		gologger.Fatal().Msgf("Unknown mode %q, expected %q or %q\n", options.Mode, ModeServe, ModeBuild)
	}

	return options
}

func (options *Options) configureOutput() {
	if options.Verbose {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelDebug)
	}
}
