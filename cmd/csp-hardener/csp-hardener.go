package main

import (
	"github.com/projectdiscovery/gologger"
	"github.com/secinto/csp-hardener/harden"
)

func main() {
	// Parse the command line flags and read config files
	options := harden.ParseOptions()

	hardener, err := harden.NewHardener(options)
	if err != nil {
		gologger.Fatal().Msgf("Could not create csp-hardener: %s\n", err)
	}

	err = hardener.Run()
	if err != nil {
		gologger.Fatal().Msgf("Could not harden assets: %s\n", err)
	}
}
