package harden

import (
	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"github.com/projectdiscovery/gologger"
)

// FinalizeBundle rewrites every asset in the finished output set whose path
// matches one of the configured include patterns, baking the run's nonce
// (the placeholder, in the bundle phase) into its source. Code entries and
// non-matching assets pass through byte-for-byte unchanged. Returns the
// number of assets rewritten.
//
// Each asset is independent; processing is sequential but nothing here
// depends on ordering.
func FinalizeBundle(ctx *BuildContext, bundle Bundle) (int, error) {
	matchers, err := compileIncludes(ctx.Config.BundleInclude)
	if err != nil {
		return 0, err
	}

	opts := RewriteOptions{InjectShim: *ctx.Config.BundleShim}
	rewritten := 0
	for path, asset := range bundle {
		if asset.Kind != KindAsset {
			continue
		}
		if !matchesAny(matchers, path) {
			continue
		}
		asset.Source = Rewrite(asset.Source, ctx.Nonce, opts)
		rewritten++
		gologger.Debug().Msgf("Rewrote bundle asset %s (%s)", path, asset.FileName)
	}
	return rewritten, nil
}

func compileIncludes(patterns []string) ([]glob.Glob, error) {
	matchers := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid bundle include pattern %q", pattern)
		}
		matchers = append(matchers, g)
	}
	return matchers, nil
}

func matchesAny(matchers []glob.Glob, path string) bool {
	for _, g := range matchers {
		if g.Match(path) {
			return true
		}
	}
	return false
}
