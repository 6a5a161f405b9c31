package harden

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aymerick/douceur/parser"
	"github.com/projectdiscovery/gologger"
)

// Finding is one coverage gap reported by the audit pass.
type Finding struct {
	Element string
	Detail  string
}

func (f Finding) String() string {
	return f.Element + ": " + f.Detail
}

// AuditDocument parses a rewritten document and reports every script, style,
// stylesheet link and inline-styled element that does not carry the expected
// nonce, plus any inline style value that no longer parses as CSS. It is a
// best-effort diagnostic: an unparseable document is itself a finding, never
// an error.
func AuditDocument(doc, nonce string) []Finding {
	root, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return []Finding{{Element: "document", Detail: err.Error()}}
	}

	var findings []Finding
	root.Find("script, style, link[rel=stylesheet]").Each(func(_ int, s *goquery.Selection) {
		if s.AttrOr("nonce", "") != nonce {
			findings = append(findings, Finding{
				Element: goquery.NodeName(s),
				Detail:  "missing or mismatched nonce attribute",
			})
		}
	})
	root.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		name := goquery.NodeName(s)
		if s.AttrOr("nonce", "") != nonce {
			findings = append(findings, Finding{
				Element: name,
				Detail:  "inline style without nonce attribute",
			})
		}
		if _, err := parser.ParseDeclarations(s.AttrOr("style", "")); err != nil {
			findings = append(findings, Finding{
				Element: name,
				Detail:  fmt.Sprintf("style value no longer parses: %v", err),
			})
		}
	})
	return findings
}

// AuditBundle runs AuditDocument over every asset the bundle rewriting would
// touch and logs the findings. Used as an optional post-finalization check.
func AuditBundle(ctx *BuildContext, bundle Bundle) int {
	matchers, err := compileIncludes(ctx.Config.BundleInclude)
	if err != nil {
		// Validate has already rejected bad patterns; nothing to audit here.
		return 0
	}
	total := 0
	for path, asset := range bundle {
		if asset.Kind != KindAsset || !matchesAny(matchers, path) {
			continue
		}
		for _, finding := range AuditDocument(asset.Source, ctx.Nonce) {
			gologger.Warning().Msgf("[AUDIT] %s: %s", path, finding)
			total++
		}
	}
	return total
}
