package harden

import (
	"regexp"
	"strings"
)

// RewriteOptions controls the optional final rewriting step.
type RewriteOptions struct {
	// InjectShim appends the dynamic-injection shim before the closing
	// </head> tag. When the document has no </head>, the step is skipped.
	InjectShim bool
}

var (
	linkTagRe = regexp.MustCompile(`<link[^>]*>`)
	openTagRe = regexp.MustCompile(`<[A-Za-z][^>]*>`)
)

// Rewrite transforms an HTML document so that every static script, style and
// link element and every element carrying an inline style attribute bears the
// given nonce, and optionally appends the dynamic-injection shim. It is pure
// text surgery, not a validating parser: malformed input degrades gracefully
// and never produces an error.
//
// The steps run in a fixed order so that later steps never re-match text
// inserted by earlier ones. Script and style tagging is unconditional and
// therefore not idempotent; link and inline-style tagging check for an
// existing nonce attribute and are.
func Rewrite(doc, nonce string, opts RewriteOptions) string {
	attr := ` nonce="` + nonce + `"`

	// Steps 1 and 2: stamp every script and style opening tag.
	doc = strings.ReplaceAll(doc, "<script", "<script"+attr)
	doc = strings.ReplaceAll(doc, "<style", "<style"+attr)

	// Step 3: stamp link elements, skipping ones already carrying a nonce.
	doc = linkTagRe.ReplaceAllStringFunc(doc, func(tag string) string {
		if strings.Contains(tag, "nonce=") {
			return tag
		}
		return appendNonce(tag, attr)
	})

	// Step 4: any element with an inline style attribute gets the nonce as a
	// sibling attribute. The style value itself is never touched.
	doc = openTagRe.ReplaceAllStringFunc(doc, func(tag string) string {
		if !strings.Contains(tag, `style="`) || strings.Contains(tag, "nonce=") {
			return tag
		}
		return appendNonce(tag, attr)
	})

	// Step 5: the shim, immediately before the first closing head tag.
	if opts.InjectShim {
		if idx := strings.Index(doc, "</head>"); idx >= 0 {
			doc = doc[:idx] + DynamicShim(nonce) + doc[idx:]
		}
	}
	return doc
}

// appendNonce inserts the nonce attribute before the closing '>' of an
// opening tag, trimming a trailing self-closing slash and surrounding
// whitespace first.
func appendNonce(tag, attr string) string {
	body := strings.TrimSuffix(tag, ">")
	body = strings.TrimRight(body, " \t")
	body = strings.TrimSuffix(body, "/")
	body = strings.TrimRight(body, " \t")
	return body + attr + ">"
}
