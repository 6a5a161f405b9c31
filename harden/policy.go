package harden

import "strings"

// CSP directive names.
const (
	dirDefaultSrc     = "default-src"
	dirScriptSrc      = "script-src"
	dirStyleSrc       = "style-src"
	dirImgSrc         = "img-src"
	dirFontSrc        = "font-src"
	dirObjectSrc      = "object-src"
	dirBaseURI        = "base-uri"
	dirFrameSrc       = "frame-src"
	dirFormAction     = "form-action"
	dirFrameAncestors = "frame-ancestors"
	dirWorkerSrc      = "worker-src"
	dirConnectSrc     = "connect-src"

	dirUpgradeInsecure = "upgrade-insecure-requests"
)

const (
	headerCSP           = "Content-Security-Policy"
	headerCSPReportOnly = "Content-Security-Policy-Report-Only"
)

// Header is a single response header pair.
type Header struct {
	Name  string
	Value string
}

// PolicyHeaders is the output of one policy assembly: the CSP header itself
// plus the auxiliary hardening headers, in a stable order.
type PolicyHeaders struct {
	Name  string
	Value string
	Aux   []Header
}

// AssemblePolicy renders the configuration into the policy header value and
// the auxiliary header set for the given nonce. The clause order is fixed for
// readability and test stability. Pure; called once per response because the
// script-src and style-src expressions are resolved lazily.
func AssemblePolicy(cfg *Config, nonce string) PolicyHeaders {
	clauses := []string{
		dirDefaultSrc + " " + cfg.DefaultSrc,
		dirScriptSrc + " " + cfg.ScriptSrc.Resolve(nonce),
		dirStyleSrc + " " + cfg.StyleSrc.Resolve(nonce),
		dirImgSrc + " " + cfg.ImgSrc,
		dirFontSrc + " " + cfg.FontSrc,
		dirObjectSrc + " " + cfg.ObjectSrc,
		dirBaseURI + " " + cfg.BaseURI,
		dirFrameSrc + " " + cfg.FrameSrc,
		dirFormAction + " " + cfg.FormAction,
		dirFrameAncestors + " " + cfg.FrameAncestors,
		dirWorkerSrc + " " + cfg.WorkerSrc,
		dirConnectSrc + " " + cfg.ConnectSrc,
		dirUpgradeInsecure,
	}

	name := headerCSP
	if cfg.ReportOnly {
		name = headerCSPReportOnly
	}

	ph := PolicyHeaders{Name: name, Value: strings.Join(clauses, "; ")}
	aux := []struct {
		name  string
		value *string
	}{
		{"X-XSS-Protection", cfg.XSSProtection},
		{"X-Frame-Options", cfg.FrameOptions},
		{"X-Content-Type-Options", cfg.ContentTypeOptions},
		{"Referrer-Policy", cfg.ReferrerPolicy},
		{"Permissions-Policy", cfg.PermissionsPolicy},
		{"Cache-Control", cfg.CacheControl},
	}
	for _, h := range aux {
		// A configured empty value suppresses the header entirely.
		if h.value == nil || *h.value == "" {
			continue
		}
		ph.Aux = append(ph.Aux, Header{Name: h.name, Value: *h.value})
	}
	return ph
}
