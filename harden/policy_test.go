package harden_test

import (
	"strings"
	"testing"

	"github.com/secinto/csp-hardener/harden"
)

func TestAssemblePolicy_ClauseOrder(t *testing.T) {
	ph := harden.AssemblePolicy(harden.DefaultConfig(), "abc")

	clauses := strings.Split(ph.Value, "; ")
	wantOrder := []string{
		"default-src", "script-src", "style-src", "img-src", "font-src",
		"object-src", "base-uri", "frame-src", "form-action",
		"frame-ancestors", "worker-src", "connect-src",
	}
	if len(clauses) != len(wantOrder)+1 {
		t.Fatalf("got %d clauses, want %d: %q", len(clauses), len(wantOrder)+1, ph.Value)
	}
	for i, directive := range wantOrder {
		if !strings.HasPrefix(clauses[i], directive+" ") {
			t.Errorf("clause %d = %q, want directive %q", i, clauses[i], directive)
		}
		if n := strings.Count(ph.Value, directive+" "); n != 1 {
			t.Errorf("directive %q occurs %d times, want 1", directive, n)
		}
	}
	if last := clauses[len(clauses)-1]; last != "upgrade-insecure-requests" {
		t.Errorf("last clause = %q, want upgrade-insecure-requests", last)
	}
	if clauses[1] != "script-src 'self' 'nonce-abc'" {
		t.Errorf("script-src clause = %q", clauses[1])
	}
	if clauses[2] != "style-src 'self' 'nonce-abc'" {
		t.Errorf("style-src clause = %q", clauses[2])
	}
}

func TestAssemblePolicy_ReportOnlyTogglesNameOnly(t *testing.T) {
	enforcing := harden.AssemblePolicy(harden.DefaultConfig(), "abc")

	cfg := harden.DefaultConfig()
	cfg.ReportOnly = true
	reporting := harden.AssemblePolicy(cfg, "abc")

	if enforcing.Name != "Content-Security-Policy" {
		t.Errorf("enforcing header name = %q", enforcing.Name)
	}
	if reporting.Name != "Content-Security-Policy-Report-Only" {
		t.Errorf("report-only header name = %q", reporting.Name)
	}
	if enforcing.Value != reporting.Value {
		t.Errorf("report-only flag changed the header value: %q != %q", enforcing.Value, reporting.Value)
	}
}

func TestAssemblePolicy_SourceFunctions(t *testing.T) {
	cfg := harden.DefaultConfig()
	cfg.ScriptSrc = harden.SourceExpr{Build: func(nonce string) string {
		return "'nonce-" + nonce + "' 'strict-dynamic'"
	}}
	cfg.StyleSrc = harden.SourceExpr{Value: "'self' 'unsafe-inline'"}

	ph := harden.AssemblePolicy(cfg, "xyz")
	if !strings.Contains(ph.Value, "script-src 'nonce-xyz' 'strict-dynamic'; ") {
		t.Errorf("script-src function not applied: %q", ph.Value)
	}
	if !strings.Contains(ph.Value, "style-src 'self' 'unsafe-inline'; ") {
		t.Errorf("style-src literal not applied: %q", ph.Value)
	}
}

func TestAssemblePolicy_AuxiliaryHeaders(t *testing.T) {
	empty := ""
	cfg := harden.DefaultConfig()
	cfg.XSSProtection = &empty

	ph := harden.AssemblePolicy(cfg, "abc")
	seen := map[string]string{}
	for _, h := range ph.Aux {
		seen[h.Name] = h.Value
	}
	if _, ok := seen["X-XSS-Protection"]; ok {
		t.Errorf("empty auxiliary header was emitted")
	}
	for _, name := range []string{
		"X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy",
		"Permissions-Policy", "Cache-Control",
	} {
		if seen[name] == "" {
			t.Errorf("auxiliary header %s missing", name)
		}
	}
}
