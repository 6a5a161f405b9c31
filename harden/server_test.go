package harden_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/secinto/csp-hardener/harden"
)

var nonceAttrRe = regexp.MustCompile(`nonce="([^"]+)"`)

func newTestServer(t *testing.T) (*httptest.Server, *harden.Hardener) {
	t.Helper()
	root := t.TempDir()
	page := `<html><head><title>t</title></head><body><script src="app.js"></script></body></html>`
	if err := os.WriteFile(filepath.Join(root, "index.html"), []byte(page), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "app.js"), []byte(`console.log(1)`), 0o644); err != nil {
		t.Fatal(err)
	}

	h := newTestHardener(t, "")
	if _, err := h.ConfigResolved(harden.PhaseServe); err != nil {
		t.Fatalf("ConfigResolved: %v", err)
	}
	ts := httptest.NewServer(harden.NewServer(h, root, 0).Handler())
	t.Cleanup(ts.Close)
	return ts, h
}

func fetch(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading %s: %v", url, err)
	}
	return resp, string(body)
}

func TestServer_NonceStableAcrossRequests(t *testing.T) {
	ts, h := newTestServer(t)

	_, first := fetch(t, ts.URL+"/")
	_, second := fetch(t, ts.URL+"/")

	m1 := nonceAttrRe.FindStringSubmatch(first)
	m2 := nonceAttrRe.FindStringSubmatch(second)
	if m1 == nil || m2 == nil {
		t.Fatalf("served page carries no nonce attribute: %q", first)
	}
	if m1[1] != m2[1] {
		t.Errorf("nonce changed between requests: %q != %q", m1[1], m2[1])
	}
	if m1[1] != h.Context().Nonce {
		t.Errorf("served nonce %q differs from run nonce %q", m1[1], h.Context().Nonce)
	}
}

func TestServer_HeaderAndMarkupAgree(t *testing.T) {
	ts, h := newTestServer(t)

	resp, body := fetch(t, ts.URL+"/index.html")
	csp := resp.Header.Get("Content-Security-Policy")
	if !strings.Contains(csp, "'nonce-"+h.Context().Nonce+"'") {
		t.Errorf("policy header does not carry the run nonce: %q", csp)
	}
	if !strings.Contains(body, `<script nonce="`+h.Context().Nonce+`"`) {
		t.Errorf("served markup not rewritten: %q", body)
	}
	if !strings.Contains(body, "createElement") {
		t.Error("served markup misses the dynamic-injection shim")
	}
}

func TestServer_NonHTMLServedUnmodified(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := fetch(t, ts.URL+"/app.js")
	if body != `console.log(1)` {
		t.Errorf("non-HTML file was rewritten: %q", body)
	}
	if resp.Header.Get("Content-Security-Policy") == "" {
		t.Error("security headers missing on non-HTML response")
	}
}
