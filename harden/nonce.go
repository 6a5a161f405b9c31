package harden

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/pkg/errors"
)

const nonceBytes = 16

// ProvideNonce produces the single nonce value for the current run.
//
// During the interactive serve phase the nonce is drawn from a
// cryptographically secure source and encoded in the URL-safe base64
// alphabet. One value is minted per server process and shared across all
// requests for its lifetime; per-request nonces are the fronting server's
// job in placeholder-substituted deployments.
//
// During the bundle phase the configured placeholder is returned verbatim so
// that a downstream web server can substitute a real per-response value.
func ProvideNonce(phase Phase, cfg *Config) (string, error) {
	if phase == PhaseBundle {
		return cfg.Placeholder, nil
	}
	buf := make([]byte, nonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "could not generate nonce")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
