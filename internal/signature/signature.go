// Package signature verifies HMAC-SHA256 webhook signatures over raw request bodies.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sign returns the lowercase hex HMAC-SHA256 of body keyed by secret.
func Sign(body []byte, secret string) string {
	return hex.EncodeToString(mac(body, secret))
}

// Verify reports whether header carries the signature of body under secret.
// An empty secret disables verification and always succeeds.
func Verify(body []byte, header string, secret string) (ok bool) {
	if secret == "" {
		return true
	}

	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}

	provided, err := hex.DecodeString(header)
	if err != nil {
		return false
	}

	expected := mac(body, secret)
	// digest length is fixed, so a length mismatch reveals nothing about the key
	if len(provided) != len(expected) {
		return false
	}

	return hmac.Equal(provided, expected)
}

func mac(body []byte, secret string) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return h.Sum(nil)
}

// Verifier binds Verify to a secret fixed at startup.
type Verifier struct {
	secret string
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// Enabled is false when no secret is configured and every request is accepted.
func (v *Verifier) Enabled() bool { return v.secret != "" }

func (v *Verifier) Verify(body []byte, header string) bool {
	return Verify(body, header, v.secret)
}
