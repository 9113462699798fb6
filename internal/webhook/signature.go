package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/Last-emo-boy/github-bot/internal/errors"
)

// VerifySignature checks the X-Hub-Signature-256 value against the HMAC of
// the raw body. GitHub sends "sha256=<hex digest>". Verification only runs
// when a secret is configured; the open-intake default matches the original
// plugin and is called out as a deployment risk in the README.
func VerifySignature(secret, signature string, rawBody []byte) error {
	const prefix = "sha256="
	if !strings.HasPrefix(signature, prefix) {
		return &errors.ErrInvalidSignature{}
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.TrimPrefix(signature, prefix))) {
		return &errors.ErrInvalidSignature{}
	}
	return nil
}

// Sign computes the X-Hub-Signature-256 value for a body, used by tests.
func Sign(secret string, rawBody []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
