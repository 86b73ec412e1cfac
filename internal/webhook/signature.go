package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// VerifySignature checks that signature is the base64 HMAC-SHA256 of the
// raw request body keyed by the channel secret. The body must be the
// exact bytes as received; re-encoding the JSON breaks the check.
// Fails closed: missing secret or signature is never authentic.
func VerifySignature(body []byte, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
