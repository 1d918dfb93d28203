package payos

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// WebhookSignature computes the lowercase-hex HMAC-SHA256 digest the provider
// attaches to webhook deliveries. The signed string is the pipe-joined tuple
// the provider echoes back: orderCode|amount|code|reference.
func WebhookSignature(secret string, orderCode, amount int64, code, reference string) string {
	base := fmt.Sprintf("%d|%d|%s|%s", orderCode, amount, code, reference)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(base))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature compares the caller-supplied signature against the
// expected digest in constant time. Comparison is exact: lowercase hex
// against lowercase hex, no case folding.
func VerifyWebhookSignature(secret, signature string, orderCode, amount int64, code, reference string) bool {
	expected := WebhookSignature(secret, orderCode, amount, code, reference)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// requestSignature signs an outbound create-link request the way the
// merchant API expects: HMAC-SHA256 over the alphabetically ordered
// key=value pairs of the core fields.
func requestSignature(secret string, params CreateLinkParams) string {
	pairs := map[string]string{
		"amount":      fmt.Sprintf("%d", params.Amount),
		"cancelUrl":   params.CancelURL,
		"description": params.Description,
		"orderCode":   fmt.Sprintf("%d", params.OrderCode),
		"returnUrl":   params.ReturnURL,
	}
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+pairs[k])
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(parts, "&")))
	return hex.EncodeToString(mac.Sum(nil))
}
