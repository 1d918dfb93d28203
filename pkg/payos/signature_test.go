package payos

import (
	"strings"
	"testing"
)

func TestWebhookSignatureDeterministic(t *testing.T) {
	sig := WebhookSignature("secret", 482913, 250000, "00", "FT230905")
	if sig != WebhookSignature("secret", 482913, 250000, "00", "FT230905") {
		t.Fatal("expected stable digest for identical inputs")
	}
	if len(sig) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(sig))
	}
	if sig != strings.ToLower(sig) {
		t.Fatal("expected lowercase hex digest")
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	secret := "checksum-key"
	sig := WebhookSignature(secret, 482913, 250000, "00", "FT230905")

	if !VerifyWebhookSignature(secret, sig, 482913, 250000, "00", "FT230905") {
		t.Fatal("expected valid signature to verify")
	}

	// Any signed field changing must break verification.
	if VerifyWebhookSignature(secret, sig, 482914, 250000, "00", "FT230905") {
		t.Fatal("order code mutation must fail")
	}
	if VerifyWebhookSignature(secret, sig, 482913, 250001, "00", "FT230905") {
		t.Fatal("amount mutation must fail")
	}
	if VerifyWebhookSignature(secret, sig, 482913, 250000, "01", "FT230905") {
		t.Fatal("result code mutation must fail")
	}
	if VerifyWebhookSignature(secret, sig, 482913, 250000, "00", "FT230906") {
		t.Fatal("reference mutation must fail")
	}
	if VerifyWebhookSignature("other-key", sig, 482913, 250000, "00", "FT230905") {
		t.Fatal("wrong secret must fail")
	}
}

func TestVerifyWebhookSignatureIsCaseExact(t *testing.T) {
	secret := "checksum-key"
	sig := WebhookSignature(secret, 1, 2000, "00", "ref")
	upper := strings.ToUpper(sig)
	if sig != upper && VerifyWebhookSignature(secret, upper, 1, 2000, "00", "ref") {
		t.Fatal("uppercase digest must not verify")
	}
}
