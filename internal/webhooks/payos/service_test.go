package payos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/trippio/trippio-backend/pkg/db/models"
	"github.com/trippio/trippio-backend/pkg/enums"
	pkgerrors "github.com/trippio/trippio-backend/pkg/errors"
	"github.com/trippio/trippio-backend/pkg/logger"
	payosapi "github.com/trippio/trippio-backend/pkg/payos"
)

const testChecksumKey = "checksum-key"

type stubClaims struct {
	claimed  []string
	released []string
	denied   bool
	err      error
}

func (s *stubClaims) TryClaim(_ context.Context, key string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.claimed = append(s.claimed, key)
	return !s.denied, nil
}

func (s *stubClaims) Release(_ context.Context, key string) error {
	s.released = append(s.released, key)
	return nil
}

type stubEngine struct {
	orderCodes []int64
	statuses   []enums.PaymentStatus
	err        error
}

func (s *stubEngine) UpdateStatusByOrderCode(_ context.Context, orderCode int64, status enums.PaymentStatus) (*models.Payment, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.orderCodes = append(s.orderCodes, orderCode)
	s.statuses = append(s.statuses, status)
	return &models.Payment{Status: status}, nil
}

type webhookFixture struct {
	svc    *Service
	claims *stubClaims
	engine *stubEngine
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	f := &webhookFixture{claims: &stubClaims{}, engine: &stubEngine{}}
	log := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(log, testChecksumKey, f.claims, f.engine, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	f.svc = svc
	return f
}

func signedDelivery(t *testing.T, orderCode, amount int64, resultCode, reference string) (payload []byte, signature string) {
	t.Helper()
	payload = []byte(fmt.Sprintf(`{
		"code": "00",
		"desc": "success",
		"data": {
			"orderCode": %d,
			"amount": %d,
			"code": %q,
			"desc": "result",
			"reference": %q,
			"transactionDateTime": "2026-01-10 12:00:00"
		}
	}`, orderCode, amount, resultCode, reference))
	signature = payosapi.WebhookSignature(testChecksumKey, orderCode, amount, resultCode, reference)
	return payload, signature
}

func TestProcessRejectsMalformedPayload(t *testing.T) {
	f := newWebhookFixture(t)

	_, err := f.svc.Process(context.Background(), []byte(`{`), "sig", "")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProcessRejectsBadSignatureBeforeClaim(t *testing.T) {
	f := newWebhookFixture(t)
	payload, _ := signedDelivery(t, 482913, 250000, "00", "FT230905")

	_, err := f.svc.Process(context.Background(), payload, "deadbeef", "")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(f.claims.claimed) != 0 {
		t.Fatal("unverified deliveries must not reach the idempotency store")
	}
	if len(f.engine.orderCodes) != 0 {
		t.Fatal("unverified deliveries must not reach the engine")
	}
}

func TestProcessAppliesPaidStatus(t *testing.T) {
	f := newWebhookFixture(t)
	payload, sig := signedDelivery(t, 482913, 250000, "00", "FT230905")

	result, err := f.svc.Process(context.Background(), payload, sig, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.Duplicate {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(f.engine.statuses) != 1 || f.engine.statuses[0] != enums.PaymentStatusPaid {
		t.Fatalf("expected paid reconciliation, got %v", f.engine.statuses)
	}
	if f.engine.orderCodes[0] != 482913 {
		t.Fatalf("expected order code 482913, got %d", f.engine.orderCodes[0])
	}
}

func TestProcessNonSuccessResultCodeMeansFailed(t *testing.T) {
	f := newWebhookFixture(t)
	payload, sig := signedDelivery(t, 482913, 250000, "07", "FT230905")

	result, err := f.svc.Process(context.Background(), payload, sig, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("unexpected result %+v", result)
	}
	if f.engine.statuses[0] != enums.PaymentStatusFailed {
		t.Fatalf("expected failed reconciliation, got %s", f.engine.statuses[0])
	}
}

func TestProcessDerivesIdempotencyKey(t *testing.T) {
	f := newWebhookFixture(t)
	payload, sig := signedDelivery(t, 482913, 250000, "00", "FT230905")

	if _, err := f.svc.Process(context.Background(), payload, sig, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.claims.claimed[0] != "482913:00:2026-01-10 12:00:00" {
		t.Fatalf("unexpected derived key %q", f.claims.claimed[0])
	}
}

func TestProcessPrefersHeaderIdempotencyKey(t *testing.T) {
	f := newWebhookFixture(t)
	payload, sig := signedDelivery(t, 482913, 250000, "00", "FT230905")

	if _, err := f.svc.Process(context.Background(), payload, sig, "delivery-42"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.claims.claimed[0] != "delivery-42" {
		t.Fatalf("expected header key, got %q", f.claims.claimed[0])
	}
}

func TestProcessSuppressesDuplicateDelivery(t *testing.T) {
	f := newWebhookFixture(t)
	f.claims.denied = true
	payload, sig := signedDelivery(t, 482913, 250000, "00", "FT230905")

	result, err := f.svc.Process(context.Background(), payload, sig, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || !result.Duplicate {
		t.Fatalf("expected acknowledged duplicate, got %+v", result)
	}
	if len(f.engine.orderCodes) != 0 {
		t.Fatal("duplicates must not reach the engine")
	}
}

func TestProcessClaimStoreFailureAsksForRedelivery(t *testing.T) {
	f := newWebhookFixture(t)
	f.claims.err = errors.New("redis down")
	payload, sig := signedDelivery(t, 482913, 250000, "00", "FT230905")

	result, err := f.svc.Process(context.Background(), payload, sig, "")
	if err != nil {
		t.Fatalf("store failures must still acknowledge: %v", err)
	}
	if result.Success {
		t.Fatal("expected success=false so the provider redelivers")
	}
	if len(f.engine.orderCodes) != 0 {
		t.Fatal("engine must not run without an idempotency claim")
	}
}

func TestProcessOrphanedDeliveryKeepsClaim(t *testing.T) {
	f := newWebhookFixture(t)
	f.engine.err = pkgerrors.New(pkgerrors.CodeNotFound, "no payment for order code")
	payload, sig := signedDelivery(t, 999999, 250000, "00", "FT230905")

	result, err := f.svc.Process(context.Background(), payload, sig, "")
	if err != nil {
		t.Fatalf("orphans must be acknowledged: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success ack for orphan, got %+v", result)
	}
	if len(f.claims.released) != 0 {
		t.Fatal("orphan claims must be kept so retries stay quiet")
	}
}

func TestProcessEngineFailureReleasesClaim(t *testing.T) {
	f := newWebhookFixture(t)
	f.engine.err = pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("db down"), "apply payment status")
	payload, sig := signedDelivery(t, 482913, 250000, "00", "FT230905")

	result, err := f.svc.Process(context.Background(), payload, sig, "")
	if err != nil {
		t.Fatalf("post-signature failures must still acknowledge: %v", err)
	}
	if result.Success {
		t.Fatal("expected success=false after engine failure")
	}
	if len(f.claims.released) != 1 {
		t.Fatal("failed processing must release the claim for retry")
	}
}
