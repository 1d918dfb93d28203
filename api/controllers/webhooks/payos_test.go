package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	payoswebhook "github.com/trippio/trippio-backend/internal/webhooks/payos"
	"github.com/trippio/trippio-backend/pkg/db/models"
	"github.com/trippio/trippio-backend/pkg/enums"
	pkgerrors "github.com/trippio/trippio-backend/pkg/errors"
	"github.com/trippio/trippio-backend/pkg/logger"
	payosapi "github.com/trippio/trippio-backend/pkg/payos"
	"github.com/trippio/trippio-backend/pkg/types"
)

const checksumKey = "checksum-key"

type stubClaims struct {
	denied bool
}

func (s *stubClaims) TryClaim(_ context.Context, _ string) (bool, error) { return !s.denied, nil }
func (s *stubClaims) Release(_ context.Context, _ string) error          { return nil }

type stubEngine struct {
	statuses []enums.PaymentStatus
	err      error
}

func (s *stubEngine) UpdateStatusByOrderCode(_ context.Context, _ int64, status enums.PaymentStatus) (*models.Payment, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.statuses = append(s.statuses, status)
	return &models.Payment{Status: status}, nil
}

func newHandler(t *testing.T, claims *stubClaims, engine *stubEngine) http.HandlerFunc {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := payoswebhook.NewService(logg, checksumKey, claims, engine, nil)
	require.NoError(t, err)
	return PayOSWebhook(svc, logg)
}

func delivery(orderCode, amount int64, resultCode, reference string) ([]byte, string) {
	payload := []byte(fmt.Sprintf(`{
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
	return payload, payosapi.WebhookSignature(checksumKey, orderCode, amount, resultCode, reference)
}

func postWebhook(handler http.HandlerFunc, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payos", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set("X-Payos-Signature", signature)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeAck(t *testing.T, rec *httptest.ResponseRecorder) types.WebhookAck {
	t.Helper()
	var ack types.WebhookAck
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	return ack
}

func TestPayOSWebhookMissingSignature(t *testing.T) {
	handler := newHandler(t, &stubClaims{}, &stubEngine{})
	payload, _ := delivery(482913, 250000, "00", "FT230905")

	rec := postWebhook(handler, payload, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, string(pkgerrors.CodeValidation), envelope.Error.Code)
}

func TestPayOSWebhookInvalidSignature(t *testing.T) {
	engine := &stubEngine{}
	handler := newHandler(t, &stubClaims{}, engine)
	payload, _ := delivery(482913, 250000, "00", "FT230905")

	rec := postWebhook(handler, payload, "deadbeef")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, engine.statuses)
}

func TestPayOSWebhookAppliesPayment(t *testing.T) {
	engine := &stubEngine{}
	handler := newHandler(t, &stubClaims{}, engine)
	payload, sig := delivery(482913, 250000, "00", "FT230905")

	rec := postWebhook(handler, payload, sig)
	require.Equal(t, http.StatusOK, rec.Code)

	ack := decodeAck(t, rec)
	require.True(t, ack.Success)
	require.Equal(t, []enums.PaymentStatus{enums.PaymentStatusPaid}, engine.statuses)
}

func TestPayOSWebhookDuplicateStillAcks(t *testing.T) {
	engine := &stubEngine{}
	handler := newHandler(t, &stubClaims{denied: true}, engine)
	payload, sig := delivery(482913, 250000, "00", "FT230905")

	rec := postWebhook(handler, payload, sig)
	require.Equal(t, http.StatusOK, rec.Code)

	ack := decodeAck(t, rec)
	require.True(t, ack.Success)
	require.Empty(t, engine.statuses)
}

type stubProvider struct {
	link      *payosapi.PaymentLink
	getErr    error
	cancelled []int64
}

func (s *stubProvider) GetPaymentLink(_ context.Context, orderCode int64) (*payosapi.PaymentLink, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.link, nil
}

func (s *stubProvider) CancelPaymentLink(_ context.Context, orderCode int64, _ string) (*payosapi.PaymentLink, error) {
	s.cancelled = append(s.cancelled, orderCode)
	return &payosapi.PaymentLink{OrderCode: orderCode, Status: "CANCELLED"}, nil
}

func postWebhookTest(handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payos/test", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestPayOSWebhookTestPollsProviderWhenStatusOmitted(t *testing.T) {
	engine := &stubEngine{}
	provider := &stubProvider{link: &payosapi.PaymentLink{OrderCode: 482913, Status: "PAID"}}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	handler := PayOSWebhookTest(engine, provider, logg)

	rec := postWebhookTest(handler, `{"orderCode":482913}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []enums.PaymentStatus{enums.PaymentStatusPaid}, engine.statuses)
	require.Empty(t, provider.cancelled)
}

func TestPayOSWebhookTestUnsettledProviderStateConflicts(t *testing.T) {
	engine := &stubEngine{}
	provider := &stubProvider{link: &payosapi.PaymentLink{OrderCode: 482913, Status: "PENDING"}}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	handler := PayOSWebhookTest(engine, provider, logg)

	rec := postWebhookTest(handler, `{"orderCode":482913}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Empty(t, engine.statuses)
}

func TestPayOSWebhookTestExpiredLinkMeansFailed(t *testing.T) {
	engine := &stubEngine{}
	provider := &stubProvider{link: &payosapi.PaymentLink{OrderCode: 482913, Status: "EXPIRED"}}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	handler := PayOSWebhookTest(engine, provider, logg)

	rec := postWebhookTest(handler, `{"orderCode":482913}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []enums.PaymentStatus{enums.PaymentStatusFailed}, engine.statuses)
}

func TestPayOSWebhookTestForcedFailureCancelsLink(t *testing.T) {
	engine := &stubEngine{}
	provider := &stubProvider{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	handler := PayOSWebhookTest(engine, provider, logg)

	rec := postWebhookTest(handler, `{"orderCode":482913,"status":"failed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []enums.PaymentStatus{enums.PaymentStatusFailed}, engine.statuses)
	require.Equal(t, []int64{482913}, provider.cancelled)
}

func TestPayOSWebhookEngineFailureAnswers200(t *testing.T) {
	engine := &stubEngine{err: errors.New("db down")}
	handler := newHandler(t, &stubClaims{}, engine)
	payload, sig := delivery(482913, 250000, "00", "FT230905")

	rec := postWebhook(handler, payload, sig)
	require.Equal(t, http.StatusOK, rec.Code)

	ack := decodeAck(t, rec)
	require.False(t, ack.Success)
}
