package payos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/trippio/trippio-backend/pkg/db/models"
	"github.com/trippio/trippio-backend/pkg/enums"
	pkgerrors "github.com/trippio/trippio-backend/pkg/errors"
	"github.com/trippio/trippio-backend/pkg/logger"
	"github.com/trippio/trippio-backend/pkg/metrics"
	payosapi "github.com/trippio/trippio-backend/pkg/payos"
)

// ProviderName labels metrics and logs for this webhook source.
const ProviderName = "payos"

type paymentEngine interface {
	UpdateStatusByOrderCode(ctx context.Context, orderCode int64, status enums.PaymentStatus) (*models.Payment, error)
}

type claimStore interface {
	TryClaim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// Result is the outcome of one webhook delivery. Anything after a valid
// signature answers HTTP 200; Success=false tells the provider the delivery
// was received but not applied.
type Result struct {
	Success   bool
	Duplicate bool
	Message   string
}

// Service verifies and applies PayOS payment notifications.
type Service struct {
	log         *logger.Logger
	checksumKey string
	claims      claimStore
	engine      paymentEngine
	metrics     *metrics.WebhookMetrics
}

// NewService builds the webhook processor. checksumKey is the shared secret
// deliveries are signed with.
func NewService(
	log *logger.Logger,
	checksumKey string,
	claims claimStore,
	engine paymentEngine,
	webhookMetrics *metrics.WebhookMetrics,
) (*Service, error) {
	if log == nil {
		return nil, errors.New("logger required")
	}
	if strings.TrimSpace(checksumKey) == "" {
		return nil, errors.New("checksum key required")
	}
	if claims == nil {
		return nil, errors.New("idempotency store required")
	}
	if engine == nil {
		return nil, errors.New("payment engine required")
	}
	return &Service{
		log:         log,
		checksumKey: checksumKey,
		claims:      claims,
		engine:      engine,
		metrics:     webhookMetrics,
	}, nil
}

// Process handles one raw delivery. Validation errors (malformed payload,
// bad signature) return a coded error the HTTP layer maps to 400; everything
// after the signature check acknowledges the delivery.
func (s *Service) Process(ctx context.Context, payload []byte, signature, idempotencyKey string) (*Result, error) {
	event, err := payosapi.ParseWebhookEvent(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook payload")
	}
	data := event.Data
	ctx = s.log.WithOrderCode(ctx, data.OrderCode)

	// Signature first. An attacker must never reach the idempotency store,
	// let alone the engine.
	if !payosapi.VerifyWebhookSignature(s.checksumKey, signature, data.OrderCode, data.Amount, data.Code, data.Reference) {
		expected := payosapi.WebhookSignature(s.checksumKey, data.OrderCode, data.Amount, data.Code, data.Reference)
		s.log.Warn(s.log.WithFields(ctx, map[string]any{
			"expected_signature": expected,
			"received_signature": signature,
		}), "webhook signature mismatch")
		s.metrics.IncInvalidSignature(ProviderName)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid webhook signature")
	}

	key := strings.TrimSpace(idempotencyKey)
	if key == "" {
		key = fmt.Sprintf("%d:%s:%s", data.OrderCode, data.Code, data.TransactionDateTime)
	}

	claimed, err := s.claims.TryClaim(ctx, key)
	if err != nil {
		// Can't prove this delivery is new. Answer success=false so the
		// provider redelivers once the store is healthy.
		s.log.Error(ctx, "idempotency claim failed", err)
		s.metrics.IncFailure(ProviderName)
		return &Result{Success: false, Message: "temporarily unable to process"}, nil
	}
	if !claimed {
		s.log.Info(ctx, "duplicate webhook delivery suppressed")
		s.metrics.IncDuplicate(ProviderName)
		return &Result{Success: true, Duplicate: true, Message: "already processed"}, nil
	}

	status := enums.PaymentStatusFailed
	if event.Succeeded() {
		status = enums.PaymentStatusPaid
	}

	if _, err := s.engine.UpdateStatusByOrderCode(ctx, data.OrderCode, status); err != nil {
		if coded := pkgerrors.As(err); coded != nil && coded.Code() == pkgerrors.CodeNotFound {
			// Delivery outran the local payment write, or the code was
			// never ours. Keep the claim so retries stay quiet.
			s.log.Warn(ctx, "orphaned webhook, no payment for order code")
			s.metrics.IncOrphaned(ProviderName)
			return &Result{Success: true, Message: "no payment for order code"}, nil
		}

		// The state transition did not happen. Drop the claim so the
		// provider's retry can try again.
		if releaseErr := s.claims.Release(ctx, key); releaseErr != nil {
			s.log.Error(ctx, "failed to release idempotency claim", releaseErr)
		}
		s.log.Error(ctx, "webhook processing failed", err)
		s.metrics.IncFailure(ProviderName)
		return &Result{Success: false, Message: "processing failed"}, nil
	}

	s.log.Info(ctx, "webhook reconciled payment to "+status.String())
	s.metrics.IncProcessed(ProviderName)
	return &Result{Success: true, Message: "processed"}, nil
}
