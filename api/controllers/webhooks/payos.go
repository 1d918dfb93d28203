package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/trippio/trippio-backend/api/responses"
	"github.com/trippio/trippio-backend/api/validators"
	payoswebhook "github.com/trippio/trippio-backend/internal/webhooks/payos"
	"github.com/trippio/trippio-backend/pkg/db/models"
	"github.com/trippio/trippio-backend/pkg/enums"
	pkgerrors "github.com/trippio/trippio-backend/pkg/errors"
	"github.com/trippio/trippio-backend/pkg/logger"
	payosapi "github.com/trippio/trippio-backend/pkg/payos"
)

const (
	signatureHeader      = "X-Payos-Signature"
	idempotencyKeyHeader = "Idempotency-Key"

	// Providers cap webhook bodies well under this.
	maxWebhookBody = 1 << 20
)

// PayOSWebhook ingests provider payment notifications. Malformed payloads
// and bad signatures answer 400; once the signature checks out, the provider
// always gets 200 so it stops retrying deliveries we have already logged.
func PayOSWebhook(svc *payoswebhook.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		signature := r.Header.Get(signatureHeader)
		if signature == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "signature header missing"))
			return
		}

		result, err := svc.Process(ctx, payload, signature, r.Header.Get(idempotencyKeyHeader))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteWebhookAck(w, result.Success, result.Message)
	}
}

// PayOSWebhookConfirm answers the provider's dashboard reachability probe.
func PayOSWebhookConfirm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "ok", "provider": payoswebhook.ProviderName})
	}
}

type paymentReconciler interface {
	UpdateStatusByOrderCode(ctx context.Context, orderCode int64, status enums.PaymentStatus) (*models.Payment, error)
}

type providerGateway interface {
	GetPaymentLink(ctx context.Context, orderCode int64) (*payosapi.PaymentLink, error)
	CancelPaymentLink(ctx context.Context, orderCode int64, reason string) (*payosapi.PaymentLink, error)
}

type testWebhookRequest struct {
	OrderCode int64  `json:"orderCode" validate:"required,min=1"`
	Status    string `json:"status" validate:"omitempty,oneof=paid failed refunded"`
}

// PayOSWebhookTest is an authenticated operator escape hatch that reconciles
// a payment without a provider delivery. With an explicit status it forces
// that status; without one it polls the provider and applies whatever the
// provider settled on. Dev and support tooling only; it sits behind the auth
// middleware.
func PayOSWebhookTest(engine paymentReconciler, provider providerGateway, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req testWebhookRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var status enums.PaymentStatus
		if req.Status != "" {
			parsed, err := enums.ParsePaymentStatus(req.Status)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment status"))
				return
			}
			status = parsed
		} else {
			polled, err := pollProviderStatus(ctx, provider, req.OrderCode)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			status = polled
		}

		if status == enums.PaymentStatusFailed && provider != nil {
			// Kill the hosted session so the user cannot pay an order the
			// operator just failed. The local state is already decided.
			if _, err := provider.CancelPaymentLink(ctx, req.OrderCode, "marked failed by operator"); err != nil {
				logg.Warn(logg.WithOrderCode(ctx, req.OrderCode), "failed to cancel provider payment link")
			}
		}

		payment, err := engine.UpdateStatusByOrderCode(ctx, req.OrderCode, status)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}

// pollProviderStatus maps the provider's link state onto a terminal payment
// status. Links still open at the provider have nothing to reconcile yet.
func pollProviderStatus(ctx context.Context, provider providerGateway, orderCode int64) (enums.PaymentStatus, error) {
	if provider == nil {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "payment provider unavailable")
	}
	link, err := provider.GetPaymentLink(ctx, orderCode)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "poll provider payment link")
	}
	switch link.Status {
	case "PAID":
		return enums.PaymentStatusPaid, nil
	case "CANCELLED", "EXPIRED":
		return enums.PaymentStatusFailed, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeConflict, "payment not settled at the provider")
	}
}
