package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/trippio/trippio-backend/api/responses"
	"github.com/trippio/trippio-backend/api/validators"
	"github.com/trippio/trippio-backend/internal/payments"
	pkgerrors "github.com/trippio/trippio-backend/pkg/errors"
	"github.com/trippio/trippio-backend/pkg/logger"
)

type refundRequest struct {
	Amount int64 `json:"amount" validate:"required,min=1"`
}

func paymentIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "paymentId"))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "paymentId must be a uuid")
	}
	return id, nil
}

// PaymentList returns the caller's payments, newest first.
func PaymentList(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := authenticatedUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := svc.List(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// PaymentDetail returns one of the caller's payments.
func PaymentDetail(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := authenticatedUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		id, err := paymentIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		payment, err := svc.Get(ctx, userID, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}

// PaymentByOrderCode resolves a payment from its provider order code, the
// value the hosted checkout page exposes to the client.
func PaymentByOrderCode(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := authenticatedUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		orderCode, err := strconv.ParseInt(chi.URLParam(r, "orderCode"), 10, 64)
		if err != nil || orderCode <= 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "orderCode must be a positive integer"))
			return
		}
		payment, err := svc.GetByOrderCode(ctx, userID, orderCode)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}

// PaymentsByOrder returns the payments attached to one of the caller's orders.
func PaymentsByOrder(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := authenticatedUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		orderID, err := strconv.ParseInt(chi.URLParam(r, "orderId"), 10, 64)
		if err != nil || orderID <= 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "orderId must be a positive integer"))
			return
		}
		result, err := svc.ListByOrder(ctx, userID, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// PaymentsByBooking returns the payments attached to one of the caller's
// bookings.
func PaymentsByBooking(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := authenticatedUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		bookingID, err := bookingIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := svc.ListByBooking(ctx, userID, bookingID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// PaymentRefund flips a paid payment to refunded and cancels the linked
// order and booking.
func PaymentRefund(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := authenticatedUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		id, err := paymentIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req refundRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payment, err := svc.Refund(ctx, userID, id, req.Amount)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}
