package controllers

import (
	"net/http"

	"github.com/trippio/trippio-backend/api/responses"
	"github.com/trippio/trippio-backend/api/validators"
	"github.com/trippio/trippio-backend/internal/checkout"
	"github.com/trippio/trippio-backend/pkg/enums"
	pkgerrors "github.com/trippio/trippio-backend/pkg/errors"
	"github.com/trippio/trippio-backend/pkg/logger"
)

type checkoutRequest struct {
	Platform   string `json:"platform" validate:"omitempty,oneof=web mobile"`
	BuyerName  string `json:"buyerName" validate:"omitempty,max=255"`
	BuyerEmail string `json:"buyerEmail" validate:"omitempty,email"`
	BuyerPhone string `json:"buyerPhone" validate:"omitempty,max=32"`
}

// Checkout converts the caller's basket into an order and a hosted payment
// session.
func Checkout(svc *checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := authenticatedUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		platform := enums.PlatformWeb
		if req.Platform != "" {
			parsed, err := enums.ParsePlatform(req.Platform)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown platform"))
				return
			}
			platform = parsed
		}

		result, err := svc.Start(ctx, userID, checkout.StartParams{
			Platform: platform,
			Buyer: checkout.Buyer{
				Name:  req.BuyerName,
				Email: req.BuyerEmail,
				Phone: req.BuyerPhone,
			},
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
