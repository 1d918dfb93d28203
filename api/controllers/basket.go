package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/trippio/trippio-backend/api/responses"
	"github.com/trippio/trippio-backend/api/validators"
	"github.com/trippio/trippio-backend/internal/basket"
	pkgerrors "github.com/trippio/trippio-backend/pkg/errors"
	"github.com/trippio/trippio-backend/pkg/logger"
)

type basketResponse struct {
	UserID string        `json:"userId"`
	Items  []basket.Item `json:"items"`
	Total  int64         `json:"total"`
}

func toBasketResponse(b *basket.Basket) basketResponse {
	items := b.Items
	if items == nil {
		items = []basket.Item{}
	}
	return basketResponse{
		UserID: b.UserID.String(),
		Items:  items,
		Total:  b.Total(),
	}
}

type addBasketItemRequest struct {
	ItemRef   string `json:"itemRef" validate:"required,uuid"`
	Name      string `json:"name" validate:"required,max=255"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	UnitPrice int64  `json:"unitPrice" validate:"min=0"`
}

type updateBasketItemRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

// BasketFetch returns the caller's basket, empty if none exists yet.
func BasketFetch(svc *basket.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := authenticatedUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		b, err := svc.Get(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toBasketResponse(b))
	}
}

// BasketAddItem appends or merges one line into the caller's basket.
func BasketAddItem(svc *basket.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := authenticatedUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req addBasketItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		itemRef, err := uuid.Parse(req.ItemRef)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "itemRef must be a uuid"))
			return
		}

		b, err := svc.AddItem(ctx, userID, basket.Item{
			ItemRef:   itemRef,
			Name:      req.Name,
			Quantity:  req.Quantity,
			UnitPrice: req.UnitPrice,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toBasketResponse(b))
	}
}

// BasketUpdateItem sets the quantity of one line; zero removes it.
func BasketUpdateItem(svc *basket.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := authenticatedUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		itemRef, err := uuid.Parse(chi.URLParam(r, "itemRef"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "itemRef must be a uuid"))
			return
		}

		var req updateBasketItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		b, err := svc.UpdateQuantity(ctx, userID, itemRef, req.Quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toBasketResponse(b))
	}
}

// BasketRemoveItem drops one line from the caller's basket.
func BasketRemoveItem(svc *basket.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := authenticatedUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		itemRef, err := uuid.Parse(chi.URLParam(r, "itemRef"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "itemRef must be a uuid"))
			return
		}

		b, err := svc.RemoveItem(ctx, userID, itemRef)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toBasketResponse(b))
	}
}

// BasketClear removes the caller's basket entirely.
func BasketClear(svc *basket.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := authenticatedUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.Clear(ctx, userID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}
