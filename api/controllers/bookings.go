package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/trippio/trippio-backend/api/responses"
	"github.com/trippio/trippio-backend/api/validators"
	"github.com/trippio/trippio-backend/internal/bookings"
	"github.com/trippio/trippio-backend/pkg/db/models"
	"github.com/trippio/trippio-backend/pkg/enums"
	pkgerrors "github.com/trippio/trippio-backend/pkg/errors"
	"github.com/trippio/trippio-backend/pkg/logger"
)

type accommodationDetailRequest struct {
	PropertyName string    `json:"propertyName" validate:"required,max=255"`
	CheckIn      time.Time `json:"checkIn" validate:"required"`
	CheckOut     time.Time `json:"checkOut" validate:"required"`
	Guests       int       `json:"guests" validate:"min=1"`
}

type transportDetailRequest struct {
	Carrier     string    `json:"carrier" validate:"required,max=255"`
	Origin      string    `json:"origin" validate:"required,max=255"`
	Destination string    `json:"destination" validate:"required,max=255"`
	DepartureAt time.Time `json:"departureAt" validate:"required"`
	Seats       int       `json:"seats" validate:"min=1"`
}

type entertainmentDetailRequest struct {
	Venue     string    `json:"venue" validate:"required,max=255"`
	EventName string    `json:"eventName" validate:"required,max=255"`
	EventAt   time.Time `json:"eventAt" validate:"required"`
	Tickets   int       `json:"tickets" validate:"min=1"`
}

type createBookingRequest struct {
	Type          string                      `json:"type" validate:"required,oneof=accommodation transport entertainment"`
	BookingDate   *time.Time                  `json:"bookingDate"`
	TotalAmount   int64                       `json:"totalAmount" validate:"required,min=1"`
	Accommodation *accommodationDetailRequest `json:"accommodation"`
	Transport     *transportDetailRequest     `json:"transport"`
	Entertainment *entertainmentDetailRequest `json:"entertainment"`
}

func bookingIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "bookingId"))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "bookingId must be a uuid")
	}
	return id, nil
}

// BookingCreate registers a pending reservation for the caller.
func BookingCreate(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := authenticatedUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req createBookingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		bookingType, err := enums.ParseBookingType(req.Type)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown booking type"))
			return
		}

		params := bookings.CreateParams{
			UserID:      userID,
			Type:        bookingType,
			TotalAmount: req.TotalAmount,
		}
		if req.BookingDate != nil {
			params.BookingDate = *req.BookingDate
		}
		if req.Accommodation != nil {
			params.Accommodation = &models.AccommodationDetail{
				PropertyName: req.Accommodation.PropertyName,
				CheckIn:      req.Accommodation.CheckIn,
				CheckOut:     req.Accommodation.CheckOut,
				Guests:       req.Accommodation.Guests,
			}
		}
		if req.Transport != nil {
			params.Transport = &models.TransportDetail{
				Carrier:     req.Transport.Carrier,
				Origin:      req.Transport.Origin,
				Destination: req.Transport.Destination,
				DepartureAt: req.Transport.DepartureAt,
				Seats:       req.Transport.Seats,
			}
		}
		if req.Entertainment != nil {
			params.Entertainment = &models.EntertainmentDetail{
				Venue:     req.Entertainment.Venue,
				EventName: req.Entertainment.EventName,
				EventAt:   req.Entertainment.EventAt,
				Tickets:   req.Entertainment.Tickets,
			}
		}

		booking, err := svc.Create(ctx, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, booking)
	}
}

// BookingList returns the caller's bookings with their details.
func BookingList(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
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

// BookingDetail returns one of the caller's bookings.
func BookingDetail(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := authenticatedUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		id, err := bookingIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		booking, err := svc.Get(ctx, userID, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

// BookingCancel cancels one of the caller's pending bookings.
func BookingCancel(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := authenticatedUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		id, err := bookingIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		booking, err := svc.Cancel(ctx, userID, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}
