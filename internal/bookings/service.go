package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trippio/trippio-backend/pkg/db/models"
	"github.com/trippio/trippio-backend/pkg/enums"
	pkgerrors "github.com/trippio/trippio-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateParams captures a new reservation. Exactly one detail field must be
// set and it must match Type.
type CreateParams struct {
	UserID      uuid.UUID
	Type        enums.BookingType
	BookingDate time.Time
	TotalAmount int64

	Accommodation *models.AccommodationDetail
	Transport     *models.TransportDetail
	Entertainment *models.EntertainmentDetail
}

// Service exposes booking use cases. Status transitions other than an
// explicit cancel-while-pending belong to payment reconciliation.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*models.Booking, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Booking, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Booking, error)
	Cancel(ctx context.Context, userID, id uuid.UUID) (*models.Booking, error)
}

type service struct {
	tx   txRunner
	repo Repository
}

// NewService builds the bookings service.
func NewService(tx txRunner, repo Repository) (Service, error) {
	if tx == nil {
		return nil, errors.New("tx runner required")
	}
	if repo == nil {
		return nil, errors.New("bookings repository required")
	}
	return &service{tx: tx, repo: repo}, nil
}

func (s *service) Create(ctx context.Context, params CreateParams) (*models.Booking, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !params.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown booking type")
	}
	if params.TotalAmount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total amount must be positive")
	}
	if err := validateDetail(params); err != nil {
		return nil, err
	}

	booking := &models.Booking{
		UserID:              params.UserID,
		Type:                params.Type,
		BookingDate:         params.BookingDate,
		TotalAmount:         params.TotalAmount,
		Status:              enums.BookingStatusPending,
		AccommodationDetail: params.Accommodation,
		TransportDetail:     params.Transport,
		EntertainmentDetail: params.Entertainment,
	}
	if booking.BookingDate.IsZero() {
		booking.BookingDate = time.Now().UTC()
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, booking)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist booking")
	}
	return booking, nil
}

func validateDetail(params CreateParams) error {
	count := 0
	if params.Accommodation != nil {
		count++
	}
	if params.Transport != nil {
		count++
	}
	if params.Entertainment != nil {
		count++
	}
	if count != 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "exactly one booking detail is required")
	}

	switch params.Type {
	case enums.BookingTypeAccommodation:
		if params.Accommodation == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "accommodation detail required for accommodation booking")
		}
	case enums.BookingTypeTransport:
		if params.Transport == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "transport detail required for transport booking")
		}
	case enums.BookingTypeEntertainment:
		if params.Entertainment == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "entertainment detail required for entertainment booking")
		}
	}
	return nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.repo.FindByIDWithDetails(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if booking.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "booking belongs to another user")
	}
	return booking, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	bookings, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}
	return bookings, nil
}

// Cancel moves a pending booking to cancelled.
func (s *service) Cancel(ctx context.Context, userID, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != enums.BookingStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "only pending bookings can be cancelled")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).UpdateStatus(ctx, id, enums.BookingStatusCancelled)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel booking")
	}
	booking.Status = enums.BookingStatusCancelled
	return booking, nil
}
