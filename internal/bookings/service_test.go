package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trippio/trippio-backend/pkg/db/models"
	"github.com/trippio/trippio-backend/pkg/enums"
	pkgerrors "github.com/trippio/trippio-backend/pkg/errors"
)

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRepo struct {
	bookings map[uuid.UUID]*models.Booking
	statuses map[uuid.UUID]enums.BookingStatus
}

func newStubRepo() *stubRepo {
	return &stubRepo{bookings: map[uuid.UUID]*models.Booking{}, statuses: map[uuid.UUID]enums.BookingStatus{}}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(_ context.Context, booking *models.Booking) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	s.bookings[booking.ID] = booking
	return nil
}

func (s *stubRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	if booking, ok := s.bookings[id]; ok {
		return booking, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) FindByIDWithDetails(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return s.FindByID(ctx, id)
}

func (s *stubRepo) FindByUser(_ context.Context, userID uuid.UUID) ([]models.Booking, error) {
	var out []models.Booking
	for _, booking := range s.bookings {
		if booking.UserID == userID {
			out = append(out, *booking)
		}
	}
	return out, nil
}

func (s *stubRepo) UpdateStatus(_ context.Context, id uuid.UUID, status enums.BookingStatus) error {
	s.statuses[id] = status
	if booking, ok := s.bookings[id]; ok {
		booking.Status = status
	}
	return nil
}

func newBookingService(t *testing.T) (Service, *stubRepo) {
	t.Helper()
	repo := newStubRepo()
	svc, err := NewService(stubTx{}, repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, repo
}

func accommodationParams(userID uuid.UUID) CreateParams {
	checkIn := time.Date(2026, 10, 1, 14, 0, 0, 0, time.UTC)
	return CreateParams{
		UserID:      userID,
		Type:        enums.BookingTypeAccommodation,
		BookingDate: checkIn,
		TotalAmount: 480000,
		Accommodation: &models.AccommodationDetail{
			PropertyName: "Saigon Riverside",
			CheckIn:      checkIn,
			CheckOut:     checkIn.AddDate(0, 0, 2),
			Guests:       2,
		},
	}
}

func TestCreateBooking(t *testing.T) {
	svc, repo := newBookingService(t)
	userID := uuid.New()

	booking, err := svc.Create(context.Background(), accommodationParams(userID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Status != enums.BookingStatusPending {
		t.Fatalf("new bookings start pending, got %s", booking.Status)
	}
	if booking.AccommodationDetail == nil {
		t.Fatal("detail must be attached")
	}
	if _, ok := repo.bookings[booking.ID]; !ok {
		t.Fatal("booking must be persisted")
	}
}

func TestCreateBookingDefaultsDate(t *testing.T) {
	svc, _ := newBookingService(t)
	params := accommodationParams(uuid.New())
	params.BookingDate = time.Time{}

	booking, err := svc.Create(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.BookingDate.IsZero() {
		t.Fatal("zero booking date must be defaulted")
	}
}

func TestCreateBookingDetailValidation(t *testing.T) {
	svc, _ := newBookingService(t)
	ctx := context.Background()
	userID := uuid.New()

	params := accommodationParams(userID)
	params.Accommodation = nil
	if _, err := svc.Create(ctx, params); err == nil {
		t.Fatal("expected error when no detail is set")
	}

	params = accommodationParams(userID)
	params.Transport = &models.TransportDetail{Carrier: "VN Air", Origin: "SGN", Destination: "HAN"}
	if _, err := svc.Create(ctx, params); err == nil {
		t.Fatal("expected error when two details are set")
	}

	params = accommodationParams(userID)
	params.Type = enums.BookingTypeTransport
	if _, err := svc.Create(ctx, params); err == nil {
		t.Fatal("expected error when detail does not match type")
	}

	params = accommodationParams(userID)
	params.TotalAmount = 0
	if _, err := svc.Create(ctx, params); err == nil {
		t.Fatal("expected error for non-positive amount")
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	svc, _ := newBookingService(t)
	owner := uuid.New()

	booking, err := svc.Create(context.Background(), accommodationParams(owner))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Get(context.Background(), owner, booking.ID); err != nil {
		t.Fatalf("owner must read their booking: %v", err)
	}

	_, err = svc.Get(context.Background(), uuid.New(), booking.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	_, err = svc.Get(context.Background(), owner, uuid.New())
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCancelPendingOnly(t *testing.T) {
	svc, repo := newBookingService(t)
	userID := uuid.New()

	booking, err := svc.Create(context.Background(), accommodationParams(userID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cancelled, err := svc.Cancel(context.Background(), userID, booking.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != enums.BookingStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if repo.statuses[booking.ID] != enums.BookingStatusCancelled {
		t.Fatal("cancellation must be persisted")
	}

	_, err = svc.Cancel(context.Background(), userID, booking.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("cancelled bookings are immutable from this path, got %v", err)
	}
}
