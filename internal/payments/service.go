package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trippio/trippio-backend/internal/bookings"
	"github.com/trippio/trippio-backend/internal/orders"
	"github.com/trippio/trippio-backend/pkg/db"
	"github.com/trippio/trippio-backend/pkg/db/models"
	"github.com/trippio/trippio-backend/pkg/enums"
	pkgerrors "github.com/trippio/trippio-backend/pkg/errors"
	"github.com/trippio/trippio-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateParams captures a new payment attempt, usually produced by checkout
// after the provider has issued a payment link.
type CreateParams struct {
	UserID        uuid.UUID
	OrderID       *int64
	BookingID     *uuid.UUID
	Amount        int64
	Method        enums.PaymentMethod
	PaymentLinkID *string
	OrderCode     *int64
}

// Service is the payment lifecycle engine. UpdateStatusByOrderCode is the
// reconciliation entry point: it applies a terminal status to the payment and
// cascades the matching status to the linked order and booking inside one
// transaction.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*models.Payment, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Payment, error)
	GetByOrderCode(ctx context.Context, userID uuid.UUID, orderCode int64) (*models.Payment, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Payment, error)
	ListByOrder(ctx context.Context, userID uuid.UUID, orderID int64) ([]models.Payment, error)
	ListByBooking(ctx context.Context, userID, bookingID uuid.UUID) ([]models.Payment, error)
	UpdateStatusByOrderCode(ctx context.Context, orderCode int64, status enums.PaymentStatus) (*models.Payment, error)
	Refund(ctx context.Context, userID, id uuid.UUID, amount int64) (*models.Payment, error)
	TotalCollectedBetween(ctx context.Context, from, to time.Time) (int64, error)
}

type service struct {
	log      *logger.Logger
	tx       txRunner
	repo     Repository
	orders   orders.Repository
	bookings bookings.Repository
}

// NewService builds the payments engine.
func NewService(
	log *logger.Logger,
	tx txRunner,
	repo Repository,
	orderRepo orders.Repository,
	bookingRepo bookings.Repository,
) (Service, error) {
	if log == nil {
		return nil, errors.New("logger required")
	}
	if tx == nil {
		return nil, errors.New("tx runner required")
	}
	if repo == nil {
		return nil, errors.New("payments repository required")
	}
	if orderRepo == nil {
		return nil, errors.New("orders repository required")
	}
	if bookingRepo == nil {
		return nil, errors.New("bookings repository required")
	}
	return &service{
		log:      log,
		tx:       tx,
		repo:     repo,
		orders:   orderRepo,
		bookings: bookingRepo,
	}, nil
}

func (s *service) Create(ctx context.Context, params CreateParams) (*models.Payment, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if params.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if params.OrderID == nil && params.BookingID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment must reference an order or a booking")
	}
	method := params.Method
	if method == "" {
		method = enums.PaymentMethodPayOS
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}

	payment := &models.Payment{
		UserID:        params.UserID,
		OrderID:       params.OrderID,
		BookingID:     params.BookingID,
		Amount:        params.Amount,
		Method:        method,
		PaymentLinkID: params.PaymentLinkID,
		OrderCode:     params.OrderCode,
		Status:        enums.PaymentStatusPending,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, payment)
	})
	if err != nil {
		if db.IsUniqueViolation(err, "idx_payments_order_code") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order code already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment")
	}
	return payment, nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payment belongs to another user")
	}
	return payment, nil
}

// GetByOrderCode looks a payment up by its provider order code. Clients use
// this to poll status while waiting for the redirect after paying.
func (s *service) GetByOrderCode(ctx context.Context, userID uuid.UUID, orderCode int64) (*models.Payment, error) {
	if orderCode <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order code must be positive")
	}
	payment, err := s.repo.FindByOrderCode(ctx, orderCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment by order code")
	}
	if payment.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payment belongs to another user")
	}
	return payment, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Payment, error) {
	payments, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return payments, nil
}

func (s *service) ListByOrder(ctx context.Context, userID uuid.UUID, orderID int64) ([]models.Payment, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	payments, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments for order")
	}
	return payments, nil
}

func (s *service) ListByBooking(ctx context.Context, userID, bookingID uuid.UUID) ([]models.Payment, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if booking.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "booking belongs to another user")
	}
	payments, err := s.repo.FindByBooking(ctx, bookingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments for booking")
	}
	return payments, nil
}

// UpdateStatusByOrderCode reconciles a provider result onto the payment keyed
// by orderCode. Payment, order and booking updates commit or roll back as one
// unit. A missing linked order or booking is logged and skipped rather than
// failing the payment update. Repeated deliveries of the same terminal status
// are a no-op; a later distinct terminal status overwrites the earlier one.
func (s *service) UpdateStatusByOrderCode(ctx context.Context, orderCode int64, status enums.PaymentStatus) (*models.Payment, error) {
	if !status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reconciliation status must be terminal")
	}

	ctx = s.log.WithOrderCode(ctx, orderCode)

	payment, err := s.repo.FindByOrderCode(ctx, orderCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no payment for order code")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment by order code")
	}
	ctx = s.log.WithPaymentID(ctx, payment.ID.String())

	if payment.Status == status {
		s.log.Info(ctx, "payment already in target status, skipping")
		return payment, nil
	}

	now := time.Now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		payment.Status = status
		switch status {
		case enums.PaymentStatusPaid:
			if payment.PaidAt == nil {
				payment.PaidAt = &now
			}
		case enums.PaymentStatusFailed:
			// A failed result supersedes an earlier paid one; the payment
			// was never settled, so the paid timestamp goes with it.
			payment.PaidAt = nil
		}
		if err := s.repo.WithTx(tx).Update(ctx, payment); err != nil {
			return err
		}
		if err := s.cascadeOrder(ctx, tx, payment, status); err != nil {
			return err
		}
		return s.cascadeBooking(ctx, tx, payment, status)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply payment status")
	}

	s.log.Info(ctx, "payment status reconciled to "+status.String())
	return payment, nil
}

func (s *service) cascadeOrder(ctx context.Context, tx *gorm.DB, payment *models.Payment, status enums.PaymentStatus) error {
	if payment.OrderID == nil {
		return nil
	}
	orderStatus, ok := enums.OrderStatusForPayment(status)
	if !ok {
		return nil
	}

	repo := s.orders.WithTx(tx)
	if _, err := repo.FindByID(ctx, *payment.OrderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn(ctx, "payment references a missing order, skipping cascade")
			return nil
		}
		return err
	}
	return repo.UpdateStatus(ctx, *payment.OrderID, orderStatus)
}

func (s *service) cascadeBooking(ctx context.Context, tx *gorm.DB, payment *models.Payment, status enums.PaymentStatus) error {
	if payment.BookingID == nil {
		return nil
	}
	bookingStatus, ok := enums.BookingStatusForPayment(status)
	if !ok {
		return nil
	}

	repo := s.bookings.WithTx(tx)
	if _, err := repo.FindByID(ctx, *payment.BookingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn(ctx, "payment references a missing booking, skipping cascade")
			return nil
		}
		return err
	}
	return repo.UpdateStatus(ctx, *payment.BookingID, bookingStatus)
}

// Refund marks a paid payment refunded and cancels the linked order and
// booking. Partial refunds are accepted up to the captured amount but the
// payment record itself flips to refunded either way.
func (s *service) Refund(ctx context.Context, userID, id uuid.UUID, amount int64) (*models.Payment, error) {
	payment, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if payment.Status != enums.PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "only paid payments can be refunded")
	}
	if amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}
	if amount > payment.Amount {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "refund amount exceeds captured amount")
	}

	ctx = s.log.WithPaymentID(ctx, payment.ID.String())

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		payment.Status = enums.PaymentStatusRefunded
		if err := s.repo.WithTx(tx).Update(ctx, payment); err != nil {
			return err
		}
		if err := s.cascadeOrder(ctx, tx, payment, enums.PaymentStatusRefunded); err != nil {
			return err
		}
		return s.cascadeBooking(ctx, tx, payment, enums.PaymentStatusRefunded)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply refund")
	}

	s.log.Info(ctx, "payment refunded")
	return payment, nil
}

func (s *service) TotalCollectedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	if !to.After(from) {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid time range")
	}
	total, err := s.repo.SumPaidBetween(ctx, from, to)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum paid payments")
	}
	return total, nil
}
