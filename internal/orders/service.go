package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trippio/trippio-backend/internal/basket"
	"github.com/trippio/trippio-backend/pkg/db/models"
	"github.com/trippio/trippio-backend/pkg/enums"
	pkgerrors "github.com/trippio/trippio-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes order use cases. Status transitions other than an explicit
// cancel-while-pending belong to payment reconciliation.
type Service interface {
	CreateFromBasket(ctx context.Context, userID uuid.UUID, b *basket.Basket) (*models.Order, error)
	Get(ctx context.Context, userID uuid.UUID, id int64) (*models.Order, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	Cancel(ctx context.Context, userID uuid.UUID, id int64) (*models.Order, error)
}

type service struct {
	tx   txRunner
	repo Repository
}

// NewService builds the orders service.
func NewService(tx txRunner, repo Repository) (Service, error) {
	if tx == nil {
		return nil, errors.New("tx runner required")
	}
	if repo == nil {
		return nil, errors.New("orders repository required")
	}
	return &service{tx: tx, repo: repo}, nil
}

// CreateFromBasket snapshots the basket into a durable pending order. The
// order's total is the sum of the snapshotted lines, computed here and never
// recomputed later.
func (s *service) CreateFromBasket(ctx context.Context, userID uuid.UUID, b *basket.Basket) (*models.Order, error) {
	if b.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "basket is empty")
	}

	now := time.Now().UTC()
	order := &models.Order{
		UserID:    userID,
		OrderDate: now,
		Status:    enums.OrderStatusPending,
	}
	for _, item := range b.Items {
		lineTotal := item.UnitPrice * int64(item.Quantity)
		order.Items = append(order.Items, models.OrderItem{
			ItemRef:   item.ItemRef,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: lineTotal,
		})
		order.TotalAmount += lineTotal
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, order)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID, id int64) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	orders, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, nil
}

// Cancel moves a pending order to cancelled. Confirmed or already-cancelled
// orders are immutable from this path.
func (s *service) Cancel(ctx context.Context, userID uuid.UUID, id int64) (*models.Order, error) {
	order, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "only pending orders can be cancelled")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).UpdateStatus(ctx, id, enums.OrderStatusCancelled)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}
	order.Status = enums.OrderStatusCancelled
	return order, nil
}
