package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/trippio/trippio-backend/pkg/enums"
)

// Payment tracks one payment attempt against an order and/or a booking.
// OrderCode is assigned by the provider and, once set, is immutable: it is
// the reconciliation key incoming webhooks are matched on. PaidAt is nil
// until the payment is confirmed paid.
type Payment struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	OrderID       *int64              `gorm:"column:order_id"`
	BookingID     *uuid.UUID          `gorm:"column:booking_id;type:uuid"`
	Amount        int64               `gorm:"column:amount;not null"`
	Method        enums.PaymentMethod `gorm:"column:method;type:text;not null;default:'payos'"`
	PaymentLinkID *string             `gorm:"column:payment_link_id"`
	OrderCode     *int64              `gorm:"column:order_code;uniqueIndex:idx_payments_order_code"`
	Status        enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	PaidAt        *time.Time          `gorm:"column:paid_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
