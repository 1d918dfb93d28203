package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/trippio/trippio-backend/pkg/enums"
)

// Order is the purchase record created atomically from a basket snapshot.
// TotalAmount equals the sum of its line items at creation time; status
// changes come only from payment reconciliation or an explicit user cancel.
type Order struct {
	ID          int64             `gorm:"column:id;primaryKey;autoIncrement"`
	UserID      uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	OrderDate   time.Time         `gorm:"column:order_date;not null"`
	TotalAmount int64             `gorm:"column:total_amount;not null"`
	Status      enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Items       []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments    []Payment         `gorm:"foreignKey:OrderID"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
