package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem captures the snapshot of one basket line inside an order.
type OrderItem struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID   int64     `gorm:"column:order_id;not null"`
	ItemRef   uuid.UUID `gorm:"column:item_ref;type:uuid;not null"`
	Name      string    `gorm:"column:name;not null"`
	Quantity  int       `gorm:"column:quantity;not null"`
	UnitPrice int64     `gorm:"column:unit_price;not null"`
	LineTotal int64     `gorm:"column:line_total;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
