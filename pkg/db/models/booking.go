package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/trippio/trippio-backend/pkg/enums"
)

// Booking is a reservation a payment may be attached to. Exactly one
// sub-detail record exists, determined by Type.
type Booking struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	Type        enums.BookingType   `gorm:"column:type;type:text;not null"`
	BookingDate time.Time           `gorm:"column:booking_date;not null"`
	TotalAmount int64               `gorm:"column:total_amount;not null"`
	Status      enums.BookingStatus `gorm:"column:status;type:text;not null;default:'pending'"`

	AccommodationDetail *AccommodationDetail `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`
	TransportDetail     *TransportDetail     `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`
	EntertainmentDetail *EntertainmentDetail `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// AccommodationDetail holds the stay-specific fields of an accommodation booking.
type AccommodationDetail struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID    uuid.UUID `gorm:"column:booking_id;type:uuid;not null;uniqueIndex"`
	PropertyName string    `gorm:"column:property_name;not null"`
	CheckIn      time.Time `gorm:"column:check_in;not null"`
	CheckOut     time.Time `gorm:"column:check_out;not null"`
	Guests       int       `gorm:"column:guests;not null;default:1"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TransportDetail holds the journey-specific fields of a transport booking.
type TransportDetail struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID   uuid.UUID `gorm:"column:booking_id;type:uuid;not null;uniqueIndex"`
	Carrier     string    `gorm:"column:carrier;not null"`
	Origin      string    `gorm:"column:origin;not null"`
	Destination string    `gorm:"column:destination;not null"`
	DepartureAt time.Time `gorm:"column:departure_at;not null"`
	Seats       int       `gorm:"column:seats;not null;default:1"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

// EntertainmentDetail holds the event-specific fields of an entertainment booking.
type EntertainmentDetail struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID uuid.UUID `gorm:"column:booking_id;type:uuid;not null;uniqueIndex"`
	Venue     string    `gorm:"column:venue;not null"`
	EventName string    `gorm:"column:event_name;not null"`
	EventAt   time.Time `gorm:"column:event_at;not null"`
	Tickets   int       `gorm:"column:tickets;not null;default:1"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
