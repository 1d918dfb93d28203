package enums

import "fmt"

// BookingStatus mirrors OrderStatus for reservation aggregates.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

var validBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusCancelled,
}

// String implements fmt.Stringer.
func (b BookingStatus) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BookingStatus.
func (b BookingStatus) IsValid() bool {
	for _, candidate := range validBookingStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBookingStatus converts raw input into a BookingStatus.
func ParseBookingStatus(value string) (BookingStatus, error) {
	for _, candidate := range validBookingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid booking status %q", value)
}

// BookingStatusForPayment maps a terminal payment status onto the booking
// status applied in the same transaction.
func BookingStatusForPayment(status PaymentStatus) (BookingStatus, bool) {
	switch status {
	case PaymentStatusPaid:
		return BookingStatusConfirmed, true
	case PaymentStatusFailed, PaymentStatusRefunded:
		return BookingStatusCancelled, true
	}
	return "", false
}
