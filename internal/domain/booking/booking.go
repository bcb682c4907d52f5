package booking

import (
	"errors"
	"strings"
	"time"

	"carrental/internal/domain/shared/daterange"
	"carrental/internal/domain/shared/money"
)

var (
	ErrUnknownStatus = errors.New("booking: unknown status")
	ErrPickupInPast  = errors.New("booking: pickup date is in the past")
)

type BookingID string

type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusActive    Status = "Active"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
	StatusOverdue   Status = "Overdue"
)

var knownStatuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusActive,
	StatusCompleted,
	StatusCancelled,
	StatusOverdue,
}

// ParseStatus maps the backend spelling onto a known status, ignoring case.
func ParseStatus(raw string) (Status, error) {
	raw = strings.TrimSpace(raw)
	for _, s := range knownStatuses {
		if strings.EqualFold(raw, string(s)) {
			return s, nil
		}
	}
	if strings.EqualFold(raw, "canceled") {
		return StatusCancelled, nil
	}
	return "", ErrUnknownStatus
}

// Booking is a read-only snapshot of a backend booking record.
type Booking struct {
	ID              BookingID
	VehicleID       string
	CustomerID      string
	Range           daterange.DateRange
	Status          Status
	CalculatedTotal money.Money
	FinalTotal      money.Money
}

// PickedUp reports whether the vehicle counts as collected: either the backend already
// says so, or the pickup moment has been reached.
func (b Booking) PickedUp(now time.Time) bool {
	if b.Status == StatusActive || b.Status == StatusCompleted {
		return true
	}
	return !now.Before(b.Range.Pickup)
}

// ValidatePickup rejects pickups whose calendar date is before today. Today is taken in
// the pickup's own zone so both dates come from the same wall clock.
func ValidatePickup(pickup, now time.Time) error {
	today := daterange.CalendarDate(now.In(pickup.Location()))
	if daterange.CalendarDate(pickup).Before(today) {
		return ErrPickupInPast
	}
	return nil
}

// Index keys bookings by ID for joining payments against them.
func Index(items []Booking) map[BookingID]Booking {
	out := make(map[BookingID]Booking, len(items))
	for _, b := range items {
		out[b.ID] = b
	}
	return out
}
