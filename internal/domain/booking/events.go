package booking

import (
	"time"

	"carrental/internal/domain/shared/daterange"
	"carrental/internal/domain/shared/money"
)

type BookingSubmitted struct {
	BookingID  BookingID
	VehicleID  string
	CustomerID string
	Range      daterange.DateRange
	Total      money.Money
	PaymentID  string
	At         time.Time
}

func (e BookingSubmitted) EventName() string     { return "booking.submitted" }
func (e BookingSubmitted) AggregateID() string   { return string(e.BookingID) }
func (e BookingSubmitted) OccurredAt() time.Time { return e.At }
