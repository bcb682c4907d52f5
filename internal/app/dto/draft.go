package dto

import (
	domainavailability "carrental/internal/domain/availability"
	"carrental/internal/domain/pricing"
	"carrental/internal/domain/shared/daterange"
)

type Quote struct {
	PickupDate string   `json:"pickup_date,omitempty"`
	ReturnDate string   `json:"return_date,omitempty"`
	RentalDays int      `json:"rental_days"`
	DailyRate  MoneyDTO `json:"daily_rate"`
	Total      MoneyDTO `json:"total"`
	Valid      bool     `json:"valid"`
}

func QuoteFrom(q pricing.RentalQuote) Quote {
	return Quote{
		PickupDate: daterange.FormatDate(q.PickupDate),
		ReturnDate: daterange.FormatDate(q.ReturnDate),
		RentalDays: q.RentalDays,
		DailyRate:  Money(q.DailyRate),
		Total:      Money(q.Total),
		Valid:      q.Actionable(),
	}
}

type Availability struct {
	State    string `json:"state"`
	Checking bool   `json:"checking"`
	Message  string `json:"message,omitempty"`
}

func AvailabilityFrom(s domainavailability.Snapshot) Availability {
	return Availability{State: string(s.State), Checking: s.InFlight(), Message: s.Message()}
}

type Submission struct {
	BookingID     string   `json:"booking_id"`
	BookingStatus string   `json:"booking_status"`
	PaymentID     string   `json:"payment_id"`
	PaymentStatus string   `json:"payment_status"`
	Amount        MoneyDTO `json:"amount"`
}

// DraftView is what the booking form renders. The quote is always present, whatever the
// availability state.
type DraftView struct {
	ID              string       `json:"id"`
	VehicleID       string       `json:"vehicle_id"`
	ModelID         string       `json:"model_id,omitempty"`
	Quote           Quote        `json:"quote"`
	Availability    Availability `json:"availability"`
	ValidationError string       `json:"validation_error,omitempty"`
	CanSubmit       bool         `json:"can_submit"`
	Submitting      bool         `json:"submitting"`
	Submission      *Submission  `json:"submission,omitempty"`
}
