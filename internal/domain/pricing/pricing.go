package pricing

import (
	"errors"
	"time"

	"carrental/internal/domain/shared/daterange"
	"carrental/internal/domain/shared/money"
)

var (
	ErrNegativeRate  = errors.New("pricing: daily rate cannot be negative")
	ErrCurrencyUnset = errors.New("pricing: currency must be defined")
)

// RentalQuote is the derived price of renting one vehicle for a date range.
type RentalQuote struct {
	PickupDate time.Time
	ReturnDate time.Time
	DailyRate  money.Money
	RentalDays int
	Total      money.Money
}

// ComputeQuote derives rental days and total. A range that does not span at least one
// calendar day yields a zero quote that is not actionable.
func ComputeQuote(pickup, ret time.Time, dailyRate money.Money) (RentalQuote, error) {
	if dailyRate.Currency == "" {
		return RentalQuote{}, ErrCurrencyUnset
	}
	if dailyRate.Amount < 0 {
		return RentalQuote{}, ErrNegativeRate
	}
	q := RentalQuote{
		PickupDate: pickup,
		ReturnDate: ret,
		DailyRate:  dailyRate,
		Total:      money.Money{Currency: dailyRate.Currency},
	}
	dr := daterange.DateRange{Pickup: pickup, Return: ret}
	if dr.Validate() != nil {
		return q, nil
	}
	q.RentalDays = dr.CalendarDays()
	q.Total = dailyRate.Multiply(int64(q.RentalDays))
	return q, nil
}

// Actionable reports whether the quote may be used to submit a booking.
func (q RentalQuote) Actionable() bool {
	return q.RentalDays > 0
}

func (q RentalQuote) Range() daterange.DateRange {
	return daterange.DateRange{Pickup: q.PickupDate, Return: q.ReturnDate}
}
