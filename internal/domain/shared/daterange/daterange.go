package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: return must be after pickup")
	ErrMissingDate  = errors.New("daterange: pickup and return dates are required")
	ErrInvalidDate  = errors.New("daterange: invalid date")
)

// ISODate is the wire layout for calendar dates.
const ISODate = "2006-01-02"

// DateRange represents a half-open rental interval [pickup, return).
type DateRange struct {
	Pickup time.Time
	Return time.Time
}

func New(pickup, ret time.Time) (DateRange, error) {
	dr := DateRange{Pickup: pickup, Return: ret}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.Pickup.IsZero() || dr.Return.IsZero() {
		return ErrMissingDate
	}
	if !dr.Return.After(dr.Pickup) {
		return ErrInvalidRange
	}
	if dr.CalendarDays() <= 0 {
		return ErrInvalidRange
	}
	return nil
}

// Complete reports whether both dates are set.
func (dr DateRange) Complete() bool {
	return !dr.Pickup.IsZero() && !dr.Return.IsZero()
}

// CalendarDays counts calendar days between the two dates. Time of day and zone offsets
// are dropped first, so a span crossing a DST switch still yields whole days.
func (dr DateRange) CalendarDays() int {
	if !dr.Complete() {
		return 0
	}
	from := CalendarDate(dr.Pickup)
	to := CalendarDate(dr.Return)
	return int(to.Sub(from) / (24 * time.Hour))
}

// Equal compares the calendar dates of both ends.
func (dr DateRange) Equal(other DateRange) bool {
	return CalendarDate(dr.Pickup).Equal(CalendarDate(other.Pickup)) &&
		CalendarDate(dr.Return).Equal(CalendarDate(other.Return))
}

func (dr DateRange) String() string {
	return FormatDate(dr.Pickup) + "/" + FormatDate(dr.Return)
}

// CalendarDate truncates t to midnight UTC of its own calendar date.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts an ISO calendar date or an RFC3339 timestamp.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrMissingDate
	}
	if t, err := time.Parse(ISODate, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q", ErrInvalidDate, raw)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(ISODate)
}
