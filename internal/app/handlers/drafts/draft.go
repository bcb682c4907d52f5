package drafts

import (
	"context"
	"errors"
	"sync"
	"time"

	"carrental/internal/app/dto"
	"carrental/internal/app/policies"
	domainavailability "carrental/internal/domain/availability"
	domainbooking "carrental/internal/domain/booking"
	"carrental/internal/domain/pricing"
	"carrental/internal/domain/shared/daterange"
	"carrental/internal/domain/shared/events"
	"carrental/internal/domain/shared/money"
)

var (
	ErrDraftNotFound      = errors.New("drafts: draft not found")
	ErrSubmissionInFlight = errors.New("drafts: booking submission already in progress")
	ErrAlreadySubmitted   = errors.New("drafts: booking already submitted")
	ErrQuoteNotActionable = errors.New("drafts: select a return date after the pickup date")
)

// Store keeps open booking drafts.
type Store interface {
	Save(ctx context.Context, d *Draft) error
	ByID(ctx context.Context, id string) (*Draft, error)
}

// Draft is the server side state of one booking form: the chosen vehicle, the dates,
// the derived quote and the availability gate guarding submission.
type Draft struct {
	ID             string
	OwnerID        string
	VehicleID      string
	ModelID        string
	PickupBranchID string
	ReturnBranchID string
	PaymentMethod  string
	Notes          string
	DailyRate      money.Money
	CreatedAt      time.Time

	mu            sync.Mutex
	rng           daterange.DateRange
	quote         pricing.RentalQuote
	validationErr error
	gate          *domainavailability.Gate
	submitting    bool
	submitted     *policies.InitiateBookingResult
	events.EventRecorder
}

func newDraft(id, owner string, cmd OpenCommand, now time.Time) *Draft {
	d := &Draft{
		ID:             id,
		OwnerID:        owner,
		VehicleID:      cmd.VehicleID,
		ModelID:        cmd.ModelID,
		PickupBranchID: cmd.PickupBranchID,
		ReturnBranchID: cmd.ReturnBranchID,
		PaymentMethod:  cmd.PaymentMethod,
		Notes:          cmd.Notes,
		DailyRate:      cmd.DailyRate,
		CreatedAt:      now.UTC(),
		gate:           domainavailability.NewGate(),
	}
	d.quote, _ = pricing.ComputeQuote(time.Time{}, time.Time{}, cmd.DailyRate)
	return d
}

// Expired reports whether the draft is older than ttl.
func (d *Draft) Expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(d.CreatedAt) > ttl
}

// setDates recomputes the quote and returns the ticket of the availability check to
// run, if any. Callers hold d.mu.
func (d *Draft) setDates(dr daterange.DateRange, now time.Time) (domainavailability.Ticket, bool, error) {
	quote, err := pricing.ComputeQuote(dr.Pickup, dr.Return, d.DailyRate)
	if err != nil {
		return domainavailability.Ticket{}, false, err
	}
	d.rng = dr
	d.quote = quote
	d.validationErr = nil
	if !dr.Complete() {
		d.gate.Invalidate()
		return domainavailability.Ticket{}, false, nil
	}
	if err := domainbooking.ValidatePickup(dr.Pickup, now); err != nil {
		d.validationErr = err
	} else if !quote.Actionable() {
		d.validationErr = ErrQuoteNotActionable
	}
	if d.validationErr != nil {
		d.gate.Invalidate()
		return domainavailability.Ticket{}, false, nil
	}
	return d.gate.Begin(dr), true, nil
}

// submitBlocker returns the reason the draft cannot be submitted right now. Callers hold d.mu.
func (d *Draft) submitBlocker(now time.Time) error {
	if d.submitting {
		return ErrSubmissionInFlight
	}
	if d.submitted != nil {
		return ErrAlreadySubmitted
	}
	if !d.rng.Complete() {
		return daterange.ErrMissingDate
	}
	if err := domainbooking.ValidatePickup(d.rng.Pickup, now); err != nil {
		return err
	}
	if !d.quote.Actionable() {
		return ErrQuoteNotActionable
	}
	if !d.gate.CanSubmit(d.quote.Actionable()) {
		return d.gate.SubmitError()
	}
	return nil
}

// view renders the draft. Callers hold d.mu.
func (d *Draft) view(now time.Time) dto.DraftView {
	v := dto.DraftView{
		ID:           d.ID,
		VehicleID:    d.VehicleID,
		ModelID:      d.ModelID,
		Quote:        dto.QuoteFrom(d.quote),
		Availability: dto.AvailabilityFrom(d.gate.Snapshot()),
		Submitting:   d.submitting,
	}
	if d.validationErr != nil {
		v.ValidationError = d.validationErr.Error()
	}
	v.CanSubmit = d.submitBlocker(now) == nil
	if d.submitted != nil {
		v.Submission = &dto.Submission{
			BookingID:     string(d.submitted.Booking.ID),
			BookingStatus: string(d.submitted.Booking.Status),
			PaymentID:     string(d.submitted.Payment.ID),
			PaymentStatus: string(d.submitted.Payment.Status),
			Amount:        dto.Money(d.submitted.Payment.Amount),
		}
	}
	return v
}
