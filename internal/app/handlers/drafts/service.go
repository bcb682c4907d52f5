package drafts

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"carrental/internal/app/commands"
	"carrental/internal/app/dto"
	"carrental/internal/app/outbox"
	"carrental/internal/app/policies"
	"carrental/internal/app/queries"
	domainauth "carrental/internal/domain/auth"
	domainavailability "carrental/internal/domain/availability"
	domainbooking "carrental/internal/domain/booking"
	"carrental/internal/domain/shared/daterange"
)

// DefaultCheckTimeout bounds a single availability check; a timeout counts as a failure.
const DefaultCheckTimeout = 20 * time.Second

// Service runs the booking form: quote recomputation, availability gating and submission.
type Service struct {
	Backend      policies.RentalBackend
	Store        Store
	Cache        policies.ListCache
	Outbox       outbox.Outbox
	Encoder      outbox.EventEncoder
	Metrics      policies.Metrics
	Logger       *slog.Logger
	CheckTimeout time.Duration
	Now          func() time.Time
	NewID        func() string

	checks sync.WaitGroup
}

func (s *Service) Open(ctx context.Context, cmd OpenCommand) (*dto.DraftView, error) {
	d := newDraft(s.newID(), cmd.Session.UserID, cmd, s.now())
	if err := s.Store.Save(ctx, d); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	view := d.view(s.now())
	return &view, nil
}

// SetDates recomputes the quote and, when the dates are valid, starts a fresh
// availability check in the background. Any earlier result is discarded at once.
func (s *Service) SetDates(ctx context.Context, cmd SetDatesCommand) (*dto.DraftView, error) {
	d, err := s.load(ctx, cmd.Session, cmd.DraftID)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.submitting {
		return nil, ErrSubmissionInFlight
	}
	if d.submitted != nil {
		return nil, ErrAlreadySubmitted
	}
	dr := daterange.DateRange{Pickup: cmd.PickupDate, Return: cmd.ReturnDate}
	ticket, start, err := d.setDates(dr, s.now())
	if err != nil {
		return nil, err
	}
	if start {
		s.startCheck(cmd.Session, d.VehicleID, d.gate, ticket)
	}
	view := d.view(s.now())
	return &view, nil
}

func (s *Service) Get(ctx context.Context, q GetQuery) (*dto.DraftView, error) {
	d, err := s.load(ctx, q.Session, q.DraftID)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	view := d.view(s.now())
	return &view, nil
}

// Submit asks the backend to create the booking and its payment. It is refused unless the
// latest availability check for the current dates came back available.
func (s *Service) Submit(ctx context.Context, cmd SubmitCommand) (*dto.DraftView, error) {
	d, err := s.load(ctx, cmd.Session, cmd.DraftID)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	if err := d.submitBlocker(s.now()); err != nil {
		d.mu.Unlock()
		return nil, err
	}
	d.submitting = true
	req := policies.InitiateBookingRequest{
		VehicleID:      d.VehicleID,
		ModelID:        d.ModelID,
		Range:          d.rng,
		PickupBranchID: d.PickupBranchID,
		ReturnBranchID: d.ReturnBranchID,
		RatePerDay:     d.DailyRate,
		Notes:          d.Notes,
		PaymentMethod:  d.PaymentMethod,
	}
	total := d.quote.Total
	d.mu.Unlock()

	result, err := s.Backend.InitiateBooking(ctx, cmd.Session, req)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.submitting = false
	if err != nil {
		if errors.Is(err, policies.ErrDatesNoLongerAvailable) {
			// Taken since the check: block Submit until the customer picks new dates.
			d.gate.Resolve(d.gate.Begin(d.rng), false)
			s.metrics().BookingSubmitted(policies.OutcomeConflict)
		} else {
			s.metrics().BookingSubmitted(policies.OutcomeFailed)
		}
		s.logError("booking submission failed", d, err)
		return nil, err
	}
	d.submitted = &result
	s.metrics().BookingSubmitted(policies.OutcomeSuccess)

	d.Record(domainbooking.BookingSubmitted{
		BookingID:  result.Booking.ID,
		VehicleID:  d.VehicleID,
		CustomerID: cmd.Session.UserID,
		Range:      d.rng,
		Total:      total,
		PaymentID:  string(result.Payment.ID),
		At:         s.now(),
	})
	if err := outbox.Record(ctx, s.Outbox, s.Encoder, d.Drain()...); err != nil {
		s.logError("booking event not recorded", d, err)
	}
	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx, cmd.Session.UserID); err != nil {
			s.logError("list cache invalidation failed", d, err)
		}
	}
	view := d.view(s.now())
	return &view, nil
}

// Wait blocks until all background availability checks have finished.
func (s *Service) Wait() {
	s.checks.Wait()
}

func (s *Service) startCheck(sess domainauth.Session, vehicleID string, gate *domainavailability.Gate, ticket domainavailability.Ticket) {
	s.checks.Add(1)
	go func() {
		defer s.checks.Done()
		// The request that started the check returns right away, so the check gets its
		// own deadline instead of the request context.
		ctx, cancel := context.WithTimeout(context.Background(), s.checkTimeout())
		defer cancel()
		available, err := s.Backend.CheckAvailability(ctx, sess, vehicleID, ticket.Range)
		var applied bool
		outcome := policies.OutcomeAvailable
		switch {
		case err != nil:
			applied = gate.Fail(ticket, err)
			outcome = policies.OutcomeFailed
		default:
			applied = gate.Resolve(ticket, available)
			if !available {
				outcome = policies.OutcomeUnavailable
			}
		}
		if !applied {
			outcome = policies.OutcomeStale
		}
		s.metrics().AvailabilityChecked(outcome)
		if s.Logger != nil {
			s.Logger.Debug("availability check finished", "vehicle_id", vehicleID, "range", ticket.Range.String(), "seq", ticket.Seq, "outcome", outcome, "error", err)
		}
	}()
}

func (s *Service) load(ctx context.Context, sess domainauth.Session, id string) (*Draft, error) {
	d, err := s.Store.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil || d.OwnerID != sess.UserID {
		return nil, ErrDraftNotFound
	}
	return d, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) checkTimeout() time.Duration {
	if s.CheckTimeout > 0 {
		return s.CheckTimeout
	}
	return DefaultCheckTimeout
}

func (s *Service) metrics() policies.Metrics {
	if s.Metrics != nil {
		return s.Metrics
	}
	return policies.NopMetrics{}
}

func (s *Service) logError(msg string, d *Draft, err error) {
	if s.Logger == nil {
		return
	}
	s.Logger.Error(msg, "draft_id", d.ID, "vehicle_id", d.VehicleID, "error", err)
}

// Register wires the draft operations onto the buses.
func (s *Service) Register(cmdBus *commands.InMemoryBus, queryBus *queries.InMemoryBus) {
	commands.RegisterFunc(cmdBus, s.Open)
	commands.RegisterFunc(cmdBus, s.SetDates)
	commands.RegisterFunc(cmdBus, s.Submit)
	queries.RegisterFunc(queryBus, s.Get)
}
