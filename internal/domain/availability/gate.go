package availability

import (
	"errors"
	"sync"
	"time"

	"carrental/internal/domain/shared/daterange"
)

var (
	ErrUnverified    = errors.New("availability: could not verify availability")
	ErrUnavailable   = errors.New("availability: vehicle is not available for the selected dates")
	ErrCheckInFlight = errors.New("availability: check still in progress")
	ErrNotChecked    = errors.New("availability: dates have not been checked")
)

type State string

const (
	StateIdle        State = "idle"
	StateChecking    State = "checking"
	StateAvailable   State = "available"
	StateUnavailable State = "unavailable"
	StateFailed      State = "failed"
)

// Ticket tags one availability request with the sequence number and dates it was issued for.
type Ticket struct {
	Seq   uint64
	Range daterange.DateRange
}

// Snapshot is a point-in-time copy of the gate.
type Snapshot struct {
	State     State
	Range     daterange.DateRange
	Seq       uint64
	Err       error
	UpdatedAt time.Time
}

// InFlight reports whether a check is still pending.
func (s Snapshot) InFlight() bool {
	return s.State == StateChecking
}

// Message is the user facing explanation of the current state.
func (s Snapshot) Message() string {
	switch s.State {
	case StateChecking:
		return "Checking availability..."
	case StateUnavailable:
		return "This vehicle is not available for the selected dates."
	case StateFailed:
		return "We couldn't verify availability right now. Please try again."
	default:
		return ""
	}
}

// Gate tracks the latest availability check for one booking form. Only the result of the
// most recently issued ticket is ever applied; anything older is dropped regardless of
// arrival order.
type Gate struct {
	mu      sync.Mutex
	seq     uint64
	rng     daterange.DateRange
	state   State
	err     error
	updated time.Time
	now     func() time.Time
}

func NewGate() *Gate {
	return &Gate{state: StateIdle, now: time.Now}
}

// Begin issues a new ticket for r, discarding whatever result was held before.
func (g *Gate) Begin(r daterange.DateRange) Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	g.rng = r
	g.state = StateChecking
	g.err = nil
	g.touch()
	return Ticket{Seq: g.seq, Range: r}
}

// Invalidate clears the held result without issuing a new check, e.g. when the dates
// become incomplete or invalid. Pending tickets become stale.
func (g *Gate) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	g.rng = daterange.DateRange{}
	g.state = StateIdle
	g.err = nil
	g.touch()
}

// Resolve applies a backend answer. It returns false when the ticket is stale.
func (g *Gate) Resolve(t Ticket, available bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.current(t) {
		return false
	}
	if available {
		g.state = StateAvailable
	} else {
		g.state = StateUnavailable
	}
	g.err = nil
	g.touch()
	return true
}

// Fail records a failed check. The vehicle is then treated as not available, but the
// state stays distinguishable from a real "unavailable" answer.
func (g *Gate) Fail(t Ticket, cause error) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.current(t) {
		return false
	}
	if cause == nil {
		cause = ErrUnverified
	}
	g.state = StateFailed
	g.err = errors.Join(ErrUnverified, cause)
	g.touch()
	return true
}

func (g *Gate) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Snapshot{State: g.state, Range: g.rng, Seq: g.seq, Err: g.err, UpdatedAt: g.updated}
}

// CanSubmit is true only for an actionable quote whose dates were confirmed available
// by the latest check, with no check in flight.
func (g *Gate) CanSubmit(quoteActionable bool) bool {
	if !quoteActionable {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state == StateAvailable
}

// SubmitError explains why CanSubmit is false from the availability side.
func (g *Gate) SubmitError() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch g.state {
	case StateAvailable:
		return nil
	case StateUnavailable:
		return ErrUnavailable
	case StateFailed:
		return g.err
	case StateChecking:
		return ErrCheckInFlight
	default:
		return ErrNotChecked
	}
}

func (g *Gate) current(t Ticket) bool {
	return t.Seq == g.seq && g.state == StateChecking && t.Range.Equal(g.rng)
}

func (g *Gate) touch() {
	if g.now == nil {
		g.now = time.Now
	}
	g.updated = g.now().UTC()
}
