package policies

// Outcome labels shared by the metrics port.
const (
	OutcomeAvailable   = "available"
	OutcomeUnavailable = "unavailable"
	OutcomeFailed      = "failed"
	OutcomeStale       = "stale"
	OutcomeSuccess     = "success"
	OutcomeRejected    = "rejected"
	OutcomeConflict    = "conflict"
	OutcomePending     = "pending"
)

type Metrics interface {
	AvailabilityChecked(outcome string)
	BookingSubmitted(outcome string)
	RefundRequested(outcome string)
	PaymentCompleted(outcome string)
}

type NopMetrics struct{}

func (NopMetrics) AvailabilityChecked(string) {}
func (NopMetrics) BookingSubmitted(string)    {}
func (NopMetrics) RefundRequested(string)     {}
func (NopMetrics) PaymentCompleted(string)    {}

var _ Metrics = NopMetrics{}
