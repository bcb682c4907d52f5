package refund

import (
	"time"

	"carrental/internal/domain/booking"
	"carrental/internal/domain/payment"
)

// BlockReason names the first gate that made a payment ineligible for a refund.
type BlockReason string

const (
	ReasonNone                BlockReason = ""
	ReasonPaymentNotCompleted BlockReason = "payment_not_completed"
	ReasonAlreadyRefunded     BlockReason = "already_refunded"
	ReasonBookingMissing      BlockReason = "booking_missing"
	ReasonPickedUp            BlockReason = "picked_up"
	ReasonStatusIncompatible  BlockReason = "status_incompatible"
)

// Decision is the derived refund eligibility of one payment. It is never stored.
type Decision struct {
	Eligible bool
	Reason   BlockReason
}

// Evaluate runs the refund gates in order against snapshots of a payment and its booking.
// A nil booking means the booking could not be resolved.
func Evaluate(p payment.Payment, b *booking.Booking, now time.Time) Decision {
	if p.Status != payment.StatusCompleted {
		return blocked(ReasonPaymentNotCompleted)
	}
	// A partial refund may not be reflected in the status yet.
	if p.HasRefund() {
		return blocked(ReasonAlreadyRefunded)
	}
	if b == nil {
		return blocked(ReasonBookingMissing)
	}
	if b.PickedUp(now) {
		return blocked(ReasonPickedUp)
	}
	switch b.Status {
	case booking.StatusPending, booking.StatusConfirmed:
		return Decision{Eligible: true}
	case booking.StatusCancelled:
		if now.Before(b.Range.Pickup) {
			return Decision{Eligible: true}
		}
	}
	return blocked(ReasonStatusIncompatible)
}

// IsEligible is the boolean form of Evaluate.
func IsEligible(p payment.Payment, b *booking.Booking, now time.Time) bool {
	return Evaluate(p, b, now).Eligible
}

func blocked(reason BlockReason) Decision {
	return Decision{Reason: reason}
}
