package policies

import (
	"context"

	domainbooking "carrental/internal/domain/booking"
	domainpayment "carrental/internal/domain/payment"
)

// ListCache holds per-customer snapshots of the backend payment and booking lists.
// Entries are dropped after every mutation; refund eligibility is never stored here.
//
// Every Invalidate advances the customer's generation. A snapshot is only stored when
// the generation read before fetching it is still current, so a read that raced a
// mutation cannot put the pre-mutation lists back.
type ListCache interface {
	Generation(ctx context.Context, customerID string) (uint64, error)
	Payments(ctx context.Context, customerID string) ([]domainpayment.Payment, bool, error)
	StorePayments(ctx context.Context, customerID string, gen uint64, items []domainpayment.Payment) error
	Bookings(ctx context.Context, customerID string) ([]domainbooking.Booking, bool, error)
	StoreBookings(ctx context.Context, customerID string, gen uint64, items []domainbooking.Booking) error
	Invalidate(ctx context.Context, customerID string) error
}
