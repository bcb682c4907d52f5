package payments

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"carrental/internal/app/policies"
	domainauth "carrental/internal/domain/auth"
	domainbooking "carrental/internal/domain/booking"
	domainpayment "carrental/internal/domain/payment"
)

// Lists is one consistent read of a customer's payments and bookings.
type Lists struct {
	Payments []domainpayment.Payment
	Bookings []domainbooking.Booking
}

// Find returns the payment with id and its booking, if the booking is known.
func (l Lists) Find(id domainpayment.PaymentID) (domainpayment.Payment, *domainbooking.Booking, bool) {
	for _, p := range l.Payments {
		if p.ID != id {
			continue
		}
		for i := range l.Bookings {
			if l.Bookings[i].ID == p.BookingID {
				b := l.Bookings[i]
				return p, &b, true
			}
		}
		return p, nil, true
	}
	return domainpayment.Payment{}, nil, false
}

// Loader reads the payment and booking lists, going through the list cache unless a
// fresh read is requested.
type Loader struct {
	Backend policies.RentalBackend
	Cache   policies.ListCache
	Logger  *slog.Logger
}

// Load reads both lists in parallel. Snapshots fetched from the backend are written back
// to the cache only under the generation observed before the fetch started.
func (l *Loader) Load(ctx context.Context, sess domainauth.Session, fresh bool) (Lists, error) {
	gen, cacheable := l.generation(ctx, sess.UserID)
	var out Lists
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := l.payments(gctx, sess, fresh, gen, cacheable)
		out.Payments = items
		return err
	})
	g.Go(func() error {
		items, err := l.bookings(gctx, sess, fresh, gen, cacheable)
		out.Bookings = items
		return err
	})
	if err := g.Wait(); err != nil {
		return Lists{}, err
	}
	return out, nil
}

// Invalidate drops the cached lists of the customer after a mutation.
func (l *Loader) Invalidate(ctx context.Context, customerID string) {
	if l.Cache == nil {
		return
	}
	if err := l.Cache.Invalidate(ctx, customerID); err != nil {
		l.warn("list cache invalidation failed", customerID, err)
	}
}

func (l *Loader) generation(ctx context.Context, customerID string) (uint64, bool) {
	if l.Cache == nil {
		return 0, false
	}
	gen, err := l.Cache.Generation(ctx, customerID)
	if err != nil {
		l.warn("list cache generation read failed", customerID, err)
		return 0, false
	}
	return gen, true
}

func (l *Loader) payments(ctx context.Context, sess domainauth.Session, fresh bool, gen uint64, cacheable bool) ([]domainpayment.Payment, error) {
	if !fresh && cacheable {
		items, ok, err := l.Cache.Payments(ctx, sess.UserID)
		if err != nil {
			l.warn("payments cache read failed", sess.UserID, err)
		} else if ok {
			return items, nil
		}
	}
	items, err := l.Backend.ListPayments(ctx, sess)
	if err != nil {
		return nil, err
	}
	if cacheable {
		if err := l.Cache.StorePayments(ctx, sess.UserID, gen, items); err != nil {
			l.warn("payments cache write failed", sess.UserID, err)
		}
	}
	return items, nil
}

func (l *Loader) bookings(ctx context.Context, sess domainauth.Session, fresh bool, gen uint64, cacheable bool) ([]domainbooking.Booking, error) {
	if !fresh && cacheable {
		items, ok, err := l.Cache.Bookings(ctx, sess.UserID)
		if err != nil {
			l.warn("bookings cache read failed", sess.UserID, err)
		} else if ok {
			return items, nil
		}
	}
	items, err := l.Backend.ListBookings(ctx, sess)
	if err != nil {
		return nil, err
	}
	if cacheable {
		if err := l.Cache.StoreBookings(ctx, sess.UserID, gen, items); err != nil {
			l.warn("bookings cache write failed", sess.UserID, err)
		}
	}
	return items, nil
}

func (l *Loader) warn(msg, customerID string, err error) {
	if l.Logger != nil {
		l.Logger.Warn(msg, "customer_id", customerID, "error", err)
	}
}
