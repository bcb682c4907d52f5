package payments

import (
	"context"
	"time"

	"carrental/internal/app/dto"
	"carrental/internal/app/queries"
	domainauth "carrental/internal/domain/auth"
	domainbooking "carrental/internal/domain/booking"
	"carrental/internal/domain/refund"
)

const listPaymentsKey = "payments.list"

type ListQuery struct {
	Session domainauth.Session
	Fresh   bool
}

func (q ListQuery) Key() string                        { return listPaymentsKey }
func (q ListQuery) CurrentSession() domainauth.Session { return q.Session }

type ListHandler struct {
	Loader *Loader
	Now    func() time.Time
}

func (h *ListHandler) Handle(ctx context.Context, q ListQuery) (*dto.PaymentCollection, error) {
	lists, err := h.Loader.Load(ctx, q.Session, q.Fresh)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	collection := Collection(lists, now)
	return &collection, nil
}

// Collection joins payments with their bookings and evaluates refund eligibility for
// each of them against now.
func Collection(lists Lists, now time.Time) dto.PaymentCollection {
	index := domainbooking.Index(lists.Bookings)
	items := make([]dto.PaymentView, 0, len(lists.Payments))
	for _, p := range lists.Payments {
		var b *domainbooking.Booking
		if found, ok := index[p.BookingID]; ok {
			b = &found
		}
		items = append(items, dto.PaymentFrom(p, b, refund.Evaluate(p, b, now)))
	}
	return dto.PaymentCollection{Items: items}
}

var _ queries.Handler[ListQuery, *dto.PaymentCollection] = (*ListHandler)(nil)
