package quote

import (
	"context"

	"carrental/internal/app/dto"
	"carrental/internal/app/queries"
	"carrental/internal/domain/pricing"
	"carrental/internal/domain/shared/money"
)

const computeQuoteKey = "quote.compute"

// ComputeQuery prices a rental without touching the backend. Either date may be zero.
type ComputeQuery struct {
	PickupDate string
	ReturnDate string
	DailyRate  money.Money
}

func (q ComputeQuery) Key() string { return computeQuoteKey }

type ComputeHandler struct{}

func (h ComputeHandler) Handle(_ context.Context, q ComputeQuery) (*dto.Quote, error) {
	pickup, err := optionalDate(q.PickupDate)
	if err != nil {
		return nil, err
	}
	ret, err := optionalDate(q.ReturnDate)
	if err != nil {
		return nil, err
	}
	rq, err := pricing.ComputeQuote(pickup, ret, q.DailyRate)
	if err != nil {
		return nil, err
	}
	out := dto.QuoteFrom(rq)
	return &out, nil
}

var _ queries.Handler[ComputeQuery, *dto.Quote] = ComputeHandler{}
