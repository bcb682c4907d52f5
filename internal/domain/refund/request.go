package refund

import (
	"errors"

	"carrental/internal/domain/payment"
	"carrental/internal/domain/shared/money"
)

var (
	ErrAmountOutOfRange = errors.New("refund: amount must be greater than zero and not exceed the payment amount")
	ErrNotEligible      = errors.New("refund: payment is not eligible for a refund")
)

// Request is a validated refund request ready to be sent to the backend.
type Request struct {
	PaymentID payment.PaymentID
	Amount    money.Money
	Partial   bool
	Reason    string
}

// NewRequest validates a refund request before any network call. A full refund always
// covers the whole payment amount; a partial one must satisfy 0 < amount <= payment.
func NewRequest(p payment.Payment, amount money.Money, partial bool, reason string) (Request, error) {
	req := Request{PaymentID: p.ID, Partial: partial, Reason: reason}
	if !partial {
		req.Amount = p.Amount
		return req, nil
	}
	if amount.Currency == "" {
		amount.Currency = p.Amount.Currency
	}
	if amount.Currency != p.Amount.Currency {
		return Request{}, money.ErrCurrencyMismatch
	}
	if amount.Amount <= 0 || amount.Amount > p.Amount.Amount {
		return Request{}, ErrAmountOutOfRange
	}
	req.Amount = amount
	return req, nil
}
