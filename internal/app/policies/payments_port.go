package policies

import (
	"context"
	"errors"

	"carrental/internal/domain/shared/money"
)

// ErrCheckoutCancelled means the customer closed the checkout or the gateway declined.
// Nothing changed on the payment; the customer may retry.
var ErrCheckoutCancelled = errors.New("gateway: checkout cancelled")

// CheckoutRequest is what the checkout widget needs. PaymentMethodToken is the
// gateway's own payment method id collected by the client; without it the gateway
// cannot charge and the checkout stays pending.
type CheckoutRequest struct {
	Amount             money.Money
	Email              string
	Reference          string
	PaymentMethodToken string
	Metadata           map[string]string
}

type CheckoutStatus string

const (
	CheckoutSucceeded CheckoutStatus = "success"
	CheckoutPending   CheckoutStatus = "pending"
	CheckoutFailed    CheckoutStatus = "failed"
)

// CheckoutOutcome is the single resolved result of a gateway checkout.
type CheckoutOutcome struct {
	Status    CheckoutStatus
	Reference string
}

// PaymentGateway hides the third-party checkout behind one awaitable call.
type PaymentGateway interface {
	Checkout(ctx context.Context, req CheckoutRequest) (CheckoutOutcome, error)
}
