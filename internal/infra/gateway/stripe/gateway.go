package stripe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"

	"carrental/internal/app/policies"
)

type intentCreator interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// Gateway runs a checkout as one PaymentIntent and reports a single outcome. The intent
// is confirmed only when the client supplied a Stripe payment method id; otherwise it is
// left awaiting a payment method and the checkout reports pending.
type Gateway struct {
	intents intentCreator
	logger  *slog.Logger
}

func NewGateway(apiKey string, logger *slog.Logger) (*Gateway, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("stripe: api key is required")
	}
	api := &client.API{}
	api.Init(apiKey, nil)
	return &Gateway{intents: api.PaymentIntents, logger: logger}, nil
}

func (g *Gateway) Checkout(ctx context.Context, req policies.CheckoutRequest) (policies.CheckoutOutcome, error) {
	if req.Amount.Amount <= 0 {
		return policies.CheckoutOutcome{}, fmt.Errorf("stripe: invalid amount %s", req.Amount)
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount.Amount),
		Currency: stripe.String(strings.ToLower(req.Amount.Currency)),
	}
	params.Context = ctx
	if token := strings.TrimSpace(req.PaymentMethodToken); token != "" {
		params.PaymentMethod = stripe.String(token)
		params.Confirm = stripe.Bool(true)
	}
	if req.Email != "" {
		params.ReceiptEmail = stripe.String(req.Email)
	}
	if req.Reference != "" {
		params.Description = stripe.String("Car rental payment " + req.Reference)
		params.SetIdempotencyKey(idempotencyKey(req))
		params.AddMetadata("reference", req.Reference)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.intents.New(params)
	if err != nil {
		var serr *stripe.Error
		if errors.As(err, &serr) && serr.Type == stripe.ErrorTypeCard {
			g.log("checkout declined", req.Reference, err)
			return policies.CheckoutOutcome{Status: policies.CheckoutFailed}, policies.ErrCheckoutCancelled
		}
		g.log("checkout request failed", req.Reference, err)
		return policies.CheckoutOutcome{}, err
	}
	return outcomeOf(pi)
}

// idempotencyKey differs per payment method so a retry with a newly collected method
// creates a fresh intent instead of replaying the one left without it.
func idempotencyKey(req policies.CheckoutRequest) string {
	token := strings.TrimSpace(req.PaymentMethodToken)
	if token == "" {
		token = "none"
	}
	return "checkout-" + req.Reference + "-" + token
}

func outcomeOf(pi *stripe.PaymentIntent) (policies.CheckoutOutcome, error) {
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return policies.CheckoutOutcome{Status: policies.CheckoutSucceeded, Reference: pi.ID}, nil
	case stripe.PaymentIntentStatusProcessing,
		stripe.PaymentIntentStatusRequiresAction,
		stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusRequiresCapture,
		stripe.PaymentIntentStatusRequiresPaymentMethod:
		return policies.CheckoutOutcome{Status: policies.CheckoutPending, Reference: pi.ID}, nil
	default:
		return policies.CheckoutOutcome{Status: policies.CheckoutFailed, Reference: pi.ID}, policies.ErrCheckoutCancelled
	}
}

func (g *Gateway) log(msg, reference string, err error) {
	if g.logger != nil {
		g.logger.Warn(msg, "reference", reference, "error", err)
	}
}

var _ policies.PaymentGateway = (*Gateway)(nil)
