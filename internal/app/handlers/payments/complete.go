package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"carrental/internal/app/commands"
	"carrental/internal/app/dto"
	"carrental/internal/app/middleware"
	"carrental/internal/app/outbox"
	"carrental/internal/app/policies"
	domainauth "carrental/internal/domain/auth"
	domainpayment "carrental/internal/domain/payment"
)

const completePaymentKey = "payments.complete"

var (
	ErrPaymentIDRequired = errors.New("payments: payment id is required")
	ErrPaymentNotFound   = errors.New("payments: payment not found")
	ErrPaymentNotPending = errors.New("payments: payment is not awaiting completion")
	ErrGatewayMissing    = errors.New("payments: payment gateway not configured")
	// ErrPaymentPending means the checkout did not go through. The payment keeps its
	// previous state and the customer may try again.
	ErrPaymentPending = errors.New("payments: payment not completed, still pending")
)

type CompleteCommand struct {
	Session            domainauth.Session
	PaymentID          string
	PaymentMethodToken string
	IdempotencyKeyV    string
}

func (c CompleteCommand) Key() string                        { return completePaymentKey }
func (c CompleteCommand) CurrentSession() domainauth.Session { return c.Session }
func (c CompleteCommand) IdempotencyKey() string             { return c.IdempotencyKeyV }
func (c CompleteCommand) ResultPrototype() any               { return &dto.CompletePaymentResult{} }

func (c CompleteCommand) Validate() error {
	if strings.TrimSpace(c.PaymentID) == "" {
		return ErrPaymentIDRequired
	}
	return nil
}

type CompleteHandler struct {
	Loader  *Loader
	Backend policies.RentalBackend
	Gateway policies.PaymentGateway
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Metrics policies.Metrics
	Logger  *slog.Logger
	Now     func() time.Time
}

func (h *CompleteHandler) Handle(ctx context.Context, cmd CompleteCommand) (*dto.CompletePaymentResult, error) {
	if h.Gateway == nil {
		return nil, ErrGatewayMissing
	}
	lists, err := h.Loader.Load(ctx, cmd.Session, true)
	if err != nil {
		return nil, err
	}
	p, b, ok := lists.Find(domainpayment.PaymentID(cmd.PaymentID))
	if !ok {
		return nil, ErrPaymentNotFound
	}
	if p.Status != domainpayment.StatusPending {
		return nil, ErrPaymentNotPending
	}

	reference := p.Reference
	if reference == "" {
		reference = string(p.ID)
	}
	metadata := map[string]string{
		"payment_id":  string(p.ID),
		"booking_id":  string(p.BookingID),
		"customer_id": cmd.Session.UserID,
	}
	if p.Method != "" {
		metadata["payment_method"] = p.Method
	}
	if b != nil {
		metadata["vehicle_id"] = b.VehicleID
	}
	outcome, err := h.Gateway.Checkout(ctx, policies.CheckoutRequest{
		Amount:             p.Amount,
		Email:              cmd.Session.Email,
		Reference:          reference,
		PaymentMethodToken: strings.TrimSpace(cmd.PaymentMethodToken),
		Metadata:           metadata,
	})
	if err != nil || outcome.Status != policies.CheckoutSucceeded {
		h.metrics().PaymentCompleted(policies.OutcomePending)
		if err != nil && !errors.Is(err, policies.ErrCheckoutCancelled) && h.Logger != nil {
			h.Logger.Warn("checkout failed", "payment_id", p.ID, "error", err)
		}
		return nil, ErrPaymentPending
	}

	if err := h.Backend.CompletePayment(ctx, cmd.Session, p.ID, outcome.Reference); err != nil {
		h.metrics().PaymentCompleted(policies.OutcomeFailed)
		return nil, fmt.Errorf("complete payment %s: %w", p.ID, err)
	}
	h.metrics().PaymentCompleted(policies.OutcomeSuccess)
	h.Loader.Invalidate(ctx, cmd.Session.UserID)

	ev := domainpayment.PaymentCompleted{
		PaymentID:       p.ID,
		TransactionCode: outcome.Reference,
		Amount:          p.Amount,
		At:              h.now(),
	}
	if err := outbox.Record(ctx, h.Outbox, h.Encoder, ev); err != nil && h.Logger != nil {
		h.Logger.Error("payment event not recorded", "payment_id", p.ID, "error", err)
	}

	return &dto.CompletePaymentResult{
		PaymentID: string(p.ID),
		Status:    string(domainpayment.StatusCompleted),
		Reference: outcome.Reference,
	}, nil
}

func (h *CompleteHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *CompleteHandler) metrics() policies.Metrics {
	if h.Metrics != nil {
		return h.Metrics
	}
	return policies.NopMetrics{}
}

var (
	_ commands.Handler[CompleteCommand, *dto.CompletePaymentResult] = (*CompleteHandler)(nil)
	_ middleware.IdempotentCommand                                  = CompleteCommand{}
	_ middleware.SelfValidating                                     = CompleteCommand{}
)
