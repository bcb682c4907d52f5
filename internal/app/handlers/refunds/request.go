package refunds

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"carrental/internal/app/commands"
	"carrental/internal/app/dto"
	"carrental/internal/app/handlers/payments"
	"carrental/internal/app/middleware"
	"carrental/internal/app/outbox"
	"carrental/internal/app/policies"
	domainauth "carrental/internal/domain/auth"
	domainpayment "carrental/internal/domain/payment"
	"carrental/internal/domain/refund"
	"carrental/internal/domain/shared/money"
)

const requestRefundKey = "refunds.request"

// GenericRejection is shown when the backend refuses a refund without saying why.
const GenericRejection = "Refund request failed. Please try again."

var (
	ErrPaymentIDRequired = errors.New("refunds: payment id is required")
	ErrPaymentNotFound   = errors.New("refunds: payment not found")
)

// RejectedError carries the backend's refusal. Message is shown to the customer as is.
type RejectedError struct {
	Message string
	Cause   error
}

func (e *RejectedError) Error() string { return e.Message }
func (e *RejectedError) Unwrap() error { return e.Cause }

type RequestCommand struct {
	Session         domainauth.Session
	PaymentID       string
	Amount          money.Money
	Partial         bool
	Reason          string
	IdempotencyKeyV string
}

func (c RequestCommand) Key() string                        { return requestRefundKey }
func (c RequestCommand) CurrentSession() domainauth.Session { return c.Session }
func (c RequestCommand) IdempotencyKey() string             { return c.IdempotencyKeyV }
func (c RequestCommand) ResultPrototype() any               { return &dto.RefundResult{} }

func (c RequestCommand) Validate() error {
	if strings.TrimSpace(c.PaymentID) == "" {
		return ErrPaymentIDRequired
	}
	if c.Partial && c.Amount.Amount <= 0 {
		return refund.ErrAmountOutOfRange
	}
	return nil
}

type RequestHandler struct {
	Loader  *payments.Loader
	Backend policies.RentalBackend
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Metrics policies.Metrics
	Logger  *slog.Logger
	Now     func() time.Time
}

// Handle validates the refund against the current payment snapshot, sends it and, on
// success, returns the refetched lists. Nothing is updated locally before the backend
// confirms.
func (h *RequestHandler) Handle(ctx context.Context, cmd RequestCommand) (*dto.RefundResult, error) {
	lists, err := h.Loader.Load(ctx, cmd.Session, false)
	if err != nil {
		return nil, err
	}
	p, b, ok := lists.Find(domainpayment.PaymentID(cmd.PaymentID))
	if !ok {
		return nil, ErrPaymentNotFound
	}
	req, err := refund.NewRequest(p, cmd.Amount, cmd.Partial, cmd.Reason)
	if err != nil {
		return nil, err
	}
	now := h.now()
	if decision := refund.Evaluate(p, b, now); !decision.Eligible {
		h.metrics().RefundRequested(policies.OutcomeRejected)
		return nil, &RejectedError{Message: blockMessage(decision.Reason), Cause: refund.ErrNotEligible}
	}

	outcome, err := h.Backend.RequestRefund(ctx, cmd.Session, req)
	if err != nil || !outcome.Success {
		h.metrics().RefundRequested(policies.OutcomeRejected)
		msg := strings.TrimSpace(outcome.Message)
		var apiMsg interface{ UserMessage() string }
		if msg == "" && errors.As(err, &apiMsg) {
			msg = strings.TrimSpace(apiMsg.UserMessage())
		}
		if msg == "" {
			msg = GenericRejection
		}
		if h.Logger != nil {
			h.Logger.Warn("refund rejected", "payment_id", p.ID, "message", msg, "error", err)
		}
		return nil, &RejectedError{Message: msg, Cause: err}
	}
	h.metrics().RefundRequested(policies.OutcomeSuccess)

	ev := domainpayment.RefundRequested{PaymentID: p.ID, Amount: req.Amount, Partial: req.Partial, Reason: req.Reason, At: now}
	if err := outbox.Record(ctx, h.Outbox, h.Encoder, ev); err != nil && h.Logger != nil {
		h.Logger.Error("refund event not recorded", "payment_id", p.ID, "error", err)
	}

	h.Loader.Invalidate(ctx, cmd.Session.UserID)
	fresh, err := h.Loader.Load(ctx, cmd.Session, true)
	if err != nil {
		// The refund went through; the lists can be reloaded later.
		if h.Logger != nil {
			h.Logger.Warn("refetch after refund failed", "payment_id", p.ID, "error", err)
		}
		return &dto.RefundResult{Message: successMessage(outcome.Message)}, nil
	}
	return &dto.RefundResult{
		Message:  successMessage(outcome.Message),
		Payments: payments.Collection(fresh, h.now()),
	}, nil
}

func successMessage(msg string) string {
	if strings.TrimSpace(msg) != "" {
		return msg
	}
	return "Refund request submitted."
}

func blockMessage(reason refund.BlockReason) string {
	switch reason {
	case refund.ReasonPaymentNotCompleted:
		return "Only completed payments can be refunded."
	case refund.ReasonAlreadyRefunded:
		return "This payment has already been refunded."
	case refund.ReasonBookingMissing:
		return "The booking for this payment could not be found."
	case refund.ReasonPickedUp:
		return "Refunds are not available after the vehicle has been picked up."
	default:
		return "This booking is not eligible for a refund."
	}
}

func (h *RequestHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *RequestHandler) metrics() policies.Metrics {
	if h.Metrics != nil {
		return h.Metrics
	}
	return policies.NopMetrics{}
}

var (
	_ commands.Handler[RequestCommand, *dto.RefundResult] = (*RequestHandler)(nil)
	_ middleware.IdempotentCommand                        = RequestCommand{}
	_ middleware.SelfValidating                           = RequestCommand{}
)
