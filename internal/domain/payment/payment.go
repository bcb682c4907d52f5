package payment

import (
	"errors"
	"strings"

	"carrental/internal/domain/booking"
	"carrental/internal/domain/shared/money"
)

var ErrUnknownStatus = errors.New("payment: unknown status")

type PaymentID string

type Status string

const (
	StatusPending           Status = "Pending"
	StatusCompleted         Status = "Completed"
	StatusFailed            Status = "Failed"
	StatusRefunded          Status = "Refunded"
	StatusPartiallyRefunded Status = "Partially_Refunded"
)

var knownStatuses = []Status{
	StatusPending,
	StatusCompleted,
	StatusFailed,
	StatusRefunded,
	StatusPartiallyRefunded,
}

// ParseStatus accepts the backend spelling case-insensitively; spaces and hyphens are
// treated as underscores.
func ParseStatus(raw string) (Status, error) {
	norm := strings.NewReplacer(" ", "_", "-", "_").Replace(strings.TrimSpace(raw))
	for _, s := range knownStatuses {
		if strings.EqualFold(norm, string(s)) {
			return s, nil
		}
	}
	return "", ErrUnknownStatus
}

// Payment is a read-only snapshot of a backend payment record.
type Payment struct {
	ID           PaymentID
	BookingID    booking.BookingID
	Amount       money.Money
	Method       string
	Status       Status
	RefundAmount money.Money
	Reference    string
}

// HasRefund reports whether any amount was already refunded.
func (p Payment) HasRefund() bool {
	return p.RefundAmount.IsPositive()
}
