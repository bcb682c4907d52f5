package payment

import (
	"time"

	"carrental/internal/domain/shared/money"
)

type PaymentCompleted struct {
	PaymentID       PaymentID
	TransactionCode string
	Amount          money.Money
	At              time.Time
}

func (e PaymentCompleted) EventName() string     { return "payment.completed" }
func (e PaymentCompleted) AggregateID() string   { return string(e.PaymentID) }
func (e PaymentCompleted) OccurredAt() time.Time { return e.At }

type RefundRequested struct {
	PaymentID PaymentID
	Amount    money.Money
	Partial   bool
	Reason    string
	At        time.Time
}

func (e RefundRequested) EventName() string     { return "payment.refund_requested" }
func (e RefundRequested) AggregateID() string   { return string(e.PaymentID) }
func (e RefundRequested) OccurredAt() time.Time { return e.At }
