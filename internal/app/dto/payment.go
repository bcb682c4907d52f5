package dto

import (
	domainbooking "carrental/internal/domain/booking"
	domainpayment "carrental/internal/domain/payment"
	"carrental/internal/domain/refund"
	"carrental/internal/domain/shared/daterange"
)

type BookingSummary struct {
	ID              string   `json:"id"`
	VehicleID       string   `json:"vehicle_id"`
	PickupDate      string   `json:"pickup_date"`
	ReturnDate      string   `json:"return_date"`
	Status          string   `json:"status"`
	CalculatedTotal MoneyDTO `json:"calculated_total"`
	FinalTotal      MoneyDTO `json:"final_total"`
}

func BookingFrom(b domainbooking.Booking) BookingSummary {
	return BookingSummary{
		ID:              string(b.ID),
		VehicleID:       b.VehicleID,
		PickupDate:      daterange.FormatDate(b.Range.Pickup),
		ReturnDate:      daterange.FormatDate(b.Range.Return),
		Status:          string(b.Status),
		CalculatedTotal: Money(b.CalculatedTotal),
		FinalTotal:      Money(b.FinalTotal),
	}
}

type PaymentView struct {
	ID                string          `json:"id"`
	BookingID         string          `json:"booking_id"`
	Amount            MoneyDTO        `json:"amount"`
	RefundAmount      MoneyDTO        `json:"refund_amount"`
	Method            string          `json:"payment_method"`
	Status            string          `json:"payment_status"`
	Refundable        bool            `json:"refundable"`
	RefundBlockReason string          `json:"refund_block_reason,omitempty"`
	Booking           *BookingSummary `json:"booking,omitempty"`
}

func PaymentFrom(p domainpayment.Payment, b *domainbooking.Booking, decision refund.Decision) PaymentView {
	view := PaymentView{
		ID:                string(p.ID),
		BookingID:         string(p.BookingID),
		Amount:            Money(p.Amount),
		RefundAmount:      Money(p.RefundAmount),
		Method:            p.Method,
		Status:            string(p.Status),
		Refundable:        decision.Eligible,
		RefundBlockReason: string(decision.Reason),
	}
	if b != nil {
		summary := BookingFrom(*b)
		view.Booking = &summary
	}
	return view
}

type PaymentCollection struct {
	Items []PaymentView `json:"items"`
}

type RefundResult struct {
	Message  string            `json:"message"`
	Payments PaymentCollection `json:"payments"`
}

type CompletePaymentResult struct {
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
	Reference string `json:"reference"`
}
