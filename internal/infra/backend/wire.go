package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	domainbooking "carrental/internal/domain/booking"
	domainpayment "carrental/internal/domain/payment"
	"carrental/internal/domain/shared/daterange"
	"carrental/internal/domain/shared/money"
)

// flexID accepts identifiers sent either as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("backend: invalid id %s", string(data))
	}
	*f = flexID(n.String())
	return nil
}

func unwrapEnvelope(raw json.RawMessage) json.RawMessage {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return raw
	}
	if err := json.Unmarshal(trimmed, &env); err != nil || len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return raw
	}
	return env.Data
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
		return ""
	}
	return strings.TrimSpace(string(body))
}

type availabilityResponse struct {
	Available *bool `json:"available"`
}

type initiateBookingRequest struct {
	CustomerID     string  `json:"customer_id"`
	VehicleID      string  `json:"vehicle_id"`
	ModelID        string  `json:"model_id,omitempty"`
	PickupDate     string  `json:"pickup_date"`
	ReturnDate     string  `json:"return_date"`
	PickupBranchID string  `json:"pickup_branch_id,omitempty"`
	ReturnBranchID string  `json:"return_branch_id,omitempty"`
	RatePerDay     float64 `json:"rate_per_day"`
	Notes          string  `json:"notes,omitempty"`
	PaymentMethod  string  `json:"payment_method"`
}

type initiateBookingResponse struct {
	Booking wireBooking `json:"booking"`
	Payment wirePayment `json:"payment"`
}

type refundRequest struct {
	PaymentID    string  `json:"payment_id"`
	RefundAmount float64 `json:"refund_amount"`
	IsPartial    bool    `json:"is_partial,omitempty"`
	Reason       string  `json:"reason,omitempty"`
}

type refundResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type completePaymentRequest struct {
	PaymentID       string `json:"payment_id"`
	TransactionCode string `json:"transaction_code"`
}

type wireBooking struct {
	ID              flexID   `json:"booking_id"`
	VehicleID       flexID   `json:"vehicle_id"`
	CustomerID      flexID   `json:"customer_id"`
	PickupDate      string   `json:"pickup_date"`
	ReturnDate      string   `json:"return_date"`
	Status          string   `json:"booking_status"`
	CalculatedTotal float64  `json:"calculated_total"`
	FinalTotal      *float64 `json:"final_total"`
}

func (w wireBooking) toDomain(currency string) (domainbooking.Booking, error) {
	status, err := domainbooking.ParseStatus(w.Status)
	if err != nil {
		return domainbooking.Booking{}, err
	}
	var dr daterange.DateRange
	if w.PickupDate != "" {
		if dr.Pickup, err = daterange.ParseDate(w.PickupDate); err != nil {
			return domainbooking.Booking{}, err
		}
	}
	if w.ReturnDate != "" {
		if dr.Return, err = daterange.ParseDate(w.ReturnDate); err != nil {
			return domainbooking.Booking{}, err
		}
	}
	calculated, err := money.FromMajor(w.CalculatedTotal, currency)
	if err != nil {
		return domainbooking.Booking{}, err
	}
	final := money.Money{Currency: calculated.Currency}
	if w.FinalTotal != nil {
		if final, err = money.FromMajor(*w.FinalTotal, currency); err != nil {
			return domainbooking.Booking{}, err
		}
	}
	return domainbooking.Booking{
		ID:              domainbooking.BookingID(w.ID),
		VehicleID:       string(w.VehicleID),
		CustomerID:      string(w.CustomerID),
		Range:           dr,
		Status:          status,
		CalculatedTotal: calculated,
		FinalTotal:      final,
	}, nil
}

type wirePayment struct {
	ID              flexID  `json:"payment_id"`
	BookingID       flexID  `json:"booking_id"`
	Amount          float64 `json:"amount"`
	Method          string  `json:"payment_method"`
	Status          string  `json:"payment_status"`
	RefundAmount    float64 `json:"refund_amount"`
	TransactionCode string  `json:"transaction_code"`
}

func (w wirePayment) toDomain(currency string) (domainpayment.Payment, error) {
	status, err := domainpayment.ParseStatus(w.Status)
	if err != nil {
		return domainpayment.Payment{}, err
	}
	amount, err := money.FromMajor(w.Amount, currency)
	if err != nil {
		return domainpayment.Payment{}, err
	}
	refunded, err := money.FromMajor(w.RefundAmount, currency)
	if err != nil {
		return domainpayment.Payment{}, err
	}
	return domainpayment.Payment{
		ID:           domainpayment.PaymentID(w.ID),
		BookingID:    domainbooking.BookingID(w.BookingID),
		Amount:       amount,
		Method:       w.Method,
		Status:       status,
		RefundAmount: refunded,
		Reference:    w.TransactionCode,
	}, nil
}
