package policies

import (
	"context"
	"errors"

	domainauth "carrental/internal/domain/auth"
	domainbooking "carrental/internal/domain/booking"
	domainpayment "carrental/internal/domain/payment"
	domainrefund "carrental/internal/domain/refund"
	domainrange "carrental/internal/domain/shared/daterange"
	"carrental/internal/domain/shared/money"
)

// ErrDatesNoLongerAvailable is returned when the backend refuses a booking because the
// vehicle was taken between the availability check and the submission.
var ErrDatesNoLongerAvailable = errors.New("backend: selected dates are no longer available")

type InitiateBookingRequest struct {
	VehicleID      string
	ModelID        string
	Range          domainrange.DateRange
	PickupBranchID string
	ReturnBranchID string
	RatePerDay     money.Money
	Notes          string
	PaymentMethod  string
}

type InitiateBookingResult struct {
	Booking domainbooking.Booking
	Payment domainpayment.Payment
}

// RefundOutcome is the backend verdict on a refund request.
type RefundOutcome struct {
	Success bool
	Message string
}

// RentalBackend is the authoritative REST backend owning vehicles, bookings and payments.
type RentalBackend interface {
	CheckAvailability(ctx context.Context, sess domainauth.Session, vehicleID string, dr domainrange.DateRange) (bool, error)
	InitiateBooking(ctx context.Context, sess domainauth.Session, req InitiateBookingRequest) (InitiateBookingResult, error)
	ListPayments(ctx context.Context, sess domainauth.Session) ([]domainpayment.Payment, error)
	ListBookings(ctx context.Context, sess domainauth.Session) ([]domainbooking.Booking, error)
	RequestRefund(ctx context.Context, sess domainauth.Session, req domainrefund.Request) (RefundOutcome, error)
	CompletePayment(ctx context.Context, sess domainauth.Session, paymentID domainpayment.PaymentID, transactionCode string) error
}
