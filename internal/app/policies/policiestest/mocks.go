// Package policiestest provides testify mocks of the application ports.
package policiestest

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"carrental/internal/app/policies"
	domainauth "carrental/internal/domain/auth"
	domainbooking "carrental/internal/domain/booking"
	domainpayment "carrental/internal/domain/payment"
	domainrefund "carrental/internal/domain/refund"
	"carrental/internal/domain/shared/daterange"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) CheckAvailability(ctx context.Context, sess domainauth.Session, vehicleID string, dr daterange.DateRange) (bool, error) {
	args := m.Called(ctx, sess, vehicleID, dr)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackend) InitiateBooking(ctx context.Context, sess domainauth.Session, req policies.InitiateBookingRequest) (policies.InitiateBookingResult, error) {
	args := m.Called(ctx, sess, req)
	return args.Get(0).(policies.InitiateBookingResult), args.Error(1)
}

func (m *MockBackend) ListPayments(ctx context.Context, sess domainauth.Session) ([]domainpayment.Payment, error) {
	args := m.Called(ctx, sess)
	items, _ := args.Get(0).([]domainpayment.Payment)
	return items, args.Error(1)
}

func (m *MockBackend) ListBookings(ctx context.Context, sess domainauth.Session) ([]domainbooking.Booking, error) {
	args := m.Called(ctx, sess)
	items, _ := args.Get(0).([]domainbooking.Booking)
	return items, args.Error(1)
}

func (m *MockBackend) RequestRefund(ctx context.Context, sess domainauth.Session, req domainrefund.Request) (policies.RefundOutcome, error) {
	args := m.Called(ctx, sess, req)
	return args.Get(0).(policies.RefundOutcome), args.Error(1)
}

func (m *MockBackend) CompletePayment(ctx context.Context, sess domainauth.Session, paymentID domainpayment.PaymentID, transactionCode string) error {
	args := m.Called(ctx, sess, paymentID, transactionCode)
	return args.Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Checkout(ctx context.Context, req policies.CheckoutRequest) (policies.CheckoutOutcome, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(policies.CheckoutOutcome), args.Error(1)
}

type MockImageHost struct {
	mock.Mock
}

func (m *MockImageHost) Upload(ctx context.Context, name string, contentType string, body io.Reader) (policies.UploadedImage, error) {
	args := m.Called(ctx, name, contentType, body)
	return args.Get(0).(policies.UploadedImage), args.Error(1)
}

var (
	_ policies.RentalBackend  = (*MockBackend)(nil)
	_ policies.PaymentGateway = (*MockGateway)(nil)
	_ policies.ImageHost      = (*MockImageHost)(nil)
)
