package refunds

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"carrental/internal/app/handlers/payments"
	"carrental/internal/app/policies"
	"carrental/internal/app/policies/policiestest"
	domainauth "carrental/internal/domain/auth"
	domainbooking "carrental/internal/domain/booking"
	domainpayment "carrental/internal/domain/payment"
	"carrental/internal/domain/refund"
	"carrental/internal/domain/shared/daterange"
	"carrental/internal/domain/shared/money"
)

var (
	now     = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	session = domainauth.Session{Token: "tok", UserID: "cust-1"}
)

func fixtures() ([]domainpayment.Payment, []domainbooking.Booking) {
	bookings := []domainbooking.Booking{{
		ID:     "bk-1",
		Range:  daterange.DateRange{Pickup: now.AddDate(0, 0, 2), Return: now.AddDate(0, 0, 5)},
		Status: domainbooking.StatusConfirmed,
	}}
	payments := []domainpayment.Payment{
		{ID: "pay-1", BookingID: "bk-1", Amount: money.Must(10000, "USD"), Status: domainpayment.StatusCompleted},
		{ID: "pay-2", BookingID: "bk-1", Amount: money.Must(10000, "USD"), RefundAmount: money.Must(5000, "USD"), Status: domainpayment.StatusCompleted},
	}
	return payments, bookings
}

func newHandler(backend *policiestest.MockBackend) *RequestHandler {
	return &RequestHandler{
		Loader:  &payments.Loader{Backend: backend},
		Backend: backend,
		Now:     func() time.Time { return now },
	}
}

func stubLists(backend *policiestest.MockBackend) {
	p, b := fixtures()
	backend.On("ListPayments", mock.Anything, session).Return(p, nil)
	backend.On("ListBookings", mock.Anything, session).Return(b, nil)
}

func TestPartialAmountOutOfRangeNeverReachesBackend(t *testing.T) {
	for _, amount := range []int64{0, -100, 10001} {
		backend := &policiestest.MockBackend{}
		stubLists(backend)

		_, err := newHandler(backend).Handle(context.Background(), RequestCommand{
			Session: session, PaymentID: "pay-1", Partial: true, Amount: money.Must(amount, "USD"),
		})
		assert.ErrorIs(t, err, refund.ErrAmountOutOfRange, "amount %d", amount)
		backend.AssertNotCalled(t, "RequestRefund", mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestValidateRejectsNonPositivePartialAmount(t *testing.T) {
	err := RequestCommand{PaymentID: "pay-1", Partial: true}.Validate()
	assert.ErrorIs(t, err, refund.ErrAmountOutOfRange)
	assert.ErrorIs(t, RequestCommand{}.Validate(), ErrPaymentIDRequired)
}

func TestIneligiblePaymentIsRejectedLocally(t *testing.T) {
	backend := &policiestest.MockBackend{}
	stubLists(backend)

	_, err := newHandler(backend).Handle(context.Background(), RequestCommand{Session: session, PaymentID: "pay-2"})
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.ErrorIs(t, err, refund.ErrNotEligible)
	assert.Equal(t, "This payment has already been refunded.", rejected.Message)
	backend.AssertNotCalled(t, "RequestRefund", mock.Anything, mock.Anything, mock.Anything)
}

func TestServerMessageIsSurfacedVerbatim(t *testing.T) {
	backend := &policiestest.MockBackend{}
	stubLists(backend)
	backend.On("RequestRefund", mock.Anything, session, mock.Anything).
		Return(policies.RefundOutcome{Success: false, Message: "Refund window closed for this branch"}, nil)

	_, err := newHandler(backend).Handle(context.Background(), RequestCommand{Session: session, PaymentID: "pay-1"})
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "Refund window closed for this branch", rejected.Message)
}

func TestGenericMessageWhenServerSaysNothing(t *testing.T) {
	backend := &policiestest.MockBackend{}
	stubLists(backend)
	backend.On("RequestRefund", mock.Anything, session, mock.Anything).
		Return(policies.RefundOutcome{}, errors.New("connection reset"))

	_, err := newHandler(backend).Handle(context.Background(), RequestCommand{Session: session, PaymentID: "pay-1"})
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, GenericRejection, rejected.Message)
}

func TestSuccessfulRefundReturnsRefetchedLists(t *testing.T) {
	backend := &policiestest.MockBackend{}
	p, b := fixtures()
	refunded := append([]domainpayment.Payment(nil), p...)
	refunded[0].Status = domainpayment.StatusRefunded
	refunded[0].RefundAmount = refunded[0].Amount

	backend.On("ListPayments", mock.Anything, session).Return(p, nil).Once()
	backend.On("ListPayments", mock.Anything, session).Return(refunded, nil).Once()
	backend.On("ListBookings", mock.Anything, session).Return(b, nil).Twice()
	backend.On("RequestRefund", mock.Anything, session, refund.Request{
		PaymentID: "pay-1", Amount: money.Must(10000, "USD"), Reason: "plans changed",
	}).Return(policies.RefundOutcome{Success: true}, nil).Once()

	res, err := newHandler(backend).Handle(context.Background(), RequestCommand{Session: session, PaymentID: "pay-1", Reason: "plans changed"})
	require.NoError(t, err)
	require.Len(t, res.Payments.Items, 2)
	assert.Equal(t, string(domainpayment.StatusRefunded), res.Payments.Items[0].Status)
	assert.False(t, res.Payments.Items[0].Refundable)
	backend.AssertExpectations(t)
}
