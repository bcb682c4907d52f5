package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrental/internal/app/policies"
	domainauth "carrental/internal/domain/auth"
	domainbooking "carrental/internal/domain/booking"
	domainpayment "carrental/internal/domain/payment"
	domainrefund "carrental/internal/domain/refund"
	"carrental/internal/domain/shared/daterange"
	"carrental/internal/domain/shared/money"
)

var session = domainauth.Session{Token: "tok-1", UserID: "42", Email: "ana@example.com"}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &Client{HTTP: srv.Client(), BaseURL: srv.URL + "/api"}
}

func march() daterange.DateRange {
	return daterange.DateRange{
		Pickup: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Return: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
	}
}

func TestCheckAvailabilityAcceptsBareAndEnveloped(t *testing.T) {
	for name, body := range map[string]string{
		"bare":      `{"available": true}`,
		"enveloped": `{"data": {"available": true}}`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/bookings/availability", r.URL.Path)
				assert.Equal(t, "veh-7", r.URL.Query().Get("vehicle_id"))
				assert.Equal(t, "2024-03-01", r.URL.Query().Get("pickup_date"))
				assert.Equal(t, "2024-03-04", r.URL.Query().Get("return_date"))
				assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
				_, _ = w.Write([]byte(body))
			})
			ok, err := c.CheckAvailability(context.Background(), session, "veh-7", march())
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestCheckAvailabilityMissingFieldFailsClosed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"status": "ok"}}`))
	})
	ok, err := c.CheckAvailability(context.Background(), session, "veh-7", march())
	assert.ErrorIs(t, err, ErrAvailabilityField)
	assert.False(t, ok)
}

func TestCheckAvailabilityServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message": "upstream down"}`))
	})
	_, err := c.CheckAvailability(context.Background(), session, "veh-7", march())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestInitiateBookingMapsResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "42", req["customer_id"])
		assert.Equal(t, 50.0, req["rate_per_day"])
		assert.Equal(t, "2024-03-04", req["return_date"])
		_, _ = w.Write([]byte(`{"data": {
			"booking": {"booking_id": 9, "vehicle_id": "veh-7", "customer_id": 42, "pickup_date": "2024-03-01", "return_date": "2024-03-04", "booking_status": "Pending", "calculated_total": 150},
			"payment": {"payment_id": 31, "booking_id": 9, "amount": 150.00, "payment_method": "card", "payment_status": "Pending", "refund_amount": 0}
		}}`))
	})
	res, err := c.InitiateBooking(context.Background(), session, policies.InitiateBookingRequest{
		VehicleID:     "veh-7",
		Range:         march(),
		RatePerDay:    money.Must(5000, "USD"),
		PaymentMethod: "card",
	})
	require.NoError(t, err)
	assert.Equal(t, domainbooking.BookingID("9"), res.Booking.ID)
	assert.Equal(t, domainbooking.StatusPending, res.Booking.Status)
	assert.Equal(t, int64(15000), res.Booking.CalculatedTotal.Amount)
	assert.Equal(t, domainpayment.PaymentID("31"), res.Payment.ID)
	assert.Equal(t, int64(15000), res.Payment.Amount.Amount)
}

func TestInitiateBookingConflict(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message": "Vehicle already booked"}`))
	})
	_, err := c.InitiateBooking(context.Background(), session, policies.InitiateBookingRequest{Range: march(), RatePerDay: money.Must(5000, "USD")})
	assert.ErrorIs(t, err, policies.ErrDatesNoLongerAvailable)
}

func TestListPaymentsParsesStatuses(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/payments/customer", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"payment_id": "p1", "booking_id": "b1", "amount": 100, "payment_status": "Partially Refunded", "refund_amount": 50.5},
			{"payment_id": "p2", "booking_id": "b2", "amount": 80.1, "payment_status": "completed"}
		]`))
	})
	items, err := c.ListPayments(context.Background(), session)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, domainpayment.StatusPartiallyRefunded, items[0].Status)
	assert.Equal(t, int64(5050), items[0].RefundAmount.Amount)
	assert.Equal(t, int64(8010), items[1].Amount.Amount)
}

func TestRequestRefundReportsBusinessFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req refundRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 25.0, req.RefundAmount)
		assert.True(t, req.IsPartial)
		_, _ = w.Write([]byte(`{"success": false, "message": "Refund already in progress"}`))
	})
	out, err := c.RequestRefund(context.Background(), session, domainrefund.Request{
		PaymentID: "p1", Amount: money.Must(2500, "USD"), Partial: true,
	})
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, "Refund already in progress", out.Message)
}

func TestCompletePaymentSendsTransactionCode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req completePaymentRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, completePaymentRequest{PaymentID: "p1", TransactionCode: "txn-1"}, req)
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, c.CompletePayment(context.Background(), session, "p1", "txn-1"))
}

func TestMissingBaseURL(t *testing.T) {
	_, err := (&Client{}).ListBookings(context.Background(), session)
	assert.ErrorIs(t, err, ErrBaseURLMissing)
}
