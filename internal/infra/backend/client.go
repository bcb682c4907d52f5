package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"carrental/internal/app/policies"
	domainauth "carrental/internal/domain/auth"
	domainbooking "carrental/internal/domain/booking"
	domainpayment "carrental/internal/domain/payment"
	domainrefund "carrental/internal/domain/refund"
	"carrental/internal/domain/shared/daterange"
)

var (
	ErrBaseURLMissing    = errors.New("backend: base url not configured")
	ErrAvailabilityField = errors.New("backend: availability response has no available field")
)

// APIError is a non-2xx answer from the rental backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

// UserMessage is the server provided explanation, if any.
func (e *APIError) UserMessage() string { return e.Message }

// Client talks to the rental REST backend on behalf of the signed-in customer.
type Client struct {
	HTTP     *http.Client
	BaseURL  string
	Currency string
	Logger   *slog.Logger
}

func (c *Client) CheckAvailability(ctx context.Context, sess domainauth.Session, vehicleID string, dr daterange.DateRange) (bool, error) {
	q := url.Values{}
	q.Set("vehicle_id", vehicleID)
	q.Set("pickup_date", daterange.FormatDate(dr.Pickup))
	q.Set("return_date", daterange.FormatDate(dr.Return))
	var resp availabilityResponse
	if err := c.do(ctx, sess, http.MethodGet, "/bookings/availability?"+q.Encode(), nil, &resp); err != nil {
		c.logError("availability check failed", "vehicle_id", vehicleID, err)
		return false, err
	}
	if resp.Available == nil {
		return false, ErrAvailabilityField
	}
	return *resp.Available, nil
}

func (c *Client) InitiateBooking(ctx context.Context, sess domainauth.Session, req policies.InitiateBookingRequest) (policies.InitiateBookingResult, error) {
	payload := initiateBookingRequest{
		CustomerID:     sess.UserID,
		VehicleID:      req.VehicleID,
		ModelID:        req.ModelID,
		PickupDate:     daterange.FormatDate(req.Range.Pickup),
		ReturnDate:     daterange.FormatDate(req.Range.Return),
		PickupBranchID: req.PickupBranchID,
		ReturnBranchID: req.ReturnBranchID,
		RatePerDay:     req.RatePerDay.Major(),
		Notes:          req.Notes,
		PaymentMethod:  req.PaymentMethod,
	}
	var resp initiateBookingResponse
	if err := c.do(ctx, sess, http.MethodPost, "/bookings/initiate", payload, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
			return policies.InitiateBookingResult{}, errors.Join(policies.ErrDatesNoLongerAvailable, err)
		}
		c.logError("booking initiation failed", "vehicle_id", req.VehicleID, err)
		return policies.InitiateBookingResult{}, err
	}
	b, err := resp.Booking.toDomain(c.currency())
	if err != nil {
		return policies.InitiateBookingResult{}, err
	}
	p, err := resp.Payment.toDomain(c.currency())
	if err != nil {
		return policies.InitiateBookingResult{}, err
	}
	return policies.InitiateBookingResult{Booking: b, Payment: p}, nil
}

func (c *Client) ListPayments(ctx context.Context, sess domainauth.Session) ([]domainpayment.Payment, error) {
	var wire []wirePayment
	if err := c.do(ctx, sess, http.MethodGet, "/payments/customer", nil, &wire); err != nil {
		return nil, err
	}
	out := make([]domainpayment.Payment, 0, len(wire))
	for _, w := range wire {
		p, err := w.toDomain(c.currency())
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *Client) ListBookings(ctx context.Context, sess domainauth.Session) ([]domainbooking.Booking, error) {
	var wire []wireBooking
	if err := c.do(ctx, sess, http.MethodGet, "/bookings/customer", nil, &wire); err != nil {
		return nil, err
	}
	out := make([]domainbooking.Booking, 0, len(wire))
	for _, w := range wire {
		b, err := w.toDomain(c.currency())
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (c *Client) RequestRefund(ctx context.Context, sess domainauth.Session, req domainrefund.Request) (policies.RefundOutcome, error) {
	payload := refundRequest{
		PaymentID:    string(req.PaymentID),
		RefundAmount: req.Amount.Major(),
		IsPartial:    req.Partial,
		Reason:       req.Reason,
	}
	// The refund endpoint reports business failures in the body, so it is not unwrapped
	// from a data envelope.
	var resp refundResponse
	if err := c.doRaw(ctx, sess, http.MethodPost, "/payments/refund", payload, &resp); err != nil {
		return policies.RefundOutcome{}, err
	}
	return policies.RefundOutcome{Success: resp.Success, Message: resp.Message}, nil
}

func (c *Client) CompletePayment(ctx context.Context, sess domainauth.Session, paymentID domainpayment.PaymentID, transactionCode string) error {
	payload := completePaymentRequest{PaymentID: string(paymentID), TransactionCode: transactionCode}
	return c.do(ctx, sess, http.MethodPost, "/payments/complete", payload, nil)
}

// do sends the request and decodes the payload, unwrapping a {"data": ...} envelope.
func (c *Client) do(ctx context.Context, sess domainauth.Session, method, path string, body any, out any) error {
	var raw json.RawMessage
	if err := c.doRaw(ctx, sess, method, path, body, &raw); err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(unwrapEnvelope(raw), out)
}

func (c *Client) doRaw(ctx context.Context, sess domainauth.Session, method, path string, body any, out any) error {
	if c.BaseURL == "" {
		return ErrBaseURLMissing
	}
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.BaseURL, "/")+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+string(sess.Token))
	}

	resp, err := c.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Message: errorMessage(snippet)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("backend: decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) client() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 30 * time.Second}
}

func (c *Client) currency() string {
	if c.Currency != "" {
		return c.Currency
	}
	return "USD"
}

func (c *Client) logError(msg, key, value string, err error) {
	if c.Logger == nil {
		return
	}
	c.Logger.Error(msg, key, value, "error", err)
}

var _ policies.RentalBackend = (*Client)(nil)
