package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrental/internal/app/commands"
	"carrental/internal/app/dto"
	draftsapp "carrental/internal/app/handlers/drafts"
	imagesapp "carrental/internal/app/handlers/images"
	paymentsapp "carrental/internal/app/handlers/payments"
	quoteapp "carrental/internal/app/handlers/quote"
	refundsapp "carrental/internal/app/handlers/refunds"
	"carrental/internal/app/policies"
	"carrental/internal/app/queries"
	domainauth "carrental/internal/domain/auth"
	domainavailability "carrental/internal/domain/availability"
	"carrental/internal/domain/refund"
	"carrental/internal/infra/config"
	"carrental/internal/infra/obs"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct{}

func (fakeVerifier) Verify(raw string) (domainauth.Session, error) {
	if raw != "good" {
		return domainauth.Session{}, errors.New("bad token")
	}
	return domainauth.Session{Token: "good", UserID: "cust-1", Email: "c@example.com", Roles: []string{"customer"}}, nil
}

type harness struct {
	cmds    *commands.InMemoryBus
	queries *queries.InMemoryBus
	router  *gin.Engine
}

func newHarness() *harness {
	h := &harness{cmds: commands.NewInMemoryBus(), queries: queries.NewInMemoryBus()}
	cfg := config.Config{Env: "test", CORSOrigins: []string{"http://localhost:5173"}}
	h.router = NewRouter(cfg, obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Drafts:         DraftHandler{Commands: h.cmds, Queries: h.queries, Currency: "USD"},
		Quote:          QuoteHandler{Queries: h.queries, Currency: "USD"},
		Payments:       PaymentHandler{Commands: h.cmds, Queries: h.queries},
		Refunds:        RefundHandler{Commands: h.cmds, Currency: "USD"},
		Images:         ImageHandler{Commands: h.cmds},
		AuthMiddleware: AuthMiddleware{Verifier: fakeVerifier{}}.Handle,
	})
	return h
}

func (h *harness) do(method, path string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer good")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestRequiresSession(t *testing.T) {
	h := newHarness()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil)
	req.Header.Set("Authorization", "Bearer expired")
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOpenDraftConvertsRateToMinorUnits(t *testing.T) {
	h := newHarness()
	var got draftsapp.OpenCommand
	commands.RegisterFunc(h.cmds,
		func(_ context.Context, cmd draftsapp.OpenCommand) (*dto.DraftView, error) {
			got = cmd
			return &dto.DraftView{ID: "d-1", VehicleID: cmd.VehicleID}, nil
		})

	rec := h.do(http.MethodPost, "/api/v1/drafts", strings.NewReader(`{"vehicle_id":"veh-9","daily_rate":49.99}`), nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "cust-1", got.Session.UserID)
	assert.Equal(t, int64(4999), got.DailyRate.Amount)
	assert.Equal(t, "USD", got.DailyRate.Currency)
}

func TestSetDatesRejectsMalformedDateLocally(t *testing.T) {
	h := newHarness()
	called := false
	commands.RegisterFunc(h.cmds,
		func(context.Context, draftsapp.SetDatesCommand) (*dto.DraftView, error) {
			called = true
			return &dto.DraftView{}, nil
		})

	rec := h.do(http.MethodPut, "/api/v1/drafts/d-1/dates", strings.NewReader(`{"pickup_date":"03/01/2024"}`), nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)
}

func TestSubmitPassesIdempotencyKeyAndMapsConflicts(t *testing.T) {
	h := newHarness()
	var key string
	commands.RegisterFunc(h.cmds,
		func(_ context.Context, cmd draftsapp.SubmitCommand) (*dto.DraftView, error) {
			key = cmd.IdempotencyKeyV
			return nil, policies.ErrDatesNoLongerAvailable
		})

	rec := h.do(http.MethodPost, "/api/v1/drafts/d-1/submit", nil, map[string]string{"Idempotency-Key": "abc"})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "abc", key)
}

func TestSubmitWithUnverifiedAvailability(t *testing.T) {
	h := newHarness()
	commands.RegisterFunc(h.cmds,
		func(context.Context, draftsapp.SubmitCommand) (*dto.DraftView, error) {
			return nil, domainavailability.ErrUnverified
		})

	rec := h.do(http.MethodPost, "/api/v1/drafts/d-1/submit", nil, nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRefundRejectionMessageIsVerbatim(t *testing.T) {
	h := newHarness()
	var got refundsapp.RequestCommand
	commands.RegisterFunc(h.cmds,
		func(_ context.Context, cmd refundsapp.RequestCommand) (*dto.RefundResult, error) {
			got = cmd
			return nil, &refundsapp.RejectedError{Message: "Refund window has closed"}
		})

	rec := h.do(http.MethodPost, "/api/v1/payments/pay-1/refund", strings.NewReader(`{"amount":20,"partial":true,"reason":"plans changed"}`), nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Refund window has closed", decodeError(t, rec))
	assert.Equal(t, "pay-1", got.PaymentID)
	assert.Equal(t, int64(2000), got.Amount.Amount)
	assert.True(t, got.Partial)
}

func TestCompletePaymentPending(t *testing.T) {
	h := newHarness()
	commands.RegisterFunc(h.cmds,
		func(context.Context, paymentsapp.CompleteCommand) (*dto.CompletePaymentResult, error) {
			return nil, paymentsapp.ErrPaymentPending
		})

	rec := h.do(http.MethodPost, "/api/v1/payments/pay-1/complete", nil, nil)

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestCompletePaymentPassesMethodToken(t *testing.T) {
	h := newHarness()
	var got paymentsapp.CompleteCommand
	commands.RegisterFunc(h.cmds,
		func(_ context.Context, cmd paymentsapp.CompleteCommand) (*dto.CompletePaymentResult, error) {
			got = cmd
			return &dto.CompletePaymentResult{PaymentID: cmd.PaymentID, Status: "Completed"}, nil
		})

	rec := h.do(http.MethodPost, "/api/v1/payments/pay-1/complete",
		strings.NewReader(`{"payment_method_token":"pm_123"}`), map[string]string{"Idempotency-Key": "k1"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pay-1", got.PaymentID)
	assert.Equal(t, "pm_123", got.PaymentMethodToken)
	assert.Equal(t, "k1", got.IdempotencyKeyV)
}

func TestListPaymentsFreshFlag(t *testing.T) {
	h := newHarness()
	var fresh bool
	queries.RegisterFunc(h.queries,
		func(_ context.Context, q paymentsapp.ListQuery) (*dto.PaymentCollection, error) {
			fresh = q.Fresh
			return &dto.PaymentCollection{Items: []dto.PaymentView{{ID: "pay-1", Refundable: true}}}, nil
		})

	rec := h.do(http.MethodGet, "/api/v1/payments?fresh=true", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, fresh)
	var body dto.PaymentCollection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.True(t, body.Items[0].Refundable)
}

func TestComputeQuoteThroughRealHandler(t *testing.T) {
	h := newHarness()
	queries.Register(h.queries, queries.Handler[quoteapp.ComputeQuery, *dto.Quote](quoteapp.ComputeHandler{}))

	rec := h.do(http.MethodGet, "/api/v1/quote?pickup_date=2024-03-01&return_date=2024-03-04&daily_rate=50", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var q dto.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
	assert.Equal(t, 3, q.RentalDays)
	assert.Equal(t, int64(15000), q.Total.Amount)
	assert.Equal(t, "150.00", q.Total.Display)
}

func TestUploadImage(t *testing.T) {
	h := newHarness()
	var got imagesapp.UploadCommand
	var body []byte
	commands.RegisterFunc(h.cmds,
		func(_ context.Context, cmd imagesapp.UploadCommand) (*policies.UploadedImage, error) {
			got = cmd
			body, _ = io.ReadAll(cmd.Body)
			return &policies.UploadedImage{URL: "http://cdn/vehicles/x.jpg", Format: "jpg", PublicID: "vehicles/x"}, nil
		})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="file"; filename="car.jpg"`},
		"Content-Type":        {"image/jpeg"},
	})
	require.NoError(t, err)
	_, _ = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, mw.Close())

	rec := h.do(http.MethodPost, "/api/v1/admin/images", &buf, map[string]string{"Content-Type": mw.FormDataContentType()})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "car.jpg", got.FileName)
	assert.Equal(t, "image/jpeg", got.ContentType)
	assert.Equal(t, []byte("jpeg-bytes"), body)
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		draftsapp.ErrDraftNotFound:      http.StatusNotFound,
		imagesapp.ErrForbidden:          http.StatusForbidden,
		domainauth.ErrSessionExpired:    http.StatusUnauthorized,
		refund.ErrAmountOutOfRange:      http.StatusUnprocessableEntity,
		draftsapp.ErrSubmissionInFlight: http.StatusConflict,
		errors.New("backend down"):      http.StatusBadGateway,
	}
	for err, want := range cases {
		assert.Equal(t, want, statusFor(err), err.Error())
	}
}
