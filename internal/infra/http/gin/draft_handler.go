package ginserver

import (
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"carrental/internal/app/commands"
	"carrental/internal/app/dto"
	draftsapp "carrental/internal/app/handlers/drafts"
	"carrental/internal/app/queries"
	"carrental/internal/domain/shared/daterange"
	"carrental/internal/domain/shared/money"
)

type DraftHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Currency string
}

type openDraftRequest struct {
	VehicleID      string  `json:"vehicle_id"`
	ModelID        string  `json:"model_id"`
	DailyRate      float64 `json:"daily_rate"`
	Currency       string  `json:"currency"`
	PickupBranchID string  `json:"pickup_branch_id"`
	ReturnBranchID string  `json:"return_branch_id"`
	PaymentMethod  string  `json:"payment_method"`
	Notes          string  `json:"notes"`
}

type setDatesRequest struct {
	PickupDate string `json:"pickup_date"`
	ReturnDate string `json:"return_date"`
}

func (h DraftHandler) Open(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	var req openDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rate, err := money.FromMajor(req.DailyRate, currencyOr(req.Currency, h.Currency))
	if err != nil {
		writeError(c, err)
		return
	}
	cmd := draftsapp.OpenCommand{
		Session:        sess,
		VehicleID:      req.VehicleID,
		ModelID:        req.ModelID,
		DailyRate:      rate,
		PickupBranchID: req.PickupBranchID,
		ReturnBranchID: req.ReturnBranchID,
		PaymentMethod:  req.PaymentMethod,
		Notes:          req.Notes,
	}
	view, err := commands.Dispatch[draftsapp.OpenCommand, *dto.DraftView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h DraftHandler) Get(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	q := draftsapp.GetQuery{Session: sess, DraftID: c.Param("id")}
	view, err := queries.Ask[draftsapp.GetQuery, *dto.DraftView](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SetDates answers immediately with the recomputed quote; the availability check runs
// in the background and is observed through Get.
func (h DraftHandler) SetDates(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	var req setDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pickup, err := parseOptionalDate(req.PickupDate)
	if err != nil {
		writeError(c, err)
		return
	}
	ret, err := parseOptionalDate(req.ReturnDate)
	if err != nil {
		writeError(c, err)
		return
	}
	cmd := draftsapp.SetDatesCommand{Session: sess, DraftID: c.Param("id"), PickupDate: pickup, ReturnDate: ret}
	view, err := commands.Dispatch[draftsapp.SetDatesCommand, *dto.DraftView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h DraftHandler) Submit(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	cmd := draftsapp.SubmitCommand{
		Session:         sess,
		DraftID:         c.Param("id"),
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	view, err := commands.Dispatch[draftsapp.SubmitCommand, *dto.DraftView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, view)
}

func parseOptionalDate(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	return daterange.ParseDate(raw)
}

func currencyOr(requested, fallback string) string {
	if c := strings.ToUpper(strings.TrimSpace(requested)); c != "" {
		return c
	}
	return fallback
}

var _ DraftHTTP = DraftHandler{}
