package ginserver

import (
	"errors"
	"io"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"carrental/internal/app/commands"
	"carrental/internal/app/dto"
	paymentsapp "carrental/internal/app/handlers/payments"
	refundsapp "carrental/internal/app/handlers/refunds"
	"carrental/internal/app/queries"
	"carrental/internal/domain/shared/money"
)

type PaymentHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func (h PaymentHandler) List(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	q := paymentsapp.ListQuery{Session: sess, Fresh: c.Query("fresh") == "true"}
	result, err := queries.Ask[paymentsapp.ListQuery, *dto.PaymentCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type completeRequest struct {
	PaymentMethodToken string `json:"payment_method_token"`
}

func (h PaymentHandler) Complete(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	var req completeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	cmd := paymentsapp.CompleteCommand{
		Session:            sess,
		PaymentID:          c.Param("id"),
		PaymentMethodToken: req.PaymentMethodToken,
		IdempotencyKeyV:    c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[paymentsapp.CompleteCommand, *dto.CompletePaymentResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type RefundHandler struct {
	Commands commands.Bus
	Currency string
}

type refundRequest struct {
	Amount  float64 `json:"amount"`
	Partial bool    `json:"partial"`
	Reason  string  `json:"reason"`
}

func (h RefundHandler) Request(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, err := money.FromMajor(req.Amount, h.Currency)
	if err != nil {
		writeError(c, err)
		return
	}
	cmd := refundsapp.RequestCommand{
		Session:         sess,
		PaymentID:       c.Param("id"),
		Amount:          amount,
		Partial:         req.Partial,
		Reason:          req.Reason,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[refundsapp.RequestCommand, *dto.RefundResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var (
	_ PaymentHTTP = PaymentHandler{}
	_ RefundHTTP  = RefundHandler{}
)
