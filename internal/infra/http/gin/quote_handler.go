package ginserver

import (
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"carrental/internal/app/dto"
	quoteapp "carrental/internal/app/handlers/quote"
	"carrental/internal/app/queries"
	"carrental/internal/domain/shared/money"
)

type QuoteHandler struct {
	Queries  queries.Bus
	Currency string
}

func (h QuoteHandler) Compute(c *gin.Context) {
	rate, err := strconv.ParseFloat(c.DefaultQuery("daily_rate", "0"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "daily_rate must be a number"})
		return
	}
	dailyRate, err := money.FromMajor(rate, currencyOr(c.Query("currency"), h.Currency))
	if err != nil {
		writeError(c, err)
		return
	}
	q := quoteapp.ComputeQuery{
		PickupDate: c.Query("pickup_date"),
		ReturnDate: c.Query("return_date"),
		DailyRate:  dailyRate,
	}
	result, err := queries.Ask[quoteapp.ComputeQuery, *dto.Quote](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ QuoteHTTP = QuoteHandler{}
