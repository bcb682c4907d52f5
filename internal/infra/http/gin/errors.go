package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"carrental/internal/app/commands"
	"carrental/internal/app/handlers/drafts"
	"carrental/internal/app/handlers/images"
	"carrental/internal/app/handlers/payments"
	"carrental/internal/app/handlers/refunds"
	"carrental/internal/app/policies"
	"carrental/internal/app/queries"
	domainauth "carrental/internal/domain/auth"
	domainavailability "carrental/internal/domain/availability"
	domainbooking "carrental/internal/domain/booking"
	"carrental/internal/domain/pricing"
	"carrental/internal/domain/refund"
	"carrental/internal/domain/shared/daterange"
	"carrental/internal/domain/shared/money"
)

// writeError maps application errors onto HTTP answers. Anything unknown is a 502: the
// usual cause is the rental backend, and the client may retry.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	var rejected *refunds.RejectedError
	if errors.As(err, &rejected) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": rejected.Message})
		return
	}
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domainauth.ErrSessionMissing),
		errors.Is(err, domainauth.ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, images.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, drafts.ErrDraftNotFound),
		errors.Is(err, payments.ErrPaymentNotFound),
		errors.Is(err, refunds.ErrPaymentNotFound):
		return http.StatusNotFound
	case errors.Is(err, policies.ErrDatesNoLongerAvailable),
		errors.Is(err, drafts.ErrSubmissionInFlight),
		errors.Is(err, drafts.ErrAlreadySubmitted),
		errors.Is(err, domainavailability.ErrUnavailable),
		errors.Is(err, domainavailability.ErrCheckInFlight),
		errors.Is(err, payments.ErrPaymentNotPending):
		return http.StatusConflict
	case errors.Is(err, domainavailability.ErrUnverified):
		return http.StatusServiceUnavailable
	case errors.Is(err, payments.ErrPaymentPending):
		return http.StatusPaymentRequired
	case errors.Is(err, domainavailability.ErrNotChecked),
		errors.Is(err, drafts.ErrQuoteNotActionable),
		errors.Is(err, domainbooking.ErrPickupInPast),
		errors.Is(err, refund.ErrAmountOutOfRange),
		errors.Is(err, refund.ErrNotEligible):
		return http.StatusUnprocessableEntity
	case errors.Is(err, drafts.ErrVehicleRequired),
		errors.Is(err, drafts.ErrInvalidRate),
		errors.Is(err, payments.ErrPaymentIDRequired),
		errors.Is(err, refunds.ErrPaymentIDRequired),
		errors.Is(err, images.ErrBodyRequired),
		errors.Is(err, images.ErrUnsupportedContent),
		errors.Is(err, pricing.ErrNegativeRate),
		errors.Is(err, pricing.ErrCurrencyUnset),
		errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, daterange.ErrMissingDate),
		errors.Is(err, daterange.ErrInvalidDate),
		errors.Is(err, money.ErrInvalidCurrency),
		errors.Is(err, money.ErrCurrencyMismatch):
		return http.StatusBadRequest
	case errors.Is(err, images.ErrHostUnavailable),
		errors.Is(err, payments.ErrGatewayMissing),
		errors.Is(err, commands.ErrHandlerNotFound),
		errors.Is(err, queries.ErrHandlerNotFound):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
