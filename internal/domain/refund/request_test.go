package refund

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrental/internal/domain/shared/money"
)

func TestFullRefundDefaultsToPaymentAmount(t *testing.T) {
	req, err := NewRequest(completedPayment(), money.Money{}, false, "")
	require.NoError(t, err)
	assert.Equal(t, money.Must(10000, "USD"), req.Amount)
	assert.False(t, req.Partial)
}

func TestPartialRefundBounds(t *testing.T) {
	p := completedPayment()

	req, err := NewRequest(p, money.Must(2500, "USD"), true, "changed plans")
	require.NoError(t, err)
	assert.Equal(t, int64(2500), req.Amount.Amount)
	assert.Equal(t, "changed plans", req.Reason)

	req, err = NewRequest(p, money.Must(10000, "USD"), true, "")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), req.Amount.Amount)

	for _, amount := range []int64{0, -100, 10001} {
		_, err := NewRequest(p, money.Must(amount, "USD"), true, "")
		assert.ErrorIs(t, err, ErrAmountOutOfRange, amount)
	}
}

func TestPartialRefundCurrencyMustMatch(t *testing.T) {
	_, err := NewRequest(completedPayment(), money.Must(100, "EUR"), true, "")
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)
}
