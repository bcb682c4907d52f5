package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrental/internal/domain/shared/money"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeQuote(t *testing.T) {
	q, err := ComputeQuote(date(2024, 3, 1), date(2024, 3, 4), money.Must(5000, "USD"))
	require.NoError(t, err)
	assert.Equal(t, 3, q.RentalDays)
	assert.Equal(t, money.Must(15000, "USD"), q.Total)
	assert.Equal(t, "150.00", q.Total.Decimal())
	assert.True(t, q.Actionable())
}

func TestComputeQuoteIsExactForWholeDays(t *testing.T) {
	rate := money.Must(3333, "USD")
	for days := 1; days <= 400; days++ {
		q, err := ComputeQuote(date(2024, 1, 1), date(2024, 1, 1).AddDate(0, 0, days), rate)
		require.NoError(t, err)
		require.Equal(t, days, q.RentalDays)
		require.Equal(t, int64(days)*3333, q.Total.Amount)
	}
}

func TestComputeQuoteInvalidRange(t *testing.T) {
	cases := []struct {
		name         string
		pickup, back time.Time
	}{
		{"same day", date(2024, 3, 4), date(2024, 3, 4)},
		{"reversed", date(2024, 3, 5), date(2024, 3, 1)},
		{"missing return", date(2024, 3, 5), time.Time{}},
		{"same day different hours", date(2024, 3, 4).Add(8 * time.Hour), date(2024, 3, 4).Add(20 * time.Hour)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := ComputeQuote(tc.pickup, tc.back, money.Must(5000, "USD"))
			require.NoError(t, err)
			assert.Equal(t, 0, q.RentalDays)
			assert.True(t, q.Total.IsZero())
			assert.False(t, q.Actionable())
		})
	}
}

func TestComputeQuoteRejectsNegativeRate(t *testing.T) {
	_, err := ComputeQuote(date(2024, 3, 1), date(2024, 3, 4), money.Must(-1, "USD"))
	assert.ErrorIs(t, err, ErrNegativeRate)

	_, err = ComputeQuote(date(2024, 3, 1), date(2024, 3, 4), money.Money{Amount: 100})
	assert.ErrorIs(t, err, ErrCurrencyUnset)
}

func TestComputeQuoteZeroRate(t *testing.T) {
	q, err := ComputeQuote(date(2024, 3, 1), date(2024, 3, 3), money.Must(0, "USD"))
	require.NoError(t, err)
	assert.Equal(t, 2, q.RentalDays)
	assert.True(t, q.Total.IsZero())
	assert.True(t, q.Actionable())
}
