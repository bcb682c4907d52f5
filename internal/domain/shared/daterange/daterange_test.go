package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(ISODate, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCalendarDays(t *testing.T) {
	dr, err := New(day("2024-03-01"), day("2024-03-04"))
	require.NoError(t, err)
	assert.Equal(t, 3, dr.CalendarDays())
}

func TestCalendarDaysIgnoresTimeOfDay(t *testing.T) {
	dr := DateRange{
		Pickup: time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC),
		Return: time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, 1, dr.CalendarDays())
}

func TestCalendarDaysAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	// 2024-03-10 has 23 hours in New York.
	dr := DateRange{
		Pickup: time.Date(2024, 3, 9, 0, 0, 0, 0, loc),
		Return: time.Date(2024, 3, 12, 0, 0, 0, 0, loc),
	}
	assert.Equal(t, 3, dr.CalendarDays())
}

func TestValidate(t *testing.T) {
	_, err := New(day("2024-03-04"), day("2024-03-04"))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(day("2024-03-05"), day("2024-03-04"))
	assert.ErrorIs(t, err, ErrInvalidRange)

	err = DateRange{Pickup: day("2024-03-01")}.Validate()
	assert.ErrorIs(t, err, ErrMissingDate)
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, day("2024-03-01"), got)

	got, err = ParseDate("2024-03-01T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", FormatDate(got))

	_, err = ParseDate("01/03/2024")
	assert.Error(t, err)
}

func TestEqualComparesCalendarDates(t *testing.T) {
	a := DateRange{Pickup: day("2024-03-01"), Return: day("2024-03-04")}
	b := DateRange{Pickup: day("2024-03-01").Add(5 * time.Hour), Return: day("2024-03-04")}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(DateRange{Pickup: day("2024-03-02"), Return: day("2024-03-04")}))
}
