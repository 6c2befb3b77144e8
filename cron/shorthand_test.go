package cron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShorthand_Expressions(t *testing.T) {
	must := func(e *Expression, err error) *Expression {
		require.NoError(t, err)
		return e
	}

	tests := []struct {
		name string
		expr *Expression
		want string
	}{
		{"EverySecond", EverySecond(), "* * * * * *"},
		{"EverySeconds", must(EverySeconds(10)), "*/10 * * * * *"},
		{"EveryMinute", EveryMinute(), "0 * * * * *"},
		{"EveryMinutes", must(EveryMinutes(15)), "0 */15 * * * *"},
		{"Hourly", Hourly(), "0 0 * * * *"},
		{"HourlyAt", must(HourlyAt(30)), "0 30 * * * *"},
		{"EveryHours", must(EveryHours(6)), "0 0 */6 * * *"},
		{"Daily", Daily(), "0 0 0 * * *"},
		{"DailyAtHour", must(DailyAtHour(13)), "0 0 13 * * *"},
		{"DailyAt", must(DailyAt(13, 45)), "0 45 13 * * *"},
		{"Weekly", Weekly(), "0 0 0 * * 1"},
		{"Monthly", Monthly(), "0 0 0 1 * *"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.expr.String())
		})
	}
}

func TestShorthand_OutOfRange(t *testing.T) {
	tests := []struct {
		name string
		fn   func() (*Expression, error)
	}{
		{"EverySeconds zero", func() (*Expression, error) { return EverySeconds(0) }},
		{"EverySeconds 60", func() (*Expression, error) { return EverySeconds(60) }},
		{"EveryMinutes negative", func() (*Expression, error) { return EveryMinutes(-1) }},
		{"HourlyAt 60", func() (*Expression, error) { return HourlyAt(60) }},
		{"EveryHours 24", func() (*Expression, error) { return EveryHours(24) }},
		{"DailyAt hour", func() (*Expression, error) { return DailyAt(24, 0) }},
		{"DailyAt minute", func() (*Expression, error) { return DailyAt(0, 60) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := tt.fn()
			assert.Nil(t, e)
			assert.ErrorIs(t, err, ErrMalformedExpression)
		})
	}
}

func TestShorthand_DailyAtIsDue(t *testing.T) {
	expr, err := DailyAt(18, 5)
	require.NoError(t, err)

	assert.True(t, expr.IsDue(time.Date(2018, time.January, 1, 18, 5, 0, 0, time.UTC)))
	assert.False(t, expr.IsDue(time.Date(2018, time.January, 1, 18, 5, 1, 0, time.UTC)))
	assert.False(t, expr.IsDue(time.Date(2018, time.January, 1, 6, 5, 0, 0, time.UTC)))
}

func TestExpression_OnDays(t *testing.T) {
	base := Daily()

	weekdays, err := base.OnDays(Weekdays()...)
	require.NoError(t, err)
	assert.Equal(t, "0 0 0 * * 1,2,3,4,5", weekdays.String())
	assert.Equal(t, "0 0 0 * * *", base.String(), "original expression must stay untouched")

	// 2018-08-12 周日 ~ 2018-08-18 周六
	sunday := time.Date(2018, time.August, 12, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		day := sunday.AddDate(0, 0, i)
		isWeekday := day.Weekday() != time.Saturday && day.Weekday() != time.Sunday
		assert.Equal(t, isWeekday, weekdays.IsDue(day), day.Weekday().String())
	}

	weekends, err := base.OnDays(Weekends()...)
	require.NoError(t, err)
	assert.Equal(t, "0 0 0 * * 0,6", weekends.String())

	monday, err := base.OnDays(time.Monday, time.Monday)
	require.NoError(t, err)
	assert.Equal(t, "0 0 0 * * 1", monday.String())

	_, err = base.OnDays()
	assert.ErrorIs(t, err, ErrMalformedExpression)

	_, err = base.OnDays(time.Weekday(7))
	assert.ErrorIs(t, err, ErrMalformedExpression)
}
