package streak

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	require.NoError(t, err)
	return d
}

func ptr(d civil.Date) *civil.Date { return &d }

func TestCheck(t *testing.T) {
	today := date(t, "2024-01-05")

	tests := []struct {
		name    string
		last    *civil.Date
		current int
		want    Decision
	}{
		{"no stamp", nil, 0, Decision{Kind: NeedsStreak, Streak: 0}},
		{"same day", ptr(date(t, "2024-01-05")), 3, Decision{Kind: Unchanged, DaysDiff: 0, Streak: 3}},
		{"yesterday", ptr(date(t, "2024-01-04")), 3, Decision{Kind: Continues, DaysDiff: 1, Streak: 3}},
		{"four days ago", ptr(date(t, "2024-01-01")), 9, Decision{Kind: Broken, DaysDiff: 4, Streak: 0}},
		{"stamp in the future", ptr(date(t, "2024-01-06")), 2, Decision{Kind: Unchanged, DaysDiff: -1, Streak: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Check(tt.last, today, tt.current)
			assert.Equal(t, tt.want, got)
			// same inputs, same decision class
			assert.Equal(t, got.Kind, Check(tt.last, today, tt.current).Kind)
		})
	}
}

func TestCheckBrokenAlwaysZero(t *testing.T) {
	today := date(t, "2024-03-01")
	for gap := 2; gap < 40; gap++ {
		for _, current := range []int{0, 1, 7, 365} {
			d := Check(ptr(today.AddDays(-gap)), today, current)
			assert.Equal(t, Broken, d.Kind)
			assert.Zero(t, d.Streak)
		}
	}
}

func TestOnCompletion(t *testing.T) {
	today := date(t, "2024-01-02")

	next, isNew := OnCompletion(ptr(date(t, "2024-01-01")), today, 4)
	assert.Equal(t, 5, next)
	assert.True(t, isNew)

	next, isNew = OnCompletion(ptr(today), today, 5)
	assert.Equal(t, 5, next)
	assert.False(t, isNew)

	next, isNew = OnCompletion(nil, today, 0)
	assert.Equal(t, 1, next)
	assert.True(t, isNew)

	// broken streak that was already swept to zero
	next, isNew = OnCompletion(ptr(date(t, "2023-12-20")), today, 0)
	assert.Equal(t, 1, next)
	assert.True(t, isNew)

	// broken streak that was never swept
	next, isNew = OnCompletion(ptr(date(t, "2023-12-20")), today, 6)
	assert.Equal(t, 1, next)
	assert.False(t, isNew)
}

func TestOnCompletionContinuation(t *testing.T) {
	today := date(t, "2024-06-10")
	for current := 0; current < 50; current++ {
		next, isNew := OnCompletion(ptr(today.AddDays(-1)), today, current)
		assert.Equal(t, current+1, next)
		assert.True(t, isNew)
	}
}

func TestOnRetreat(t *testing.T) {
	today := date(t, "2024-01-05")
	next, stamp := OnRetreat(today)
	assert.Zero(t, next)
	assert.Equal(t, today, stamp)
}

func TestToday(t *testing.T) {
	now := time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, date(t, "2024-01-01"), Today(now, nil))

	tokyo := time.FixedZone("JST", 9*60*60)
	assert.Equal(t, date(t, "2024-01-02"), Today(now, tokyo))
}
