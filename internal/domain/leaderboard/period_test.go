package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/moodgarden/moodgarden-hub/internal/domain/shared"
	"github.com/moodgarden/moodgarden-hub/internal/domain/stats"
)

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("all_time")
	assert.NoError(t, err)
	assert.Equal(t, PeriodAllTime, p)

	p, err = ParsePeriod(" MONTHLY ")
	assert.NoError(t, err)
	assert.Equal(t, PeriodMonthly, p)

	_, err = ParsePeriod("weekly")
	assert.ErrorIs(t, err, shared.ErrUnknownPeriod)
}

func TestResolveFilter_AllTime(t *testing.T) {
	f := ResolveFilter(PeriodAllTime, CategoryLevel, time.Now())
	assert.False(t, f.Active)
	assert.True(t, f.Cutoff.IsZero())

	// An inactive filter matches everything, including empty records.
	assert.True(t, f.Matches(&stats.StatRecord{TelegramID: 1}))
	assert.True(t, f.Matches(nil))
}

func TestResolveFilter_Monthly(t *testing.T) {
	now := time.Date(2026, time.August, 19, 15, 42, 7, 0, time.UTC)

	f := ResolveFilter(PeriodMonthly, CategoryLevel, now)
	assert.True(t, f.Active)
	assert.Equal(t, time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC), f.Cutoff)
	assert.Equal(t, "last_visit_date", f.Column)
	assert.False(t, f.DateOnly)

	f = ResolveFilter(PeriodMonthly, CategoryStreak, now)
	assert.True(t, f.Active)
	assert.Equal(t, "streak_last_checkin", f.Column)
	assert.True(t, f.DateOnly)
	assert.Equal(t, time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC), f.Cutoff)
}

func TestResolveFilter_MonthlyCutoffIsUTC(t *testing.T) {
	// A "now" in a non-UTC zone still yields the UTC month boundary.
	almaty := time.FixedZone("UTC+5", 5*3600)
	now := time.Date(2026, time.September, 1, 2, 0, 0, 0, almaty) // Aug 31 21:00 UTC

	f := ResolveFilter(PeriodMonthly, CategoryLevel, now)
	assert.Equal(t, time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC), f.Cutoff)
}

func TestFilter_Matches(t *testing.T) {
	now := time.Date(2026, time.August, 19, 12, 0, 0, 0, time.UTC)

	t.Run("timestamp column", func(t *testing.T) {
		f := ResolveFilter(PeriodMonthly, CategoryLevel, now)

		inMonth := time.Date(2026, time.August, 3, 9, 30, 0, 0, time.UTC)
		lastMonth := time.Date(2026, time.July, 30, 23, 59, 0, 0, time.UTC)

		assert.True(t, f.Matches(&stats.StatRecord{TelegramID: 1, LastVisitDate: &inMonth}))
		assert.False(t, f.Matches(&stats.StatRecord{TelegramID: 2, LastVisitDate: &lastMonth}))
		assert.False(t, f.Matches(&stats.StatRecord{TelegramID: 3}))
	})

	t.Run("date-only column", func(t *testing.T) {
		f := ResolveFilter(PeriodMonthly, CategoryStreak, now)

		// Exactly on the boundary day counts as active.
		boundary := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
		before := time.Date(2026, time.July, 31, 0, 0, 0, 0, time.UTC)

		assert.True(t, f.Matches(&stats.StatRecord{TelegramID: 1, StreakLastCheckin: &boundary}))
		assert.False(t, f.Matches(&stats.StatRecord{TelegramID: 2, StreakLastCheckin: &before}))
		assert.False(t, f.Matches(&stats.StatRecord{TelegramID: 3}))
	})
}
