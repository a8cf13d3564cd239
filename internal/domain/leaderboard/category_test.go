package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moodgarden/moodgarden-hub/internal/domain/shared"
	"github.com/moodgarden/moodgarden-hub/internal/domain/stats"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{"level", CategoryLevel, false},
		{"streak", CategoryStreak, false},
		{"elements", CategoryElements, false},
		{"LEVEL", CategoryLevel, false},
		{" Streak ", CategoryStreak, false},
		{"xp", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseCategory(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, shared.ErrUnknownCategory, "input %q", tt.in)
			continue
		}
		assert.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestMetricRegistry_Columns(t *testing.T) {
	level, ok := MetricFor(CategoryLevel)
	assert.True(t, ok)
	assert.Equal(t, "level", level.PrimaryColumn)
	assert.Equal(t, "experience", level.SecondaryColumn)
	assert.Equal(t, "last_visit_date", level.ActivityColumn)
	assert.False(t, level.DateOnlyCutoff)

	streak, ok := MetricFor(CategoryStreak)
	assert.True(t, ok)
	assert.Equal(t, "current_streak", streak.PrimaryColumn)
	assert.Equal(t, "longest_streak", streak.SecondaryColumn)
	assert.Equal(t, "streak_last_checkin", streak.ActivityColumn)
	assert.True(t, streak.DateOnlyCutoff)

	elements, ok := MetricFor(CategoryElements)
	assert.True(t, ok)
	assert.Equal(t, "total_elements", elements.PrimaryColumn)
	assert.Equal(t, "rare_elements_found", elements.SecondaryColumn)

	_, ok = MetricFor(Category("xp"))
	assert.False(t, ok)
}

func TestMetric_ScoreCoercesLooseValues(t *testing.T) {
	m, _ := MetricFor(CategoryStreak)

	// A record with a garbage streak counts as 0, it is not dropped.
	r := &stats.StatRecord{TelegramID: 1, CurrentStreak: "abc", LongestStreak: 30}
	assert.Equal(t, 0.0, m.Score(r))
	assert.Equal(t, 30.0, m.TieBreak(r))

	r = &stats.StatRecord{TelegramID: 2, CurrentStreak: "12", LongestStreak: nil}
	assert.Equal(t, 12.0, m.Score(r))
	assert.Equal(t, 0.0, m.TieBreak(r))
}

func TestCategories_StableOrder(t *testing.T) {
	assert.Equal(t, []Category{CategoryLevel, CategoryStreak, CategoryElements}, Categories())
}

func TestIsVisibleCompetitor(t *testing.T) {
	assert.False(t, IsVisibleCompetitor(nil))

	visible := &stats.StatRecord{TelegramID: 1}
	assert.True(t, IsVisibleCompetitor(visible))

	hidden := &stats.StatRecord{
		TelegramID:      2,
		PrivacySettings: map[string]any{"showProfile": false},
	}
	assert.False(t, IsVisibleCompetitor(hidden))

	// Hiding the garden does not remove the user from competition.
	gardenHidden := &stats.StatRecord{
		TelegramID:      3,
		PrivacySettings: map[string]any{"showGarden": false},
	}
	assert.True(t, IsVisibleCompetitor(gardenHidden))

	corrupted := &stats.StatRecord{TelegramID: 4, PrivacySettings: "{{"}
	assert.True(t, IsVisibleCompetitor(corrupted))
}
