package query

import (
	"context"
	"errors"
	"math"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/moodgarden/moodgarden-hub/internal/domain/leaderboard"
	"github.com/moodgarden/moodgarden-hub/internal/domain/shared"
	"github.com/moodgarden/moodgarden-hub/internal/domain/stats"
)

// ══════════════════════════════════════════════════════════════════════════════
// FAKE STAT READER
// ══════════════════════════════════════════════════════════════════════════════

// fakeStatReader is an in-memory StatReader applying the same predicates the
// SQL implementation pushes into the store.
type fakeStatReader struct {
	records []*stats.StatRecord
	err     error
}

func (f *fakeStatReader) FetchWindow(_ context.Context, category leaderboard.Category, filter leaderboard.Filter, limit int) ([]*stats.StatRecord, error) {
	if f.err != nil {
		return nil, f.err
	}

	m, _ := leaderboard.MetricFor(category)

	var out []*stats.StatRecord
	for _, r := range f.records {
		if filter.Matches(r) {
			out = append(out, r)
		}
	}

	// Store ordering is advisory: primary then secondary, no final tie-break.
	sort.SliceStable(out, func(i, j int) bool {
		if m.Score(out[i]) != m.Score(out[j]) {
			return m.Score(out[i]) > m.Score(out[j])
		}
		return m.TieBreak(out[i]) > m.TieBreak(out[j])
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStatReader) GetRecord(_ context.Context, id stats.TelegramID, filter leaderboard.Filter) (*stats.StatRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.records {
		if r.TelegramID == id && filter.Matches(r) {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeStatReader) CountHigherPrimary(_ context.Context, category leaderboard.Category, filter leaderboard.Filter, exclude stats.TelegramID, primary float64) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	m, _ := leaderboard.MetricFor(category)

	count := 0
	for _, r := range f.records {
		if r.TelegramID == exclude || !filter.Matches(r) || !leaderboard.IsVisibleCompetitor(r) {
			continue
		}
		score := m.Score(r)
		if stats.IsFinite(score) && score > primary {
			count++
		}
	}
	return count, nil
}

func (f *fakeStatReader) CountTiedHigherSecondary(_ context.Context, category leaderboard.Category, filter leaderboard.Filter, exclude stats.TelegramID, primary, secondary float64) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	m, _ := leaderboard.MetricFor(category)

	count := 0
	for _, r := range f.records {
		if r.TelegramID == exclude || !filter.Matches(r) || !leaderboard.IsVisibleCompetitor(r) {
			continue
		}
		if m.Score(r) == primary && m.TieBreak(r) > secondary {
			count++
		}
	}
	return count, nil
}

func streakRecord(id int64, current, longest any) *stats.StatRecord {
	return &stats.StatRecord{
		TelegramID:    stats.TelegramID(id),
		CurrentStreak: current,
		LongestStreak: longest,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

func TestGetLeaderboard_TopKWithTieBreak(t *testing.T) {
	// A: 10/20, B: 10/30, C: 5/50. Expect [B, A] for limit=2.
	reader := &fakeStatReader{records: []*stats.StatRecord{
		streakRecord(1, 10, 20),
		streakRecord(2, 10, 30),
		streakRecord(3, 5, 50),
	}}
	h := NewGetLeaderboardHandler(reader)

	result, err := h.Handle(context.Background(), GetLeaderboardQuery{
		Category: "streak",
		Period:   "all_time",
		Limit:    2,
	})

	assert.NoError(t, err)
	assert.Len(t, result.Entries, 2)
	assert.Equal(t, int64(2), result.Entries[0].User.TelegramID)
	assert.Equal(t, 1, result.Entries[0].Rank)
	assert.Equal(t, int64(1), result.Entries[1].User.TelegramID)
	assert.Equal(t, 2, result.Entries[1].Rank)
	assert.Nil(t, result.ViewerPosition)
	assert.Equal(t, "streak", result.Category)
	assert.Equal(t, "all_time", result.Period)
}

func TestGetLeaderboard_InvalidCategory(t *testing.T) {
	h := NewGetLeaderboardHandler(&fakeStatReader{})

	_, err := h.Handle(context.Background(), GetLeaderboardQuery{
		Category: "xp",
		Period:   "all_time",
	})

	assert.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	assert.ErrorIs(t, err, shared.ErrUnknownCategory)
}

func TestGetLeaderboard_EmptyCategoryAndPeriodRejected(t *testing.T) {
	// Пустое значение - та же ошибка валидации, что и неизвестное:
	// подстановки по умолчанию нет.
	h := NewGetLeaderboardHandler(&fakeStatReader{})

	_, err := h.Handle(context.Background(), GetLeaderboardQuery{Category: "", Period: "all_time"})
	assert.ErrorIs(t, err, shared.ErrUnknownCategory)

	_, err = h.Handle(context.Background(), GetLeaderboardQuery{Category: "level", Period: ""})
	assert.ErrorIs(t, err, shared.ErrUnknownPeriod)
}

func TestGetLeaderboard_InvalidPeriod(t *testing.T) {
	h := NewGetLeaderboardHandler(&fakeStatReader{})

	_, err := h.Handle(context.Background(), GetLeaderboardQuery{
		Category: "level",
		Period:   "weekly",
	})

	assert.True(t, shared.IsValidation(err))
}

func TestGetLeaderboard_LimitClamped(t *testing.T) {
	records := make([]*stats.StatRecord, 0, 60)
	for i := int64(1); i <= 60; i++ {
		records = append(records, streakRecord(i, i, 0))
	}
	h := NewGetLeaderboardHandler(&fakeStatReader{records: records})

	result, err := h.Handle(context.Background(), GetLeaderboardQuery{
		Category: "streak",
		Period:   "all_time",
		Limit:    500,
	})

	assert.NoError(t, err)
	assert.Len(t, result.Entries, MaxLimit)
}

func TestGetLeaderboard_StoreUnavailable(t *testing.T) {
	reader := &fakeStatReader{err: errors.New("connection refused")}
	h := NewGetLeaderboardHandler(reader)

	_, err := h.Handle(context.Background(), GetLeaderboardQuery{
		Category: "level",
		Period:   "all_time",
	})

	assert.Error(t, err)
	assert.True(t, shared.IsStoreUnavailable(err))
}

func TestGetLeaderboard_ViewerInTopK(t *testing.T) {
	reader := &fakeStatReader{records: []*stats.StatRecord{
		streakRecord(1, 10, 20),
		streakRecord(2, 10, 30),
	}}
	h := NewGetLeaderboardHandler(reader)

	result, err := h.Handle(context.Background(), GetLeaderboardQuery{
		Category:         "streak",
		Period:           "all_time",
		Limit:            10,
		IncludeViewer:    true,
		ViewerTelegramID: 1,
	})

	assert.NoError(t, err)
	assert.NotNil(t, result.ViewerPosition)
	// The entry is reused verbatim, not recomputed.
	assert.Equal(t, &result.Entries[1], result.ViewerPosition)
	assert.Equal(t, 2, result.ViewerPosition.Rank)
}

func TestGetLeaderboard_ViewerOutsideTopK(t *testing.T) {
	records := []*stats.StatRecord{
		streakRecord(1, 50, 0),
		streakRecord(2, 40, 0),
		streakRecord(3, 30, 0),
		streakRecord(4, 20, 0), // the viewer
	}
	h := NewGetLeaderboardHandler(&fakeStatReader{records: records})

	result, err := h.Handle(context.Background(), GetLeaderboardQuery{
		Category:         "streak",
		Period:           "all_time",
		Limit:            2,
		IncludeViewer:    true,
		ViewerTelegramID: 4,
	})

	assert.NoError(t, err)
	assert.Len(t, result.Entries, 2)
	assert.NotNil(t, result.ViewerPosition)
	assert.Equal(t, 4, result.ViewerPosition.Rank)
	assert.Equal(t, int64(4), result.ViewerPosition.User.TelegramID)
}

func TestGetLeaderboard_UnknownViewerIsNotAnError(t *testing.T) {
	h := NewGetLeaderboardHandler(&fakeStatReader{records: []*stats.StatRecord{
		streakRecord(1, 10, 0),
	}})

	result, err := h.Handle(context.Background(), GetLeaderboardQuery{
		Category:         "streak",
		Period:           "all_time",
		IncludeViewer:    true,
		ViewerTelegramID: 999,
	})

	assert.NoError(t, err)
	assert.Nil(t, result.ViewerPosition)
	assert.Len(t, result.Entries, 1)
}

func TestGetLeaderboard_MonthlyFiltersInactive(t *testing.T) {
	now := time.Date(2026, time.August, 19, 12, 0, 0, 0, time.UTC)
	inMonth := time.Date(2026, time.August, 5, 0, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2026, time.July, 20, 0, 0, 0, 0, time.UTC)

	active := streakRecord(1, 5, 0)
	active.StreakLastCheckin = &inMonth
	stale := streakRecord(2, 50, 0)
	stale.StreakLastCheckin = &lastMonth

	h := NewGetLeaderboardHandler(&fakeStatReader{records: []*stats.StatRecord{active, stale}})

	result, err := h.Handle(context.Background(), GetLeaderboardQuery{
		Category: "streak",
		Period:   "monthly",
		Now:      now,
	})

	assert.NoError(t, err)
	assert.Len(t, result.Entries, 1)
	assert.Equal(t, int64(1), result.Entries[0].User.TelegramID)
}

// ══════════════════════════════════════════════════════════════════════════════
// GET VIEWER RANK
// ══════════════════════════════════════════════════════════════════════════════

func TestGetViewerRank_CountingQueries(t *testing.T) {
	// Viewer has 10/20; one higher primary (15), one tied with higher
	// secondary (10/30). rank = 1 + 1 + 1 = 3.
	records := []*stats.StatRecord{
		streakRecord(1, 15, 0),
		streakRecord(2, 10, 30),
		streakRecord(3, 10, 20), // the viewer
		streakRecord(4, 10, 10),
		streakRecord(5, 2, 99),
	}
	h := NewGetViewerRankHandler(&fakeStatReader{records: records})

	result, err := h.Handle(context.Background(), GetViewerRankQuery{
		Category:         "streak",
		Period:           "all_time",
		ViewerTelegramID: 3,
	})

	assert.NoError(t, err)
	assert.NotNil(t, result.Position)
	assert.Equal(t, 3, result.Position.Rank)
	assert.Equal(t, 10.0, result.Position.Score)
	assert.Equal(t, int64(3), result.Position.User.TelegramID)
}

func TestGetViewerRank_NaNTieBreakDoesNotOutrank(t *testing.T) {
	// Конкурент с тем же счётом, но NaN в tie-break, никогда не считается
	// "выше": счётный запрос и ранжирование окна обязаны сходиться.
	records := []*stats.StatRecord{
		streakRecord(1, 10, 20), // the viewer
		streakRecord(2, 10, math.NaN()),
	}
	h := NewGetViewerRankHandler(&fakeStatReader{records: records})

	result, err := h.Handle(context.Background(), GetViewerRankQuery{
		Category:         "streak",
		Period:           "all_time",
		ViewerTelegramID: 1,
	})

	assert.NoError(t, err)
	assert.NotNil(t, result.Position)
	assert.Equal(t, 1, result.Position.Rank)

	// The full board agrees: the viewer leads.
	board := leaderboard.Rank(records, leaderboard.CategoryStreak, leaderboard.PeriodAllTime, 10)
	assert.Equal(t, int64(1), board[0].User.TelegramID)
	assert.Equal(t, 1, board[0].Rank)
}

func TestGetViewerRank_HiddenCompetitorsExcluded(t *testing.T) {
	hidden := streakRecord(1, 50, 0)
	hidden.PrivacySettings = map[string]any{"showProfile": false}

	records := []*stats.StatRecord{
		hidden,
		streakRecord(2, 40, 0),
		streakRecord(3, 10, 0), // the viewer
	}
	h := NewGetViewerRankHandler(&fakeStatReader{records: records})

	result, err := h.Handle(context.Background(), GetViewerRankQuery{
		Category:         "streak",
		Period:           "all_time",
		ViewerTelegramID: 3,
	})

	assert.NoError(t, err)
	// Only the visible competitor counts above the viewer.
	assert.Equal(t, 2, result.Position.Rank)
}

func TestGetViewerRank_UnrankedViewer(t *testing.T) {
	h := NewGetViewerRankHandler(&fakeStatReader{records: []*stats.StatRecord{
		streakRecord(1, 10, 0),
	}})

	result, err := h.Handle(context.Background(), GetViewerRankQuery{
		Category:         "streak",
		Period:           "all_time",
		ViewerTelegramID: 42,
	})

	assert.NoError(t, err)
	assert.Nil(t, result.Position)
	assert.Equal(t, "streak", result.Category)
}

func TestGetViewerRank_NonFiniteScoreIsUnranked(t *testing.T) {
	h := NewGetViewerRankHandler(&fakeStatReader{records: []*stats.StatRecord{
		streakRecord(1, math.NaN(), 0),
	}})

	result, err := h.Handle(context.Background(), GetViewerRankQuery{
		Category:         "streak",
		Period:           "all_time",
		ViewerTelegramID: 1,
	})

	assert.NoError(t, err)
	assert.Nil(t, result.Position)
}

func TestGetViewerRank_InvalidViewerID(t *testing.T) {
	h := NewGetViewerRankHandler(&fakeStatReader{})

	_, err := h.Handle(context.Background(), GetViewerRankQuery{
		Category:         "level",
		Period:           "all_time",
		ViewerTelegramID: 0,
	})

	assert.True(t, shared.IsValidation(err))
	assert.ErrorIs(t, err, shared.ErrInvalidViewerID)
}

func TestGetViewerRank_StoreUnavailable(t *testing.T) {
	h := NewGetViewerRankHandler(&fakeStatReader{err: errors.New("timeout")})

	_, err := h.Handle(context.Background(), GetViewerRankQuery{
		Category:         "level",
		Period:           "all_time",
		ViewerTelegramID: 1,
	})

	assert.True(t, shared.IsStoreUnavailable(err))
}

func TestGetViewerRank_MonthlyInactiveViewer(t *testing.T) {
	now := time.Date(2026, time.August, 19, 12, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)

	stale := streakRecord(1, 30, 0)
	stale.StreakLastCheckin = &lastMonth

	h := NewGetViewerRankHandler(&fakeStatReader{records: []*stats.StatRecord{stale}})

	result, err := h.Handle(context.Background(), GetViewerRankQuery{
		Category:         "streak",
		Period:           "monthly",
		ViewerTelegramID: 1,
		Now:              now,
	})

	assert.NoError(t, err)
	assert.Nil(t, result.Position)
}
