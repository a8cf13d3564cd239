package leaderboard

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moodgarden/moodgarden-hub/internal/domain/stats"
)

func statRecord(id int64, primary, secondary any) *stats.StatRecord {
	return &stats.StatRecord{
		TelegramID:    stats.TelegramID(id),
		CurrentStreak: primary,
		LongestStreak: secondary,
	}
}

func TestFetchWindowSize(t *testing.T) {
	assert.Equal(t, 3, FetchWindowSize(1))
	assert.Equal(t, 60, FetchWindowSize(20))
	assert.Equal(t, 150, FetchWindowSize(50))
	assert.Equal(t, 150, FetchWindowSize(100))
}

func TestRank_OrderAndDenseRanks(t *testing.T) {
	// A: streak 10/best 20, B: streak 10/best 30, C: streak 5.
	window := []*stats.StatRecord{
		statRecord(1, 10, 20), // A
		statRecord(2, 10, 30), // B
		statRecord(3, 5, 50),  // C
	}

	entries := Rank(window, CategoryStreak, PeriodAllTime, 2)

	assert.Len(t, entries, 2)
	assert.Equal(t, int64(2), entries[0].User.TelegramID) // B wins the tie
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, int64(1), entries[1].User.TelegramID)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, 10.0, entries[1].Score)
}

func TestRank_TelegramIDBreaksFullTies(t *testing.T) {
	window := []*stats.StatRecord{
		statRecord(30, 7, 7),
		statRecord(10, 7, 7),
		statRecord(20, 7, 7),
	}

	entries := Rank(window, CategoryStreak, PeriodAllTime, 3)

	assert.Len(t, entries, 3)
	assert.Equal(t, int64(10), entries[0].User.TelegramID)
	assert.Equal(t, int64(20), entries[1].User.TelegramID)
	assert.Equal(t, int64(30), entries[2].User.TelegramID)
}

func TestRank_DeterministicAcrossInputOrder(t *testing.T) {
	base := []*stats.StatRecord{
		statRecord(5, 12, 40),
		statRecord(9, 12, 40),
		statRecord(2, 12, 15),
		statRecord(7, 3, 99),
		statRecord(4, 12, 40),
	}

	reference := Rank(append([]*stats.StatRecord(nil), base...), CategoryStreak, PeriodAllTime, 5)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]*stats.StatRecord(nil), base...)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got := Rank(shuffled, CategoryStreak, PeriodAllTime, 5)
		assert.Equal(t, reference, got)
	}
}

func TestRank_SkipsNonFiniteScores(t *testing.T) {
	window := []*stats.StatRecord{
		statRecord(1, math.Inf(1), 0),
		statRecord(2, 8, 0),
		statRecord(3, math.NaN(), 0),
		statRecord(4, 6, 0),
	}

	entries := Rank(window, CategoryStreak, PeriodAllTime, 10)

	// Ranks stay dense: skipped records leave no holes.
	assert.Len(t, entries, 2)
	assert.Equal(t, int64(2), entries[0].User.TelegramID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, int64(4), entries[1].User.TelegramID)
	assert.Equal(t, 2, entries[1].Rank)
}

func TestRank_NaNRowDoesNotScrambleValidOrder(t *testing.T) {
	// NaN несравним: запись между двумя валидными не должна ломать их
	// взаимный порядок при пересортировке.
	window := []*stats.StatRecord{
		statRecord(1, 5, 0),
		statRecord(2, math.NaN(), 0),
		statRecord(3, 9, 0),
	}

	entries := Rank(window, CategoryStreak, PeriodAllTime, 10)

	assert.Len(t, entries, 2)
	assert.Equal(t, int64(3), entries[0].User.TelegramID)
	assert.Equal(t, 9.0, entries[0].Score)
	assert.Equal(t, int64(1), entries[1].User.TelegramID)
	assert.Equal(t, 5.0, entries[1].Score)
	for i := 1; i < len(entries); i++ {
		assert.GreaterOrEqual(t, entries[i-1].Score, entries[i].Score)
	}
}

func TestRank_NaNTieBreakRanksLowestInScoreGroup(t *testing.T) {
	window := []*stats.StatRecord{
		statRecord(1, 10, math.NaN()),
		statRecord(2, 10, 20),
		statRecord(3, 10, 5),
	}

	entries := Rank(window, CategoryStreak, PeriodAllTime, 10)

	assert.Len(t, entries, 3)
	assert.Equal(t, int64(2), entries[0].User.TelegramID)
	assert.Equal(t, int64(3), entries[1].User.TelegramID)
	assert.Equal(t, int64(1), entries[2].User.TelegramID)
}

func TestRank_GarbageCountersRankAsZero(t *testing.T) {
	window := []*stats.StatRecord{
		statRecord(1, "abc", 0), // corrupt row coerces to 0, still ranked
		statRecord(2, 3, 0),
	}

	entries := Rank(window, CategoryStreak, PeriodAllTime, 10)

	assert.Len(t, entries, 2)
	assert.Equal(t, int64(2), entries[0].User.TelegramID)
	assert.Equal(t, int64(1), entries[1].User.TelegramID)
	assert.Equal(t, 0.0, entries[1].Score)
}

func TestRank_UnderfilledWindow(t *testing.T) {
	window := []*stats.StatRecord{statRecord(1, 4, 0)}

	entries := Rank(window, CategoryStreak, PeriodAllTime, 20)
	assert.Len(t, entries, 1)

	entries = Rank(nil, CategoryStreak, PeriodAllTime, 20)
	assert.Empty(t, entries)
}

func TestRank_UnknownCategory(t *testing.T) {
	window := []*stats.StatRecord{statRecord(1, 4, 0)}
	assert.Nil(t, Rank(window, Category("bogus"), PeriodAllTime, 20))
}

func TestRank_DoesNotFilterHiddenProfiles(t *testing.T) {
	// The top list keeps hidden profiles; only viewer rank counting
	// excludes them.
	hidden := statRecord(1, 50, 0)
	hidden.PrivacySettings = map[string]any{"showProfile": false}

	window := []*stats.StatRecord{hidden, statRecord(2, 10, 0)}

	entries := Rank(window, CategoryStreak, PeriodAllTime, 10)
	assert.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].User.TelegramID)
	assert.True(t, entries[0].Visibility.IsProfileHidden)
}
