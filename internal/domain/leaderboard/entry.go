package leaderboard

import (
	"github.com/moodgarden/moodgarden-hub/internal/domain/stats"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD ENTRY
// Транзиентная, клиентская проекция записи статистики. Никогда не хранится:
// каждый ответ пересчитывается с нуля из снапшота хранилища.
// ══════════════════════════════════════════════════════════════════════════════

// EntryUser - безопасное для клиента подмножество полей профиля.
// Приватные поля записи сюда не копируются.
type EntryUser struct {
	// TelegramID - стабильный идентификатор пользователя.
	TelegramID int64 `json:"telegramId"`

	// FirstName - имя.
	FirstName string `json:"firstName"`

	// LastName - фамилия.
	LastName string `json:"lastName"`

	// Username - ник в Telegram.
	Username string `json:"username"`

	// AvatarURL - ссылка на аватар.
	AvatarURL string `json:"avatarUrl,omitempty"`

	// Theme - выбранная тема сада.
	Theme string `json:"theme,omitempty"`

	// Level - уровень для отображения рядом с именем.
	Level float64 `json:"level"`
}

// EntryVisibility - нормализованные флаги приватности записи.
type EntryVisibility struct {
	IsProfileHidden      bool `json:"isProfileHidden"`
	IsGardenHidden       bool `json:"isGardenHidden"`
	IsAchievementsHidden bool `json:"isAchievementsHidden"`
}

// EntryStats - счётчики прогресса с гарантированно конечными значениями.
type EntryStats struct {
	Level             float64 `json:"level"`
	Experience        float64 `json:"experience"`
	CurrentStreak     float64 `json:"current_streak"`
	LongestStreak     float64 `json:"longest_streak"`
	TotalElements     float64 `json:"total_elements"`
	RareElementsFound float64 `json:"rare_elements_found"`

	// TieScore - tie-break значение категории; публикуется для
	// наблюдаемости и тестов детерминизма.
	TieScore float64 `json:"tieScore"`
}

// LeaderboardEntry - одна строка ответа лидерборда.
//
// Инварианты: Rank - плотный 1-based целый, уникальный в пределах одного
// ответа; Score равен значению первичного экстрактора категории на момент
// чтения записи.
type LeaderboardEntry struct {
	Rank       int             `json:"rank"`
	Score      float64         `json:"score"`
	Category   Category        `json:"category"`
	Period     Period          `json:"period"`
	Visibility EntryVisibility `json:"visibility"`
	User       EntryUser       `json:"user"`
	Stats      EntryStats      `json:"stats"`
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTRY MAPPER
// ══════════════════════════════════════════════════════════════════════════════

// MapEntry преобразует сырую запись статистики в клиентскую строку лидерборда.
// Чистая тотальная функция: повреждённые настройки приватности и нечисловые
// счётчики восстанавливаются дефолтами, ошибка невозможна. Маппер не мутирует
// входную запись - повторный вызов с теми же аргументами даёт идентичный
// результат.
func MapEntry(r *stats.StatRecord, category Category, period Period, rank int) LeaderboardEntry {
	m, _ := MetricFor(category)
	privacy := r.Privacy()

	entry := LeaderboardEntry{
		Rank:     rank,
		Score:    finiteOrZero(m.Score(r)),
		Category: category,
		Period:   period,
		Visibility: EntryVisibility{
			IsProfileHidden:      !privacy.ShowProfile,
			IsGardenHidden:       !privacy.ShowGarden,
			IsAchievementsHidden: !privacy.ShowAchievements,
		},
		User: EntryUser{
			TelegramID: r.TelegramID.Int64(),
			FirstName:  r.FirstName,
			LastName:   r.LastName,
			Username:   r.Username,
			AvatarURL:  r.AvatarURL,
			Theme:      r.Theme,
			Level:      finiteOrZero(stats.CoerceNumber(r.Level)),
		},
		Stats: EntryStats{
			Level:             finiteOrZero(stats.CoerceNumber(r.Level)),
			Experience:        finiteOrZero(stats.CoerceNumber(r.Experience)),
			CurrentStreak:     finiteOrZero(stats.CoerceNumber(r.CurrentStreak)),
			LongestStreak:     finiteOrZero(stats.CoerceNumber(r.LongestStreak)),
			TotalElements:     finiteOrZero(stats.CoerceNumber(r.TotalElements)),
			RareElementsFound: finiteOrZero(stats.CoerceNumber(r.RareElementsFound)),
			TieScore:          finiteOrZero(m.TieBreak(r)),
		},
	}

	return entry
}

// finiteOrZero подменяет NaN/Infinity нулём для клиентских полей.
func finiteOrZero(f float64) float64 {
	if !stats.IsFinite(f) {
		return 0
	}
	return f
}
