// Package leaderboard содержит доменную модель рейтинга MoodGarden Hub.
// Это ядро движка ранжирования: реестр метрик, резолвер периодов,
// предикат видимости, маппер записей и детерминированный ранкер.
// Здесь нет внешних зависимостей и нет состояния между вызовами.
package leaderboard

import (
	"strings"

	"github.com/moodgarden/moodgarden-hub/internal/domain/shared"
	"github.com/moodgarden/moodgarden-hub/internal/domain/stats"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATEGORY
// ══════════════════════════════════════════════════════════════════════════════

// Category - измерение ранжирования лидерборда.
type Category string

const (
	// CategoryLevel ранжирует по уровню, tie-break по опыту.
	CategoryLevel Category = "level"

	// CategoryStreak ранжирует по текущему streak, tie-break по рекордному.
	CategoryStreak Category = "streak"

	// CategoryElements ранжирует по числу элементов сада, tie-break по редким.
	CategoryElements Category = "elements"
)

// Categories возвращает все поддерживаемые категории в стабильном порядке.
func Categories() []Category {
	return []Category{CategoryLevel, CategoryStreak, CategoryElements}
}

// ParseCategory разбирает категорию без учёта регистра.
// Неизвестное значение - ошибка валидации, подстановки по умолчанию нет.
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryLevel:
		return CategoryLevel, nil
	case CategoryStreak:
		return CategoryStreak, nil
	case CategoryElements:
		return CategoryElements, nil
	default:
		return "", shared.ErrUnknownCategory
	}
}

// IsValid проверяет, что категория известна реестру метрик.
func (c Category) IsValid() bool {
	_, ok := metrics[c]
	return ok
}

// String возвращает строковое представление категории.
func (c Category) String() string {
	return string(c)
}

// ══════════════════════════════════════════════════════════════════════════════
// METRIC REGISTRY
// ══════════════════════════════════════════════════════════════════════════════

// Metric описывает, как категория извлекает счёт из записи статистики:
// первичная колонка, tie-break колонка и proxy-колонка активности для
// месячного фильтра.
type Metric struct {
	// PrimaryColumn - имя первичной колонки в хранилище.
	PrimaryColumn string

	// SecondaryColumn - имя tie-break колонки в хранилище.
	SecondaryColumn string

	// ActivityColumn - proxy-колонка "активности в периоде".
	ActivityColumn string

	// DateOnlyCutoff - сравнивать активность по дате, без времени суток.
	DateOnlyCutoff bool

	score    func(*stats.StatRecord) float64
	tieBreak func(*stats.StatRecord) float64
}

// Score извлекает первичный счёт записи. Тотальная функция: нечисловые
// значения приводятся к 0, сама коэрция никогда не даёт NaN.
func (m Metric) Score(r *stats.StatRecord) float64 {
	return m.score(r)
}

// TieBreak извлекает tie-break значение записи с теми же гарантиями.
func (m Metric) TieBreak(r *stats.StatRecord) float64 {
	return m.tieBreak(r)
}

// metrics - закрытый неизменяемый реестр: категория -> метрика.
// Собирается один раз при старте и никогда не мутируется.
var metrics = map[Category]Metric{
	CategoryLevel: {
		PrimaryColumn:   "level",
		SecondaryColumn: "experience",
		ActivityColumn:  "last_visit_date",
		score:           func(r *stats.StatRecord) float64 { return stats.CoerceNumber(r.Level) },
		tieBreak:        func(r *stats.StatRecord) float64 { return stats.CoerceNumber(r.Experience) },
	},
	CategoryStreak: {
		PrimaryColumn:   "current_streak",
		SecondaryColumn: "longest_streak",
		ActivityColumn:  "streak_last_checkin",
		DateOnlyCutoff:  true,
		score:           func(r *stats.StatRecord) float64 { return stats.CoerceNumber(r.CurrentStreak) },
		tieBreak:        func(r *stats.StatRecord) float64 { return stats.CoerceNumber(r.LongestStreak) },
	},
	CategoryElements: {
		PrimaryColumn:   "total_elements",
		SecondaryColumn: "rare_elements_found",
		ActivityColumn:  "last_visit_date",
		score:           func(r *stats.StatRecord) float64 { return stats.CoerceNumber(r.TotalElements) },
		tieBreak:        func(r *stats.StatRecord) float64 { return stats.CoerceNumber(r.RareElementsFound) },
	},
}

// MetricFor возвращает метрику категории из реестра.
func MetricFor(c Category) (Metric, bool) {
	m, ok := metrics[c]
	return m, ok
}
