package leaderboard

import (
	"strings"
	"time"

	"github.com/moodgarden/moodgarden-hub/internal/domain/shared"
	"github.com/moodgarden/moodgarden-hub/internal/domain/stats"
	"github.com/moodgarden/moodgarden-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PERIOD
// ══════════════════════════════════════════════════════════════════════════════

// Period - окно ранжирования лидерборда.
type Period string

const (
	// PeriodAllTime - без фильтра активности.
	PeriodAllTime Period = "all_time"

	// PeriodMonthly - активность с первого мгновения текущего календарного
	// месяца (UTC).
	PeriodMonthly Period = "monthly"
)

// ParsePeriod разбирает период без учёта регистра.
// Неизвестное значение - ошибка валидации, подстановки по умолчанию нет.
func ParsePeriod(s string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case PeriodAllTime:
		return PeriodAllTime, nil
	case PeriodMonthly:
		return PeriodMonthly, nil
	default:
		return "", shared.ErrUnknownPeriod
	}
}

// IsValid проверяет, что период известен.
func (p Period) IsValid() bool {
	return p == PeriodAllTime || p == PeriodMonthly
}

// String возвращает строковое представление периода.
func (p Period) String() string {
	return string(p)
}

// ══════════════════════════════════════════════════════════════════════════════
// PERIOD RESOLVER
// ══════════════════════════════════════════════════════════════════════════════

// Filter - конкретный фильтр активности, полученный из периода и категории.
// Передаётся в хранилище как готовый предикат: Top-K и счётные запросы
// обязаны использовать один и тот же фильтр.
type Filter struct {
	// Active - применяется ли фильтр вообще (false для all_time).
	Active bool

	// Cutoff - граница активности в UTC (нулевое время, если Active=false).
	Cutoff time.Time

	// Column - proxy-колонка активности для данной категории.
	Column string

	// DateOnly - сравнение по дате без времени суток (streak-чекины
	// хранятся датой, визиты - таймстемпом).
	DateOnly bool
}

// ResolveFilter строит фильтр активности для пары период/категория.
//
// Месячный лидерборд ранжирует по ТЕКУЩЕМУ накопленному счёту среди
// пользователей, активных с начала месяца, а не по приросту за месяц.
// Это осознанная аппроксимация продукта - не превращать её в дельту.
func ResolveFilter(p Period, c Category, now time.Time) Filter {
	if p != PeriodMonthly {
		return Filter{}
	}

	m, ok := MetricFor(c)
	if !ok {
		return Filter{}
	}

	cutoff := timeutil.StartOfMonth(now)
	if m.DateOnlyCutoff {
		cutoff = timeutil.TruncateToDate(cutoff)
	}

	return Filter{
		Active:   true,
		Cutoff:   cutoff,
		Column:   m.ActivityColumn,
		DateOnly: m.DateOnlyCutoff,
	}
}

// Matches проверяет запись против фильтра в памяти. Используется тестами и
// in-memory реализациями StatReader; SQL-реализация применяет тот же предикат
// на стороне хранилища.
func (f Filter) Matches(r *stats.StatRecord) bool {
	if !f.Active {
		return true
	}
	if r == nil {
		return false
	}

	var at *time.Time
	if f.Column == "streak_last_checkin" {
		at = r.StreakLastCheckin
	} else {
		at = r.LastVisitDate
	}
	if at == nil {
		return false
	}

	if f.DateOnly {
		return !timeutil.TruncateToDate(*at).Before(timeutil.TruncateToDate(f.Cutoff))
	}
	return !at.Before(f.Cutoff)
}
