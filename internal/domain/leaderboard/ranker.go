package leaderboard

import (
	"math"
	"sort"

	"github.com/moodgarden/moodgarden-hub/internal/domain/stats"
)

// ══════════════════════════════════════════════════════════════════════════════
// TOP-K RANKER
// Детерминированная часть Top-K: пересортировка окна кандидатов в памяти и
// плотное ранжирование. Оркестрация запроса к хранилищу живёт в application
// слое (query.GetLeaderboardHandler).
// ══════════════════════════════════════════════════════════════════════════════

// MaxFetchWindow - верхняя граница окна кандидатов при overfetch.
const MaxFetchWindow = 150

// OverfetchFactor - множитель окна кандидатов относительно limit.
// Запас защищает от недетерминированного ORDER BY хранилища на границах
// страниц и от записей, позже исключённых за невалидный счёт.
const OverfetchFactor = 3

// FetchWindowSize возвращает размер окна кандидатов для запрошенного limit.
func FetchWindowSize(limit int) int {
	window := limit * OverfetchFactor
	if window > MaxFetchWindow {
		return MaxFetchWindow
	}
	return window
}

// SortWindow детерминированно пересортировывает окно кандидатов в памяти:
// первичный счёт по убыванию, tie-break по убыванию, затем TelegramID по
// возрастанию как финальный, всегда разрешающий tie-break.
//
// Пересортировка обязательна, даже если хранилище уже отсортировало выборку:
// ORDER BY по двум колонкам не гарантирует стабильный порядок равных записей
// между вызовами, а ответ обязан быть побайтово воспроизводимым.
func SortWindow(records []*stats.StatRecord, m Metric) {
	sort.Slice(records, func(i, j int) bool {
		return lessEntry(records[i], records[j], m)
	})
}

// lessEntry задаёт тотальный порядок "выше в рейтинге".
//
// NaN несравним в Go: наивное `as > bs` делает NaN-запись "равной" всем
// сразу и ломает строгий порядок sort.Slice, портя взаимный порядок
// ВАЛИДНЫХ записей вокруг неё. Поэтому неконечный счёт явно упорядочивается
// в конец окна (RankWindow его всё равно пропустит), а NaN в tie-break
// приводится к минус бесконечности.
func lessEntry(a, b *stats.StatRecord, m Metric) bool {
	as, bs := m.Score(a), m.Score(b)
	af, bf := stats.IsFinite(as), stats.IsFinite(bs)
	if af != bf {
		return af
	}
	if af && as != bs {
		return as > bs
	}
	at, bt := normTie(m.TieBreak(a)), normTie(m.TieBreak(b))
	if at != bt {
		return at > bt
	}
	return a.TelegramID < b.TelegramID
}

// normTie приводит NaN tie-break к минус бесконечности: испорченный
// tie-break никогда не считается "выше", запись уходит в конец своей группы
// счёта и добирается по TelegramID.
func normTie(v float64) float64 {
	if math.IsNaN(v) {
		return math.Inf(-1)
	}
	return v
}

// RankWindow проходит по отсортированному окну и строит итоговые строки:
// записи с неконечным счётом пропускаются без ранга, остальные получают
// плотный rank = 1 + число уже принятых. Обход останавливается на limit
// принятых записях; при нехватке кандидатов возвращается меньше - без
// ошибки и без добивки.
func RankWindow(records []*stats.StatRecord, category Category, period Period, limit int) []LeaderboardEntry {
	m, ok := MetricFor(category)
	if !ok {
		return nil
	}

	entries := make([]LeaderboardEntry, 0, limit)
	for _, r := range records {
		if len(entries) >= limit {
			break
		}
		if !stats.IsFinite(m.Score(r)) {
			continue
		}
		entries = append(entries, MapEntry(r, category, period, len(entries)+1))
	}

	return entries
}

// Rank сортирует окно и ранжирует его за один вызов.
func Rank(records []*stats.StatRecord, category Category, period Period, limit int) []LeaderboardEntry {
	m, ok := MetricFor(category)
	if !ok {
		return nil
	}
	SortWindow(records, m)
	return RankWindow(records, category, period, limit)
}
