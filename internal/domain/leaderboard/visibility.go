package leaderboard

import (
	"github.com/moodgarden/moodgarden-hub/internal/domain/stats"
)

// ══════════════════════════════════════════════════════════════════════════════
// VISIBILITY PREDICATE
// ══════════════════════════════════════════════════════════════════════════════

// IsVisibleCompetitor определяет, считается ли запись конкурентом при расчёте
// чужого ранга. Скрытие профиля (showProfile=false) - это opt-out; запись без
// настроек или с повреждёнными настройками видима по умолчанию.
//
// Внимание: этот предикат применяется ТОЛЬКО в счётных запросах резолвера
// ранга зрителя. Окно Top-K намеренно его не применяет - скрытый профиль
// может попасть в публичный список, но не учитывается в чужой позиции.
// Это зафиксированное наблюдаемое поведение продукта; не выравнивать
// односторонне без решения продукта (см. DESIGN.md).
func IsVisibleCompetitor(r *stats.StatRecord) bool {
	if r == nil {
		return false
	}
	return r.Privacy().ShowProfile
}
