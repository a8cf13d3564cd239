package leaderboard

import (
	"context"

	"github.com/moodgarden/moodgarden-hub/internal/domain/stats"
)

// ══════════════════════════════════════════════════════════════════════════════
// STAT READER INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// StatReader определяет read-only контракт движка рейтинга к хранилищу
// статистики. Реализация находится в infrastructure слое (PostgreSQL).
//
// Философия: хранилище непрерывно мутируется чужими запросами; каждый метод -
// независимый read-committed снапшот без транзакции и без блокировок.
// Два последовательных вызова могут легитимно видеть разные данные - это
// принятая ограниченная рассинхронизация, её нельзя "чинить" блокировками.
//
// Любая ошибка метода означает недоступность хранилища и оборачивается
// в shared.ErrStoreUnavailable; пустой результат ошибкой не является.
type StatReader interface {
	// FetchWindow возвращает до limit записей, отсортированных хранилищем:
	// первичная колонка категории DESC NULLS LAST, затем tie-break колонка
	// DESC NULLS LAST. Фильтр периода применяется, фильтр видимости -
	// намеренно НЕТ (см. IsVisibleCompetitor).
	FetchWindow(ctx context.Context, category Category, filter Filter, limit int) ([]*stats.StatRecord, error)

	// GetRecord возвращает запись пользователя с применённым фильтром
	// периода. Отсутствие записи (неизвестный пользователь или неактивный
	// в периоде) - это (nil, nil), а не ошибка.
	GetRecord(ctx context.Context, id stats.TelegramID, filter Filter) (*stats.StatRecord, error)

	// CountHigherPrimary считает ДРУГИЕ видимые записи периода с первичной
	// колонкой строго больше primary. Исключение по exclude - по
	// идентификатору, а не по равенству счёта.
	CountHigherPrimary(ctx context.Context, category Category, filter Filter, exclude stats.TelegramID, primary float64) (int, error)

	// CountTiedHigherSecondary считает другие видимые записи периода с
	// первичной колонкой, равной primary, и tie-break колонкой строго
	// больше secondary.
	CountTiedHigherSecondary(ctx context.Context, category Category, filter Filter, exclude stats.TelegramID, primary, secondary float64) (int, error)
}
