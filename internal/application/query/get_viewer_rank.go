// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"time"

	"github.com/moodgarden/moodgarden-hub/internal/domain/leaderboard"
	"github.com/moodgarden/moodgarden-hub/internal/domain/shared"
	"github.com/moodgarden/moodgarden-hub/internal/domain/stats"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET VIEWER RANK QUERY
// Вычисляет точный глобальный ранг одного пользователя двумя счётными
// запросами к хранилищу - без выборки и сортировки всей популяции.
// Это ключевой запрос для "где я нахожусь" в мини-аппе.
// ══════════════════════════════════════════════════════════════════════════════

// GetViewerRankQuery содержит параметры запроса позиции зрителя.
type GetViewerRankQuery struct {
	// Category - категория рейтинга, без учёта регистра.
	Category string

	// Period - окно рейтинга, без учёта регистра.
	Period string

	// ViewerTelegramID - идентификатор зрителя (обязателен, положительный).
	ViewerTelegramID int64

	// Now - момент расчёта месячного окна; нулевое значение - текущее время.
	Now time.Time
}

// Validate проверяет корректность параметров запроса.
func (q *GetViewerRankQuery) Validate() error {
	if _, err := leaderboard.ParseCategory(q.Category); err != nil {
		return err
	}
	if _, err := leaderboard.ParsePeriod(q.Period); err != nil {
		return err
	}
	if !stats.TelegramID(q.ViewerTelegramID).IsValid() {
		return shared.ErrInvalidViewerID
	}
	if q.Now.IsZero() {
		q.Now = time.Now().UTC()
	}
	return nil
}

// GetViewerRankResult содержит результат запроса позиции зрителя.
type GetViewerRankResult struct {
	// Position - строка зрителя с вычисленным рангом, либо nil: зритель
	// без записи в периоде или с неконечным счётом ранга не имеет.
	// Это НЕ ошибка - это валидный исход "вне рейтинга".
	Position *leaderboard.LeaderboardEntry `json:"position"`

	// Category - по какой категории считали.
	Category string `json:"category"`

	// Period - по какому окну считали.
	Period string `json:"period"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetViewerRankHandler обрабатывает запросы на получение позиции зрителя.
type GetViewerRankHandler struct {
	reader leaderboard.StatReader
}

// NewGetViewerRankHandler создаёт новый обработчик.
func NewGetViewerRankHandler(reader leaderboard.StatReader) *GetViewerRankHandler {
	return &GetViewerRankHandler{reader: reader}
}

// Handle выполняет запрос позиции зрителя.
//
// Ранг выводится из двух счётных запросов вместо полного скана:
//
//	rank = 1 + count(видимые записи периода с primary > score)
//	         + count(видимые записи периода с primary = score и secondary > tie)
//
// Полный Top-K по всей популяции ради одной позиции - это O(n log n) и
// перенос всей таблицы; счётные запросы дают тот же ранг за O(1) раундтрипов.
// Запросы выполняются без общей транзакции: между ними хранилище могло
// измениться, это принятая ограниченная рассинхронизация.
func (h *GetViewerRankHandler) Handle(ctx context.Context, q GetViewerRankQuery) (*GetViewerRankResult, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetViewerRank", shared.ErrValidation, "invalid viewer rank query", err)
	}

	category, _ := leaderboard.ParseCategory(q.Category)
	period, _ := leaderboard.ParsePeriod(q.Period)
	filter := leaderboard.ResolveFilter(period, category, q.Now)

	result := &GetViewerRankResult{
		Category:    category.String(),
		Period:      period.String(),
		GeneratedAt: time.Now().UTC(),
	}

	record, err := h.reader.GetRecord(ctx, stats.TelegramID(q.ViewerTelegramID), filter)
	if err != nil {
		return nil, shared.WrapError("query", "GetViewerRank", shared.ErrStoreUnavailable, "ranking unavailable", err)
	}
	if record == nil {
		return result, nil
	}

	metric, _ := leaderboard.MetricFor(category)
	score := metric.Score(record)
	if !stats.IsFinite(score) {
		return result, nil
	}

	higher, err := h.reader.CountHigherPrimary(ctx, category, filter, record.TelegramID, score)
	if err != nil {
		return nil, shared.WrapError("query", "GetViewerRank", shared.ErrStoreUnavailable, "ranking unavailable", err)
	}

	tied := 0
	if metric.SecondaryColumn != "" {
		tied, err = h.reader.CountTiedHigherSecondary(ctx, category, filter, record.TelegramID, score, metric.TieBreak(record))
		if err != nil {
			return nil, shared.WrapError("query", "GetViewerRank", shared.ErrStoreUnavailable, "ranking unavailable", err)
		}
	}

	rank := 1 + higher + tied
	entry := leaderboard.MapEntry(record, category, period, rank)
	result.Position = &entry

	return result, nil
}
