// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"time"

	"github.com/moodgarden/moodgarden-hub/internal/domain/leaderboard"
	"github.com/moodgarden/moodgarden-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Строит топ-K лидерборда для пары категория/период и, при необходимости,
// позицию зрителя. Каждый вызов пересчитывается с нуля - кеша нет.
// ══════════════════════════════════════════════════════════════════════════════

// Границы limit: запрошенное значение зажимается в [MinLimit, MaxLimit].
const (
	MinLimit     = 1
	MaxLimit     = 50
	DefaultLimit = 20
)

// GetLeaderboardQuery содержит параметры запроса лидерборда.
type GetLeaderboardQuery struct {
	// Category - категория рейтинга (level|streak|elements), без учёта
	// регистра. Неизвестное значение отклоняется до обращения к хранилищу.
	Category string

	// Period - окно рейтинга (all_time|monthly), без учёта регистра.
	Period string

	// Limit - количество записей (по умолчанию 20, зажимается в [1, 50]).
	Limit int

	// IncludeViewer - добавлять ли позицию зрителя в ответ.
	IncludeViewer bool

	// ViewerTelegramID - идентификатор зрителя (0 = зритель не указан).
	ViewerTelegramID int64

	// Now - момент расчёта месячного окна; нулевое значение - текущее время.
	Now time.Time
}

// Validate проверяет и нормализует параметры запроса.
// Невалидные category/period - ошибка валидации; limit зажимается молча.
func (q *GetLeaderboardQuery) Validate() error {
	if _, err := leaderboard.ParseCategory(q.Category); err != nil {
		return err
	}
	if _, err := leaderboard.ParsePeriod(q.Period); err != nil {
		return err
	}
	if q.ViewerTelegramID < 0 {
		return shared.ErrInvalidViewerID
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit < MinLimit {
		q.Limit = MinLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Now.IsZero() {
		q.Now = time.Now().UTC()
	}
	return nil
}

// GetLeaderboardResult содержит результат запроса лидерборда.
type GetLeaderboardResult struct {
	// Entries - строки топ-K в порядке рангов 1..K.
	Entries []leaderboard.LeaderboardEntry `json:"entries"`

	// ViewerPosition - позиция зрителя или nil (не запрошена, зритель
	// неизвестен или неактивен в периоде).
	ViewerPosition *leaderboard.LeaderboardEntry `json:"viewerPosition"`

	// Category - по какой категории считали.
	Category string `json:"category"`

	// Period - по какому окну считали.
	Period string `json:"period"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"timestamp"`
}

// GetLeaderboardHandler обрабатывает запросы на получение лидерборда.
type GetLeaderboardHandler struct {
	reader     leaderboard.StatReader
	viewerRank *GetViewerRankHandler
}

// NewGetLeaderboardHandler создаёт новый обработчик.
func NewGetLeaderboardHandler(reader leaderboard.StatReader) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{
		reader:     reader,
		viewerRank: NewGetViewerRankHandler(reader),
	}
}

// Handle выполняет запрос на получение лидерборда.
//
// Алгоритм Top-K: хранилище отдаёт перевыборку (limit*3, не больше 150),
// отсортированную по первичной и tie-break колонкам; окно детерминированно
// пересортировывается в памяти с финальным tie-break по идентификатору,
// записи с неконечным счётом пропускаются, остальные получают плотные ранги.
// Если зритель уже попал в топ-K, его строка переиспользуется как есть -
// повторный расчёт через счётные запросы был бы избыточным и мог бы дать
// другой результат на фоне параллельных записей.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrValidation, "invalid leaderboard query", err)
	}

	category, _ := leaderboard.ParseCategory(q.Category)
	period, _ := leaderboard.ParsePeriod(q.Period)
	filter := leaderboard.ResolveFilter(period, category, q.Now)

	window, err := h.reader.FetchWindow(ctx, category, filter, leaderboard.FetchWindowSize(q.Limit))
	if err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrStoreUnavailable, "ranking unavailable", err)
	}

	entries := leaderboard.Rank(window, category, period, q.Limit)

	result := &GetLeaderboardResult{
		Entries:     entries,
		Category:    category.String(),
		Period:      period.String(),
		GeneratedAt: time.Now().UTC(),
	}

	if !q.IncludeViewer || q.ViewerTelegramID == 0 {
		return result, nil
	}

	// Зритель уже в топ-K: переиспользуем готовую строку.
	for i := range entries {
		if entries[i].User.TelegramID == q.ViewerTelegramID {
			result.ViewerPosition = &entries[i]
			return result, nil
		}
	}

	viewer, err := h.viewerRank.Handle(ctx, GetViewerRankQuery{
		Category:         q.Category,
		Period:           q.Period,
		ViewerTelegramID: q.ViewerTelegramID,
		Now:              q.Now,
	})
	if err != nil {
		return nil, err
	}
	result.ViewerPosition = viewer.Position

	return result, nil
}
