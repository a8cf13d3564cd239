// Package http implements the REST API for MoodGarden Hub.
package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/moodgarden/moodgarden-hub/internal/application/query"
	"github.com/moodgarden/moodgarden-hub/internal/domain/shared"
	"github.com/moodgarden/moodgarden-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "MoodGarden Hub API",
		"version":     "v1",
		"description": "Leaderboard API for the MoodGarden mood journal",
		"endpoints": map[string]string{
			"health":      "/health",
			"leaderboard": "/api/v1/leaderboard",
			"viewer_rank": "/api/v1/leaderboard/rank",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		report := s.deps.HealthChecker.Check(r.Context())
		if !report.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, report)
			return
		}
		writeJSON(w, http.StatusOK, report)
		return
	}

	// Default health response
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		report := s.deps.HealthChecker.Check(r.Context())
		if !report.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": report.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLeaderboard handles GET /api/v1/leaderboard
//
// Query parameters:
//   - category: level | streak | elements (required, no default)
//   - period: all_time | monthly (required, no default)
//   - limit: 1..50, clamped (default: 20); non-integer values are rejected
//   - viewerTelegramId: positive integer; enables the viewer position block
//   - includeViewer: true | false (default: true)
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLeaderboardHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Leaderboard handler not configured")
		return
	}

	// Category and period are required: an absent parameter is rejected by
	// query validation the same way an unknown value is, never substituted.
	q := query.GetLeaderboardQuery{
		Category: r.URL.Query().Get("category"),
		Period:   r.URL.Query().Get("period"),
		Limit:    query.DefaultLimit,
	}

	// Limit must be an integer when present. Out-of-range values are
	// clamped later by query validation, garbage is a client error.
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", "limit must be an integer")
			observeRankingRequest(q.Category, q.Period, "invalid_request")
			return
		}
		q.Limit = limit
	}

	includeViewer := true
	if raw := r.URL.Query().Get("includeViewer"); raw != "" {
		v, err := parseBool(raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", "includeViewer must be true or false")
			observeRankingRequest(q.Category, q.Period, "invalid_request")
			return
		}
		includeViewer = v
	}

	if raw := r.URL.Query().Get("viewerTelegramId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", "viewerTelegramId must be a positive integer")
			observeRankingRequest(q.Category, q.Period, "invalid_request")
			return
		}
		q.ViewerTelegramID = id
		q.IncludeViewer = includeViewer
	}

	result, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err, q.Category, q.Period)
		return
	}

	observeRankingRequest(q.Category, q.Period, "ok")
	s.logger.Debug("leaderboard served",
		logger.Category(result.Category),
		logger.Period(result.Period),
		logger.EntryCount(len(result.Entries)),
		logger.String("request_id", getRequestID(r.Context())),
	)
	writeJSONWithRequestID(w, r, http.StatusOK, result)
}

// handleGetViewerRank handles GET /api/v1/leaderboard/rank
//
// Returns only the viewer's position block, for the mini-app profile screen.
func (s *Server) handleGetViewerRank(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetViewerRankHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Viewer rank handler not configured")
		return
	}

	category := r.URL.Query().Get("category")
	period := r.URL.Query().Get("period")

	raw := r.URL.Query().Get("viewerTelegramId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "viewerTelegramId must be a positive integer")
		observeRankingRequest(category, period, "invalid_request")
		return
	}

	q := query.GetViewerRankQuery{
		Category:         category,
		Period:           period,
		ViewerTelegramID: id,
	}

	result, err := s.deps.GetViewerRankHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err, category, period)
		return
	}

	observeRankingRequest(category, period, "ok")
	if result.Position != nil {
		s.logger.Debug("viewer rank resolved",
			logger.Category(category),
			logger.Period(period),
			logger.TelegramID(id),
			logger.RankPosition(result.Position.Rank),
			logger.String("request_id", getRequestID(r.Context())),
		)
	}
	writeJSONWithRequestID(w, r, http.StatusOK, result)
}

// writeDomainError maps domain errors to HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error, category, period string) {
	requestLog := s.logger.With(
		logger.Category(category),
		logger.Period(period),
		logger.String("request_id", getRequestID(r.Context())),
	)

	switch {
	case shared.IsValidation(err):
		observeRankingRequest(category, period, "invalid_request")
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())

	case shared.IsStoreUnavailable(err):
		requestLog.Error("ranking store unavailable", logger.Err(err))
		observeRankingRequest(category, period, "store_unavailable")
		writeJSONError(w, http.StatusServiceUnavailable, "store_unavailable", "Ranking data is temporarily unavailable")

	default:
		requestLog.Error("leaderboard request failed", logger.Err(err))
		observeRankingRequest(category, period, "internal_error")
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

// parseBool accepts the boolean spellings the mini-app sends.
func parseBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	}
	return false, strconv.ErrSyntax
}
