package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/moodgarden/moodgarden-hub/internal/domain/leaderboard"
	"github.com/moodgarden/moodgarden-hub/internal/domain/stats"
	"github.com/moodgarden/moodgarden-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// STAT READER REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// statColumns is the full select list for user_stats rows.
const statColumns = `
	telegram_id, first_name, last_name, username, avatar_url, theme,
	level, experience, current_streak, longest_streak,
	total_elements, rare_elements_found,
	privacy_settings, streak_last_checkin, last_visit_date, updated_at`

// StatsRepository is the pgx implementation of leaderboard.StatReader.
//
// Column names are interpolated into SQL, never user input: they come only
// from the closed leaderboard.Metric registry.
type StatsRepository struct {
	conn *Connection
	log  *logger.Logger
}

// NewStatsRepository creates a stats repository backed by a pgx pool.
func NewStatsRepository(conn *Connection, log *logger.Logger) *StatsRepository {
	return &StatsRepository{
		conn: conn,
		log:  log.With(logger.Component("stats_repository")),
	}
}

var _ leaderboard.StatReader = (*StatsRepository)(nil)

// FetchWindow returns up to limit rows ordered by the category's primary
// column DESC NULLS LAST, then secondary DESC NULLS LAST. The store ordering
// is advisory only: the ranker re-sorts the window in memory. There is
// deliberately no visibility filter here.
func (r *StatsRepository) FetchWindow(
	ctx context.Context,
	category leaderboard.Category,
	filter leaderboard.Filter,
	limit int,
) ([]*stats.StatRecord, error) {
	m, ok := leaderboard.MetricFor(category)
	if !ok {
		return nil, fmt.Errorf("postgres: unknown category %q", category)
	}

	var sb strings.Builder
	args := make([]interface{}, 0, 2)

	sb.WriteString("SELECT ")
	sb.WriteString(statColumns)
	sb.WriteString(" FROM user_stats")

	if filter.Active {
		args = append(args, filter.Cutoff)
		fmt.Fprintf(&sb, " WHERE %s >= $%d", filter.Column, len(args))
	}

	fmt.Fprintf(&sb, " ORDER BY %s DESC NULLS LAST, %s DESC NULLS LAST",
		m.PrimaryColumn, m.SecondaryColumn)

	args = append(args, limit)
	fmt.Fprintf(&sb, " LIMIT $%d", len(args))

	rows, err := r.conn.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ranking window: %w", err)
	}
	defer rows.Close()

	records := make([]*stats.StatRecord, 0, limit)
	for rows.Next() {
		rec, err := scanStatRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stat record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ranking window: %w", err)
	}

	r.log.Debug("fetched ranking window",
		logger.Category(string(category)),
		logger.Int("rows", len(records)),
	)

	return records, nil
}

// GetRecord returns the stat record for one user, or (nil, nil) when the
// user has no row or falls outside the period filter.
func (r *StatsRepository) GetRecord(
	ctx context.Context,
	id stats.TelegramID,
	filter leaderboard.Filter,
) (*stats.StatRecord, error) {
	var sb strings.Builder
	args := []interface{}{id.Int64()}

	sb.WriteString("SELECT ")
	sb.WriteString(statColumns)
	sb.WriteString(" FROM user_stats WHERE telegram_id = $1")

	if filter.Active {
		args = append(args, filter.Cutoff)
		fmt.Fprintf(&sb, " AND %s >= $%d", filter.Column, len(args))
	}

	row := r.conn.QueryRow(ctx, sb.String(), args...)
	rec, err := scanStatRecord(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get stat record: %w", err)
	}

	return rec, nil
}

// CountHigherPrimary counts visible competitors whose primary stat is
// strictly greater than the given score. Rows with NaN or +Infinity in the
// primary column are skipped, mirroring how the ranker drops non-finite
// scores.
func (r *StatsRepository) CountHigherPrimary(
	ctx context.Context,
	category leaderboard.Category,
	filter leaderboard.Filter,
	exclude stats.TelegramID,
	primary float64,
) (int, error) {
	m, ok := leaderboard.MetricFor(category)
	if !ok {
		return 0, fmt.Errorf("postgres: unknown category %q", category)
	}

	var sb strings.Builder
	args := []interface{}{exclude.Int64(), primary}

	fmt.Fprintf(&sb, `
		SELECT COUNT(*) FROM user_stats
		WHERE telegram_id <> $1
		  AND privacy_settings->>'showProfile' IS DISTINCT FROM 'false'
		  AND %[1]s > $2
		  AND %[1]s <> 'NaN'::double precision
		  AND %[1]s <> 'Infinity'::double precision`,
		m.PrimaryColumn)

	if filter.Active {
		args = append(args, filter.Cutoff)
		fmt.Fprintf(&sb, " AND %s >= $%d", filter.Column, len(args))
	}

	var count int
	if err := r.conn.QueryRow(ctx, sb.String(), args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count higher-ranked competitors: %w", err)
	}

	return count, nil
}

// CountTiedHigherSecondary counts visible competitors tied on the primary
// stat whose secondary stat is strictly greater than the given value.
func (r *StatsRepository) CountTiedHigherSecondary(
	ctx context.Context,
	category leaderboard.Category,
	filter leaderboard.Filter,
	exclude stats.TelegramID,
	primary float64,
	secondary float64,
) (int, error) {
	m, ok := leaderboard.MetricFor(category)
	if !ok {
		return 0, fmt.Errorf("postgres: unknown category %q", category)
	}

	var sb strings.Builder
	args := []interface{}{exclude.Int64(), primary, secondary}

	// Postgres orders NaN above every real, so without the guard a tied
	// competitor with a NaN tie-break would count as "higher" here while the
	// in-memory ranker never treats NaN as higher.
	fmt.Fprintf(&sb, `
		SELECT COUNT(*) FROM user_stats
		WHERE telegram_id <> $1
		  AND privacy_settings->>'showProfile' IS DISTINCT FROM 'false'
		  AND %[1]s = $2
		  AND %[2]s > $3
		  AND %[2]s <> 'NaN'::double precision`,
		m.PrimaryColumn, m.SecondaryColumn)

	if filter.Active {
		args = append(args, filter.Cutoff)
		fmt.Fprintf(&sb, " AND %s >= $%d", filter.Column, len(args))
	}

	var count int
	if err := r.conn.QueryRow(ctx, sb.String(), args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tied competitors: %w", err)
	}

	return count, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ROW SCANNING
// ══════════════════════════════════════════════════════════════════════════════

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanStatRecord scans a user_stats row. Counter columns go into interface{}
// destinations: the writing side is loosely typed, so values are coerced at
// the domain layer rather than trusted at the scan site.
func scanStatRecord(row rowScanner) (*stats.StatRecord, error) {
	rec := &stats.StatRecord{}
	var telegramID int64

	err := row.Scan(
		&telegramID,
		&rec.FirstName,
		&rec.LastName,
		&rec.Username,
		&rec.AvatarURL,
		&rec.Theme,
		&rec.Level,
		&rec.Experience,
		&rec.CurrentStreak,
		&rec.LongestStreak,
		&rec.TotalElements,
		&rec.RareElementsFound,
		&rec.PrivacySettings,
		&rec.StreakLastCheckin,
		&rec.LastVisitDate,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.TelegramID = stats.TelegramID(telegramID)
	return rec, nil
}
