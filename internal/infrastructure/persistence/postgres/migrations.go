// Package postgres implements the PostgreSQL persistence layer for MoodGarden Hub.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE USER STATS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create user_stats table
-- Version: 001

-- Per-user aggregate stats written by the mini-app.
-- Counters are double precision: the writing side is loosely typed and
-- historical rows may carry NaN or Infinity.
CREATE TABLE IF NOT EXISTS user_stats (
    telegram_id BIGINT PRIMARY KEY,
    first_name VARCHAR(100) NOT NULL DEFAULT '',
    last_name VARCHAR(100) NOT NULL DEFAULT '',
    username VARCHAR(100) NOT NULL DEFAULT '',
    avatar_url TEXT NOT NULL DEFAULT '',
    theme VARCHAR(30) NOT NULL DEFAULT 'spring',

    level DOUBLE PRECISION,
    experience DOUBLE PRECISION,
    current_streak DOUBLE PRECISION,
    longest_streak DOUBLE PRECISION,
    total_elements DOUBLE PRECISION,
    rare_elements_found DOUBLE PRECISION,

    -- Privacy toggles from the mini-app settings screen.
    privacy_settings JSONB NOT NULL DEFAULT '{
        "showProfile": true,
        "showGarden": true,
        "showAchievements": true
    }'::jsonb,

    -- Day of the last check-in that counted toward the streak.
    streak_last_checkin DATE,
    -- Last time the user opened the app.
    last_visit_date TIMESTAMP WITH TIME ZONE,

    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

-- Ranking indexes: one per category, covering the window query ordering.
CREATE INDEX IF NOT EXISTS idx_user_stats_level
    ON user_stats (level DESC NULLS LAST, experience DESC NULLS LAST);

CREATE INDEX IF NOT EXISTS idx_user_stats_streak
    ON user_stats (current_streak DESC NULLS LAST, longest_streak DESC NULLS LAST);

CREATE INDEX IF NOT EXISTS idx_user_stats_elements
    ON user_stats (total_elements DESC NULLS LAST, rare_elements_found DESC NULLS LAST);

-- Monthly period predicates.
CREATE INDEX IF NOT EXISTS idx_user_stats_last_visit
    ON user_stats (last_visit_date);

CREATE INDEX IF NOT EXISTS idx_user_stats_streak_checkin
    ON user_stats (streak_last_checkin);
`

const migration001Down = `
DROP INDEX IF EXISTS idx_user_stats_streak_checkin;
DROP INDEX IF EXISTS idx_user_stats_last_visit;
DROP INDEX IF EXISTS idx_user_stats_elements;
DROP INDEX IF EXISTS idx_user_stats_streak;
DROP INDEX IF EXISTS idx_user_stats_level;
DROP TABLE IF EXISTS user_stats;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION REGISTRY
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_user_stats",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
	}
}
