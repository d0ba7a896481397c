package store

import "strings"

// Table names.
const (
	tableUsers         = "users"
	tableCards         = "cards"
	tableSets          = "card_sets"
	tableViews         = "card_views"
	tableLearningStats = "learning_stats"
)

// Timestamps are stored as unix milliseconds (UTC) so that range
// comparisons behave the same on every driver.
//
// card_views.card_id deliberately has no foreign key: the view log is
// append-only and outlives deleted cards.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    external_id INTEGER NOT NULL UNIQUE,
    display_name TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS card_sets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    name_key TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    UNIQUE(user_id, name_key)
)`,
	`CREATE TABLE IF NOT EXISTS cards (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    set_id INTEGER REFERENCES card_sets(id) ON DELETE SET NULL,
    word TEXT NOT NULL,
    translation TEXT NOT NULL,
    hint TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS cards_user_set ON cards(user_id, set_id)`,
	`CREATE TABLE IF NOT EXISTS card_views (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    card_id INTEGER NOT NULL,
    viewed_at INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS card_views_user_time ON card_views(user_id, viewed_at)`,
	`CREATE TABLE IF NOT EXISTS learning_stats (
    user_id INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    total_views INTEGER NOT NULL DEFAULT 0,
    last_learned INTEGER,
    last_reminder INTEGER
)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    external_id BIGINT NOT NULL UNIQUE,
    display_name TEXT NOT NULL DEFAULT '',
    created_at BIGINT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS card_sets (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    name_key TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    UNIQUE(user_id, name_key)
)`,
	`CREATE TABLE IF NOT EXISTS cards (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    set_id BIGINT REFERENCES card_sets(id) ON DELETE SET NULL,
    word TEXT NOT NULL,
    translation TEXT NOT NULL,
    hint TEXT NOT NULL DEFAULT '',
    created_at BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS cards_user_set ON cards(user_id, set_id)`,
	`CREATE TABLE IF NOT EXISTS card_views (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    card_id BIGINT NOT NULL,
    viewed_at BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS card_views_user_time ON card_views(user_id, viewed_at)`,
	`CREATE TABLE IF NOT EXISTS learning_stats (
    user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    total_views BIGINT NOT NULL DEFAULT 0,
    last_learned BIGINT,
    last_reminder BIGINT
)`,
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
