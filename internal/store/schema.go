package store

// Table names
const (
	TableUsers    = "users"
	TableSettings = "settings"
	TableStats    = "stats"
)

// StatSuccessfulDownloads counts completed jobs
const StatSuccessfulDownloads = "successful_downloads"

// The same DDL runs on sqlite and postgres
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		username TEXT NOT NULL DEFAULT '',
		is_banned BOOLEAN NOT NULL DEFAULT FALSE,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS stats (
		key TEXT PRIMARY KEY,
		value BIGINT NOT NULL DEFAULT 0
	)`,
}
