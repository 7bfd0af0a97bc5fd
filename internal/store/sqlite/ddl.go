package sqlite

// Schema statements executed on startup. SQLite keeps the whole document as
// a JSON blob; analytics and settings get their own tables.
var ddl = []string{
	`CREATE TABLE IF NOT EXISTS user_memories (
		user_id      TEXT PRIMARY KEY,
		document     TEXT NOT NULL,
		last_updated TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS conversation_analytics (
		analysis_id     TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL,
		conversation_id TEXT NOT NULL,
		record          TEXT NOT NULL,
		recorded_at     TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analytics_user_time
		ON conversation_analytics (user_id, recorded_at)`,
	`CREATE TABLE IF NOT EXISTS memory_settings (
		user_id              TEXT PRIMARY KEY,
		memory_enabled       INTEGER NOT NULL,
		chat_history_enabled INTEGER NOT NULL,
		updated_at           TIMESTAMP NOT NULL
	)`,
}
