package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/copilotx/copilotx-server/internal/model"
	"github.com/copilotx/copilotx-server/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies
// connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// New opens a connection and applies the schema.
func New(dsn string) (store.Store, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	s := &pgStore{db: db}
	if err := s.bootstrap(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Memories() store.Memories   { return &memories{db: s.db} }
func (s *pgStore) Analytics() store.Analytics { return &analytics{db: s.db} }
func (s *pgStore) Settings() store.Settings   { return &settings{db: s.db} }

func (s *pgStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *pgStore) Close() error { return s.db.Close() }

func (s *pgStore) bootstrap(ctx context.Context) error {
	for _, stmt := range ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("postgres schema: %w", err)
		}
	}
	return nil
}

var ddl = []string{
	`CREATE TABLE IF NOT EXISTS user_memories (
		user_id      TEXT PRIMARY KEY,
		document     JSONB NOT NULL,
		last_updated TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS conversation_analytics (
		analysis_id     TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL,
		conversation_id TEXT NOT NULL,
		record          JSONB NOT NULL,
		recorded_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analytics_user_time
		ON conversation_analytics (user_id, recorded_at)`,
	`CREATE TABLE IF NOT EXISTS memory_settings (
		user_id              TEXT PRIMARY KEY,
		memory_enabled       BOOLEAN NOT NULL,
		chat_history_enabled BOOLEAN NOT NULL,
		updated_at           TIMESTAMPTZ NOT NULL
	)`,
}

// --- Memory documents ---

type memories struct{ db *sql.DB }

func (m *memories) Get(ctx context.Context, userID string) (*model.UserMemory, error) {
	var doc []byte
	row := m.db.QueryRowContext(ctx,
		`SELECT document FROM user_memories WHERE user_id=$1`, userID)
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	var mem model.UserMemory
	if err := json.Unmarshal(doc, &mem); err != nil {
		return nil, fmt.Errorf("decode memory document: %w", err)
	}
	return &mem, nil
}

func (m *memories) Put(ctx context.Context, mem *model.UserMemory) error {
	doc, err := json.Marshal(mem)
	if err != nil {
		return fmt.Errorf("encode memory document: %w", err)
	}
	_, err = m.db.ExecContext(ctx, `
        INSERT INTO user_memories (user_id, document, last_updated)
        VALUES ($1,$2,$3)
        ON CONFLICT (user_id) DO UPDATE
          SET document = EXCLUDED.document, last_updated = EXCLUDED.last_updated
    `, mem.UserID, doc, mem.LastUpdated.UTC())
	return err
}

func (m *memories) Delete(ctx context.Context, userID string) error {
	_, err := m.db.ExecContext(ctx, `DELETE FROM user_memories WHERE user_id=$1`, userID)
	return err
}

// --- Conversation analytics ---

type analytics struct{ db *sql.DB }

func (a *analytics) Insert(ctx context.Context, rec *model.ConversationAnalysis) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode analysis record: %w", err)
	}
	_, err = a.db.ExecContext(ctx, `
        INSERT INTO conversation_analytics (analysis_id, user_id, conversation_id, record, recorded_at)
        VALUES ($1,$2,$3,$4,$5)
    `, rec.AnalysisID, rec.UserID, rec.ConversationID, blob, rec.Timestamp.UTC())
	return err
}

func (a *analytics) ListSince(ctx context.Context, userID string, after *time.Time) ([]*model.ConversationAnalysis, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if after != nil {
		rows, err = a.db.QueryContext(ctx, `
            SELECT record FROM conversation_analytics
            WHERE user_id=$1 AND recorded_at > $2 ORDER BY recorded_at DESC
        `, userID, after.UTC())
	} else {
		rows, err = a.db.QueryContext(ctx, `
            SELECT record FROM conversation_analytics
            WHERE user_id=$1 ORDER BY recorded_at DESC
        `, userID)
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.ConversationAnalysis
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		var rec model.ConversationAnalysis
		if err := json.Unmarshal(blob, &rec); err != nil {
			return nil, fmt.Errorf("decode analysis record: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (a *analytics) DeleteAll(ctx context.Context, userID string) error {
	_, err := a.db.ExecContext(ctx, `DELETE FROM conversation_analytics WHERE user_id=$1`, userID)
	return err
}

// --- Settings ---

type settings struct{ db *sql.DB }

func (s *settings) Get(ctx context.Context, userID string) (*model.MemorySettings, error) {
	out := model.MemorySettings{UserID: userID}
	row := s.db.QueryRowContext(ctx, `
        SELECT memory_enabled, chat_history_enabled, updated_at
        FROM memory_settings WHERE user_id=$1
    `, userID)
	if err := row.Scan(&out.MemoryEnabled, &out.ChatHistoryEnabled, &out.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (s *settings) Put(ctx context.Context, in *model.MemorySettings) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO memory_settings (user_id, memory_enabled, chat_history_enabled, updated_at)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (user_id) DO UPDATE
          SET memory_enabled = EXCLUDED.memory_enabled,
              chat_history_enabled = EXCLUDED.chat_history_enabled,
              updated_at = EXCLUDED.updated_at
    `, in.UserID, in.MemoryEnabled, in.ChatHistoryEnabled, in.UpdatedAt.UTC())
	return err
}
