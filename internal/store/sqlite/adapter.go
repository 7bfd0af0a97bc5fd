package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/copilotx/copilotx-server/internal/model"
	"github.com/copilotx/copilotx-server/internal/store"
)

// SqliteStore implements store.Store on the modernc SQLite driver.
type SqliteStore struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database file and applies the schema.
func New(path string) (*SqliteStore, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db)
}

// NewWithDB wires an existing connection (used by the factory and tests).
func NewWithDB(db *sql.DB) (*SqliteStore, error) {
	for _, stmt := range ddl {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("sqlite schema: %w", err)
		}
	}
	return &SqliteStore{db: db}, nil
}

// DB exposes the underlying *sql.DB connection (local-only use case).
func (s *SqliteStore) DB() *sql.DB { return s.db }

func (s *SqliteStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SqliteStore) Close() error { return s.db.Close() }

func (s *SqliteStore) Memories() store.Memories   { return (*memories)(s) }
func (s *SqliteStore) Analytics() store.Analytics { return (*analytics)(s) }
func (s *SqliteStore) Settings() store.Settings   { return (*settings)(s) }

// --- Memory documents ---

type memories SqliteStore

func (m *memories) Get(ctx context.Context, userID string) (*model.UserMemory, error) {
	row := m.db.QueryRowContext(ctx,
		`SELECT document FROM user_memories WHERE user_id = ?`, userID)
	var doc string
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	var mem model.UserMemory
	if err := json.Unmarshal([]byte(doc), &mem); err != nil {
		return nil, fmt.Errorf("decode memory document: %w", err)
	}
	return &mem, nil
}

func (m *memories) Put(ctx context.Context, mem *model.UserMemory) error {
	doc, err := json.Marshal(mem)
	if err != nil {
		return fmt.Errorf("encode memory document: %w", err)
	}
	_, err = m.db.ExecContext(ctx,
		`INSERT INTO user_memories (user_id, document, last_updated) VALUES (?,?,?)
		 ON CONFLICT(user_id) DO UPDATE SET document = excluded.document, last_updated = excluded.last_updated`,
		mem.UserID, string(doc), mem.LastUpdated.UTC())
	return err
}

func (m *memories) Delete(ctx context.Context, userID string) error {
	_, err := m.db.ExecContext(ctx, `DELETE FROM user_memories WHERE user_id = ?`, userID)
	return err
}

// --- Conversation analytics ---

type analytics SqliteStore

func (a *analytics) Insert(ctx context.Context, rec *model.ConversationAnalysis) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode analysis record: %w", err)
	}
	_, err = a.db.ExecContext(ctx,
		`INSERT INTO conversation_analytics (analysis_id, user_id, conversation_id, record, recorded_at) VALUES (?,?,?,?,?)`,
		rec.AnalysisID, rec.UserID, rec.ConversationID, string(blob), rec.Timestamp.UTC())
	return err
}

func (a *analytics) ListSince(ctx context.Context, userID string, after *time.Time) ([]*model.ConversationAnalysis, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if after != nil {
		rows, err = a.db.QueryContext(ctx,
			`SELECT record FROM conversation_analytics WHERE user_id = ? AND recorded_at > ? ORDER BY recorded_at DESC`,
			userID, after.UTC())
	} else {
		rows, err = a.db.QueryContext(ctx,
			`SELECT record FROM conversation_analytics WHERE user_id = ? ORDER BY recorded_at DESC`,
			userID)
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.ConversationAnalysis
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		var rec model.ConversationAnalysis
		if err := json.Unmarshal([]byte(blob), &rec); err != nil {
			return nil, fmt.Errorf("decode analysis record: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (a *analytics) DeleteAll(ctx context.Context, userID string) error {
	_, err := a.db.ExecContext(ctx, `DELETE FROM conversation_analytics WHERE user_id = ?`, userID)
	return err
}

// --- Settings ---

type settings SqliteStore

func (s *settings) Get(ctx context.Context, userID string) (*model.MemorySettings, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT memory_enabled, chat_history_enabled, updated_at FROM memory_settings WHERE user_id = ?`, userID)
	out := model.MemorySettings{UserID: userID}
	var memEnabled, chatEnabled int
	if err := row.Scan(&memEnabled, &chatEnabled, &out.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	out.MemoryEnabled = memEnabled != 0
	out.ChatHistoryEnabled = chatEnabled != 0
	return &out, nil
}

func (s *settings) Put(ctx context.Context, in *model.MemorySettings) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memory_settings (user_id, memory_enabled, chat_history_enabled, updated_at) VALUES (?,?,?,?)
		 ON CONFLICT(user_id) DO UPDATE SET memory_enabled = excluded.memory_enabled,
		   chat_history_enabled = excluded.chat_history_enabled, updated_at = excluded.updated_at`,
		in.UserID, boolToInt(in.MemoryEnabled), boolToInt(in.ChatHistoryEnabled), in.UpdatedAt.UTC())
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
