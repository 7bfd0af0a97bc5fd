package store

import (
	"context"
	"time"

	"github.com/copilotx/copilotx-server/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
type Store interface {
	Memories() Memories
	Analytics() Analytics
	Settings() Settings

	HealthCheck(ctx context.Context) error
	Close() error
}

// Memories persists the per-user UserMemory document as a whole.
// Put is last-write-wins; concurrent writers to the same user can lose
// updates, which the design accepts.
type Memories interface {
	Get(ctx context.Context, userID string) (*model.UserMemory, error)
	Put(ctx context.Context, m *model.UserMemory) error
	Delete(ctx context.Context, userID string) error
}

// Analytics persists per-conversation analysis records, kept separate from
// the document so clear-all can purge them wholesale.
type Analytics interface {
	Insert(ctx context.Context, a *model.ConversationAnalysis) error
	// ListSince returns the user's records with Timestamp strictly after
	// `after` (all records when after is nil), newest first.
	ListSince(ctx context.Context, userID string, after *time.Time) ([]*model.ConversationAnalysis, error)
	DeleteAll(ctx context.Context, userID string) error
}

// Settings persists per-user memory toggles.
type Settings interface {
	Get(ctx context.Context, userID string) (*model.MemorySettings, error)
	Put(ctx context.Context, s *model.MemorySettings) error
}
