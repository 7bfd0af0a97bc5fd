package factory

import (
	"fmt"

	"github.com/copilotx/copilotx-server/internal/config"
	"github.com/copilotx/copilotx-server/internal/store"
	"github.com/copilotx/copilotx-server/internal/store/postgres"
	"github.com/copilotx/copilotx-server/internal/store/sqlite"
)

// NewStore builds the configured storage adapter.
func NewStore(cfg *config.Config) (store.Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return sqlite.New(cfg.SQLitePath)
	case "postgres":
		return postgres.New(cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s", cfg.DBDriver)
	}
}
