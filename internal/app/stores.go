package app

import (
	"database/sql"
	"fmt"
	"time"

	"menu-planner/internal/config"
	"menu-planner/internal/planner"
	"menu-planner/internal/remote"
	"menu-planner/internal/storage"
)

// OpenPlanStore returns the plan store selected by cfg.Backend. db backs the
// sqlite store and is ignored by the others.
func OpenPlanStore(cfg config.PersistenceConfig, db *sql.DB) (PlanStore, error) {
	switch cfg.Backend {
	case config.BackendSQLite, "":
		return planner.NewPlanRepository(db), nil
	case config.BackendFile:
		store, err := storage.NewFileStore(cfg.FileDir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendRemote:
		return remote.NewClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown persistence backend %q", cfg.Backend)
	}
}

// NewEngine builds the menu engine tuned by cfg.
func NewEngine(cfg config.RegenerationConfig, now func() time.Time) *planner.Engine {
	opts := []planner.Option{
		planner.WithMaxAttempts(cfg.MaxAttempts),
		planner.WithPotatoException(cfg.PotatoException),
	}
	if cfg.Seed != 0 {
		opts = append(opts, planner.WithRandomSource(planner.NewRandomSource(cfg.Seed)))
	}
	if now != nil {
		opts = append(opts, planner.WithClock(now))
	}
	return planner.NewEngine(opts...)
}
