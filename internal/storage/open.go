package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/claude/repcycle/internal/config"
	"github.com/claude/repcycle/internal/models"
	"github.com/claude/repcycle/internal/storage/memstore"
	"github.com/claude/repcycle/internal/storage/sqlitestore"
)

// Open returns the store selected by cfg.Driver and a func releasing it.
// For postgres, pending migrations from migrationsPath are applied first.
func Open(ctx context.Context, cfg config.DatabaseConfig, migrationsPath string, log *slog.Logger) (models.Store, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		dsn := cfg.DSN()
		if err := RunMigrations(dsn, migrationsPath); err != nil {
			return nil, nil, err
		}
		log.Info("migrations applied")
		db, err := New(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		log.Info("database connected", "driver", cfg.Driver, "host", cfg.Host, "name", cfg.Name)
		return db, db.Close, nil

	case config.DriverSQLite:
		st, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Info("database opened", "driver", cfg.Driver, "path", st.Path())
		return st, func() {
			if err := st.Close(); err != nil {
				log.Warn("closing sqlite store", "error", err)
			}
		}, nil

	case config.DriverMemory:
		log.Warn("using in-memory store, data is lost on exit")
		return memstore.New(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}
