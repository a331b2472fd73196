package storage

import (
	"context"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/claude/repcycle/internal/models"
)

// DB wraps a pgxpool.Pool and implements models.Store.
type DB struct {
	Pool *pgxpool.Pool
}

var _ models.Store = (*DB)(nil)

// New creates a new DB with a connection pool.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}

// RunMigrations applies all pending migrations from the given directory.
func RunMigrations(dsn, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// querier is the subset of pgxpool.Pool and pgx.Tx the repository methods use.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// conn implements models.Reader over a querier.
type conn struct {
	q querier
}

// tx implements models.Tx. Lock methods take row locks held until commit.
type tx struct {
	conn
}

// Update runs fn in a read-committed transaction. Read-modify-write paths take
// row locks through the Lock methods, so concurrent advances of the same
// mesocycle or updates of the same landmark rows serialize.
func (db *DB) Update(ctx context.Context, fn func(models.Tx) error) error {
	pgtx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = pgtx.Rollback(ctx) }()

	if err := fn(&tx{conn{q: pgtx}}); err != nil {
		return err
	}
	if err := pgtx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", mapPgError(err))
	}
	return nil
}

// View runs fn in a read-only repeatable-read transaction, so every read
// inside fn sees the same snapshot.
func (db *DB) View(ctx context.Context, fn func(models.Reader) error) error {
	pgtx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("beginning snapshot: %w", err)
	}
	defer func() { _ = pgtx.Rollback(ctx) }()

	if err := fn(&conn{q: pgtx}); err != nil {
		return err
	}
	return pgtx.Commit(ctx)
}
