// Package sqlitestore persists the in-memory store to a single SQLite file.
// Every commit writes a JSON snapshot of each bucket inside one SQLite
// transaction before the in-memory state is published.
package sqlitestore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/claude/repcycle/internal/models"
	"github.com/claude/repcycle/internal/storage/memstore"
)

// Store is a memstore.Store whose commits are mirrored to SQLite.
type Store struct {
	*memstore.Store
	db   *sql.DB
	path string
}

var _ models.Store = (*Store)(nil)

var buckets = []string{"users", "mesocycles", "sessions", "feedback", "landmarks"}

// Open opens or creates the database at path and loads any saved state.
func Open(path string) (*Store, error) {
	if path == "" {
		path = "repcycle.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket  TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}

	s := &Store{Store: memstore.New(), db: db, path: path}
	if err := s.load(); err != nil {
		db.Close()
		return nil, err
	}
	s.OnCommit(s.persist)
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("reading state: %w", err)
	}
	defer rows.Close()

	var snap memstore.Snapshot
	found := false
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scanning state row: %w", err)
		}
		target := bucketField(&snap, bucket)
		if target == nil {
			continue
		}
		if err := json.Unmarshal(payload, target); err != nil {
			return fmt.Errorf("decoding %s: %w", bucket, err)
		}
		found = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating state: %w", err)
	}
	if found {
		s.Import(snap)
	}
	return nil
}

func (s *Store) persist(snap memstore.Snapshot) (retErr error) {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning sqlite tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	for _, bucket := range buckets {
		data, err := json.Marshal(bucketField(&snap, bucket))
		if err != nil {
			return fmt.Errorf("encoding %s: %w", bucket, err)
		}
		if _, err := tx.Exec(`INSERT INTO state (bucket, payload) VALUES (?, ?)
			ON CONFLICT(bucket) DO UPDATE SET payload = excluded.payload`, bucket, data); err != nil {
			return fmt.Errorf("writing %s: %w", bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing sqlite tx: %w", err)
	}
	return nil
}

func bucketField(snap *memstore.Snapshot, bucket string) any {
	switch bucket {
	case "users":
		return &snap.Users
	case "mesocycles":
		return &snap.Mesocycles
	case "sessions":
		return &snap.Sessions
	case "feedback":
		return &snap.Feedback
	case "landmarks":
		return &snap.Landmarks
	}
	return nil
}
