// Package ledger provides the local persistence layer for sync state:
// the mirrored-entity dedup guard, clone-run records, and the audit log.
package ledger

import (
	"database/sql"
	"fmt"

	"github.com/fathomvfx/showsync/internal/db"
	"github.com/fathomvfx/showsync/internal/events"
)

// Store is the root store that provides access to domain-specific stores.
type Store struct {
	db *db.DB

	Runs    *RunStore
	Mirrors *MirrorStore
}

// New creates a new Store wrapping the given ledger database.
func New(database *db.DB) *Store {
	s := &Store{db: database}
	s.Runs = &RunStore{store: s}
	s.Mirrors = &MirrorStore{store: s}
	return s
}

// DB returns the underlying database connection (for read-only queries).
func (s *Store) DB() *db.DB {
	return s.db
}

// withTx executes fn within a transaction. If fn returns nil, the transaction
// is committed; otherwise it is rolled back.
func (s *Store) withTx(fn func(tx *sql.Tx, ew *events.Writer) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ew := events.NewWriter(s.db.DB)
	if err := fn(tx, ew); err != nil {
		return err
	}

	return tx.Commit()
}
