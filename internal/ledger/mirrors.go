package ledger

import (
	"database/sql"
	"fmt"

	"github.com/fathomvfx/showsync/internal/events"
)

// MirrorStore persists the ids of entities this service created on a target
// server, so the follow-up creation events they generate can be ignored.
type MirrorStore struct {
	store *Store
}

// Record remembers that an entity was mirrored to the given server.
// Recording the same entity twice is not an error.
func (ms *MirrorStore) Record(entityID, entityType, server string) error {
	return ms.store.withTx(func(tx *sql.Tx, ew *events.Writer) error {
		_, err := tx.Exec(`
			INSERT OR IGNORE INTO mirrors (entity_id, entity_type, server)
			VALUES (?, ?, ?)
		`, entityID, entityType, server)
		if err != nil {
			return fmt.Errorf("failed to record mirror: %w", err)
		}
		return nil
	})
}

// Seen reports whether the entity id was previously recorded.
func (ms *MirrorStore) Seen(entityID, entityType string) (bool, error) {
	var count int
	err := ms.store.db.QueryRow(`
		SELECT COUNT(*) FROM mirrors WHERE entity_id = ? AND entity_type = ?
	`, entityID, entityType).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check mirror: %w", err)
	}
	return count > 0, nil
}

// Consume reports whether the entity id was recorded and, if so, removes it.
// This matches the one-shot suppression of the follow-up event generated by
// a mirror write: the first echo is swallowed, later events flow normally.
func (ms *MirrorStore) Consume(entityID, entityType string) (bool, error) {
	var consumed bool
	err := ms.store.withTx(func(tx *sql.Tx, ew *events.Writer) error {
		res, err := tx.Exec(`
			DELETE FROM mirrors WHERE entity_id = ? AND entity_type = ?
		`, entityID, entityType)
		if err != nil {
			return fmt.Errorf("failed to consume mirror: %w", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected: %w", err)
		}
		consumed = rows > 0
		return nil
	})
	return consumed, err
}
