package events

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/fathomvfx/showsync/internal/domain"
)

// Writer handles writing entries to the local sync audit log
type Writer struct {
	db *sql.DB
}

// NewWriter creates a new audit-log writer
func NewWriter(db *sql.DB) *Writer {
	return &Writer{db: db}
}

// LogEvent writes an event to the sync audit log
func (w *Writer) LogEvent(tx *sql.Tx, event *domain.Event) error {
	query := `
		INSERT INTO sync_log (resource_type, resource_id, event_type, payload)
		VALUES (?, ?, ?, ?)
	`

	executor := w.getExecutor(tx)
	_, err := executor.Exec(query, event.ResourceType, event.ResourceID, event.EventType, event.Payload)
	if err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// LogMirrored logs a successful cross-server mirror of an entity
func (w *Writer) LogMirrored(tx *sql.Tx, resourceType, resourceID, targetServer string, fields map[string]interface{}) error {
	payload := map[string]interface{}{
		"target_server": targetServer,
	}
	for k, v := range fields {
		payload[k] = v
	}
	payloadStr, err := marshalPayload(payload)
	if err != nil {
		return err
	}

	return w.LogEvent(tx, &domain.Event{
		ResourceType: resourceType,
		ResourceID:   &resourceID,
		EventType:    resourceType + ".mirrored",
		Payload:      &payloadStr,
	})
}

// LogMirrorSkipped logs a mirror attempt that was skipped with the reason
func (w *Writer) LogMirrorSkipped(tx *sql.Tx, resourceType, resourceID, reason string) error {
	payloadStr, err := marshalPayload(map[string]interface{}{
		"reason": reason,
	})
	if err != nil {
		return err
	}

	return w.LogEvent(tx, &domain.Event{
		ResourceType: resourceType,
		ResourceID:   &resourceID,
		EventType:    resourceType + ".skipped",
		Payload:      &payloadStr,
	})
}

// LogMirrorFailed logs a mirror attempt that errored
func (w *Writer) LogMirrorFailed(tx *sql.Tx, resourceType, resourceID string, cause error) error {
	payloadStr, err := marshalPayload(map[string]interface{}{
		"error": cause.Error(),
	})
	if err != nil {
		return err
	}

	return w.LogEvent(tx, &domain.Event{
		ResourceType: resourceType,
		ResourceID:   &resourceID,
		EventType:    resourceType + ".failed",
		Payload:      &payloadStr,
	})
}

// LogRunStarted logs the start of a clone run
func (w *Writer) LogRunStarted(tx *sql.Tx, run *domain.CloneRun) error {
	payloadStr, err := marshalPayload(map[string]interface{}{
		"source_project_id": run.SourceProjectID,
		"target_name":       run.TargetName,
	})
	if err != nil {
		return err
	}

	return w.LogEvent(tx, &domain.Event{
		ResourceType: "run",
		ResourceID:   &run.UUID,
		EventType:    "run.started",
		Payload:      &payloadStr,
	})
}

// LogRunFinished logs the completion of a clone run
func (w *Writer) LogRunFinished(tx *sql.Tx, run *domain.CloneRun, created, skipped int) error {
	payload := map[string]interface{}{
		"status":  string(run.Status),
		"created": created,
		"skipped": skipped,
	}
	if run.Error != nil {
		payload["error"] = *run.Error
	}
	payloadStr, err := marshalPayload(payload)
	if err != nil {
		return err
	}

	return w.LogEvent(tx, &domain.Event{
		ResourceType: "run",
		ResourceID:   &run.UUID,
		EventType:    "run.finished",
		Payload:      &payloadStr,
	})
}

func marshalPayload(payload map[string]interface{}) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return string(data), nil
}

// getExecutor returns the appropriate executor (tx or db)
func (w *Writer) getExecutor(tx *sql.Tx) interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
} {
	if tx != nil {
		return tx
	}
	return w.db
}
