package domain

import (
	"fmt"
	"time"
)

// ValidateKind validates a hierarchy node kind. Custom schema kinds are
// allowed as long as they are non-empty; the built-in vocabulary is only a
// baseline.
func ValidateKind(kind string) error {
	if kind == "" {
		return fmt.Errorf("invalid kind: must not be empty")
	}
	return nil
}

// ValidateRunStatus validates a clone-run status.
func ValidateRunStatus(status string) error {
	switch RunStatus(status) {
	case RunStatusRunning, RunStatusCompleted, RunStatusFailed:
		return nil
	default:
		return fmt.Errorf("invalid run status: must be one of: running, completed, failed")
	}
}

// ValidateResourceType validates an audit-log resource type.
func ValidateResourceType(resourceType string) error {
	switch resourceType {
	case "task", "note", "version", "project", "job", "run", "system":
		return nil
	default:
		return fmt.Errorf("invalid resource type: must be one of: task, note, version, project, job, run, system")
	}
}

// ValidateTimestamp validates and parses an ISO8601 timestamp.
func ValidateTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp format: expected ISO8601/RFC3339")
	}
	return t, nil
}

// ValidateDate validates and parses a calendar date (YYYY-MM-DD).
func ValidateDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: expected YYYY-MM-DD")
	}
	return t, nil
}
