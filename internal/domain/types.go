package domain

import (
	"encoding/json"
	"time"
)

// Kind is the schema type tag of a node in the tracking-server hierarchy.
type Kind string

const (
	KindProject   Kind = "Project"
	KindFolder    Kind = "Folder"
	KindSequence  Kind = "Sequence"
	KindShot      Kind = "Shot"
	KindTask      Kind = "Task"
	KindMilestone Kind = "Milestone"
)

// FallbackKind is the generic container type used when the target schema
// rejects a node's specific kind.
const FallbackKind = KindFolder

// IsLeaf reports whether nodes of this kind never have clonable children.
func (k Kind) IsLeaf() bool {
	return k == KindTask || k == KindMilestone
}

// JobStatus represents the lifecycle of a server-tracked job.
type JobStatus string

const (
	JobStatusRunning JobStatus = "running"
	JobStatusDone    JobStatus = "done"
	JobStatusFailed  JobStatus = "failed"
)

// RunStatus represents the outcome of a recorded clone run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// CloneRun is a ledger record of one invocation of the project cloner.
type CloneRun struct {
	UUID            string     `json:"uuid" db:"uuid"`
	ID              string     `json:"id" db:"id"`
	SourceProjectID string     `json:"source_project_id" db:"source_project_id"`
	TargetProjectID string     `json:"target_project_id" db:"target_project_id"`
	TargetName      string     `json:"target_name" db:"target_name"`
	JobID           *string    `json:"job_id,omitempty" db:"job_id"`
	Status          RunStatus  `json:"status" db:"status"`
	Error           *string    `json:"error,omitempty" db:"error"`
	StartedAt       time.Time  `json:"started_at" db:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty" db:"finished_at"`
}

// CloneRecord is a ledger record of one per-node outcome within a run.
type CloneRecord struct {
	RunUUID      string  `json:"run_uuid" db:"run_uuid"`
	Seq          int     `json:"seq" db:"seq"`
	Path         string  `json:"path" db:"path"`
	Kind         string  `json:"kind" db:"kind"`
	Outcome      string  `json:"outcome" db:"outcome"`
	FallbackKind *string `json:"fallback_kind,omitempty" db:"fallback_kind"`
	Reason       *string `json:"reason,omitempty" db:"reason"`
}

// Mirror is a ledger record of an entity mirrored across servers. It backs
// the dedup guard that suppresses follow-up events for entities we created.
type Mirror struct {
	EntityID   string    `json:"entity_id" db:"entity_id"`
	EntityType string    `json:"entity_type" db:"entity_type"`
	Server     string    `json:"server" db:"server"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Event is a row in the local sync audit log.
type Event struct {
	ID           int64     `json:"id" db:"id"`
	Timestamp    time.Time `json:"timestamp" db:"timestamp"`
	ResourceType string    `json:"resource_type" db:"resource_type"`
	ResourceID   *string   `json:"resource_id,omitempty" db:"resource_id"`
	EventType    string    `json:"event_type" db:"event_type"`
	Payload      *string   `json:"payload,omitempty" db:"payload"`
}

// PayloadMap parses the event payload JSON into a map.
func (e *Event) PayloadMap() (map[string]interface{}, error) {
	if e.Payload == nil || *e.Payload == "" {
		return map[string]interface{}{}, nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(*e.Payload), &m); err != nil {
		return nil, err
	}
	return m, nil
}
