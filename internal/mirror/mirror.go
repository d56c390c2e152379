// Package mirror keeps newly created tasks, notes and versions aligned
// between two tracking servers. A Syncer listens to one server's
// update events and recreates matching entities on the other, using
// the ledger to recognize its own writes when they echo back.
package mirror

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fathomvfx/showsync/internal/events"
	"github.com/fathomvfx/showsync/internal/ledger"
	"github.com/fathomvfx/showsync/internal/lock"
	"github.com/fathomvfx/showsync/internal/track"
)

// Syncer mirrors entities from a source server to a target server in
// one direction. Run two of them for a bidirectional pair.
type Syncer struct {
	src        *track.Session
	dst        *track.Session
	dstName    string
	store      *ledger.Store
	audit      *events.Writer
	lock       *lock.FileLock
	taskFilter string
	logger     *slog.Logger
}

// New creates a syncer mirroring from src to dst. dstName labels the
// target server in ledger records; taskFilter restricts task mirroring
// to tasks whose name contains it, empty meaning all tasks.
func New(src, dst *track.Session, dstName string, store *ledger.Store, lk *lock.FileLock, taskFilter string, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		src:        src,
		dst:        dst,
		dstName:    dstName,
		store:      store,
		audit:      events.NewWriter(store.DB().DB),
		lock:       lk,
		taskFilter: taskFilter,
		logger:     logger.With("target", dstName),
	}
}

// HandleUpdate processes one update envelope from the source server.
// Per-entity failures are logged and audited but never returned, so
// the event loop keeps running.
func (s *Syncer) HandleUpdate(ctx context.Context, ev track.Envelope) (interface{}, error) {
	if s.lock.Held() {
		s.logger.Debug("project copy in progress, skipping update batch", "event", ev.ID)
		return nil, nil
	}

	for _, change := range ev.Data.Entities {
		if change.Action != "add" {
			continue
		}

		var resourceType string
		var err error
		switch change.EntityType {
		case "Task":
			resourceType = "task"
			err = s.mirrorTask(ctx, change.EntityID)
		case "Note":
			resourceType = "note"
			err = s.mirrorNote(ctx, change.EntityID, change.ParentType)
		case "AssetVersion":
			resourceType = "version"
			err = s.mirrorVersion(ctx, change.EntityID)
		default:
			continue
		}

		if err != nil {
			s.logger.Error("mirror failed",
				"type", resourceType, "entity", change.EntityID, "error", err)
			if logErr := s.audit.LogMirrorFailed(nil, resourceType, change.EntityID, err); logErr != nil {
				s.logger.Error("failed to write audit entry", "error", logErr)
			}
		}
	}
	return nil, nil
}

// consumeEcho reports whether the entity is one this service created,
// consuming the suppression entry and auditing the skip.
func (s *Syncer) consumeEcho(resourceType, entityID string) (bool, error) {
	consumed, err := s.store.Mirrors.Consume(entityID, resourceType)
	if err != nil {
		return false, fmt.Errorf("failed to check mirror ledger: %w", err)
	}
	if !consumed {
		return false, nil
	}
	s.logger.Debug("ignoring echo of mirrored entity", "type", resourceType, "entity", entityID)
	return true, s.audit.LogMirrorSkipped(nil, resourceType, entityID, "echo of mirrored entity")
}

// skip audits a mirror that was intentionally not performed.
func (s *Syncer) skip(resourceType, entityID, reason string) error {
	s.logger.Debug("skipping mirror", "type", resourceType, "entity", entityID, "reason", reason)
	return s.audit.LogMirrorSkipped(nil, resourceType, entityID, reason)
}

// mirrored records the created entity for echo suppression and audits
// the successful mirror.
func (s *Syncer) mirrored(resourceType, createdID string, fields map[string]interface{}) error {
	if err := s.store.Mirrors.Record(createdID, resourceType, s.dstName); err != nil {
		return fmt.Errorf("failed to record mirror: %w", err)
	}
	return s.audit.LogMirrored(nil, resourceType, createdID, s.dstName, fields)
}

// targetProject finds the target server's project matching the source
// project by name, or nil when the show does not exist there.
func (s *Syncer) targetProject(ctx context.Context, sourceProjectID string) (track.Entity, error) {
	project, err := s.src.Get(ctx, "Project", sourceProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, nil
	}
	return s.dst.QueryOne(ctx, fmt.Sprintf("Project where name is %q", project.Name()))
}

// commitCreate commits the staged create, rolling back on failure.
func (s *Syncer) commitCreate(ctx context.Context) error {
	if err := s.dst.Commit(ctx); err != nil {
		s.dst.Rollback()
		return err
	}
	return nil
}
