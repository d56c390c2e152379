// Package action implements the copy-project server action: a form
// launched from the tracking UI that creates a new project and clones
// a template project's structure into it.
package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/fathomvfx/showsync/internal/domain"
	"github.com/fathomvfx/showsync/internal/ledger"
	"github.com/fathomvfx/showsync/internal/lock"
	"github.com/fathomvfx/showsync/internal/track"
	"github.com/fathomvfx/showsync/internal/webhooks"
)

// Identifier is the action id the UI launches.
const Identifier = "showsync.copy-project"

// CopyProject wires the discover/launch handlers and the copy itself.
type CopyProject struct {
	session *track.Session
	tree    *track.TreeStore
	store   *ledger.Store
	lock    *lock.FileLock
	notify  *webhooks.Notifier
	logger  *slog.Logger
}

// NewCopyProject creates the action against one tracking server.
func NewCopyProject(session *track.Session, store *ledger.Store, lk *lock.FileLock, notify *webhooks.Notifier, logger *slog.Logger) *CopyProject {
	if logger == nil {
		logger = slog.Default()
	}
	return &CopyProject{
		session: session,
		tree:    track.NewTreeStore(session),
		store:   store,
		lock:    lk,
		notify:  notify,
		logger:  logger,
	}
}

// Register subscribes the action's handlers on the hub.
func (a *CopyProject) Register(hub *track.Hub) {
	hub.Subscribe(track.TopicActionDiscover, a.Discover)
	hub.Subscribe(track.TopicActionLaunch, a.Launch)
}

// Discover advertises the action in the UI's action menu.
func (a *CopyProject) Discover(ctx context.Context, ev track.Envelope) (interface{}, error) {
	return map[string]interface{}{
		"items": []map[string]interface{}{
			{
				"label":            "Copy Project Structure",
				"actionIdentifier": Identifier,
			},
		},
	}, nil
}

// Launch serves the form on first launch and runs the copy once the
// form values come back.
func (a *CopyProject) Launch(ctx context.Context, ev track.Envelope) (interface{}, error) {
	if ev.Data.ActionIdentifier != Identifier {
		return nil, nil
	}

	if len(ev.Data.Values) == 0 {
		return a.buildForm(ctx)
	}

	params := Params{
		SourceProjectID: stringValue(ev.Data.Values, "source_project_id"),
		TargetName:      stringValue(ev.Data.Values, "target_name"),
		StartDate:       stringValue(ev.Data.Values, "start_date"),
		UserID:          ev.Source.User.ID,
	}

	result, err := a.Execute(ctx, params)
	if err != nil {
		if errors.Is(err, lock.ErrHeld) {
			return message(false, "Another project copy is already in progress. Try again shortly."), nil
		}
		a.logger.Error("copy-project failed", "source", params.SourceProjectID, "error", err)
		if result != nil {
			return message(false, result.Message), nil
		}
		return message(false, fmt.Sprintf("Copy failed: %v", err)), nil
	}
	return message(true, result.Message), nil
}

// buildForm replies with the source enumerator and the target fields.
func (a *CopyProject) buildForm(ctx context.Context) (interface{}, error) {
	projects, err := a.session.Query(ctx, "select id, name from Project")
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].Name() < projects[j].Name()
	})

	options := make([]map[string]interface{}, len(projects))
	for i, p := range projects {
		options[i] = map[string]interface{}{"label": p.Name(), "value": p.ID()}
	}

	return map[string]interface{}{
		"items": []map[string]interface{}{
			{
				"type":  "enumerator",
				"label": "Source project",
				"name":  "source_project_id",
				"data":  options,
			},
			{
				"type":  "text",
				"label": "New project name",
				"name":  "target_name",
			},
			{
				"type":  "date",
				"label": "Start date",
				"name":  "start_date",
			},
		},
	}, nil
}

func message(success bool, text string) map[string]interface{} {
	return map[string]interface{}{
		"success": success,
		"message": text,
	}
}

func stringValue(values map[string]interface{}, key string) string {
	if v, ok := values[key].(string); ok {
		return v
	}
	return ""
}

// validate rejects incomplete or malformed form submissions before any
// server state is touched.
func (p Params) validate() error {
	if p.SourceProjectID == "" {
		return errors.New("source project is required")
	}
	if p.TargetName == "" {
		return errors.New("new project name is required")
	}
	if p.StartDate != "" {
		if _, err := domain.ValidateDate(p.StartDate); err != nil {
			return fmt.Errorf("invalid start date: %w", err)
		}
	}
	return nil
}
