package mirror

import (
	"context"
	"fmt"
	"strings"

	"github.com/fathomvfx/showsync/internal/track"
)

// mirrorNote recreates a note on the counterpart of its parent,
// prefixing the subject into the content and attributing it to the
// matching user when one exists on the target. Show-parented notes
// land on the target project, task-parented notes on the counterpart
// task.
func (s *Syncer) mirrorNote(ctx context.Context, noteID, parentType string) error {
	if echoed, err := s.consumeEcho("note", noteID); echoed || err != nil {
		return err
	}

	note, err := s.src.Get(ctx, "Note", noteID)
	if err != nil {
		return fmt.Errorf("failed to fetch source note: %w", err)
	}
	if note == nil {
		return s.skip("note", noteID, "note no longer exists on source")
	}

	var parent track.Entity
	fields := map[string]interface{}{"source_id": noteID}

	switch strings.ToLower(parentType) {
	case "show", "project":
		project, err := s.targetProject(ctx, note.String("parent_id"))
		if err != nil {
			return fmt.Errorf("failed to resolve target project: %w", err)
		}
		if project == nil {
			return s.skip("note", noteID, "show does not exist on target")
		}
		parent = project
		fields["project"] = project.Name()
	default:
		parentTask, err := s.src.Get(ctx, "Task", note.String("parent_id"))
		if err != nil {
			return fmt.Errorf("failed to fetch note parent: %w", err)
		}
		if parentTask == nil {
			return s.skip("note", noteID, "parent is not a task")
		}

		project, err := s.targetProject(ctx, parentTask.String("project_id"))
		if err != nil {
			return fmt.Errorf("failed to resolve target project: %w", err)
		}
		if project == nil {
			return s.skip("note", noteID, "show does not exist on target")
		}

		targetTask, err := s.dst.QueryOne(ctx, fmt.Sprintf(
			"Task where name is %q and project_id is %q", parentTask.Name(), project.ID()))
		if err != nil {
			return fmt.Errorf("failed to find counterpart task: %w", err)
		}
		if targetTask == nil {
			return s.skip("note", noteID, "counterpart task does not exist on target")
		}
		parent = targetTask
		fields["task"] = parentTask.Name()
		fields["project"] = project.Name()
	}

	content := note.String("content")
	if subject := note.String("subject"); subject != "" {
		content = fmt.Sprintf("**%s**\n\n%s", subject, content)
	}

	attrs := map[string]interface{}{
		"content":   content,
		"parent_id": parent.ID(),
	}
	if userID, err := s.matchAuthor(ctx, note.String("user_id")); err != nil {
		return err
	} else if userID != "" {
		attrs["user_id"] = userID
	}

	created := s.dst.Create("Note", attrs)
	if err := s.commitCreate(ctx); err != nil {
		return fmt.Errorf("failed to create note on target: %w", err)
	}

	s.logger.Info("mirrored note", "note", noteID, "parent", parent.ID())
	return s.mirrored("note", created.ID(), fields)
}

// matchAuthor maps the source note author onto the target server's
// user with the same username, returning "" when there is none. The
// note then falls back to the API user.
func (s *Syncer) matchAuthor(ctx context.Context, sourceUserID string) (string, error) {
	if sourceUserID == "" {
		return "", nil
	}
	author, err := s.src.Get(ctx, "User", sourceUserID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch note author: %w", err)
	}
	if author == nil {
		return "", nil
	}
	target, err := s.dst.QueryOne(ctx, fmt.Sprintf(
		"User where username is %q", author.String("username")))
	if err != nil {
		return "", fmt.Errorf("failed to match author on target: %w", err)
	}
	if target == nil {
		return "", nil
	}
	return target.ID(), nil
}
