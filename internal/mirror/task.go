package mirror

import (
	"context"
	"fmt"
	"strings"
)

// mirrorTask recreates a newly added task on the target server when
// its name contains the configured filter and its show exists there.
func (s *Syncer) mirrorTask(ctx context.Context, taskID string) error {
	if echoed, err := s.consumeEcho("task", taskID); echoed || err != nil {
		return err
	}

	task, err := s.src.Get(ctx, "Task", taskID)
	if err != nil {
		return fmt.Errorf("failed to fetch source task: %w", err)
	}
	if task == nil {
		return s.skip("task", taskID, "task no longer exists on source")
	}

	if s.taskFilter != "" && !strings.Contains(strings.ToLower(task.Name()), strings.ToLower(s.taskFilter)) {
		return s.skip("task", taskID, fmt.Sprintf("name %q does not contain filter %q", task.Name(), s.taskFilter))
	}

	project, err := s.targetProject(ctx, task.String("project_id"))
	if err != nil {
		return fmt.Errorf("failed to resolve target project: %w", err)
	}
	if project == nil {
		return s.skip("task", taskID, "show does not exist on target")
	}

	existing, err := s.dst.QueryOne(ctx, fmt.Sprintf(
		"Task where name is %q and project_id is %q", task.Name(), project.ID()))
	if err != nil {
		return fmt.Errorf("failed to check target for existing task: %w", err)
	}
	if existing != nil {
		return s.skip("task", taskID, "task already exists on target")
	}

	attrs := map[string]interface{}{
		"name":       task.Name(),
		"parent_id":  project.ID(),
		"project_id": project.ID(),
	}
	if desc := task.String("description"); desc != "" {
		attrs["description"] = desc
	}

	created := s.dst.Create("Task", attrs)
	if err := s.commitCreate(ctx); err != nil {
		return fmt.Errorf("failed to create task on target: %w", err)
	}

	s.logger.Info("mirrored task", "name", task.Name(), "project", project.Name())
	return s.mirrored("task", created.ID(), map[string]interface{}{
		"source_id": taskID,
		"name":      task.Name(),
		"project":   project.Name(),
	})
}
