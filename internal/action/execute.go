package action

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fathomvfx/showsync/internal/clone"
	"github.com/fathomvfx/showsync/internal/domain"
	"github.com/fathomvfx/showsync/internal/ledger"
	"github.com/fathomvfx/showsync/internal/paths"
	"github.com/fathomvfx/showsync/internal/track"
)

// Params are the inputs of one project copy.
type Params struct {
	SourceProjectID string
	TargetName      string
	StartDate       string // YYYY-MM-DD, defaults to today
	UserID          string // attributes the server job, may be empty
}

// Result reports what a copy did. Run and Records are set once the
// ledger run exists, including for copies that aborted partway.
type Result struct {
	Run     *domain.CloneRun
	Records []domain.CloneRecord
	Message string
}

// Execute performs the copy: create the target project, clone the
// source structure into it, and record the run in the ledger. Only one
// copy runs at a time; a held lock returns lock.ErrHeld.
func (a *CopyProject) Execute(ctx context.Context, p Params) (*Result, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if err := a.lock.Acquire(); err != nil {
		return nil, err
	}
	defer a.lock.Release()

	job := a.createJob(ctx, p.UserID)

	result, err := a.copy(ctx, p, job)
	if err != nil {
		msg := fmt.Sprintf("Copy failed: %v", err)
		if result != nil && result.Message != "" {
			msg = result.Message
		}
		a.finishJob(ctx, job, domain.JobStatusFailed, msg)
		return result, err
	}

	a.finishJob(ctx, job, domain.JobStatusDone, result.Message)
	return result, nil
}

func (a *CopyProject) copy(ctx context.Context, p Params, job track.Entity) (*Result, error) {
	source, err := a.session.Get(ctx, "Project", p.SourceProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source project: %w", err)
	}
	if source == nil {
		return nil, fmt.Errorf("source project %s not found", p.SourceProjectID)
	}

	shortName, err := paths.ShortName(p.TargetName)
	if err != nil {
		return nil, err
	}
	if err := a.checkNameFree(ctx, p.TargetName, shortName); err != nil {
		return nil, err
	}

	created, err := a.createProject(ctx, source, p, shortName)
	if err != nil {
		return nil, err
	}
	a.copyProjectAttributes(ctx, source, created)

	var jobID *string
	if job != nil {
		id := job.ID()
		jobID = &id
	}
	run, err := a.store.Runs.Begin(ledger.RunBeginParams{
		SourceProjectID: p.SourceProjectID,
		TargetProjectID: created.ID(),
		TargetName:      p.TargetName,
		JobID:           jobID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin ledger run: %w", err)
	}
	a.logger.Info("clone run started",
		"run", run.ID, "source", p.SourceProjectID, "target", created.ID())

	sourceRoot, err := a.tree.ProjectNode(ctx, p.SourceProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load source tree root: %w", err)
	}
	targetRoot := &clone.Node{
		ID:     created.ID(),
		Kind:   domain.KindProject,
		Name:   p.TargetName,
		Custom: created.Map("custom_attributes"),
	}

	results, cloneErr := clone.Clone(ctx, a.tree, a.tree, sourceRoot, targetRoot, a.logger)
	records := recordsFromResults(run.UUID, results)

	status := domain.RunStatusCompleted
	var errStr *string
	if cloneErr != nil {
		status = domain.RunStatusFailed
		s := cloneErr.Error()
		errStr = &s
	}
	if err := a.store.Runs.Finish(run.UUID, status, errStr, records); err != nil {
		a.logger.Error("failed to finish ledger run", "run", run.ID, "error", err)
	}
	run.Status = status
	run.Error = errStr

	a.notify.RunFinished(run, records)

	createdCount, skippedCount := countOutcomes(records)
	result := &Result{Run: run, Records: records}
	if cloneErr != nil {
		result.Message = fmt.Sprintf("Copy into %q aborted after %d entries: %v (run %s)",
			p.TargetName, createdCount, cloneErr, run.ID)
		return result, cloneErr
	}
	result.Message = fmt.Sprintf("Created %d entries in %q, skipped %d (run %s)",
		createdCount, p.TargetName, skippedCount, run.ID)
	a.logger.Info("clone run finished",
		"run", run.ID, "created", createdCount, "skipped", skippedCount)
	return result, nil
}

// checkNameFree rejects the copy when a project already uses the
// requested display or short name.
func (a *CopyProject) checkNameFree(ctx context.Context, targetName, shortName string) error {
	byFull, err := a.session.QueryOne(ctx, fmt.Sprintf("Project where full_name is %q", targetName))
	if err != nil {
		return fmt.Errorf("failed to check project name: %w", err)
	}
	if byFull != nil {
		return fmt.Errorf("a project named %q already exists", targetName)
	}
	byShort, err := a.session.QueryOne(ctx, fmt.Sprintf("Project where name is %q", shortName))
	if err != nil {
		return fmt.Errorf("failed to check project short name: %w", err)
	}
	if byShort != nil {
		return fmt.Errorf("a project with short name %q already exists", shortName)
	}
	return nil
}

// createProject creates the target project, carrying the source's
// schema and offsetting the source's duration from the new start date.
func (a *CopyProject) createProject(ctx context.Context, source track.Entity, p Params, shortName string) (track.Entity, error) {
	startDate := p.StartDate
	if startDate == "" {
		startDate = time.Now().Format("2006-01-02")
	}

	attrs := map[string]interface{}{
		"name":       shortName,
		"full_name":  p.TargetName,
		"start_date": startDate,
	}
	if schemaID := source.String("project_schema_id"); schemaID != "" {
		attrs["project_schema_id"] = schemaID
	}
	if endDate := shiftedEndDate(source, startDate); endDate != "" {
		attrs["end_date"] = endDate
	}

	created := a.session.Create("Project", attrs)
	if err := a.session.Commit(ctx); err != nil {
		a.session.Rollback()
		return nil, fmt.Errorf("failed to create target project: %w", err)
	}
	return created, nil
}

// shiftedEndDate keeps the source project's duration: new end = new
// start + (source end - source start). Unparseable dates give "".
func shiftedEndDate(source track.Entity, startDate string) string {
	srcStart, err1 := domain.ValidateDate(source.String("start_date"))
	srcEnd, err2 := domain.ValidateDate(source.String("end_date"))
	newStart, err3 := domain.ValidateDate(startDate)
	if err1 != nil || err2 != nil || err3 != nil {
		return ""
	}
	duration := srcEnd.Sub(srcStart)
	if duration < 0 {
		return ""
	}
	return newStart.Add(duration).Format("2006-01-02")
}

// copyProjectAttributes carries the source project's custom attributes
// onto the new project, restricted to keys its schema defines. A
// failure here does not abort the copy.
func (a *CopyProject) copyProjectAttributes(ctx context.Context, source, created track.Entity) {
	srcCustom := source.Map("custom_attributes")
	dstCustom := created.Map("custom_attributes")
	if len(srcCustom) == 0 || dstCustom == nil {
		return
	}
	values := make(map[string]interface{})
	for key, val := range srcCustom {
		if _, ok := dstCustom[key]; ok {
			values[key] = val
		}
	}
	if len(values) == 0 {
		return
	}
	a.session.Update(created, "custom_attributes", values)
	if err := a.session.Commit(ctx); err != nil {
		a.session.Rollback()
		a.logger.Warn("failed to copy project custom attributes", "error", err)
	}
}

// createJob makes a server-side job so the user sees progress in the
// UI. Job creation is best effort.
func (a *CopyProject) createJob(ctx context.Context, userID string) track.Entity {
	attrs := map[string]interface{}{
		"status": string(domain.JobStatusRunning),
		"data":   jobData("Copying project structure"),
	}
	if userID != "" {
		attrs["user_id"] = userID
	}
	job := a.session.Create("Job", attrs)
	if err := a.session.Commit(ctx); err != nil {
		a.session.Rollback()
		a.logger.Warn("failed to create server job", "error", err)
		return nil
	}
	return job
}

func (a *CopyProject) finishJob(ctx context.Context, job track.Entity, status domain.JobStatus, description string) {
	if job == nil {
		return
	}
	a.session.Update(job, "status", string(status))
	a.session.Update(job, "data", jobData(description))
	if err := a.session.Commit(ctx); err != nil {
		a.session.Rollback()
		a.logger.Warn("failed to update server job", "error", err)
	}
}

func jobData(description string) string {
	data, _ := json.Marshal(map[string]string{"description": description})
	return string(data)
}

func recordsFromResults(runUUID string, results []clone.Result) []domain.CloneRecord {
	records := make([]domain.CloneRecord, len(results))
	for i, res := range results {
		rec := domain.CloneRecord{
			RunUUID: runUUID,
			Seq:     i + 1,
			Path:    res.Path,
			Kind:    string(res.Kind),
			Outcome: string(res.Outcome),
		}
		if res.FallbackKind != "" {
			fb := string(res.FallbackKind)
			rec.FallbackKind = &fb
		}
		if res.Reason != "" {
			reason := res.Reason
			rec.Reason = &reason
		}
		records[i] = rec
	}
	return records
}

func countOutcomes(records []domain.CloneRecord) (created, skipped int) {
	for _, rec := range records {
		switch rec.Outcome {
		case string(clone.OutcomeCreated), string(clone.OutcomeCreatedAsFallback):
			created++
		default:
			skipped++
		}
	}
	return created, skipped
}
