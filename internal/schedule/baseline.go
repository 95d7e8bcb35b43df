package schedule

import (
	"context"
	"log/slog"

	"github.com/sprintlane/sprintlane/internal/plan"
	"github.com/sprintlane/sprintlane/internal/sprint"
	"github.com/sprintlane/sprintlane/internal/task"
	"github.com/sprintlane/sprintlane/pkg/cerr"
)

// Stamper writes predicted end dates into tasks that do not yet carry a
// planned end. A stamped date is frozen: later recomputes never touch it,
// so slip stays measurable against the first commitment.
type Stamper struct {
	taskRepo   task.Repository
	sprintRepo sprint.Repository
}

func NewStamper(taskRepo task.Repository, sprintRepo sprint.Repository) *Stamper {
	return &Stamper{
		taskRepo:   taskRepo,
		sprintRepo: sprintRepo,
	}
}

func (s *Stamper) Stamp(ctx context.Context) error {
	tasks, err := s.taskRepo.List(ctx)
	if err != nil {
		return cerr.NewError(cerr.Internal, "failed to list tasks for stamping", err)
	}
	cfg, err := s.sprintRepo.Get(ctx)
	if err != nil {
		return cerr.NewError(cerr.Internal, "failed to load sprint config for stamping", err)
	}

	preds := plan.ComputePredictions(tasks, cfg)
	stamped := 0
	for _, t := range tasks {
		if !t.PlannedEnd.IsZero() || !t.HasEffort() {
			continue
		}
		end, ok := plan.TaskPredictedEnd(t.ID, preds)
		if !ok {
			continue
		}
		t.PlannedEnd = end
		if err := s.taskRepo.Update(ctx, t); err != nil {
			return cerr.NewError(cerr.Internal, "failed to stamp planned end", err)
		}
		stamped++
	}
	if stamped > 0 {
		slog.DebugContext(ctx, "planned ends stamped", "count", stamped)
	}
	return nil
}
