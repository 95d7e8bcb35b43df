package schedule

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sprintlane/sprintlane/internal/plan"
	sprintrepo "github.com/sprintlane/sprintlane/internal/sprint/repositoryimpl"
	taskrepo "github.com/sprintlane/sprintlane/internal/task/repositoryimpl"
	"github.com/sprintlane/sprintlane/pkg/storage"
)

func newStamper(t *testing.T) (*Stamper, *taskrepo.YAMLRepository, *sprintrepo.YAMLRepository) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	taskRepo := taskrepo.NewYAMLRepository(store)
	sprintRepo := sprintrepo.NewYAMLRepository(store)
	return NewStamper(taskRepo, sprintRepo), taskRepo, sprintRepo
}

func TestStampSetsPlannedEnd(t *testing.T) {
	stamper, taskRepo, sprintRepo := newStamper(t)
	ctx := context.Background()

	require.NoError(t, sprintRepo.Save(ctx, &plan.SprintConfig{
		SprintStart: plan.MustParseDate("2026-02-23"),
		SprintEnd:   plan.MustParseDate("2026-03-20"),
	}))
	require.NoError(t, taskRepo.Create(ctx, &plan.Task{
		ID:     1,
		Name:   "api pagination",
		Status: plan.StatusPlanned,
		Owners: map[plan.Lane]string{plan.LaneBackend: "dana"},
		Effort: map[plan.Lane]float64{plan.LaneBackend: 3},
	}))

	require.NoError(t, stamper.Stamp(ctx))

	got, err := taskRepo.Get(ctx, 1)
	require.NoError(t, err)
	// 3 effort days starting Monday 2026-02-23 end on Wednesday.
	require.True(t, got.PlannedEnd.Equal(plan.MustParseDate("2026-02-25")))
}

func TestStampNeverOverwrites(t *testing.T) {
	stamper, taskRepo, sprintRepo := newStamper(t)
	ctx := context.Background()

	require.NoError(t, sprintRepo.Save(ctx, &plan.SprintConfig{
		SprintStart: plan.MustParseDate("2026-02-23"),
	}))
	frozen := plan.MustParseDate("2026-02-20")
	require.NoError(t, taskRepo.Create(ctx, &plan.Task{
		ID:         1,
		Name:       "api pagination",
		Status:     plan.StatusPlanned,
		Owners:     map[plan.Lane]string{plan.LaneBackend: "dana"},
		Effort:     map[plan.Lane]float64{plan.LaneBackend: 5},
		PlannedEnd: frozen,
	}))

	require.NoError(t, stamper.Stamp(ctx))

	got, err := taskRepo.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, got.PlannedEnd.Equal(frozen))
}

func TestStampSkipsEffortlessTasks(t *testing.T) {
	stamper, taskRepo, sprintRepo := newStamper(t)
	ctx := context.Background()

	require.NoError(t, sprintRepo.Save(ctx, &plan.SprintConfig{
		SprintStart: plan.MustParseDate("2026-02-23"),
	}))
	require.NoError(t, taskRepo.Create(ctx, &plan.Task{
		ID:     1,
		Name:   "spike",
		Status: plan.StatusPlanned,
	}))

	require.NoError(t, stamper.Stamp(ctx))

	got, err := taskRepo.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, got.PlannedEnd.IsZero())
}

func TestStampIdempotent(t *testing.T) {
	stamper, taskRepo, sprintRepo := newStamper(t)
	ctx := context.Background()

	require.NoError(t, sprintRepo.Save(ctx, &plan.SprintConfig{
		SprintStart: plan.MustParseDate("2026-02-23"),
	}))
	require.NoError(t, taskRepo.Create(ctx, &plan.Task{
		ID:     1,
		Name:   "api pagination",
		Status: plan.StatusPlanned,
		Owners: map[plan.Lane]string{plan.LaneBackend: "dana"},
		Effort: map[plan.Lane]float64{plan.LaneBackend: 2},
	}))

	require.NoError(t, stamper.Stamp(ctx))
	first, err := taskRepo.Get(ctx, 1)
	require.NoError(t, err)

	// A calendar change after stamping must not move the frozen date.
	require.NoError(t, sprintRepo.Save(ctx, &plan.SprintConfig{
		SprintStart: plan.MustParseDate("2026-02-23"),
		Holidays:    []plan.Date{plan.MustParseDate("2026-02-23")},
	}))
	require.NoError(t, stamper.Stamp(ctx))

	second, err := taskRepo.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, first.PlannedEnd.Equal(second.PlannedEnd))
}
