package plan

import (
	"reflect"
	"testing"
	"time"
)

// sprint starting Monday 2026-02-23 with no holidays or leave.
func openConfig() *SprintConfig {
	return &SprintConfig{
		SprintStart: MustParseDate("2026-02-23"),
		SprintEnd:   MustParseDate("2026-03-31"),
	}
}

func backendTask(id int, owner string, effort float64, deps ...int) *Task {
	return &Task{
		ID:        id,
		Name:      "task",
		Priority:  PriorityP1,
		Status:    StatusToDo,
		DependsOn: deps,
		Owners:    map[Lane]string{LaneBackend: owner},
		Effort:    map[Lane]float64{LaneBackend: effort},
	}
}

func span(t *testing.T, preds PredictionMap, id int, lane Lane) Span {
	t.Helper()
	lanes, ok := preds[id]
	if !ok {
		t.Fatalf("no prediction entry for task %d", id)
	}
	return lanes[lane]
}

func TestComputePredictionsSequentialOwner(t *testing.T) {
	tasks := []*Task{
		backendTask(1, "Sam", 2),
		backendTask(2, "Sam", 3, 1),
	}

	preds := ComputePredictions(tasks, openConfig())

	a := span(t, preds, 1, LaneBackend)
	if a.Start.String() != "2026-02-23" || a.End.String() != "2026-02-24" {
		t.Errorf("task 1 = %s..%s, want 2026-02-23..2026-02-24", a.Start, a.End)
	}

	b := span(t, preds, 2, LaneBackend)
	if b.Start.Before(MustParseDate("2026-02-25")) {
		t.Errorf("task 2 starts %s, want on or after 2026-02-25", b.Start)
	}
	if want := AdvanceWorkdays(b.Start, 2, nil); !b.End.Equal(want) {
		t.Errorf("task 2 ends %s, want %s", b.End, want)
	}
}

func TestComputePredictionsUnscheduledLanes(t *testing.T) {
	tasks := []*Task{
		{
			ID: 1, Priority: PriorityP2, Status: StatusToDo,
			Owners: map[Lane]string{LaneQA: "Abhishek", LaneIOS: ""},
			Effort: map[Lane]float64{LaneQA: 0, LaneIOS: 3},
		},
	}

	preds := ComputePredictions(tasks, openConfig())

	// Owner present but zero effort.
	if s := span(t, preds, 1, LaneQA); !s.Start.IsZero() || !s.End.IsZero() {
		t.Errorf("zero-effort lane scheduled: %+v", s)
	}
	// Effort present but no owner.
	if s := span(t, preds, 1, LaneIOS); !s.Start.IsZero() || !s.End.IsZero() {
		t.Errorf("ownerless lane scheduled: %+v", s)
	}
}

func TestComputePredictionsSkipsBlockedDays(t *testing.T) {
	cfg := openConfig()
	cfg.CalendarEvents = []CalendarEvent{
		{Person: "Hari", Date: MustParseDate("2026-02-24"), Type: EventL2},
	}
	tasks := []*Task{backendTask(1, "Hari", 3)}

	preds := ComputePredictions(tasks, cfg)
	s := span(t, preds, 1, LaneBackend)
	if s.Start.String() != "2026-02-23" || s.End.String() != "2026-02-26" {
		t.Errorf("got %s..%s, want 2026-02-23..2026-02-26", s.Start, s.End)
	}
}

func TestComputePredictionsNeverLandsOnNonWorkingDays(t *testing.T) {
	cfg := openConfig()
	cfg.Holidays = []Date{MustParseDate("2026-02-26")}
	cfg.CalendarEvents = []CalendarEvent{
		{Person: "Sam", Date: MustParseDate("2026-03-03"), Type: EventPlanned},
	}
	tasks := []*Task{
		backendTask(1, "Sam", 4),
		backendTask(2, "Sam", 5, 1),
	}

	preds := ComputePredictions(tasks, cfg)
	for id, lanes := range preds {
		for lane, s := range lanes {
			for _, d := range []Date{s.Start, s.End} {
				if d.IsZero() {
					continue
				}
				if !IsWorkingDay(d, BlockedSet("Sam", cfg)) {
					t.Errorf("task %d lane %s lands on non-working day %s", id, lane, d)
				}
			}
		}
	}
}

func TestComputePredictionsDependencyAcrossOwners(t *testing.T) {
	tasks := []*Task{
		backendTask(1, "Ruby", 4),
		backendTask(2, "Sam", 2, 1),
	}

	preds := ComputePredictions(tasks, openConfig())
	depEnd := span(t, preds, 1, LaneBackend).End
	if got := span(t, preds, 2, LaneBackend).Start; got.Before(depEnd) {
		t.Errorf("dependent starts %s before dependency ends %s", got, depEnd)
	}
}

func TestComputePredictionsActualStartAnchor(t *testing.T) {
	// An in-flight task pins to its real start even if the owner's queue
	// pointer is already past it.
	running := backendTask(2, "Sam", 3)
	running.Status = StatusInDev
	running.ActualStart = MustParseDate("2026-02-23")
	tasks := []*Task{
		backendTask(1, "Sam", 4),
		running,
	}

	preds := ComputePredictions(tasks, openConfig())
	if got := span(t, preds, 2, LaneBackend).Start; got.String() != "2026-02-23" {
		t.Errorf("in-flight task starts %s, want its actual start 2026-02-23", got)
	}
}

func TestComputePredictionsPlannedStartAnchor(t *testing.T) {
	pinned := backendTask(1, "Sam", 2)
	pinned.PlannedStart = MustParseDate("2026-03-09")

	preds := ComputePredictions([]*Task{pinned}, openConfig())
	if got := span(t, preds, 1, LaneBackend).Start; got.String() != "2026-03-09" {
		t.Errorf("pinned task starts %s, want 2026-03-09", got)
	}
}

func TestComputePredictionsLaneStartOverride(t *testing.T) {
	task := backendTask(1, "Sam", 2)
	task.PlannedStart = MustParseDate("2026-02-23")
	task.LaneStarts = map[Lane]LaneDates{
		LaneBackend: {PlannedStart: MustParseDate("2026-03-02")},
	}

	preds := ComputePredictions([]*Task{task}, openConfig())
	if got := span(t, preds, 1, LaneBackend).Start; got.String() != "2026-03-02" {
		t.Errorf("lane override ignored: start = %s, want 2026-03-02", got)
	}
}

func TestComputePredictionsActualEndShortCircuit(t *testing.T) {
	done := backendTask(1, "Sam", 5)
	done.Status = StatusReleased
	done.ActualStart = MustParseDate("2026-02-23")
	done.ActualEnd = MustParseDate("2026-02-24")

	preds := ComputePredictions([]*Task{done}, openConfig())
	s := span(t, preds, 1, LaneBackend)
	if s.End.String() != "2026-02-24" {
		t.Errorf("released task end = %s, want recorded actual end 2026-02-24", s.End)
	}
	if s.Start.String() != "2026-02-23" {
		t.Errorf("released task start = %s, want 2026-02-23", s.Start)
	}
}

func TestComputePredictionsActualEndRequiresTerminalStatus(t *testing.T) {
	// An actual end on a task still in development is stale data; the
	// estimate wins.
	task := backendTask(1, "Sam", 5)
	task.Status = StatusInDev
	task.ActualEnd = MustParseDate("2026-02-23")

	preds := ComputePredictions([]*Task{task}, openConfig())
	if got := span(t, preds, 1, LaneBackend).End; got.String() == "2026-02-23" {
		t.Errorf("actual end honored for non-terminal status")
	}
}

func TestComputePredictionsAppliesDelays(t *testing.T) {
	cfg := openConfig()
	cfg.TaskDelays = []TaskDelay{
		{TaskID: 1, Lane: DelayAllLanes, EffortDelta: 2},
		{TaskID: 1, Lane: LaneQA, EffortDelta: 5}, // other lane, ignored
		{TaskID: 9, Lane: DelayAllLanes, EffortDelta: 5}, // other task, ignored
	}
	tasks := []*Task{backendTask(1, "Sam", 1)}

	preds := ComputePredictions(tasks, cfg)
	s := span(t, preds, 1, LaneBackend)
	// 1 + 2 = 3 effective days from Monday.
	if s.End.String() != "2026-02-25" {
		t.Errorf("delayed end = %s, want 2026-02-25", s.End)
	}
}

func TestComputePredictionsEffortMonotonicity(t *testing.T) {
	small := ComputePredictions([]*Task{backendTask(1, "Sam", 2)}, openConfig())
	large := ComputePredictions([]*Task{backendTask(1, "Sam", 4)}, openConfig())

	if span(t, large, 1, LaneBackend).End.Before(span(t, small, 1, LaneBackend).End) {
		t.Errorf("more effort predicted an earlier end")
	}
}

func TestComputePredictionsExcludesDescoped(t *testing.T) {
	dropped := backendTask(1, "Sam", 3)
	dropped.Status = StatusDescoped
	tasks := []*Task{dropped, backendTask(2, "Sam", 2, 1)}

	preds := ComputePredictions(tasks, openConfig())
	if _, ok := preds[1]; ok {
		t.Errorf("descoped task has a prediction entry")
	}
	// The dependent still schedules; the missing dependency imposes no
	// constraint.
	if s := span(t, preds, 2, LaneBackend); s.Start.IsZero() {
		t.Errorf("dependent of descoped task not scheduled")
	}
}

func TestComputePredictionsFloatingPriorityOrder(t *testing.T) {
	low := backendTask(1, "Sam", 2)
	low.Priority = PriorityP3
	high := backendTask(2, "Sam", 2)
	high.Priority = PriorityP1

	preds := ComputePredictions([]*Task{low, high}, openConfig())
	if got := span(t, preds, 2, LaneBackend).Start; got.String() != "2026-02-23" {
		t.Errorf("P1 task starts %s, want first slot 2026-02-23", got)
	}
	if got := span(t, preds, 1, LaneBackend).Start; !got.After(MustParseDate("2026-02-24")) {
		t.Errorf("P3 task starts %s, want after the P1 task", got)
	}
}

func TestComputePredictionsSequentialCapacity(t *testing.T) {
	tasks := []*Task{
		backendTask(1, "Sam", 2),
		backendTask(2, "Sam", 3),
		backendTask(3, "Sam", 1),
	}

	preds := ComputePredictions(tasks, openConfig())
	var spans []Span
	for id := range preds {
		s := span(t, preds, id, LaneBackend)
		if !s.Start.IsZero() {
			spans = append(spans, s)
		}
	}
	for i := range spans {
		for j := range spans {
			if i == j {
				continue
			}
			a, b := spans[i], spans[j]
			if !a.End.Before(b.Start) && !b.End.Before(a.Start) {
				t.Errorf("owner intervals overlap: %s..%s and %s..%s", a.Start, a.End, b.Start, b.End)
			}
		}
	}
}

func TestComputePredictionsCycleSafety(t *testing.T) {
	tasks := []*Task{
		backendTask(1, "Sam", 2, 2),
		backendTask(2, "Ruby", 2, 1),
	}

	done := make(chan PredictionMap, 1)
	go func() { done <- ComputePredictions(tasks, openConfig()) }()

	select {
	case preds := <-done:
		for _, id := range []int{1, 2} {
			if s := span(t, preds, id, LaneBackend); s.Start.IsZero() {
				t.Errorf("cyclic task %d not scheduled", id)
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not terminate on a cyclic graph")
	}

	if cycles := FindCycles(tasks); len(cycles) == 0 {
		t.Errorf("FindCycles missed the cycle")
	}
}

func TestComputePredictionsDeterministic(t *testing.T) {
	cfg := testConfig()
	cfg.TaskDelays = []TaskDelay{{TaskID: 2, Lane: DelayAllLanes, EffortDelta: 1.5}}
	tasks := []*Task{
		backendTask(1, "Hari", 2.5),
		backendTask(2, "Hari", 3, 1),
		backendTask(3, "Sam", 4),
	}

	first := ComputePredictions(tasks, cfg)
	for i := 0; i < 5; i++ {
		if again := ComputePredictions(tasks, cfg); !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs from first run", i)
		}
	}
}

func TestTaskPredictedEnd(t *testing.T) {
	task := &Task{
		ID: 1, Priority: PriorityP1, Status: StatusToDo,
		Owners: map[Lane]string{LaneBackend: "Ruby", LaneQA: "Abhishek"},
		Effort: map[Lane]float64{LaneBackend: 2, LaneQA: 4},
	}

	preds := ComputePredictions([]*Task{task}, openConfig())
	end, ok := TaskPredictedEnd(1, preds)
	if !ok {
		t.Fatal("no predicted end for scheduled task")
	}
	if qa := span(t, preds, 1, LaneQA).End; !end.Equal(qa) {
		t.Errorf("predicted end %s, want longest lane end %s", end, qa)
	}

	if _, ok := TaskPredictedEnd(99, preds); ok {
		t.Errorf("predicted end reported for unknown task")
	}

	empty := &Task{ID: 2, Status: StatusToDo}
	preds = ComputePredictions([]*Task{empty}, openConfig())
	if _, ok := TaskPredictedEnd(2, preds); ok {
		t.Errorf("predicted end reported for task with no scheduled lanes")
	}
}
