package plan

// Lane is one discipline's slice of a task, independently owned, estimated
// and scheduled.
type Lane string

const (
	LaneIOS     Lane = "ios"
	LaneAndroid Lane = "android"
	LaneBackend Lane = "backend"
	LaneWeb     Lane = "web"
	LaneQA      Lane = "qa"
)

// Lanes is the fixed set of disciplines, in display order.
var Lanes = []Lane{LaneIOS, LaneAndroid, LaneBackend, LaneWeb, LaneQA}

type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
)

// rank orders priorities for scheduling; unknown values sort last.
func (p Priority) rank() int {
	switch p {
	case PriorityP1:
		return 0
	case PriorityP2:
		return 1
	case PriorityP3:
		return 2
	}
	return 3
}

type Status string

const (
	StatusPlanned  Status = "Planned"
	StatusToDo     Status = "To Do"
	StatusInDev    Status = "In Dev"
	StatusInQA     Status = "In QA"
	StatusReleased Status = "Released"
	StatusBlocked  Status = "Blocked"
	StatusDescoped Status = "Descoped"
)

// LaneDates are per-lane overrides of the task-level schedule anchors.
type LaneDates struct {
	PlannedStart Date `yaml:"planned_start,omitempty" json:"plannedStart"`
	ActualStart  Date `yaml:"actual_start,omitempty" json:"actualStart"`
	ActualEnd    Date `yaml:"actual_end,omitempty" json:"actualEnd"`
}

// Task is the unit of work. A task is split into per-discipline lanes; each
// lane with an owner and non-zero effort is scheduled independently.
type Task struct {
	ID         int                `yaml:"id" json:"id"`
	Name       string             `yaml:"name" json:"name"`
	Priority   Priority           `yaml:"priority" json:"priority"`
	Status     Status             `yaml:"status" json:"status"`
	DependsOn  []int              `yaml:"depends_on,omitempty" json:"dependsOn"`
	Owners     map[Lane]string    `yaml:"owners,omitempty" json:"owners"`
	Effort     map[Lane]float64   `yaml:"effort,omitempty" json:"effort"`
	LaneStarts map[Lane]LaneDates `yaml:"lane_starts,omitempty" json:"laneStarts"`

	PlannedStart Date `yaml:"planned_start,omitempty" json:"plannedStart"`
	ActualStart  Date `yaml:"actual_start,omitempty" json:"actualStart"`
	ActualEnd    Date `yaml:"actual_end,omitempty" json:"actualEnd"`

	// PlannedEnd is stamped once by the host application on the first
	// successful prediction and never overwritten. It is the baseline
	// against which slip is measured. The engine only reads it.
	PlannedEnd Date `yaml:"planned_end,omitempty" json:"plannedEnd"`

	Notes string `yaml:"notes,omitempty" json:"notes"`
}

// HasEffort reports whether any lane has a non-zero estimate.
func (t *Task) HasEffort() bool {
	for _, e := range t.Effort {
		if e > 0 {
			return true
		}
	}
	return false
}

// OwnerSet returns the distinct non-empty lane owners.
func (t *Task) OwnerSet() map[string]struct{} {
	owners := make(map[string]struct{})
	for _, p := range t.Owners {
		if p != "" {
			owners[p] = struct{}{}
		}
	}
	return owners
}

type EventType string

const (
	EventL2        EventType = "l2"      // rotational support duty, zero dev capacity
	EventPlanned   EventType = "planned" // planned personal leave
	EventUnplanned EventType = "unplanned"
)

// CalendarEvent marks one person unavailable on one calendar day.
type CalendarEvent struct {
	ID     string    `yaml:"id" json:"id"`
	Person string    `yaml:"person" json:"person"`
	Date   Date      `yaml:"date" json:"date"`
	Type   EventType `yaml:"type" json:"type"`
	Reason string    `yaml:"reason,omitempty" json:"reason"`
}

// DelayAllLanes marks a delay that applies to every lane of its task.
const DelayAllLanes Lane = "all"

// TaskDelay is an additive adjustment to a lane's effective effort, kept for
// retrospective reporting.
type TaskDelay struct {
	ID          string  `yaml:"id" json:"id"`
	TaskID      int     `yaml:"task_id" json:"taskId"`
	Lane        Lane    `yaml:"lane" json:"lane"` // a lane key or "all"
	EffortDelta float64 `yaml:"effort_delta" json:"effortDelta"`
	Reason      string  `yaml:"reason,omitempty" json:"reason"`
	LoggedAt    Date    `yaml:"logged_at" json:"loggedAt"`
}

// appliesTo reports whether the delay adjusts the given task lane.
func (d TaskDelay) appliesTo(taskID int, lane Lane) bool {
	if d.TaskID != taskID {
		return false
	}
	return d.Lane == "" || d.Lane == DelayAllLanes || d.Lane == lane
}

// SprintConfig is the working-calendar side of the engine's input.
type SprintConfig struct {
	SprintStart    Date            `yaml:"sprint_start" json:"sprintStart"`
	SprintEnd      Date            `yaml:"sprint_end" json:"sprintEnd"`
	Holidays       []Date          `yaml:"holidays,omitempty" json:"holidays"`
	CalendarEvents []CalendarEvent `yaml:"calendar_events,omitempty" json:"calendarEvents"`
	TaskDelays     []TaskDelay     `yaml:"task_delays,omitempty" json:"taskDelays"`
}

// Span is one lane's predicted interval. Zero dates mean the lane is not
// scheduled (no owner or no effort).
type Span struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// LanePredictions maps each lane of a task to its predicted interval.
type LanePredictions map[Lane]Span

// PredictionMap is the engine's sole output: task id -> lane -> interval.
// Every invocation of ComputePredictions allocates a fresh map; the caller
// owns it.
type PredictionMap map[int]LanePredictions
