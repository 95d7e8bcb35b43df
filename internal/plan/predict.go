package plan

import "sort"

// resolveDate returns the lane-level override when set, otherwise the
// task-level value. Keeping the precedence chain in one place makes it
// auditable instead of being re-derived inline per field.
func resolveDate(laneOverride, taskLevel Date) Date {
	if !laneOverride.IsZero() {
		return laneOverride
	}
	return taskLevel
}

// effectiveEffort is the lane's base estimate plus every logged delay that
// targets this task and lane (or all lanes), rounded to 0.5 precision.
func effectiveEffort(t *Task, lane Lane, delays []TaskDelay) float64 {
	eff := t.Effort[lane]
	for _, d := range delays {
		if d.appliesTo(t.ID, lane) {
			eff += d.EffortDelta
		}
	}
	return roundHalf(eff)
}

// anchorGroup classifies how a task's start is fixed: already running tasks
// pin to their real start, committed tasks to their planned slot, and
// floating tasks queue on owner availability.
func anchorGroup(t *Task) int {
	switch {
	case !t.ActualStart.IsZero():
		return 0
	case !t.PlannedStart.IsZero():
		return 1
	default:
		return 2
	}
}

func anchorDate(t *Task) Date {
	if !t.ActualStart.IsZero() {
		return t.ActualStart
	}
	return t.PlannedStart
}

// scheduleOrder determines the sequence in which each person's queue pointer
// is advanced: topological order first, then in-flight tasks, then
// date-pinned tasks, then floating tasks by priority. Earlier anchor dates
// win within the pinned groups. The sort is stable so ties keep the
// topological order.
func scheduleOrder(tasks []*Task) []*Task {
	ordered := TopologicalOrder(tasks)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		ag, bg := anchorGroup(a), anchorGroup(b)
		if ag != bg {
			return ag < bg
		}
		if ag < 2 {
			ad, bd := anchorDate(a), anchorDate(b)
			if !ad.Equal(bd) {
				return ad.Before(bd)
			}
		}
		return a.Priority.rank() < b.Priority.rank()
	})
	return ordered
}

// ComputePredictions projects a start and end date for every lane of every
// task. It is a pure function: inputs are never mutated, the returned map is
// freshly allocated, and identical inputs always produce identical output.
// It never fails on malformed input; dependency cycles degrade to a partial
// order (see TopologicalOrder) and unschedulable lanes yield zero spans.
// Descoped tasks get no entries at all.
func ComputePredictions(tasks []*Task, cfg *SprintConfig) PredictionMap {
	preds := make(PredictionMap, len(tasks))

	// Last scheduled end per person, advanced monotonically across the
	// whole pass. Local to this invocation.
	personPtr := make(map[string]Date)

	for _, t := range scheduleOrder(tasks) {
		if t.Status == StatusDescoped {
			continue
		}
		lanes := make(LanePredictions, len(Lanes))
		preds[t.ID] = lanes

		for _, lane := range Lanes {
			person := t.Owners[lane]
			eff := effectiveEffort(t, lane, cfg.TaskDelays)
			if person == "" || eff == 0 {
				lanes[lane] = Span{}
				continue
			}

			blocked := BlockedSet(person, cfg)
			ls := t.LaneStarts[lane]
			laneActualStart := resolveDate(ls.ActualStart, t.ActualStart)
			lanePlannedStart := resolveDate(ls.PlannedStart, t.PlannedStart)

			var earliest Date
			switch {
			case !laneActualStart.IsZero():
				earliest = laneActualStart
			case !lanePlannedStart.IsZero():
				earliest = lanePlannedStart
			default:
				earliest = cfg.SprintStart
				// The pointer holds the owner's last occupied day, so a
				// floating lane can start the day after it at the
				// earliest. Same-owner intervals never overlap.
				if ptr, ok := personPtr[person]; ok {
					if next := ptr.AddDays(1); next.After(earliest) {
						earliest = next
					}
				}
			}

			// Dependencies are respected regardless of the anchor: a
			// pinned task still waits for the latest lane of everything
			// it depends on.
			for _, depID := range t.DependsOn {
				for _, span := range preds[depID] {
					if !span.End.IsZero() && span.End.After(earliest) {
						earliest = span.End
					}
				}
			}

			start := NextWorkingDayOnOrAfter(earliest, blocked)

			// A finished lane reflects ground truth instead of a
			// re-derived estimate.
			laneActualEnd := resolveDate(ls.ActualEnd, t.ActualEnd)
			var end Date
			if !laneActualEnd.IsZero() && (t.Status == StatusReleased || t.Status == StatusInQA) {
				end = laneActualEnd
			} else {
				end = AdvanceWorkdays(start, workdaySteps(eff), blocked)
			}

			lanes[lane] = Span{Start: start, End: end}

			// Every scheduled lane consumes the owner's timeline; the
			// anchor only decided where it started.
			if ptr, ok := personPtr[person]; !ok || end.After(ptr) {
				personPtr[person] = end
			}
		}
	}

	return preds
}

// TaskPredictedEnd returns the latest predicted end across all lanes of the
// task. ok is false when no lane has a prediction, e.g. the task has no
// owners or effort anywhere.
func TaskPredictedEnd(taskID int, preds PredictionMap) (Date, bool) {
	var max Date
	for _, span := range preds[taskID] {
		max = MaxDate(max, span.End)
	}
	return max, !max.IsZero()
}
