package plan

import "math"

// Velocity summarizes one person's historical schedule accuracy.
type Velocity struct {
	// AvgSlip is the rounded mean of actual-vs-baseline day deltas across
	// the person's finished tasks. Positive means late.
	AvgSlip int `json:"avgSlip"`
	// Count is the number of tasks contributing to the average.
	Count int `json:"count"`
}

// ComputeVelocity aggregates per-person slip from every task with both a
// frozen baseline (PlannedEnd) and a recorded ActualEnd. The full task slip
// is attributed once to each distinct owning person, not split per lane.
// Persons with no contributing tasks are absent from the result.
func ComputeVelocity(tasks []*Task) map[string]Velocity {
	slips := make(map[string][]int)
	for _, t := range tasks {
		if t.PlannedEnd.IsZero() || t.ActualEnd.IsZero() {
			continue
		}
		slip := t.ActualEnd.DaysSince(t.PlannedEnd)
		for person := range t.OwnerSet() {
			slips[person] = append(slips[person], slip)
		}
	}

	result := make(map[string]Velocity, len(slips))
	for person, days := range slips {
		sum := 0
		for _, d := range days {
			sum += d
		}
		// Half-day averages round toward positive infinity, so an early
		// finish of -0.5 reports as 0, not -1.
		avg := float64(sum) / float64(len(days))
		result[person] = Velocity{
			AvgSlip: int(math.Floor(avg + 0.5)),
			Count:   len(days),
		}
	}
	return result
}
