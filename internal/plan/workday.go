package plan

import (
	"math"
	"time"
)

// IsWorkingDay reports whether d is neither a weekend nor in blocked.
func IsWorkingDay(d Date, blocked DateSet) bool {
	if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !blocked.Contains(d)
}

// AdvanceWorkdays walks forward from the day after from, counting working
// days until n are consumed, and returns the day the count was reached.
// n <= 0 returns from unchanged: the walker is always invoked with the
// effort's additional days beyond the start day.
func AdvanceWorkdays(from Date, n int, blocked DateSet) Date {
	cur := from
	for count := 0; count < n; {
		cur = cur.AddDays(1)
		if IsWorkingDay(cur, blocked) {
			count++
		}
	}
	return cur
}

// NextWorkingDayOnOrAfter returns d if it is a working day, otherwise the
// first working day after it.
func NextWorkingDayOnOrAfter(d Date, blocked DateSet) Date {
	for !IsWorkingDay(d, blocked) {
		d = d.AddDays(1)
	}
	return d
}

// workdaySteps converts a fractional effort into the whole additional
// working days the walker consumes beyond the start day. Any effort up to
// one day still occupies the start day; a negative effective effort (a
// delay correction overshooting the estimate) clamps to zero rather than
// walking backward.
func workdaySteps(effort float64) int {
	steps := int(math.Ceil(effort)) - 1
	if steps < 0 {
		return 0
	}
	return steps
}

// roundHalf rounds to the nearest 0.5 day, the precision efforts are
// estimated and displayed at.
func roundHalf(v float64) float64 {
	return math.Round(v*2) / 2
}
