package plan

import "time"

// HolidaySet returns the organization-wide holidays as a set. Holidays apply
// to everyone regardless of calendar events.
func HolidaySet(cfg *SprintConfig) DateSet {
	s := make(DateSet, len(cfg.Holidays))
	for _, d := range cfg.Holidays {
		s.Add(d)
	}
	return s
}

// L2Set returns the days on which person is on rotational support duty and
// has zero development capacity.
func L2Set(person string, cfg *SprintConfig) DateSet {
	s := make(DateSet)
	for _, e := range cfg.CalendarEvents {
		if e.Person == person && e.Type == EventL2 {
			s.Add(e.Date)
		}
	}
	return s
}

// LeaveSet returns the days on which person is on planned or unplanned leave.
func LeaveSet(person string, cfg *SprintConfig) DateSet {
	s := make(DateSet)
	for _, e := range cfg.CalendarEvents {
		if e.Person == person && (e.Type == EventPlanned || e.Type == EventUnplanned) {
			s.Add(e.Date)
		}
	}
	return s
}

// BlockedSet returns every day on which person cannot work: holidays, L2
// duty and leave. Weekends are handled by the walker, not here.
func BlockedSet(person string, cfg *SprintConfig) DateSet {
	return Union(HolidaySet(cfg), L2Set(person, cfg), LeaveSet(person, cfg))
}

// L2RotaEvents expands a weekly rotational-duty assignment into explicit l2
// calendar events for every matching weekday in [from, to].
func L2RotaEvents(person string, weekday time.Weekday, from, to Date) []CalendarEvent {
	var events []CalendarEvent
	for d := from; !d.After(to); d = d.AddDays(1) {
		if d.Weekday() == weekday {
			events = append(events, CalendarEvent{Person: person, Date: d, Type: EventL2})
		}
	}
	return events
}
