package plan

import (
	"testing"
	"time"
)

func testConfig() *SprintConfig {
	return &SprintConfig{
		SprintStart: MustParseDate("2026-02-23"),
		SprintEnd:   MustParseDate("2026-03-31"),
		Holidays:    []Date{MustParseDate("2026-03-06")},
		CalendarEvents: []CalendarEvent{
			{Person: "Hari", Date: MustParseDate("2026-02-26"), Type: EventL2},
			{Person: "Hari", Date: MustParseDate("2026-03-05"), Type: EventL2},
			{Person: "Hari", Date: MustParseDate("2026-03-09"), Type: EventPlanned, Reason: "leave"},
			{Person: "Sam", Date: MustParseDate("2026-02-24"), Type: EventUnplanned},
		},
	}
}

func TestBlockedSet(t *testing.T) {
	cfg := testConfig()

	hari := BlockedSet("Hari", cfg)
	for _, d := range []string{"2026-03-06", "2026-02-26", "2026-03-05", "2026-03-09"} {
		if !hari.Contains(MustParseDate(d)) {
			t.Errorf("Hari blocked set missing %s", d)
		}
	}
	if hari.Contains(MustParseDate("2026-02-24")) {
		t.Errorf("Hari blocked set contains Sam's leave day")
	}

	// Holidays apply to a person with no calendar events at all.
	ruby := BlockedSet("Ruby", cfg)
	if !ruby.Contains(MustParseDate("2026-03-06")) {
		t.Errorf("org holiday missing from Ruby's blocked set")
	}
	if len(ruby) != 1 {
		t.Errorf("Ruby blocked set has %d entries, want 1", len(ruby))
	}
}

func TestBlockedSetEmptyConfig(t *testing.T) {
	if got := BlockedSet("Anyone", &SprintConfig{}); len(got) != 0 {
		t.Errorf("empty config produced %d blocked days", len(got))
	}
}

func TestL2RotaEvents(t *testing.T) {
	events := L2RotaEvents("Sam", time.Monday, MustParseDate("2026-02-23"), MustParseDate("2026-03-10"))

	want := []string{"2026-02-23", "2026-03-02", "2026-03-09"}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, e := range events {
		if e.Date.String() != want[i] {
			t.Errorf("event %d date = %s, want %s", i, e.Date, want[i])
		}
		if e.Person != "Sam" || e.Type != EventL2 {
			t.Errorf("event %d = %+v, want Sam l2", i, e)
		}
	}
}
