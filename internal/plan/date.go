package plan

import (
	"fmt"
	"time"
)

// ISODate is the wire and storage format for calendar days.
const ISODate = "2006-01-02"

// Date is a timezone-naive calendar day. The zero value means "unset".
// All arithmetic happens on whole days; no time-of-day component is ever
// meaningful.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(ISODate, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// MustParseDate is for fixtures and tests.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }

func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

// DaysSince returns the signed whole-day distance from o to d.
func (d Date) DaysSince(o Date) int {
	return int(d.t.Sub(o.t) / (24 * time.Hour))
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(ISODate)
}

// MaxDate returns the later of two dates; zero values lose to any set date.
func MaxDate(a, b Date) Date {
	if a.IsZero() {
		return b
	}
	if b.IsZero() || b.Before(a) {
		return a
	}
	return b
}

func (d Date) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d *Date) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date literal %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateSet is a membership set of calendar days.
type DateSet map[Date]struct{}

func NewDateSet(dates ...Date) DateSet {
	s := make(DateSet, len(dates))
	for _, d := range dates {
		s.Add(d)
	}
	return s
}

func (s DateSet) Add(d Date) {
	if !d.IsZero() {
		s[d] = struct{}{}
	}
}

func (s DateSet) Contains(d Date) bool {
	_, ok := s[d]
	return ok
}

// Union merges the given sets into a fresh set.
func Union(sets ...DateSet) DateSet {
	out := make(DateSet)
	for _, s := range sets {
		for d := range s {
			out[d] = struct{}{}
		}
	}
	return out
}
