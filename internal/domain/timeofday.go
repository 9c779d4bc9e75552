package domain

import (
	"fmt"
	"time"
)

// DefaultSearchWindowMinutes is the tolerance applied when matching a
// ride's departure against a search time with no explicit window.
const DefaultSearchWindowMinutes = 60

// TimeOfDay is a wall-clock departure time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses an "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parsed, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	return TimeOfDay{Hour: parsed.Hour(), Minute: parsed.Minute()}, nil
}

func TimeOfDayFrom(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// WithinWindow reports whether a and b are at most windowMinutes apart,
// boundary inclusive.
func WithinWindow(a, b TimeOfDay, windowMinutes int) bool {
	diff := a.Minutes() - b.Minutes()
	if diff < 0 {
		diff = -diff
	}
	return diff <= windowMinutes
}

// Day is a calendar date in "YYYY-MM-DD" form. Every ride and booking
// is scoped to exactly one Day; callers pass it explicitly so the
// engine never reads the system clock itself.
type Day string

const dayLayout = "2006-01-02"

func DayOf(t time.Time) Day {
	return Day(t.Format(dayLayout))
}

func ParseDay(s string) (Day, error) {
	if _, err := time.Parse(dayLayout, s); err != nil {
		return "", fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Day(s), nil
}

func (d Day) String() string {
	return string(d)
}
