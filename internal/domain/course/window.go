package course

import (
	"fmt"
	"time"
)

// Window is the interval in which booking attempts are made. Start is
// inclusive, Cutoff exclusive.
type Window struct {
	Start  time.Time
	Cutoff time.Time
}

func (w Window) Validate() error {
	if !w.Start.Before(w.Cutoff) {
		return fmt.Errorf("window start %s must be before cutoff %s",
			w.Start.Format(time.RFC3339), w.Cutoff.Format(time.RFC3339))
	}
	return nil
}

// Open reports whether now lies inside the window.
func (w Window) Open(now time.Time) bool {
	return !now.Before(w.Start) && now.Before(w.Cutoff)
}

func (w Window) String() string {
	return fmt.Sprintf("%s - %s", w.Start.Format(time.RFC3339), w.Cutoff.Format(time.RFC3339))
}

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour, Minute, Second int
}

// ParseTimeOfDay accepts HH:MM or HH:MM:SS.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("invalid time of day %q (want HH:MM[:SS])", s)
}

// On returns the instant of d on the calendar day of day, in loc.
func (d TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	day = day.In(loc)
	return time.Date(day.Year(), day.Month(), day.Day(), d.Hour, d.Minute, d.Second, 0, loc)
}

func (d TimeOfDay) Before(o TimeOfDay) bool {
	return d.seconds() < o.seconds()
}

func (d TimeOfDay) seconds() int { return d.Hour*3600 + d.Minute*60 + d.Second }

func (d TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", d.Hour, d.Minute, d.Second)
}
