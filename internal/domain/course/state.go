package course

import (
	"fmt"
	"strings"
)

const (
	StatusQueueSignup     = "queue signup"
	StatusBookingPossible = "booking possible"
	StatusUnknown         = "unknown"
)

// State is a snapshot of a course scraped during one attempt. A new State is
// produced by every probe; it is never updated in place.
type State struct {
	ID       string
	Name     string
	Weekday  string
	Time     string
	Location string
	Level    string

	Bookable bool
	Waitlist bool
	Status   string
}

// Eligible reports whether a booking may be submitted right now.
func (s State) Eligible() bool { return s.Bookable && !s.Waitlist }

func (s State) Info() string {
	return strings.TrimSpace(fmt.Sprintf("#%s: %s %s, %s %s", s.ID, s.Name, s.Level, s.Weekday, s.Time))
}

func (s State) StatusLine() string { return "Status: " + s.Status }
