package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/hsp-booker/internal/clock"
	"github.com/example/hsp-booker/internal/domain/course"
)

// NewWindow anchors start and cutoff to the calendar day of now in loc.
func NewWindow(now time.Time, loc *time.Location, start, cutoff course.TimeOfDay) (course.Window, error) {
	if loc == nil {
		loc = time.Local
	}
	w := course.Window{Start: start.On(now, loc), Cutoff: cutoff.On(now, loc)}
	if err := w.Validate(); err != nil {
		return course.Window{}, fmt.Errorf("booking window: %w", err)
	}
	return w, nil
}

// Gate holds an attempt back until the window opens.
type Gate struct {
	Clock clock.Clock
	Log   zerolog.Logger
	// Skip fires immediately without waiting.
	Skip bool
}

// WaitUntilStart returns once the clock reads at or after w.Start. It
// re-reads the clock at least every second and never sleeps past start.
func (g Gate) WaitUntilStart(ctx context.Context, w course.Window) error {
	if g.Skip {
		return nil
	}
	began := g.Clock.Now()
	if !began.Before(w.Start) {
		return nil
	}
	g.Log.Info().Time("start", w.Start).Dur("in", w.Start.Sub(began).Round(time.Second)).Msg("waiting for booking window")
	for {
		now := g.Clock.Now()
		remaining := w.Start.Sub(now)
		if remaining <= 0 {
			g.Log.Info().Dur("waited", now.Sub(began).Round(time.Millisecond)).Msg("booking window open")
			return nil
		}
		if err := g.Clock.Sleep(ctx, min(time.Second, remaining)); err != nil {
			return err
		}
	}
}
