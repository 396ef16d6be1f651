package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/hsp-booker/internal/clock"
	"github.com/example/hsp-booker/internal/domain/course"
	"github.com/example/hsp-booker/internal/internaltypes"
)

type Prober interface {
	Probe(ctx context.Context, t course.Target) (course.State, error)
}

type StatusReport struct {
	Target course.Target
	State  course.State
	Err    error
}

// CheckStatus probes each target once. A page that fails to load is retried
// at most Retries times, Interval apart; other failures are reported as is.
type CheckStatus struct {
	Prober   Prober
	Clock    clock.Clock
	Retries  int
	Interval time.Duration
	Log      zerolog.Logger
}

// Execute returns one report per target and the joined per-target errors.
func (u CheckStatus) Execute(ctx context.Context, targets []course.Target) ([]StatusReport, error) {
	if u.Prober == nil {
		return nil, fmt.Errorf("prober is nil")
	}
	var (
		reports []StatusReport
		errs    []error
	)
	for _, t := range targets {
		st, err := u.probe(ctx, t)
		reports = append(reports, StatusReport{Target: t, State: st, Err: err})
		if err != nil {
			if ctx.Err() != nil {
				return reports, ctx.Err()
			}
			errs = append(errs, fmt.Errorf("course %s: %w", t.ID, err))
		}
	}
	return reports, errors.Join(errs...)
}

func (u CheckStatus) probe(ctx context.Context, t course.Target) (course.State, error) {
	for try := 0; ; try++ {
		st, err := u.Prober.Probe(ctx, t)
		if err == nil || !errors.Is(err, internaltypes.ErrLoadingFailed) || try >= u.Retries {
			return st, err
		}
		u.Log.Warn().Err(err).Str("course", t.ID).Int("retry", try+1).Msg("page did not load, retrying")
		if err := u.Clock.Sleep(ctx, u.Interval); err != nil {
			return course.State{}, err
		}
	}
}
