package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/example/hsp-booker/internal/domain/course"
	"github.com/example/hsp-booker/internal/domain/user"
	"github.com/example/hsp-booker/internal/scheduler"
)

type Booker interface {
	Run(ctx context.Context, t course.Target, creds user.Credentials, w course.Window, mode scheduler.Mode) (scheduler.Outcome, error)
}

type BookingReport struct {
	Target  course.Target
	Outcome scheduler.Outcome
	Err     error
}

// BookAll books targets one after another. A failed target is reported and
// does not stop the ones after it.
type BookAll struct {
	Booker Booker
	Log    zerolog.Logger
}

func (u BookAll) Execute(ctx context.Context, targets []course.Target, creds user.Credentials, w course.Window, mode scheduler.Mode) ([]BookingReport, error) {
	if u.Booker == nil {
		return nil, fmt.Errorf("booker is nil")
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no targets")
	}
	var (
		reports []BookingReport
		errs    []error
	)
	for _, t := range targets {
		u.Log.Info().Str("course", t.String()).Msg("booking course")
		out, err := u.Booker.Run(ctx, t, creds, w, mode)
		reports = append(reports, BookingReport{Target: t, Outcome: out, Err: err})
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return reports, ctx.Err()
		}
		u.Log.Error().Err(err).Str("course", t.ID).Msg("failed to book course")
		errs = append(errs, fmt.Errorf("course %s: %w", t.ID, err))
	}
	return reports, errors.Join(errs...)
}
