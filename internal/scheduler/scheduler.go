package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/example/hsp-booker/internal/clock"
	"github.com/example/hsp-booker/internal/domain/course"
	"github.com/example/hsp-booker/internal/domain/user"
	"github.com/example/hsp-booker/internal/hsp"
	"github.com/example/hsp-booker/internal/internaltypes"
)

const attemptAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Attempter probes a course and books it. hsp.Session implements it.
type Attempter interface {
	Probe(ctx context.Context, t course.Target) (course.State, error)
	Book(ctx context.Context, req hsp.Request) (hsp.Result, error)
}

type Mode struct {
	// Immediate fires once without waiting for the window and never retries.
	Immediate bool
	// Test stops the booking form before the final confirmation.
	Test         bool
	SnapshotPath string
}

// Outcome describes a finished run for one target.
type Outcome struct {
	Attempt string
	Probes  int
	State   course.State
	Booking hsp.Result
}

// Loop drives booking attempts for one target: wait for the window, probe,
// and book once the course is eligible.
type Loop struct {
	Attempter     Attempter
	Clock         clock.Clock
	Log           zerolog.Logger
	RetryInterval time.Duration
	// LoadRetries bounds consecutive LoadingFailed attempts.
	LoadRetries int
}

func NewLoop(a Attempter, clk clock.Clock, retryInterval time.Duration, loadRetries int, log zerolog.Logger) *Loop {
	if retryInterval <= 0 {
		retryInterval = time.Second
	}
	return &Loop{Attempter: a, Clock: clk, Log: log, RetryInterval: retryInterval, LoadRetries: loadRetries}
}

// Run books t inside w. An ineligible course is re-probed every
// RetryInterval until w.Cutoff; a page that fails to load is retried at most
// LoadRetries times in a row. Every other failure ends the run.
func (l *Loop) Run(ctx context.Context, t course.Target, creds user.Credentials, w course.Window, mode Mode) (Outcome, error) {
	id, err := nanoid.Generate(attemptAlphabet, 8)
	if err != nil {
		return Outcome{}, fmt.Errorf("attempt id: %w", err)
	}
	out := Outcome{Attempt: id}
	log := l.Log.With().Str("attempt", id).Str("course", t.ID).Logger()

	if err := creds.Validate(); err != nil {
		return out, err
	}

	gate := Gate{Clock: l.Clock, Log: log, Skip: mode.Immediate}
	if err := gate.WaitUntilStart(ctx, w); err != nil {
		return out, err
	}

	loadFailures := 0
	for {
		out.Probes++
		err := l.attempt(ctx, log, t, creds, mode, &out)
		if err == nil {
			return out, nil
		}

		if !internaltypes.Retryable(err) || mode.Immediate {
			return out, err
		}
		if errors.Is(err, internaltypes.ErrLoadingFailed) {
			loadFailures++
			if loadFailures > l.LoadRetries {
				return out, err
			}
		} else {
			loadFailures = 0
		}

		now := l.Clock.Now()
		if !now.Before(w.Cutoff) {
			log.Warn().Int("probes", out.Probes).Msg("booking window closed")
			return out, fmt.Errorf("window closed at %s: %w", w.Cutoff.Format(time.TimeOnly), err)
		}
		log.Info().Err(err).Int("probe", out.Probes).Msg("retrying")
		if err := l.Clock.Sleep(ctx, l.RetryInterval); err != nil {
			return out, err
		}
	}
}

func (l *Loop) attempt(ctx context.Context, log zerolog.Logger, t course.Target, creds user.Credentials, mode Mode, out *Outcome) error {
	st, err := l.Attempter.Probe(ctx, t)
	if err != nil {
		return err
	}
	out.State = st
	log.Info().Str("info", st.Info()).Msg(st.StatusLine())
	if !st.Eligible() {
		return fmt.Errorf("%w: %s (%s)", internaltypes.ErrCourseNotBookable, t.ID, st.StatusLine())
	}

	res, err := l.Attempter.Book(ctx, hsp.Request{
		Target:       t,
		State:        st,
		Credentials:  creds,
		Test:         mode.Test,
		SnapshotPath: mode.SnapshotPath,
	})
	out.Booking = res
	if err != nil {
		return err
	}
	log.Info().Strs("steps", res.Steps).Str("snapshot", res.Snapshot).Msg("booked")
	return nil
}
