package hsp

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/hsp-booker/internal/browser"
	"github.com/example/hsp-booker/internal/clock"
	"github.com/example/hsp-booker/internal/internaltypes"
)

// Retrier re-clicks an idempotent submit control until the page shows the
// transition it expects.
type Retrier struct {
	Clock    clock.Clock
	Interval time.Duration
	Log      zerolog.Logger
}

func NewRetrier(clk clock.Clock, interval time.Duration, log zerolog.Logger) *Retrier {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Retrier{Clock: clk, Interval: interval, Log: log}
}

// RetrySubmit polls done; while it does not hold it clicks submit again.
// When done already holds on the first poll nothing is clicked. Click and
// read failures are tolerated until the deadline since the page may be
// mid-transition.
func (r *Retrier) RetrySubmit(ctx context.Context, page browser.Page, submit browser.Selector, done browser.Condition, timeout time.Duration) error {
	deadline := r.Clock.Now().Add(timeout)
	clicks := 0
	var readErr error
	for {
		ok, err := done.Eval(ctx, page)
		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			readErr = err
			r.Log.Debug().Err(err).Str("condition", done.String()).Msg("check failed")
		case ok:
			r.Log.Debug().Str("submit", string(submit)).Int("clicks", clicks).Msg("transition observed")
			return nil
		}

		remaining := deadline.Sub(r.Clock.Now())
		if remaining <= 0 {
			if readErr != nil {
				return fmt.Errorf("%w: %s not reached after %d clicks on %s (last check error: %w)",
					internaltypes.ErrSubmissionTimeout, done, clicks, submit, readErr)
			}
			return fmt.Errorf("%w: %s not reached after %d clicks on %s", internaltypes.ErrSubmissionTimeout, done, clicks, submit)
		}
		// the page state is unknown after a failed read, so only poll again
		if err == nil {
			if err := page.Click(ctx, submit); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.Log.Debug().Err(err).Str("submit", string(submit)).Msg("submit click failed")
			} else {
				clicks++
			}
		}
		if err := r.Clock.Sleep(ctx, min(r.Interval, remaining)); err != nil {
			return err
		}
	}
}
