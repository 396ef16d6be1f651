package hsp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/hsp-booker/internal/browser"
	"github.com/example/hsp-booker/internal/domain/course"
	"github.com/example/hsp-booker/internal/internaltypes"
)

// Prober reads the current booking state of a course from its listing page.
type Prober struct {
	Page    browser.Reader
	Timeout time.Duration
	Log     zerolog.Logger
}

func NewProber(page browser.Reader, timeout time.Duration, log zerolog.Logger) *Prober {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Prober{Page: page, Timeout: timeout, Log: log}
}

// Probe loads the listing page once and classifies the course's booking
// control. A missing or duplicated course row is a listing-level error and
// is distinct from the course being ineligible.
func (p *Prober) Probe(ctx context.Context, t course.Target) (course.State, error) {
	navCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	err := p.Page.Navigate(navCtx, t.URL)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return course.State{}, ctx.Err()
		}
		return course.State{}, fmt.Errorf("%w: course %s: %w", internaltypes.ErrLoadingFailed, t.ID, err)
	}

	rendered, err := p.Page.WaitUntil(ctx, browser.Present(selCourseName), p.Timeout)
	if err != nil {
		if ctx.Err() != nil {
			return course.State{}, ctx.Err()
		}
		return course.State{}, fmt.Errorf("%w: course %s: %w", internaltypes.ErrLoadingFailed, t.ID, err)
	}
	if !rendered {
		return course.State{}, fmt.Errorf("%w: course %s: page did not render within %s", internaltypes.ErrLoadingFailed, t.ID, p.Timeout)
	}

	rows, err := p.Page.Count(ctx, rowSelector(t.ID))
	if err != nil {
		return course.State{}, fmt.Errorf("%w: course %s: %w", internaltypes.ErrLoadingFailed, t.ID, err)
	}
	switch {
	case rows == 0:
		return course.State{}, fmt.Errorf("%w: %s", internaltypes.ErrCourseIDNotListed, t.ID)
	case rows > 1:
		return course.State{}, fmt.Errorf("%w: %s matches %d rows", internaltypes.ErrCourseIDAmbiguous, t.ID, rows)
	}

	st := course.State{
		ID:       t.ID,
		Name:     p.text(ctx, selCourseName),
		Weekday:  p.text(ctx, cellSelector(t.ID, cellWeekday)),
		Time:     p.text(ctx, cellSelector(t.ID, cellTime)),
		Location: p.text(ctx, cellSelector(t.ID, cellLocation)),
		Level:    p.text(ctx, cellSelector(t.ID, cellLevel)),
	}

	control, err := p.Page.Locate(ctx, controlSelector(t.ID))
	switch {
	case errors.Is(err, browser.ErrNotFound):
		st.Status = course.StatusUnknown
	case err != nil:
		return course.State{}, fmt.Errorf("%w: course %s: %w", internaltypes.ErrLoadingFailed, t.ID, err)
	default:
		classify(&st, control)
	}

	p.Log.Debug().Str("course", t.ID).Str("status", st.Status).Bool("bookable", st.Bookable).Msg("probed")
	return st, nil
}

// text returns the trimmed text of sel, or "" when it is absent.
func (p *Prober) text(ctx context.Context, sel browser.Selector) string {
	el, err := p.Page.Locate(ctx, sel)
	if err != nil {
		if !errors.Is(err, browser.ErrNotFound) {
			p.Log.Debug().Err(err).Str("selector", string(sel)).Msg("read text")
		}
		return ""
	}
	return el.Text
}

// classify applies the booking control rules in priority order: inert text,
// waitlist button, booking button, anything else.
func classify(st *course.State, control browser.Element) {
	switch {
	case control.Tag == "span":
		st.Bookable, st.Waitlist, st.Status = false, false, control.Text
	case control.HasClass(classWaitlist):
		st.Bookable, st.Waitlist, st.Status = false, true, course.StatusQueueSignup
	case control.HasClass(classBook):
		st.Bookable, st.Waitlist, st.Status = true, false, course.StatusBookingPossible
	default:
		st.Bookable, st.Waitlist, st.Status = false, false, course.StatusUnknown
	}
}
