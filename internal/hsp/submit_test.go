package hsp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/hsp-booker/internal/browser"
	"github.com/example/hsp-booker/internal/browser/browsertest"
	"github.com/example/hsp-booker/internal/clock/clocktest"
	"github.com/example/hsp-booker/internal/internaltypes"
)

const (
	testSubmit   browser.Selector = "//input[@type='submit']"
	testObserved browser.Selector = "//input[@name='field']"
)

func TestRetrySubmitAlreadyTransitioned(t *testing.T) {
	t.Parallel()
	clk := clocktest.New(t0)
	page := browsertest.New(clk)
	page.SetText(testSubmit, "input", "")

	r := NewRetrier(clk, 250*time.Millisecond, zerolog.Nop())
	if err := r.RetrySubmit(context.Background(), page, testSubmit, browser.Absent(testObserved), 5*time.Second); err != nil {
		t.Fatalf("RetrySubmit() error = %v", err)
	}
	if n := page.Clicks(testSubmit); n != 0 {
		t.Fatalf("clicks = %d, want 0", n)
	}
	if _, n := clk.Slept(); n != 0 {
		t.Fatalf("sleeps = %d, want 0", n)
	}
}

func TestRetrySubmitTimesOut(t *testing.T) {
	t.Parallel()
	clk := clocktest.New(t0)
	page := browsertest.New(clk)
	page.SetText(testSubmit, "input", "")
	page.SetText(testObserved, "input", "")

	r := NewRetrier(clk, 250*time.Millisecond, zerolog.Nop())
	err := r.RetrySubmit(context.Background(), page, testSubmit, browser.Absent(testObserved), 2*time.Second)
	if !errors.Is(err, internaltypes.ErrSubmissionTimeout) {
		t.Fatalf("RetrySubmit() error = %v, want %v", err, internaltypes.ErrSubmissionTimeout)
	}
	if n := page.Clicks(testSubmit); n < 1 {
		t.Fatalf("clicks = %d, want at least 1", n)
	}
	if got := clk.Now().Sub(t0); got != 2*time.Second {
		t.Fatalf("elapsed = %s, want %s", got, 2*time.Second)
	}
}

func TestRetrySubmitReclicksUntilTransition(t *testing.T) {
	t.Parallel()
	clk := clocktest.New(t0)
	page := browsertest.New(clk)
	page.SetText(testSubmit, "input", "")
	page.SetText(testObserved, "input", "")

	// the first two submits are dropped by the remote side
	clicks := 0
	page.OnClick(testSubmit, func(p *browsertest.Page) {
		clicks++
		if clicks == 3 {
			p.Remove(testObserved)
		}
	})

	r := NewRetrier(clk, 250*time.Millisecond, zerolog.Nop())
	if err := r.RetrySubmit(context.Background(), page, testSubmit, browser.Absent(testObserved), 5*time.Second); err != nil {
		t.Fatalf("RetrySubmit() error = %v", err)
	}
	if n := page.Clicks(testSubmit); n != 3 {
		t.Fatalf("clicks = %d, want 3", n)
	}
}

func TestRetrySubmitPresenceCondition(t *testing.T) {
	t.Parallel()
	clk := clocktest.New(t0)
	page := browsertest.New(clk)
	page.SetText(testSubmit, "input", "")
	page.OnClick(testSubmit, func(p *browsertest.Page) { p.SetText(testObserved, "div", "ok") })

	r := NewRetrier(clk, 250*time.Millisecond, zerolog.Nop())
	if err := r.RetrySubmit(context.Background(), page, testSubmit, browser.Present(testObserved), 5*time.Second); err != nil {
		t.Fatalf("RetrySubmit() error = %v", err)
	}
	if n := page.Clicks(testSubmit); n != 1 {
		t.Fatalf("clicks = %d, want 1", n)
	}
}

func TestRetrySubmitToleratesMissingControl(t *testing.T) {
	t.Parallel()
	clk := clocktest.New(t0)
	page := browsertest.New(clk)
	page.SetText(testObserved, "input", "")

	r := NewRetrier(clk, 250*time.Millisecond, zerolog.Nop())
	err := r.RetrySubmit(context.Background(), page, testSubmit, browser.Absent(testObserved), time.Second)
	if !errors.Is(err, internaltypes.ErrSubmissionTimeout) {
		t.Fatalf("RetrySubmit() error = %v, want %v", err, internaltypes.ErrSubmissionTimeout)
	}
}

func TestRetrySubmitCancelled(t *testing.T) {
	t.Parallel()
	clk := clocktest.New(t0)
	page := browsertest.New(clk)
	page.SetText(testSubmit, "input", "")
	page.SetText(testObserved, "input", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRetrier(clk, 250*time.Millisecond, zerolog.Nop())
	err := r.RetrySubmit(ctx, page, testSubmit, browser.Absent(testObserved), 5*time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RetrySubmit() error = %v, want %v", err, context.Canceled)
	}
}

// flakyPage fails the first failures Count calls, as a query does while the
// page navigates after a submit.
type flakyPage struct {
	*browsertest.Page
	failures int
	calls    int
}

var errQuery = errors.New("query: context deadline exceeded")

func (p *flakyPage) Count(ctx context.Context, sel browser.Selector) (int, error) {
	p.calls++
	if p.calls <= p.failures {
		return 0, errQuery
	}
	return p.Page.Count(ctx, sel)
}

func TestRetrySubmitToleratesFailedCheck(t *testing.T) {
	t.Parallel()
	clk := clocktest.New(t0)
	page := &flakyPage{Page: browsertest.New(clk), failures: 1}
	page.SetText(testSubmit, "input", "")
	page.SetText(testObserved, "input", "")
	page.OnClick(testSubmit, func(p *browsertest.Page) { p.Remove(testObserved) })

	r := NewRetrier(clk, 250*time.Millisecond, zerolog.Nop())
	if err := r.RetrySubmit(context.Background(), page, testSubmit, browser.Absent(testObserved), 5*time.Second); err != nil {
		t.Fatalf("RetrySubmit() error = %v", err)
	}
	if n := page.Clicks(testSubmit); n != 1 {
		t.Fatalf("clicks = %d, want 1", n)
	}
	if page.calls != 3 {
		t.Fatalf("checks = %d, want failed, not yet, transitioned", page.calls)
	}
}

func TestRetrySubmitFailingChecksUseWholeBudget(t *testing.T) {
	t.Parallel()
	clk := clocktest.New(t0)
	page := &flakyPage{Page: browsertest.New(clk), failures: 1 << 30}
	page.SetText(testSubmit, "input", "")

	r := NewRetrier(clk, 250*time.Millisecond, zerolog.Nop())
	err := r.RetrySubmit(context.Background(), page, testSubmit, browser.Absent(testObserved), 2*time.Second)
	if !errors.Is(err, internaltypes.ErrSubmissionTimeout) {
		t.Fatalf("RetrySubmit() error = %v, want %v", err, internaltypes.ErrSubmissionTimeout)
	}
	if !errors.Is(err, errQuery) {
		t.Fatalf("RetrySubmit() error = %v, want last check error wrapped", err)
	}
	if got := clk.Now().Sub(t0); got != 2*time.Second {
		t.Fatalf("elapsed = %s, want %s", got, 2*time.Second)
	}
}
