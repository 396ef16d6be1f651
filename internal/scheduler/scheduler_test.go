package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/hsp-booker/internal/clock/clocktest"
	"github.com/example/hsp-booker/internal/domain/course"
	"github.com/example/hsp-booker/internal/domain/user"
	"github.com/example/hsp-booker/internal/hsp"
	"github.com/example/hsp-booker/internal/internaltypes"
)

var windowStart = time.Date(2026, 4, 14, 15, 59, 45, 0, time.UTC)

// stubAttempter answers probes from a script keyed by probe number.
type stubAttempter struct {
	clk     *clocktest.Clock
	script  func(n int) (course.State, error)
	bookErr error

	probes   int
	probedAt []time.Time
	booked   []hsp.Request
}

func (s *stubAttempter) Probe(_ context.Context, t course.Target) (course.State, error) {
	s.probes++
	s.probedAt = append(s.probedAt, s.clk.Now())
	st, err := s.script(s.probes)
	st.ID = t.ID
	return st, err
}

func (s *stubAttempter) Book(_ context.Context, req hsp.Request) (hsp.Result, error) {
	s.booked = append(s.booked, req)
	if s.bookErr != nil {
		return hsp.Result{}, s.bookErr
	}
	return hsp.Result{Steps: []string{"personal details", "terms", "submit"}, Snapshot: "booking_confirmation_1.png"}, nil
}

func bookable() course.State {
	return course.State{Bookable: true, Status: course.StatusBookingPossible}
}

func waitlisted() course.State {
	return course.State{Waitlist: true, Status: course.StatusQueueSignup}
}

func always(st course.State, err error) func(int) (course.State, error) {
	return func(int) (course.State, error) { return st, err }
}

func validCreds() user.Credentials {
	return user.New(user.Profile{
		Name: "Erika", Surname: "Mustermann", Gender: "W",
		Street: "Templergraben", Number: "55", ZipCode: "52062", City: "Aachen",
		Status: user.StatusExternal, Email: "erika@example.org", Phone: "0241 1",
	}, "")
}

func testTarget() course.Target {
	return course.Target{ID: "23404102", URL: "https://hochschulsport.example/_Fitness.html"}
}

func newTestLoop(clk *clocktest.Clock, a Attempter) *Loop {
	return NewLoop(a, clk, time.Second, 3, zerolog.Nop())
}

func TestLoopNeverRetriesPastCutoff(t *testing.T) {
	t.Parallel()
	clk := clocktest.New(windowStart)
	a := &stubAttempter{clk: clk, script: always(waitlisted(), nil)}
	w := course.Window{Start: windowStart, Cutoff: windowStart.Add(3 * time.Minute)}

	out, err := newTestLoop(clk, a).Run(context.Background(), testTarget(), validCreds(), w, Mode{})
	if !errors.Is(err, internaltypes.ErrCourseNotBookable) {
		t.Fatalf("Run() error = %v, want %v", err, internaltypes.ErrCourseNotBookable)
	}
	want := int(w.Cutoff.Sub(w.Start) / time.Second)
	if a.probes < want-1 || a.probes > want+1 {
		t.Fatalf("probes = %d, want %d±1", a.probes, want)
	}
	if out.Probes != a.probes {
		t.Fatalf("Outcome.Probes = %d, want %d", out.Probes, a.probes)
	}
	last := a.probedAt[len(a.probedAt)-1]
	if last.After(w.Cutoff) {
		t.Fatalf("last probe at %s, after cutoff %s", last, w.Cutoff)
	}
	if end := clk.Now(); end.Before(w.Cutoff) {
		t.Fatalf("gave up at %s, before cutoff %s", end, w.Cutoff)
	}
	if len(a.booked) != 0 {
		t.Fatalf("booked %d times, want 0", len(a.booked))
	}
}

func TestLoopImmediateFireNeverRetries(t *testing.T) {
	t.Parallel()
	clk := clocktest.New(windowStart.Add(-time.Hour))
	a := &stubAttempter{clk: clk, script: always(waitlisted(), nil)}
	w := course.Window{Start: windowStart, Cutoff: windowStart.Add(24 * time.Hour)}

	_, err := newTestLoop(clk, a).Run(context.Background(), testTarget(), validCreds(), w, Mode{Immediate: true})
	if !errors.Is(err, internaltypes.ErrCourseNotBookable) {
		t.Fatalf("Run() error = %v, want %v", err, internaltypes.ErrCourseNotBookable)
	}
	if a.probes != 1 {
		t.Fatalf("probes = %d, want 1", a.probes)
	}
	if _, n := clk.Slept(); n != 0 {
		t.Fatalf("sleeps = %d, want 0", n)
	}
}

func TestLoopBookableAfterThreeSeconds(t *testing.T) {
	t.Parallel()
	clk := clocktest.New(windowStart)
	a := &stubAttempter{clk: clk, script: func(int) (course.State, error) {
		if clk.Now().Sub(windowStart) < 3*time.Second {
			return waitlisted(), nil
		}
		return bookable(), nil
	}}
	w := course.Window{Start: windowStart, Cutoff: windowStart.Add(24 * time.Hour)}

	out, err := newTestLoop(clk, a).Run(context.Background(), testTarget(), validCreds(), w, Mode{Test: true})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if a.probes != 4 {
		t.Fatalf("probes = %d, want 4", a.probes)
	}
	if len(a.booked) != 1 || !a.booked[0].Test {
		t.Fatalf("booked = %+v, want one test-mode booking", a.booked)
	}
	if !out.State.Eligible() || out.Booking.Snapshot == "" {
		t.Fatalf("Outcome = %+v", out)
	}
	if out.Attempt == "" {
		t.Fatal("Outcome.Attempt is empty")
	}
}

func TestLoopWaitsForWindow(t *testing.T) {
	t.Parallel()
	clk := clocktest.New(windowStart.Add(-90 * time.Second))
	a := &stubAttempter{clk: clk, script: always(bookable(), nil)}
	w := course.Window{Start: windowStart, Cutoff: windowStart.Add(3 * time.Minute)}

	if _, err := newTestLoop(clk, a).Run(context.Background(), testTarget(), validCreds(), w, Mode{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if first := a.probedAt[0]; first.Before(windowStart) {
		t.Fatalf("first probe at %s, before window start %s", first, windowStart)
	}
}

func TestLoopBoundsLoadingFailures(t *testing.T) {
	t.Parallel()
	clk := clocktest.New(windowStart)
	a := &stubAttempter{clk: clk, script: always(course.State{}, internaltypes.ErrLoadingFailed)}
	w := course.Window{Start: windowStart, Cutoff: windowStart.Add(3 * time.Minute)}

	_, err := newTestLoop(clk, a).Run(context.Background(), testTarget(), validCreds(), w, Mode{})
	if !errors.Is(err, internaltypes.ErrLoadingFailed) {
		t.Fatalf("Run() error = %v, want %v", err, internaltypes.ErrLoadingFailed)
	}
	if a.probes != 4 {
		t.Fatalf("probes = %d, want 1 + 3 retries", a.probes)
	}
}

func TestLoopLoadingFailuresCountConsecutively(t *testing.T) {
	t.Parallel()
	clk := clocktest.New(windowStart)
	// two load failures, a waitlisted probe, three more load failures, then bookable
	a := &stubAttempter{clk: clk, script: func(n int) (course.State, error) {
		switch n {
		case 1, 2, 4, 5, 6:
			return course.State{}, internaltypes.ErrLoadingFailed
		case 3:
			return waitlisted(), nil
		default:
			return bookable(), nil
		}
	}}
	w := course.Window{Start: windowStart, Cutoff: windowStart.Add(3 * time.Minute)}

	if _, err := newTestLoop(clk, a).Run(context.Background(), testTarget(), validCreds(), w, Mode{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if a.probes != 7 {
		t.Fatalf("probes = %d, want 7", a.probes)
	}
}

func TestLoopAbortsOnFatalErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		script  func(int) (course.State, error)
		bookErr error
		want    error
	}{
		{
			name:   "not listed",
			script: always(course.State{}, internaltypes.ErrCourseIDNotListed),
			want:   internaltypes.ErrCourseIDNotListed,
		},
		{
			name:   "ambiguous",
			script: always(course.State{}, internaltypes.ErrCourseIDAmbiguous),
			want:   internaltypes.ErrCourseIDAmbiguous,
		},
		{
			name:    "submission timeout",
			script:  always(bookable(), nil),
			bookErr: internaltypes.ErrSubmissionTimeout,
			want:    internaltypes.ErrSubmissionTimeout,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			clk := clocktest.New(windowStart)
			a := &stubAttempter{clk: clk, script: tt.script, bookErr: tt.bookErr}
			w := course.Window{Start: windowStart, Cutoff: windowStart.Add(3 * time.Minute)}

			_, err := newTestLoop(clk, a).Run(context.Background(), testTarget(), validCreds(), w, Mode{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("Run() error = %v, want %v", err, tt.want)
			}
			if a.probes != 1 {
				t.Fatalf("probes = %d, want 1", a.probes)
			}
		})
	}
}

func TestLoopRejectsInvalidCredentials(t *testing.T) {
	t.Parallel()
	clk := clocktest.New(windowStart)
	a := &stubAttempter{clk: clk, script: always(bookable(), nil)}
	w := course.Window{Start: windowStart, Cutoff: windowStart.Add(3 * time.Minute)}

	_, err := newTestLoop(clk, a).Run(context.Background(), testTarget(), user.New(user.Profile{}, ""), w, Mode{})
	if !errors.Is(err, internaltypes.ErrInvalidCredentials) {
		t.Fatalf("Run() error = %v, want %v", err, internaltypes.ErrInvalidCredentials)
	}
	if a.probes != 0 {
		t.Fatalf("probes = %d, want 0", a.probes)
	}
}
