package hsp

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/hsp-booker/internal/browser"
	"github.com/example/hsp-booker/internal/clock"
	"github.com/example/hsp-booker/internal/domain/course"
)

// Session probes and books through one listing page, so the booking form is
// always opened from the listing the course state was read from.
type Session struct {
	Page     browser.Page
	Prober   *Prober
	Pipeline *Pipeline
}

type SessionOptions struct {
	PageTimeout   time.Duration
	SubmitTimeout time.Duration
	SubmitPoll    time.Duration
	SnapshotDir   string
}

func NewSession(page browser.Page, clk clock.Clock, opts SessionOptions, log zerolog.Logger) *Session {
	return &Session{
		Page:     page,
		Prober:   NewProber(page, opts.PageTimeout, log),
		Pipeline: NewPipeline(NewRetrier(clk, opts.SubmitPoll, log), opts.SubmitTimeout, opts.SnapshotDir, log),
	}
}

func (s *Session) Probe(ctx context.Context, t course.Target) (course.State, error) {
	return s.Prober.Probe(ctx, t)
}

func (s *Session) Book(ctx context.Context, req Request) (Result, error) {
	return s.Pipeline.Run(ctx, s.Page, req)
}
