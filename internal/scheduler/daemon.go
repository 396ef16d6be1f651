package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Daemon runs a job on a cron schedule until its context is cancelled. A
// run that is still in progress when the next one is due is skipped.
type Daemon struct {
	spec string
	loc  *time.Location
	log  zerolog.Logger
	job  func(ctx context.Context)
}

func NewDaemon(spec string, loc *time.Location, log zerolog.Logger, job func(ctx context.Context)) (*Daemon, error) {
	if _, err := cronParser.Parse(spec); err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.Local
	}
	return &Daemon{spec: spec, loc: loc, log: log, job: job}, nil
}

// Next returns the first scheduled run after now.
func (d *Daemon) Next(now time.Time) time.Time {
	sched, _ := cronParser.Parse(d.spec)
	return sched.Next(now.In(d.loc))
}

func (d *Daemon) Run(ctx context.Context) error {
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithLocation(d.loc),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{d.log})),
	)
	if _, err := c.AddFunc(d.spec, func() { d.job(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", d.spec, err)
	}
	c.Start()
	d.log.Info().Str("cron", d.spec).Time("next", d.Next(time.Now())).Msg("daemon armed")

	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct{ log zerolog.Logger }

func (l cronLogger) Info(msg string, kv ...interface{}) {
	l.log.Debug().Fields(kv).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.log.Error().Err(err).Fields(kv).Msg(msg)
}
