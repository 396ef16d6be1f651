package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/example/hsp-booker/internal/application/usecases"
	"github.com/example/hsp-booker/internal/clock"
	"github.com/example/hsp-booker/internal/config"
	"github.com/example/hsp-booker/internal/domain/course"
	"github.com/example/hsp-booker/internal/hsp"
	"github.com/example/hsp-booker/internal/scheduler"
)

type bookFlags struct {
	targets     targetFlags
	credentials string
	fire        bool
	test        bool
	snapshot    string
}

func newBookCmd(g *globalFlags) *cobra.Command {
	var f bookFlags

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Wait for today's booking window and book every target",
		Long: "Waits until HSP_WINDOW_START, then probes each target and submits the booking form as soon as\n" +
			"the course is bookable. Retries stop at HSP_WINDOW_CUTOFF. With --fire the window is ignored\n" +
			"and each target is tried exactly once.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, g)
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			list, err := f.targets.resolve(ctx, cfg)
			if err != nil {
				return err
			}
			if f.snapshot != "" && len(list) > 1 {
				return fmt.Errorf("--snapshot needs a single target, got %d", len(list))
			}
			mode := scheduler.Mode{Immediate: f.fire, Test: f.test, SnapshotPath: f.snapshot}
			return book(ctx, cfg, log, cmd.OutOrStdout(), f.credentialsPath(cfg), list, mode)
		},
	}
	f.targets.register(cmd)
	cmd.Flags().StringVar(&f.credentials, "credentials", "", "credentials file (overrides HSP_CREDENTIALS)")
	cmd.Flags().BoolVar(&f.fire, "fire", false, "book right now, once, ignoring the window")
	cmd.Flags().BoolVar(&f.test, "test", false, "fill the form but stop before the final confirmation")
	cmd.Flags().StringVar(&f.snapshot, "snapshot", "", "confirmation screenshot path (default HSP_SNAPSHOT_DIR/booking_confirmation_<id>.png)")
	return cmd
}

func (f *bookFlags) credentialsPath(cfg config.Config) string {
	if f.credentials != "" {
		return f.credentials
	}
	return cfg.CredentialsPath
}

// book runs one booking pass over list inside today's window and prints one
// result block per target. It fails when any target failed.
func book(ctx context.Context, cfg config.Config, log zerolog.Logger, out io.Writer, credsPath string, list []course.Target, mode scheduler.Mode) error {
	creds, err := usecases.CredentialsService{Key: cfg.CredKey}.Load(credsPath)
	if err != nil {
		return err
	}
	clk := clock.Real{}
	w, err := scheduler.NewWindow(clk.Now(), cfg.Location, cfg.WindowStart, cfg.WindowCutoff)
	if err != nil {
		return err
	}

	page, err := openChrome(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer page.Close()

	session := hsp.NewSession(page, clk, hsp.SessionOptions{
		PageTimeout:   cfg.PageTimeout,
		SubmitTimeout: cfg.SubmitTimeout,
		SubmitPoll:    cfg.SubmitPoll,
		SnapshotDir:   cfg.SnapshotDir,
	}, log)
	u := usecases.BookAll{
		Booker: scheduler.NewLoop(session, clk, cfg.RetryInterval, cfg.LoadRetries, log),
		Log:    log,
	}

	reports, err := u.Execute(ctx, list, creds, w, mode)
	for _, r := range reports {
		printBooking(out, r, mode)
	}
	return err
}

func printBooking(out io.Writer, r usecases.BookingReport, mode scheduler.Mode) {
	if r.Err != nil {
		fmt.Fprintf(out, "#%s: %v\n", r.Target.ID, r.Err)
		return
	}
	if mode.Test {
		fmt.Fprintf(out, "#%s: test run stopped before confirmation (attempt %s)\n", r.Target.ID, r.Outcome.Attempt)
	} else {
		fmt.Fprintf(out, "#%s: booked after %d probe(s) (attempt %s)\n", r.Target.ID, r.Outcome.Probes, r.Outcome.Attempt)
	}
	if info := r.Outcome.State.Info(); info != "" {
		fmt.Fprintln(out, info)
	}
	if t := r.Outcome.Booking.Ticket; !t.Empty() {
		fmt.Fprintln(out, t.String())
	}
	if p := r.Outcome.Booking.Snapshot; p != "" {
		fmt.Fprintf(out, "snapshot: %s\n", p)
	}
}
