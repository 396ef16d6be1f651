package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/hsp-booker/internal/scheduler"
)

func newDaemonCmd(g *globalFlags) *cobra.Command {
	var (
		f    bookFlags
		spec string
	)

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the booking pass on a cron schedule (HSP_DAEMON_CRON)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, g)
			if err != nil {
				return err
			}
			if spec == "" {
				spec = cfg.DaemonCron
			}
			ctx, cancel := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			out := cmd.OutOrStdout()
			d, err := scheduler.NewDaemon(spec, cfg.Location, log, func(ctx context.Context) {
				// targets are re-read every run so registry changes apply the next day
				list, err := f.targets.resolve(ctx, cfg)
				if err != nil {
					log.Error().Err(err).Msg("no targets for this run")
					return
				}
				if err := book(ctx, cfg, log, out, f.credentialsPath(cfg), list, scheduler.Mode{Test: f.test}); err != nil {
					log.Error().Err(err).Msg("booking run failed")
				}
			})
			if err != nil {
				return err
			}
			return d.Run(ctx)
		},
	}
	f.targets.register(cmd)
	cmd.Flags().StringVar(&f.credentials, "credentials", "", "credentials file (overrides HSP_CREDENTIALS)")
	cmd.Flags().BoolVar(&f.test, "test", false, "fill the form but stop before the final confirmation")
	cmd.Flags().StringVar(&spec, "cron", "", "cron spec, seconds optional (overrides HSP_DAEMON_CRON)")
	return cmd
}
