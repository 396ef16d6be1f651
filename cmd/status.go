package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/hsp-booker/internal/application/usecases"
	"github.com/example/hsp-booker/internal/browser"
	"github.com/example/hsp-booker/internal/clock"
	"github.com/example/hsp-booker/internal/config"
	"github.com/example/hsp-booker/internal/hsp"
)

func newStatusCmd(g *globalFlags) *cobra.Command {
	var tf targetFlags

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the current booking status of each target",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, g)
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			list, err := tf.resolve(ctx, cfg)
			if err != nil {
				return err
			}

			var page browser.Reader
			if cfg.Browser == config.BrowserStatic {
				page = browser.NewStatic(cfg.PageTimeout, cfg.UserAgent)
			} else {
				c, err := openChrome(ctx, cfg, log)
				if err != nil {
					return err
				}
				defer c.Close()
				page = c
			}

			u := usecases.CheckStatus{
				Prober:   hsp.NewProber(page, cfg.PageTimeout, log),
				Clock:    clock.Real{},
				Retries:  cfg.LoadRetries,
				Interval: cfg.RetryInterval,
				Log:      log,
			}
			reports, err := u.Execute(ctx, list)
			out := cmd.OutOrStdout()
			for _, r := range reports {
				if r.Err != nil {
					fmt.Fprintf(out, "#%s: %v\n", r.Target.ID, r.Err)
					continue
				}
				fmt.Fprintln(out, r.State.Info())
				fmt.Fprintln(out, r.State.StatusLine())
			}
			return err
		},
	}
	tf.register(cmd)
	return cmd
}

// contextOf keeps commands usable when executed without a context.
func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
