package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/example/hsp-booker/internal/browser"
	"github.com/example/hsp-booker/internal/config"
	"github.com/example/hsp-booker/internal/db"
	"github.com/example/hsp-booker/internal/domain/course"
	"github.com/example/hsp-booker/internal/infrastructure/credfile"
	"github.com/example/hsp-booker/internal/logging"
	"github.com/example/hsp-booker/internal/migrate"
	"github.com/example/hsp-booker/internal/targets"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

// globalFlags override the matching environment settings.
type globalFlags struct {
	logLevel  string
	logFormat string
	browser   string
}

func NewRootCmd() *cobra.Command {
	var g globalFlags
	root := &cobra.Command{
		Use:           "hspbook",
		Short:         "Books Hochschulsport courses the moment their booking window opens",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "console or json (overrides LOG_FORMAT)")
	root.PersistentFlags().StringVar(&g.browser, "browser", "", "headless, chrome or static (overrides HSP_BROWSER)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newKeysCmd())
	root.AddCommand(newStatusCmd(&g))
	root.AddCommand(newBookCmd(&g))
	root.AddCommand(newDaemonCmd(&g))
	root.AddCommand(newCredentialsCmd(&g))
	root.AddCommand(newTargetCmd(&g))

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration, applies the global flags and builds the
// logger every command writes its diagnostics to.
func setup(cmd *cobra.Command, g *globalFlags) (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if g.logFormat != "" {
		cfg.LogFormat = g.logFormat
	}
	if g.browser != "" {
		switch g.browser {
		case config.BrowserHeadless, config.BrowserChrome, config.BrowserStatic:
			cfg.Browser = g.browser
		default:
			return config.Config{}, zerolog.Nop(), fmt.Errorf("invalid --browser %q", g.browser)
		}
	}
	return cfg, logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat), nil
}

// openChrome starts the browser the booking commands drive. The caller closes it.
func openChrome(ctx context.Context, cfg config.Config, log zerolog.Logger) (*browser.Chrome, error) {
	if cfg.Browser == config.BrowserStatic {
		return nil, fmt.Errorf("%w: the static browser cannot submit forms, use headless or chrome", browser.ErrUnsupported)
	}
	return browser.NewChrome(ctx, browser.ChromeOptions{
		Headless:     cfg.Browser != config.BrowserChrome,
		UserAgent:    cfg.UserAgent,
		PageTimeout:  cfg.PageTimeout,
		PollInterval: cfg.SubmitPoll,
		Logger:       log,
	})
}

// targetFlags select where the courses to work on come from.
type targetFlags struct {
	id       string
	url      string
	password string
	file     string
}

func (f *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.id, "course", "", "course id (single target, needs --url)")
	cmd.Flags().StringVar(&f.url, "url", "", "listing page of --course")
	cmd.Flags().StringVar(&f.password, "course-password", "", "password some courses ask for before the form")
	cmd.Flags().StringVar(&f.file, "targets", "", "targets file (overrides HSP_TARGETS)")
}

// resolve returns the targets from, in order: the --course flags, a targets
// file, the target registry in DATABASE_URL.
func (f *targetFlags) resolve(ctx context.Context, cfg config.Config) ([]course.Target, error) {
	if f.id != "" {
		t, err := course.NewTarget(f.id, f.url, f.password)
		if err != nil {
			return nil, err
		}
		return []course.Target{t}, nil
	}
	path := f.file
	if path == "" {
		path = cfg.TargetsPath
	}
	if path != "" {
		return credfile.LoadTargets(path)
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("no targets: pass --course/--url, --targets, or set HSP_TARGETS or DATABASE_URL")
	}

	d, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	list, err := targets.NewRepo(d).Targets(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("no targets registered (see: hspbook target add)")
	}
	return list, nil
}

func openDB(ctx context.Context, cfg config.Config) (*db.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := migrate.Up(ctx, d); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}
