// Package main is the entry point for the supervision hours report tool.
// It computes supervision reports, watches input for new pulls and browses
// the run history in a terminal viewer.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/j-veylop/supervision-hours/internal/app"
	"github.com/j-veylop/supervision-hours/internal/config"
	"github.com/j-veylop/supervision-hours/internal/db"
	"github.com/j-veylop/supervision-hours/internal/logger"
	"github.com/j-veylop/supervision-hours/internal/models"
	"github.com/j-veylop/supervision-hours/internal/services"
	"github.com/j-veylop/supervision-hours/internal/ui/tabs/anomalies"
	"github.com/j-veylop/supervision-hours/internal/ui/tabs/report"
	"github.com/j-veylop/supervision-hours/internal/ui/tabs/runs"
	"github.com/j-veylop/supervision-hours/internal/version"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		os.Exit(1)
	}
}

const envHelp = `Environment Variables:
  INPUT_PATH                 CSV file or directory of pulled intervals
  INPUT_MODE                 raw (default) or classified
  SOURCE_DATABASE_URL        Postgres source, used instead of INPUT_PATH in raw mode
  CREDENTIAL_PATH            Credential supervision CSV merged into the report
  OUTPUT_DIR, ARCHIVE_DIR    Report output and archive folders
  DATABASE_PATH              SQLite run history
  RULES_PATH                 Clinic label rules (YAML)
  METRICS_PATH               Prometheus textfile written after each run
  WEBHOOK_URL, DESKTOP_NOTIFY  Run status notifications
  LOOKBACK_DAYS              Window length when there is no run history (default: 7)
  DIRECT_SERVICE_CODE        Direct service code (default: 97153)
  SUPERVISION_SERVICE_CODES  Comma-separated supervision codes
  WORKERS                    Parallel overlap workers (default: CPU count)
  LOG_LEVEL, LOG_FILE        Logging
  WATCH_DEBOUNCE             Quiet period before a watched change re-runs (default: 2s)

A .env file is read from the current directory or
~/.config/supervision-hours/.env when present.`

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "supervision",
		Short:         "Supervision hours reports from service intervals",
		Long:          "supervision - supervision hours reports from service intervals\n\n" + envHelp,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(runCmd())
	root.AddCommand(watchCmd())
	root.AddCommand(viewCmd())
	root.AddCommand(versionCmd())
	return root
}

// windowFlags are shared by run and watch.
type windowFlags struct {
	start string
	end   string
	input string
	mode  string
}

func (w *windowFlags) flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("window", pflag.ContinueOnError)
	fs.StringVar(&w.start, "start", "", "window start `date` (YYYY-MM-DD); default continues from the last run")
	fs.StringVar(&w.end, "end", "", "exclusive window end `date` (YYYY-MM-DD); default today")
	fs.StringVarP(&w.input, "input", "i", "", "override INPUT_PATH")
	fs.StringVarP(&w.mode, "mode", "m", "", "override INPUT_MODE (raw|classified)")
	return fs
}

func (w *windowFlags) bounds() (start, end time.Time, err error) {
	if start, err = parseDate(w.start); err != nil {
		return start, end, fmt.Errorf("invalid --start: %w", err)
	}
	if end, err = parseDate(w.end); err != nil {
		return start, end, fmt.Errorf("invalid --end: %w", err)
	}
	return start, end, nil
}

func (w *windowFlags) apply(cfg *config.Config) error {
	if w.input != "" {
		cfg.InputPath = w.input
	}
	if w.mode != "" {
		cfg.InputMode = models.InputMode(w.mode)
	}
	return cfg.Validate()
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(time.DateOnly, s, time.Local)
}

// setup loads configuration and configures logging. quiet keeps stderr clean
// for the full-screen viewer.
func setup(quiet bool) (*config.Config, io.Closer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	setupLog := logger.Setup
	if quiet {
		setupLog = logger.SetupQuiet
	}
	closer, err := setupLog(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, closer, nil
}

// openManager is setup plus the window overrides and a services manager.
// The returned cleanup closes the manager and then the log file.
func openManager(ctx context.Context, wf *windowFlags) (*services.Manager, func(), error) {
	cfg, closer, err := setup(false)
	if err != nil {
		return nil, nil, err
	}
	if err := wf.apply(cfg); err != nil {
		closer.Close()
		return nil, nil, err
	}
	mgr, err := services.NewManager(ctx, cfg)
	if err != nil {
		closer.Close()
		return nil, nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	return mgr, func() {
		closeManager(mgr)
		closer.Close()
	}, nil
}

func runCmd() *cobra.Command {
	var (
		wf        windowFlags
		pruneDays int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compute one report for a date window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, end, err := wf.bounds()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			mgr, cleanup, err := openManager(ctx, &wf)
			if err != nil {
				return err
			}
			defer cleanup()

			window, err := mgr.ResolveWindow(ctx, start, end)
			if err != nil {
				return err
			}
			run, err := mgr.Run(ctx, window)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d rows, %d anomalies, direct %sh, supervision %sh\n",
				run.Window, run.RowCount, run.AnomalyCount,
				models.FormatHours(run.DirectHours), models.FormatHours(run.SupervisionHours))
			fmt.Fprintln(out, run.ReportPath)

			if pruneDays > 0 {
				if _, err := mgr.Prune(ctx, pruneDays); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().AddFlagSet(wf.flagSet())
	cmd.Flags().IntVar(&pruneDays, "prune-days", 0, "after the run, delete runs that started more than `n` days ago")
	return cmd
}

func watchCmd() *cobra.Command {
	var wf windowFlags

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run once, then re-run whenever the input changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, end, err := wf.bounds()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			mgr, cleanup, err := openManager(ctx, &wf)
			if err != nil {
				return err
			}
			defer cleanup()

			initialRun(ctx, mgr, start, end)
			return mgr.Watch(ctx, start, end)
		},
	}

	cmd.Flags().AddFlagSet(wf.flagSet())
	return cmd
}

// initialRun brings the history up to date before watching. Failures are
// already recorded and notified by the manager.
func initialRun(ctx context.Context, mgr *services.Manager, start, end time.Time) {
	window, err := mgr.ResolveWindow(ctx, start, end)
	if errors.Is(err, services.ErrEmptyWindow) {
		logger.Info("run history is up to date")
		return
	}
	if err != nil {
		logger.Error("failed to resolve window", "error", err)
		return
	}
	if _, err := mgr.Run(ctx, window); err != nil {
		logger.Error("initial run failed", "error", err)
	}
}

func viewCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Browse recorded runs in a terminal viewer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, closer, err := setup(true)
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			var (
				store app.Store
				mgr   *services.Manager
			)
			if watch {
				mgr, err = services.NewManager(ctx, cfg)
				if err != nil {
					return fmt.Errorf("failed to initialize services: %w", err)
				}
				stop := watchInBackground(ctx, cancel, mgr)
				defer stop()
				store = mgr.Database()
			} else {
				database, err := db.New(cfg.DatabasePath)
				if err != nil {
					return fmt.Errorf("failed to open run history: %w", err)
				}
				defer database.Close()
				store = database
			}

			model := app.NewModel(store, mgr)
			state := model.GetState()
			model.SetTabs([]app.Tab{
				report.New(state),
				runs.New(state, store),
				anomalies.New(state),
			})

			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("error running viewer: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "also watch INPUT_PATH and re-run on new pulls")
	return cmd
}

// watchInBackground runs mgr.Watch until ctx is done. The returned stop
// cancels the watch, waits for an in-flight run to return and only then
// closes the manager.
func watchInBackground(ctx context.Context, cancel context.CancelFunc, mgr *services.Manager) (stop func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := mgr.Watch(ctx, time.Time{}, time.Time{}); err != nil {
			logger.Error("watch stopped", "error", err)
		}
	}()
	return func() {
		cancel()
		<-done
		closeManager(mgr)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}

func closeManager(mgr *services.Manager) {
	if err := mgr.Close(); err != nil {
		logger.Warn("error closing services", "error", err)
	}
}
