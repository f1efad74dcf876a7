package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/sharesave/internal/config"
	"github.com/bamsammich/sharesave/internal/engine"
	"github.com/bamsammich/sharesave/internal/event"
	"github.com/bamsammich/sharesave/internal/metrics"
	"github.com/bamsammich/sharesave/internal/share/cloud189"
	"github.com/bamsammich/sharesave/internal/stats"
	"github.com/bamsammich/sharesave/internal/ui"
	"github.com/bamsammich/sharesave/internal/ui/tui"
)

var version = "dev"

func main() {
	os.Exit(run())
}

// options holds the root command flags.
type options struct {
	link         string
	dest         string
	username     string
	password     string
	workers      int
	batchSize    int
	pollInterval time.Duration
	rateLimit    float64
	verbose      bool
	quiet        bool
	noProgress   bool
	tui          bool
	logFile      string
	metricsAddr  string
	showVersion  bool
}

func (o *options) validate() error {
	switch {
	case o.link == "":
		return errors.New("a share link is required (--link)")
	case o.dest == "":
		return errors.New("a destination path is required (--dest)")
	case o.workers < 1:
		return fmt.Errorf("--workers must be at least 1, got %d", o.workers)
	case o.batchSize < 1:
		return fmt.Errorf("--batch-size must be at least 1, got %d", o.batchSize)
	case o.pollInterval <= 0:
		return fmt.Errorf("--poll-interval must be positive, got %s", o.pollInterval)
	case o.rateLimit < 0:
		return fmt.Errorf("--rate-limit must not be negative, got %g", o.rateLimit)
	}
	return nil
}

func run() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "sharesave --link URL --dest PATH",
		Short: "Save a 189 Cloud share into your own account",
		Long: `sharesave copies every file and folder of a 189 Cloud share link into a
folder of your account. Folders are saved whole where the service allows it;
folders that are too large are recreated and their contents saved in batches.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.showVersion {
				fmt.Println("sharesave " + version)
				return nil
			}

			cfg, err := config.Load()
			if err != nil {
				slog.Warn("failed to load config", "path", config.Path(), "error", err)
			}
			if err := applyConfigDefaults(cmd.Flags(), cfg.Defaults, opts); err != nil {
				return err
			}
			if err := opts.validate(); err != nil {
				return err
			}

			log, closeLog, err := setupLogging(opts.verbose, opts.quiet, opts.logFile)
			if err != nil {
				return err
			}
			defer closeLog()

			return save(cmd.Context(), opts, cfg, log)
		},
	}

	f := rootCmd.Flags()
	f.BoolVar(&opts.showVersion, "version", false, "print version and exit")
	f.StringVarP(&opts.link, "link", "l", "", "share link (https://cloud.189.cn/t/CODE)")
	f.StringVarP(&opts.dest, "dest", "d", "", "destination path in your account, created if missing")
	addCredentialFlags(f, &opts.username, &opts.password)
	f.IntVarP(&opts.workers, "workers", "t", engine.DefaultWorkers, "number of concurrent workers")
	f.IntVar(&opts.batchSize, "batch-size", engine.DefaultBatchSize, "files per save request")
	f.DurationVar(&opts.pollInterval, "poll-interval", cloud189.DefaultPollInterval,
		"interval between save task status checks")
	f.Float64Var(&opts.rateLimit, "rate-limit", 0, "maximum API requests per second (0 = unlimited)")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress all output except errors")
	f.StringVar(&opts.logFile, "log", "", "write structured JSON log to FILE")
	f.BoolVar(&opts.noProgress, "no-progress", false, "disable progress display")
	f.BoolVar(&opts.tui, "tui", false, "full-screen TUI (Bubble Tea)")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on ADDR (e.g. :9189)")

	rootCmd.AddCommand(newLsCmd())
	rootCmd.AddCommand(newDocsCmd())

	return rootCmd
}

func addCredentialFlags(f *pflag.FlagSet, username, password *string) {
	f.StringVarP(username, "username", "u", "", "account username (default $"+config.EnvUsername+")")
	f.StringVarP(password, "password", "p", "", "account password (default $"+config.EnvPassword+")")
}

//nolint:gocyclo,revive // cyclomatic,cognitive-complexity: orchestrates login, presenter and engine
func save(ctx context.Context, opts *options, cfg config.Config, log *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.metricsAddr != "" {
		if _, err := metrics.Serve(ctx, opts.metricsAddr, log); err != nil {
			return setupError(log, "metrics listener", err)
		}
	}

	client, err := login(ctx, opts.username, opts.password, opts.rateLimit, opts.pollInterval, log)
	if err != nil {
		return setupError(log, "login", err)
	}

	sh, err := client.ShareInfo(ctx, opts.link)
	if err != nil {
		return setupError(log, "share lookup", err)
	}
	dstID, err := client.ResolveFolder(ctx, opts.dest)
	if err != nil {
		return setupError(log, "resolve destination", err)
	}
	log.Info("saving share", "share", sh.Name, "share_id", sh.ID, "dest", opts.dest, "dst_id", dstID)

	// The engine stops submitting work when runCtx is cancelled, either by a
	// signal or by the user quitting the TUI.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	collector := stats.NewCollector()
	events := make(chan event.Event, 256)
	presenterEvents := metrics.Tee(events)
	if opts.logFile != "" {
		presenterEvents = logEvents(log, presenterEvents)
	}

	isTTY := ui.IsTTY(os.Stderr.Fd())
	var presenter ui.Presenter
	useTUI := opts.tui && isTTY && !opts.quiet
	if useTUI {
		presenter = tui.NewPresenter(tui.Config{
			Stats:  collector,
			Title:  sh.Name,
			Dest:   opts.dest,
			Theme:  cfg.Theme,
			OnQuit: cancel,
		})
	} else {
		if opts.tui {
			log.Warn("--tui requires a terminal, falling back to inline output")
		}
		presenter = ui.NewPresenter(ui.Config{
			Writer:     os.Stdout,
			ErrWriter:  os.Stderr,
			Stats:      collector,
			IsTTY:      isTTY,
			Quiet:      opts.quiet,
			Verbose:    opts.verbose,
			NoProgress: opts.noProgress,
		})
	}

	engineCfg := engine.Config{
		Lister:    sh,
		Saver:     sh,
		Folders:   client,
		Sink:      stats.MultiSink{collector, metrics.Sink{}},
		Events:    events,
		Logger:    log,
		Root:      sh.Root(),
		DstID:     dstID,
		BatchSize: opts.batchSize,
		Workers:   opts.workers,
	}

	var result engine.Result
	if useTUI {
		// Bubble Tea needs the foreground to own stdin.
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			result = engine.Run(runCtx, engineCfg)
			close(events)
		}()
		if err := presenter.Run(presenterEvents); err != nil {
			log.Warn("presenter stopped", "error", err)
		}
		wg.Wait()
	} else {
		var presenterErr error
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			presenterErr = presenter.Run(presenterEvents)
		}()
		result = engine.Run(runCtx, engineCfg)
		close(events)
		wg.Wait()
		if presenterErr != nil {
			fmt.Fprintf(os.Stderr, "presenter: %v\n", presenterErr)
		}
	}

	if !opts.quiet {
		if summary := presenter.Summary(); summary != "" {
			fmt.Fprintln(os.Stderr, summary)
		}
	}

	if result.Err != nil {
		log.Error("save failed", "error", result.Err, "stats", result.Stats.String())
		return &exitError{code: exitCode(result.Err)}
	}
	return nil
}

// login builds a client for the production API and signs in with the given
// credentials, falling back to .env and the environment for empty values.
// resolveCredentials loads the environment credentials and overrides each
// field that was given on the command line.
func resolveCredentials(username, password string) (config.Credentials, error) {
	creds, err := config.LoadCredentials()
	if err != nil {
		return config.Credentials{}, err
	}
	if username != "" {
		creds.Username = username
	}
	if password != "" {
		creds.Password = password
	}
	return creds, nil
}

func login(
	ctx context.Context,
	username, password string,
	rateLimit float64,
	poll time.Duration,
	log *slog.Logger,
) (*cloud189.Client, error) {
	creds, err := resolveCredentials(username, password)
	if err != nil {
		return nil, err
	}
	if !creds.Complete() {
		return nil, fmt.Errorf("missing credentials: set --username/--password or $%s/$%s",
			config.EnvUsername, config.EnvPassword)
	}

	client, err := cloud189.New(cloud189.Options{
		RequestsPerSec: rateLimit,
		PollInterval:   poll,
		Logger:         log,
		Observer:       metrics.RecordAPIRequest,
	})
	if err != nil {
		return nil, err
	}
	if err := client.Login(ctx, creds.Username, creds.Password); err != nil {
		return nil, err
	}
	log.Debug("logged in", "username", creds.Username)
	return client, nil
}

// setupLogging installs the process logger: text on stderr, plus JSON at
// debug level when logFile is set. Every record carries the run id.
func setupLogging(verbose, quiet bool, logFile string) (*slog.Logger, func(), error) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	} else if !quiet {
		level = slog.LevelInfo
	}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	closeFn := func() {}
	if logFile != "" {
		f, err := os.Create(logFile)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		closeFn = func() { _ = f.Close() }
		jsonHandler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
		handler = ui.NewMultiHandler(handler, jsonHandler)
	}

	log := slog.New(handler).With("run", uuid.NewString())
	slog.SetDefault(log)
	return log, closeFn, nil
}

// logEvents writes a structured record per event before forwarding it.
func logEvents(log *slog.Logger, in <-chan event.Event) <-chan event.Event {
	out := make(chan event.Event, 256)
	go func() {
		defer close(out)
		for ev := range in {
			attrs := []slog.Attr{
				slog.String("type", ev.Type.String()),
				slog.String("path", ev.Path),
				slog.Int("files", ev.Files),
				slog.Int("folders", ev.Folders),
				slog.Int64("size", ev.Size),
				slog.Int("worker", ev.WorkerID),
			}
			if ev.Error != nil {
				attrs = append(attrs, slog.String("error", ev.Error.Error()))
			}
			log.LogAttrs(context.Background(), slog.LevelDebug, "sharesave.event", attrs...)
			out <- ev
		}
	}()
	return out
}

// applyConfigDefaults applies config file defaults for flags not explicitly
// set on the command line.
func applyConfigDefaults(flags *pflag.FlagSet, d config.DefaultsConfig, o *options) error {
	if !flags.Changed("workers") && d.Workers != nil {
		o.workers = *d.Workers
	}
	if !flags.Changed("batch-size") && d.BatchSize != nil {
		o.batchSize = *d.BatchSize
	}
	if !flags.Changed("rate-limit") && d.RateLimit != nil {
		o.rateLimit = *d.RateLimit
	}
	if !flags.Changed("tui") && d.TUI != nil {
		o.tui = *d.TUI
	}
	if !flags.Changed("metrics-addr") && d.MetricsAddr != nil {
		o.metricsAddr = *d.MetricsAddr
	}
	if !flags.Changed("poll-interval") && d.PollInterval != nil {
		v, err := d.PollIntervalDuration()
		if err != nil {
			return err
		}
		o.pollInterval = v
	}
	return nil
}

func setupError(log *slog.Logger, step string, err error) error {
	log.Error(step+" failed", "error", err)
	return &exitError{code: 2}
}

// exitCode maps a run error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, engine.ErrBranchFailed):
		return 1
	default:
		return 2
	}
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
