// Package cli implements the trendscope command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	service "github.com/okian/trendscope/internal/app"
	"github.com/okian/trendscope/internal/adapters/http/client"
	"github.com/okian/trendscope/internal/adapters/repository"
	"github.com/okian/trendscope/internal/config"
	"github.com/okian/trendscope/internal/domain/model"
	"github.com/okian/trendscope/internal/domain/types"
	"github.com/okian/trendscope/internal/session"
	"github.com/okian/trendscope/pkg/logger"
	"github.com/okian/trendscope/pkg/metrics"
)

// Exit codes.
const (
	ExitSuccess     = 0
	ExitGeneral     = 1
	ExitUsageError  = 2
	ExitAuthError   = 3
	ExitConfigError = 4
)

// version is reported in the User-Agent header.
var version = "dev"

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// usageError marks bad flags or arguments.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usage(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// validArgs wraps a cobra argument validator so its failures count as usage errors.
func validArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, a []string) error {
		if err := v(cmd, a); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

// rootFlags are the persistent flags shared by every command.
type rootFlags struct {
	configFile string
	baseURL    string
	output     string
	color      string
	verbose    bool
}

// cliApp is the state built once per invocation.
type cliApp struct {
	flags  rootFlags
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg     *config.Config
	svc     *service.Service
	out     *Printer
	log     logger.Logger
	setupOK bool
}

func (a *cliApp) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "trendscope",
		Short: "Search-interest trends from the command line",
		Long: `trendscope talks to a trend-analysis dashboard API: it searches and
compares keyword trends, classifies their pattern locally, manages
watchlists and exports analyses.

Example usage:
  trendscope login -u ada                     # Start a session
  trendscope search golang rust --geo DE      # Search and classify trends
  trendscope compare golang rust --by peak_value
  trendscope watchlist analyze --all          # Analyze every watchlist
  trendscope export csv golang rust -f cmp.csv`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configFile, "config", "", "config file (default is $"+config.EnvConfigFile+")")
	pf.StringVar(&a.flags.baseURL, "base-url", "", "API root, e.g. https://host/api/v1")
	pf.StringVarP(&a.flags.output, "output", "o", "", "output format: table, json or yaml")
	pf.StringVar(&a.flags.color, "color", "", "color mode: auto, always or never")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(
		a.loginCmd(), a.registerCmd(), a.logoutCmd(), a.statusCmd(),
		a.refreshCmd(), a.resetPasswordCmd(), a.profileCmd(),
		a.searchCmd(), a.compareCmd(), a.predictCmd(), a.insightsCmd(), a.publicCmd(),
		a.watchlistCmd(), a.analysesCmd(), a.dashboardCmd(), a.mlCmd(),
		a.exportCmd(),
	)
	return root
}

// setup loads configuration and wires the service.
func (a *cliApp) setup(ctx context.Context) error {
	cfg, err := config.Load(ctx, a.flags.configFile)
	if err != nil {
		return err //nolint:wrapcheck // config errors carry their own context
	}
	cfg.Apply(
		config.WithBaseURL(a.flags.baseURL),
		config.WithOutput(a.flags.output),
		config.WithColor(a.flags.color),
	)
	if a.flags.verbose {
		cfg.Apply(config.WithLogLevel("debug"))
	}
	if err := cfg.Validate(); err != nil {
		return err //nolint:wrapcheck // config errors carry their own context
	}
	a.cfg = cfg
	a.out = NewPrinter(a.stdout, a.stderr, cfg.Output, cfg.Color)

	if err := logger.Init(logger.WithWriter(a.stderr), logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	a.log = logger.Named("cli")

	store := repository.NewFileStore(cfg.TokenFile)
	api, err := client.New(cfg.BaseURL,
		client.WithTokenStore(store),
		client.WithTimeout(cfg.RequestTimeout()),
		client.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		client.WithLogger(logger.Named("client")),
		client.WithUserAgent("trendscope/"+version),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	sess := session.New(api, store, session.WithLogger(logger.Named("session")))

	a.svc = service.New(api, sess,
		service.WithLogger(logger.Named("service")),
		service.WithCache(cfg.CacheSize, cfg.CacheTTL()),
		service.WithCacheFile(cfg.SearchCacheFile()),
		service.WithSearchDefaults(types.Timeframe(cfg.DefaultTimeframe), types.Geo(cfg.DefaultGeo)),
		service.WithInsightsTimeframe(types.Timeframe(cfg.InsightsTimeframe)),
		service.WithAnalyzeConcurrency(cfg.AnalyzeConcurrency),
		service.WithTopInsights(cfg.TopInsights),
	)
	if err := a.svc.Start(ctx); err != nil {
		return err //nolint:wrapcheck // service errors carry their own context
	}
	a.setupOK = true
	a.log.Debug(ctx, "configuration loaded",
		logger.String("base_url", cfg.BaseURL),
		logger.String("token_file", cfg.TokenFile),
		logger.String("output", cfg.Output))
	return nil
}

// close stops the service and persists metrics when configured.
func (a *cliApp) close() {
	if !a.setupOK {
		return
	}
	a.svc.Stop()
	if a.cfg.MetricsFile == "" {
		return
	}
	if err := metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
		a.out.Warning("could not write metrics to %s: %v", a.cfg.MetricsFile, err)
	}
}

// Execute runs the command line with args and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	return run(ctx, args, os.Stdin, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &cliApp{stdin: stdin, stdout: stdout, stderr: stderr}
	root := a.rootCommand()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	a.close()
	if err == nil {
		return ExitSuccess
	}

	p := a.out
	if p == nil {
		p = NewPrinter(stdout, stderr, config.OutputTable, config.ColorNever)
	}
	return report(p, err)
}

// report prints err for the user and picks the exit code.
func report(p *Printer, err error) int {
	var ue *usageError
	switch {
	case errors.As(err, &ue):
		p.Error("%v", ue.err)
		p.Warning("run with --help for usage")
		return ExitUsageError
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, config.ErrLoadConfig):
		p.Error("%v", err)
		return ExitConfigError
	case errors.Is(err, service.ErrNotAuthenticated):
		p.Error("not logged in")
		p.Warning("run `trendscope login` first, or `trendscope refresh` if your session expired")
		return ExitAuthError
	case errors.Is(err, client.ErrUnauthorized):
		p.Error("%s", client.DisplayMessage(err))
		p.Warning("your session may have expired; run `trendscope login` again")
		return ExitAuthError
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, model.ErrInvalidProfile):
		p.Error("%v", err)
		return ExitUsageError
	default:
		p.Error("%s", client.DisplayMessage(err))
		return ExitGeneral
	}
}
