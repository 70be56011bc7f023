package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/napolitain/geode-solver/internal/loader"
	"github.com/napolitain/geode-solver/internal/logging"
	"github.com/napolitain/geode-solver/internal/models"
	"github.com/napolitain/geode-solver/internal/solver"
	"github.com/napolitain/geode-solver/internal/solver/geode"
	"github.com/napolitain/geode-solver/internal/store"
)

// cliOptions holds the raw flag values before they are merged into a config
type cliOptions struct {
	input       string
	format      string
	configFile  string
	deadline    int
	limit       int
	mode        string
	strategy    string
	workers     int
	nodes       int
	timeout     string
	cachePath   string
	showPlan    bool
	skipInvalid bool
	quiet       bool
	verify      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	defaults := models.DefaultSolverConfig()

	cmd := &cobra.Command{
		Use:   "geodes",
		Short: "Geode Robot Blueprint Optimizer",
		Long: `A branch-and-bound search that finds the most geodes each blueprint
can open before the deadline, then combines them into a quality level,
product or sum.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "input.txt", `Blueprint file ("-" for stdin)`)
	f.StringVar(&opts.format, "format", string(loader.FormatAuto), "Input format: text, json or auto")
	f.StringVarP(&opts.configFile, "config", "c", "", "Path to YAML or TOML solver config")
	f.IntVarP(&opts.deadline, "deadline", "t", defaults.Deadline, "Ticks available to each blueprint")
	f.IntVarP(&opts.limit, "limit", "n", 0, "Only evaluate the first N blueprints (0 = all)")
	f.StringVar(&opts.mode, "mode", defaults.Mode, "Aggregate: quality, product or sum")
	f.StringVar(&opts.strategy, "strategy", defaults.Strategy, "Search strategy: dfs or best-first")
	f.IntVarP(&opts.workers, "workers", "w", 0, "Parallel searches (0 = GOMAXPROCS)")
	f.IntVar(&opts.nodes, "nodes", 0, "Node budget per blueprint (0 = unlimited)")
	f.StringVar(&opts.timeout, "timeout", "", `Overall time limit, e.g. "30s"`)
	f.StringVar(&opts.cachePath, "cache", "", "SQLite file for memoized results")
	f.BoolVar(&opts.showPlan, "plan", false, "Print the build schedule of each blueprint")
	f.BoolVar(&opts.skipInvalid, "skip-invalid", false, "Skip malformed blueprints instead of failing")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "Minimal output")
	f.BoolVar(&opts.verify, "verify", false, "Re-run with the other strategy and compare")

	return cmd
}

// resolveConfig layers explicitly set flags over the config file (or defaults)
func resolveConfig(cmd *cobra.Command, opts *cliOptions) (models.SolverConfig, error) {
	cfg := models.DefaultSolverConfig()
	if opts.configFile != "" {
		loaded, err := models.LoadSolverConfig(opts.configFile)
		if err != nil {
			return models.SolverConfig{}, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("deadline") {
		cfg.Deadline = opts.deadline
	}
	if flags.Changed("limit") {
		cfg.Limit = opts.limit
	}
	if flags.Changed("mode") {
		cfg.Mode = opts.mode
	}
	if flags.Changed("strategy") {
		cfg.Strategy = opts.strategy
	}
	if flags.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if flags.Changed("nodes") {
		cfg.NodeBudget = opts.nodes
	}
	if flags.Changed("cache") {
		cfg.CachePath = opts.cachePath
	}
	if flags.Changed("timeout") {
		d, err := parseTimeout(opts.timeout)
		if err != nil {
			return models.SolverConfig{}, err
		}
		cfg.Timeout = d
	}

	// Strategy aliases are accepted on the command line
	if s, err := geode.ParseStrategy(cfg.Strategy); err == nil {
		cfg.Strategy = s.String()
	}
	if err := cfg.Validate(); err != nil {
		return models.SolverConfig{}, err
	}
	return cfg, nil
}

func parseTimeout(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse timeout: %w", err)
	}
	return d, nil
}

func run(cmd *cobra.Command, opts *cliOptions) error {
	out := cmd.OutOrStdout()
	logger := logging.Init("geodes", cmd.ErrOrStderr(), opts.quiet)

	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}
	strategy, err := geode.ParseStrategy(cfg.Strategy)
	if err != nil {
		return err
	}
	mode, err := solver.ParseAggregateMode(cfg.Mode)
	if err != nil {
		return err
	}
	format, err := loader.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	blueprints, skipped, err := readBlueprints(cmd.InOrStdin(), opts.input, format, loader.Options{SkipInvalid: opts.skipInvalid})
	if err != nil {
		return err
	}
	for _, s := range skipped {
		logger.Warn().Int("line", s.Line).Str("input", s.Input).Err(s).Msg("skipped blueprint")
	}
	if len(blueprints) == 0 {
		return fmt.Errorf("no blueprints in %s", opts.input)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	eval := &solver.Evaluator{
		Options: geode.Options{
			Deadline:   cfg.Deadline,
			Strategy:   strategy,
			NodeBudget: cfg.NodeBudget,
		},
		Workers: cfg.Workers,
		Limit:   cfg.Limit,
		Logger:  logger,
	}
	if cfg.CachePath != "" {
		cache, err := store.OpenSQLite(cfg.CachePath)
		if err != nil {
			logger.Warn().Err(err).Str("path", cfg.CachePath).Msg("cache disabled")
		} else {
			defer cache.Close()
			eval.Cache = cache
		}
	}

	if !opts.quiet {
		printBanner(out, cfg, len(blueprints))
	}

	report, err := eval.Evaluate(ctx, blueprints)
	if err != nil && report == nil {
		return err
	}
	if err != nil {
		logger.Warn().Err(err).Msg("results are partial")
	}

	total, aggErr := report.Aggregate(mode)
	if aggErr != nil {
		return aggErr
	}

	if opts.quiet {
		fmt.Fprintln(out, total)
	} else {
		printResults(out, report)
		if opts.showPlan {
			printPlans(out, report)
		}
		printSummary(out, report, mode, total)
	}

	if opts.verify {
		if err := verify(ctx, eval, blueprints, report, logger); err != nil {
			return err
		}
		if !opts.quiet {
			color.New(color.FgGreen).Fprintln(out, "✓ Both strategies agree")
		}
	}
	return nil
}

func readBlueprints(stdin io.Reader, input string, format loader.Format, opts loader.Options) ([]models.Blueprint, []*loader.ParseError, error) {
	if input != "-" {
		return loader.LoadBlueprints(input, format, opts)
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	if format == loader.FormatAuto {
		format = loader.Detect(data)
	}
	if format == loader.FormatJSON {
		return loader.ParseBlueprintsJSON(data, opts)
	}
	return loader.ParseBlueprints(bytes.NewReader(data), opts)
}

// verify re-solves every blueprint with the other strategy, uncached
func verify(ctx context.Context, eval *solver.Evaluator, blueprints []models.Blueprint, report *solver.Report, logger zerolog.Logger) error {
	other := *eval
	other.Cache = nil
	if eval.Options.Strategy == geode.DepthFirst {
		other.Options.Strategy = geode.BestFirst
	} else {
		other.Options.Strategy = geode.DepthFirst
	}

	check, err := other.Evaluate(ctx, blueprints)
	if err != nil {
		return fmt.Errorf("verification run: %w", err)
	}
	for i, res := range report.Results {
		got := check.Results[i]
		if !res.Complete || !got.Complete {
			logger.Warn().Int("blueprint", res.Blueprint.ID).Msg("incomplete search, verification skipped")
			continue
		}
		if res.Yield != got.Yield {
			return fmt.Errorf("blueprint %d: %s found %d, %s found %d",
				res.Blueprint.ID, res.Strategy, res.Yield, got.Strategy, got.Yield)
		}
	}
	return nil
}
