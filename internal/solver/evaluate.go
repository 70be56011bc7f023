package solver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/napolitain/geode-solver/internal/models"
	"github.com/napolitain/geode-solver/internal/solver/geode"
	"github.com/napolitain/geode-solver/internal/store"
)

// ErrUnknownMode is returned by Aggregate for an unrecognized mode
var ErrUnknownMode = errors.New("unknown aggregate mode")

// Cache memoizes complete search results. A nil Cache disables caching.
type Cache interface {
	Get(ctx context.Context, key string) (store.Entry, bool, error)
	Put(ctx context.Context, key string, e store.Entry) error
}

// AggregateMode selects how per-blueprint yields are combined
type AggregateMode int

const (
	// AggregateQuality sums id * yield
	AggregateQuality AggregateMode = iota
	// AggregateProduct multiplies the yields
	AggregateProduct
	// AggregateSum adds the yields
	AggregateSum
)

// String returns the config/CLI name of the mode
func (m AggregateMode) String() string {
	switch m {
	case AggregateQuality:
		return models.ModeQuality
	case AggregateProduct:
		return models.ModeProduct
	case AggregateSum:
		return models.ModeSum
	default:
		return "unknown"
	}
}

// ParseAggregateMode converts a config/CLI name into an AggregateMode
func ParseAggregateMode(name string) (AggregateMode, error) {
	switch name {
	case models.ModeQuality:
		return AggregateQuality, nil
	case models.ModeProduct:
		return AggregateProduct, nil
	case models.ModeSum:
		return AggregateSum, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownMode, name)
}

// BlueprintResult is the outcome for one blueprint
type BlueprintResult struct {
	Blueprint models.Blueprint
	Yield     int
	Nodes     int
	Peak      int
	Complete  bool
	Cached    bool
	Strategy  string
	Plan      []geode.Step
	Elapsed   time.Duration
}

// Report holds every evaluated blueprint in input order
type Report struct {
	Deadline int
	Results  []BlueprintResult
	Elapsed  time.Duration
}

// QualityLevel returns the sum of id * yield
func (r *Report) QualityLevel() int {
	total := 0
	for _, res := range r.Results {
		total += res.Blueprint.ID * res.Yield
	}
	return total
}

// MaxYieldProduct returns the product of the yields (1 for no results)
func (r *Report) MaxYieldProduct() int {
	product := 1
	for _, res := range r.Results {
		product *= res.Yield
	}
	return product
}

// Sum returns the plain total of the yields
func (r *Report) Sum() int {
	total := 0
	for _, res := range r.Results {
		total += res.Yield
	}
	return total
}

// Aggregate combines the yields according to mode
func (r *Report) Aggregate(mode AggregateMode) (int, error) {
	switch mode {
	case AggregateQuality:
		return r.QualityLevel(), nil
	case AggregateProduct:
		return r.MaxYieldProduct(), nil
	case AggregateSum:
		return r.Sum(), nil
	}
	return 0, fmt.Errorf("%w %d", ErrUnknownMode, int(mode))
}

// Complete reports whether every search ran to exhaustion
func (r *Report) Complete() bool {
	for _, res := range r.Results {
		if !res.Complete {
			return false
		}
	}
	return true
}

// Evaluator runs one independent search per blueprint on a bounded pool
type Evaluator struct {
	Options geode.Options
	Workers int // 0 = GOMAXPROCS
	Limit   int // only the first Limit blueprints are evaluated; 0 = all
	Cache   Cache
	Logger  zerolog.Logger
}

// NewEvaluator creates an evaluator with a disabled logger and no cache
func NewEvaluator(opts geode.Options) *Evaluator {
	return &Evaluator{Options: opts, Logger: zerolog.Nop()}
}

// BestTerminalYield returns the maximum terminal yield of one blueprint
func (e *Evaluator) BestTerminalYield(ctx context.Context, bp models.Blueprint) (BlueprintResult, error) {
	if d := e.Options.Deadline; d < 0 || d > models.MaxDeadline {
		return BlueprintResult{}, fmt.Errorf("deadline %d outside 0..%d", d, models.MaxDeadline)
	}
	if err := bp.Validate(); err != nil {
		return BlueprintResult{}, err
	}
	return e.evaluateOne(ctx, bp), nil
}

// Evaluate searches every blueprint (after Limit) and returns the results
// in input order. Blueprints are validated before any search starts.
func (e *Evaluator) Evaluate(ctx context.Context, blueprints []models.Blueprint) (*Report, error) {
	if d := e.Options.Deadline; d < 0 || d > models.MaxDeadline {
		return nil, fmt.Errorf("deadline %d outside 0..%d", d, models.MaxDeadline)
	}
	if e.Limit > 0 && e.Limit < len(blueprints) {
		blueprints = blueprints[:e.Limit]
	}
	for i := range blueprints {
		if err := blueprints[i].Validate(); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	report := &Report{
		Deadline: e.Options.Deadline,
		Results:  make([]BlueprintResult, len(blueprints)),
	}
	if len(blueprints) == 0 {
		return report, nil
	}

	numWorkers := e.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers > len(blueprints) {
		numWorkers = len(blueprints)
	}

	type result struct {
		idx int
		res BlueprintResult
	}
	jobs := make(chan int, len(blueprints))
	for i := range blueprints {
		jobs <- i
	}
	close(jobs)
	results := make(chan result, len(blueprints))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results <- result{idx, e.evaluateOne(ctx, blueprints[idx])}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		report.Results[r.idx] = r.res
	}
	report.Elapsed = time.Since(start)

	e.Logger.Debug().
		Int("blueprints", len(blueprints)).
		Int("workers", numWorkers).
		Dur("elapsed", report.Elapsed).
		Msg("evaluation finished")

	if err := ctx.Err(); err != nil && !report.Complete() {
		return report, fmt.Errorf("evaluation interrupted: %w", err)
	}
	return report, nil
}

func (e *Evaluator) evaluateOne(ctx context.Context, bp models.Blueprint) BlueprintResult {
	start := time.Now()
	log := e.Logger.With().Int("blueprint", bp.ID).Logger()

	var key string
	if e.Cache != nil {
		key = store.Key(bp, e.Options.Deadline)
		entry, ok, err := e.Cache.Get(ctx, key)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("cache read failed")
		case ok:
			log.Debug().Int("yield", entry.Yield).Msg("cache hit")
			return BlueprintResult{
				Blueprint: bp,
				Yield:     entry.Yield,
				Nodes:     entry.Nodes,
				Complete:  true,
				Cached:    true,
				Strategy:  entry.Strategy,
				Plan:      entry.Plan,
				Elapsed:   time.Since(start),
			}
		}
	}

	res := geode.NewSolver(bp, e.Options).Solve(ctx)
	out := BlueprintResult{
		Blueprint: bp,
		Yield:     res.Yield,
		Nodes:     res.Nodes,
		Peak:      res.PeakFrontier,
		Complete:  res.Complete,
		Strategy:  res.Strategy.String(),
		Plan:      res.Best.Plan(),
		Elapsed:   time.Since(start),
	}

	log.Debug().
		Int("yield", out.Yield).
		Int("nodes", out.Nodes).
		Dur("elapsed", out.Elapsed).
		Bool("complete", out.Complete).
		Msg("blueprint solved")

	if e.Cache != nil && out.Complete {
		entry := store.Entry{Yield: out.Yield, Nodes: out.Nodes, Strategy: out.Strategy, Plan: out.Plan}
		if err := e.Cache.Put(ctx, key, entry); err != nil {
			log.Warn().Err(err).Msg("cache write failed")
		}
	}
	return out
}
