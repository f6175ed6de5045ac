package pipeline

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/TigerGRBL/gcodeutils/pkg/cache"
	"github.com/TigerGRBL/gcodeutils/pkg/errors"
	"github.com/TigerGRBL/gcodeutils/pkg/filter"
	"github.com/TigerGRBL/gcodeutils/pkg/gcode"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store run results. Multiple goroutines can safely share one Runner with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// A nil keyer means the default key scheme; a nil cache disables caching.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs the complete parse -> filter -> emit pipeline over input
// with caching. Every filter is deterministic, so a cache hit is returned
// as-is without parsing.
func (r *Runner) Execute(ctx context.Context, input []byte, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{RunID: uuid.NewString()}
	logger := opts.Logger.With("run", result.RunID, "filter", opts.Filter)

	key := r.Keyer.FilterKey(opts.Filter, cache.Hash(input), opts.cacheOpts())
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			logger.Debug("cache hit")
			result.Output = data
			result.CacheInfo.Hit = true
			return result, nil
		}
	}

	parseStart := time.Now()
	prog, err := gcode.Parse(bytes.NewReader(input), logger)
	if err != nil {
		return nil, err
	}
	result.Stats.ParseTime = time.Since(parseStart)
	result.Stats.Layers = len(prog.Layers)
	result.Stats.Lines = prog.NumLines()

	f, err := opts.build()
	if err != nil {
		return nil, err
	}

	filterStart := time.Now()
	var out *gcode.Program
	if opts.Workers > 1 && len(prog.Layers) > 1 {
		out, err = r.runParallel(ctx, f, prog, opts.Workers)
	} else {
		out, err = f.Apply(ctx, prog)
	}
	if err != nil {
		return nil, err
	}
	result.Stats.FilterTime = time.Since(filterStart)

	result.Output = []byte(out.Text())
	_ = r.Cache.Set(ctx, key, result.Output, cache.TTLResult)

	logger.Info("pipeline run complete",
		"layers", result.Stats.Layers,
		"lines", result.Stats.Lines,
		"parse", result.Stats.ParseTime,
		"filter", result.Stats.FilterTime)
	return result, nil
}

// runParallel fans the program out over contiguous layer ranges, one
// goroutine per range, and concatenates the filtered ranges in order.
// Callers guarantee the filter treats layer ranges independently.
func (r *Runner) runParallel(ctx context.Context, f filter.Filter, prog *gcode.Program, workers int) (*gcode.Program, error) {
	n := len(prog.Layers)
	if workers > n {
		workers = n
	}
	per := (n + workers - 1) / workers
	chunks := (n + per - 1) / per

	outs := make([]*gcode.Program, chunks)
	errs := make([]error, chunks)

	var wg sync.WaitGroup
	for i := 0; i < chunks; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from := i * per
			to := min(from+per, n)
			outs[i], errs[i] = f.Apply(ctx, prog.Slice(from, to))
		}(i)
	}
	wg.Wait()

	merged := &gcode.Program{}
	for i := 0; i < chunks; i++ {
		if errs[i] != nil {
			return nil, errors.Wrap(errors.GetCode(errs[i]), errs[i],
				"layer range %d-%d", i*per, min((i+1)*per, n))
		}
		merged.Layers = append(merged.Layers, outs[i].Layers...)
	}
	return merged, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
