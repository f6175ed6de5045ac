// Package pipeline provides the parse -> filter -> emit pipeline shared by
// the CLI and the HTTP service. Centralizing it keeps caching, option
// validation and parallel execution identical across entry points.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{Filter: pipeline.FilterStretch}
//	result, err := runner.Execute(ctx, input, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.Stdout.Write(result.Output)
package pipeline

import (
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/TigerGRBL/gcodeutils/pkg/errors"
	"github.com/TigerGRBL/gcodeutils/pkg/filter"
	"github.com/TigerGRBL/gcodeutils/pkg/filter/arcs"
	"github.com/TigerGRBL/gcodeutils/pkg/filter/relative"
	"github.com/TigerGRBL/gcodeutils/pkg/filter/stretch"
	"github.com/TigerGRBL/gcodeutils/pkg/filter/tempcal"
)

// Filter names accepted by Options.Filter.
const (
	FilterStretch = "stretch"
	FilterTempcal = "tempcal"
	FilterArcs    = "arcs"
	FilterRelext  = "relext"
)

// ValidFilters is the set of runnable filters.
var ValidFilters = map[string]bool{
	FilterStretch: true,
	FilterTempcal: true,
	FilterArcs:    true,
	FilterRelext:  true,
}

// parallelSafe lists the filters whose output over a contiguous layer range
// is independent of the layers outside it, the precondition for the
// fan-out in Runner.
var parallelSafe = map[string]bool{
	FilterArcs: true,
}

// Options configures one pipeline run. The struct serializes to JSON for
// API requests; runtime-only fields are excluded.
type Options struct {
	// Filter selects which rewrite to run.
	Filter string `json:"filter"`

	// Refresh bypasses the cache lookup (the result is still stored).
	Refresh bool `json:"refresh,omitempty"`

	// Workers bounds the layer-range fan-out for filters that support
	// it. Zero means one worker per CPU.
	Workers int `json:"workers,omitempty"`

	// Per-filter options; only the one matching Filter is consulted.
	Stretch stretch.Options `json:"stretch,omitempty"`
	Tempcal tempcal.Options `json:"tempcal,omitempty"`
	Arcs    arcs.Options    `json:"arcs,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies this execution in logs.
	RunID string

	// Output is the filtered program text.
	Output []byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks whether the result came from cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Layers     int
	Lines      int
	ParseTime  time.Duration
	FilterTime time.Duration
}

// CacheInfo tracks the cache disposition of a run.
type CacheInfo struct {
	Hit bool
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// Idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if !ValidFilters[o.Filter] {
		return errors.New(errors.ErrCodeInvalidFilter,
			"unknown filter %q (must be one of: stretch, tempcal, arcs, relext)", o.Filter)
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if !parallelSafe[o.Filter] {
		o.Workers = 1
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// build constructs the selected filter with the run's logger threaded in.
func (o *Options) build() (filter.Filter, error) {
	switch o.Filter {
	case FilterStretch:
		opts := o.Stretch
		if opts.Logger == nil {
			opts.Logger = o.Logger
		}
		return stretch.New(opts), nil
	case FilterTempcal:
		opts := o.Tempcal
		if opts.Logger == nil {
			opts.Logger = o.Logger
		}
		return tempcal.New(opts), nil
	case FilterArcs:
		opts := o.Arcs
		if opts.Logger == nil {
			opts.Logger = o.Logger
		}
		return arcs.New(opts), nil
	case FilterRelext:
		return relative.New(o.Logger), nil
	}
	return nil, errors.New(errors.ErrCodeInvalidFilter, "unknown filter %q", o.Filter)
}

// cacheOpts returns the option set that determines the output, for key
// derivation. Workers and Refresh never change the bytes produced.
func (o *Options) cacheOpts() any {
	switch o.Filter {
	case FilterStretch:
		return o.Stretch
	case FilterTempcal:
		return o.Tempcal
	case FilterArcs:
		return o.Arcs
	}
	return nil
}
