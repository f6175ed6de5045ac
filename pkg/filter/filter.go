// Package filter defines the contract shared by all toolpath rewrites.
//
// A Filter consumes a parsed program and returns a rewritten one. Filters are
// independent passes over the same program model and may be chained in any
// order; each treats its input as read-only and emits new lines for anything
// it changes.
//
// Filters must operate correctly on an arbitrary contiguous sub-range of
// layers as if it were a complete program. The pipeline relies on this to
// fan a program out across workers and concatenate the results.
package filter

import (
	"context"

	"github.com/TigerGRBL/gcodeutils/pkg/gcode"
)

// Filter rewrites a program. Implementations are deterministic: the same
// input and options always produce the same output.
type Filter interface {
	// Name identifies the filter in logs, cache keys, and the HTTP API.
	Name() string

	// Apply runs the filter over prog and returns the rewritten program.
	// prog is never mutated. The context is checked between layers; a
	// cancelled context abandons the run.
	Apply(ctx context.Context, prog *gcode.Program) (*gcode.Program, error)
}
