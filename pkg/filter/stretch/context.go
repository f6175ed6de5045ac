// Package stretch implements stretch compensation for extruded toolpaths.
//
// Printed holes and corners come out smaller and sharper than designed
// because filament contracts after deposition. This filter nudges each
// qualifying linear-move endpoint sideways by an amount derived from the
// local path curvature: tangent directions are estimated a fixed arc-length
// ahead of and behind the move, their sum approximates the outward normal,
// and the result is cross-limited near geometrically close neighbors so the
// rewritten path cannot self-intersect. Timing-critical commands (extruder
// activation, feed rates) pass through untouched.
//
// All distances scale with the edge width declared in the program preamble;
// the per-feature ratios in Options are the tuning surface.
package stretch

import (
	"github.com/charmbracelet/log"
)

// DefaultEdgeWidth is assumed when the preamble declares no edge width.
const DefaultEdgeWidth = 0.4

// Options is the configuration surface of the stretch filter. All ratios are
// relative to the edge width discovered in the input.
type Options struct {
	// Activate gates the whole filter; when false the program passes
	// through unchanged.
	Activate bool `json:"activate"`

	// Maximum stretch per feature kind, as a ratio of edge width.
	LoopRatio        float64 `json:"loop_ratio"`
	PathRatio        float64 `json:"path_ratio"`
	EdgeInsideRatio  float64 `json:"edge_inside_ratio"`
	EdgeOutsideRatio float64 `json:"edge_outside_ratio"`

	// CrossLimitRatio scales the distance within which stretch is
	// suppressed near neighboring points.
	CrossLimitRatio float64 `json:"cross_limit_ratio"`

	// LookaheadRatio scales the arc-length at which tangent directions
	// are sampled on both sides of a move.
	LookaheadRatio float64 `json:"lookahead_ratio"`

	// Precision is the number of decimal places for rewritten coordinates.
	Precision int `json:"precision"`

	Logger *log.Logger `json:"-"`
}

// DefaultOptions returns the tuning that works for most printers. The inside
// edge ratio dominates hole accuracy; the others rarely need adjustment.
func DefaultOptions() Options {
	return Options{
		Activate:         true,
		LoopRatio:        0.11,
		PathRatio:        0.0,
		EdgeInsideRatio:  0.32,
		EdgeOutsideRatio: 0.1,
		CrossLimitRatio:  5.0,
		LookaheadRatio:   2.0,
		Precision:        3,
	}
}

// thresholds holds the absolute distances derived once per program from the
// edge width. All values are non-negative; lookahead is positive whenever
// stretching is active.
type thresholds struct {
	lookahead float64

	crossLimit     float64
	crossFraction  float64 // below this, neighbor comparison is unreliable
	crossRemainder float64 // ramp width between fraction and limit

	loopMax        float64
	pathMax        float64
	edgeInsideMax  float64
	edgeOutsideMax float64
}

func newThresholds(opts Options, edgeWidth float64) thresholds {
	cross := edgeWidth * opts.CrossLimitRatio
	fraction := cross / 3
	return thresholds{
		lookahead:      edgeWidth * opts.LookaheadRatio,
		crossLimit:     cross,
		crossFraction:  fraction,
		crossRemainder: cross - fraction,
		loopMax:        edgeWidth * opts.LoopRatio,
		pathMax:        edgeWidth * opts.PathRatio,
		edgeInsideMax:  edgeWidth * opts.EdgeInsideRatio,
		edgeOutsideMax: edgeWidth * opts.EdgeOutsideRatio,
	}
}

// maxFor returns the maximum absolute stretch for a feature kind.
func (t thresholds) maxFor(f Feature) float64 {
	switch f {
	case FeatureLoop:
		return t.loopMax
	case FeatureInnerEdge:
		return t.edgeInsideMax
	case FeatureOuterEdge:
		return t.edgeOutsideMax
	default:
		return t.pathMax
	}
}
