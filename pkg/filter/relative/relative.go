// Package relative rewrites absolute extruder coordinates into relative
// deltas. Arc fitting and other geometry rewrites need per-segment extrusion
// amounts; converting the whole program up front keeps them trivial to sum.
package relative

import (
	"context"
	"regexp"

	"github.com/charmbracelet/log"

	"github.com/TigerGRBL/gcodeutils/pkg/gcode"
)

var eFieldRe = regexp.MustCompile(`[Ee]-?[0-9.]+`)

// EPrecision is the number of decimal places for rewritten extrusion deltas.
// Extrusion amounts are an order of magnitude smaller than travel distances
// and need the extra digits.
const EPrecision = 5

// Filter converts a program from absolute to relative extrusion.
type Filter struct {
	logger *log.Logger
}

// New creates a relative-extrusion filter.
func New(logger *log.Logger) *Filter {
	if logger == nil {
		logger = log.Default()
	}
	return &Filter{logger: logger}
}

// Name implements filter.Filter.
func (f *Filter) Name() string { return "relext" }

// Apply emits an M83 preamble and rewrites the E field of every move to the
// delta against the previous absolute position. G92 resets the reference;
// an M82 encountered mid-program is replaced by M83 so the converted stream
// stays consistent. A program already in relative mode passes through
// unchanged.
func (f *Filter) Apply(ctx context.Context, prog *gcode.Program) (*gcode.Program, error) {
	relative := false
	lastE := 0.0
	rewritten := 0

	em := gcode.NewEmitter()
	for li, layer := range prog.Layers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		em.StartLayer(layer)
		if li == 0 {
			em.Passthrough(&gcode.Line{Raw: "M83", Command: "M83"})
		}

		for _, line := range layer.Lines {
			switch {
			case line.Command == "M83":
				relative = true
				em.Passthrough(line)

			case line.Command == "M82":
				// The stream downstream of us is relative now.
				f.logger.Debug("replacing M82 with M83")
				relative = false
				lastE = line.E
				em.Passthrough(&gcode.Line{Raw: "M83", Command: "M83"})

			case line.Command == gcode.CmdSetPosition:
				if line.HasE {
					lastE = line.E
				} else {
					lastE = 0
				}
				em.Passthrough(line)

			case line.IsMove() && line.HasE && !relative:
				delta := line.E - lastE
				lastE = line.E
				em.Passthrough(rewriteE(line, delta))
				rewritten++

			default:
				em.Passthrough(line)
			}
		}
	}

	f.logger.Debug("relative extrusion pass complete", "moves", rewritten)
	return em.Program(), nil
}

// rewriteE returns a copy of a move with its E field replaced by delta.
// Only the first occurrence is touched: the command fields precede any
// comment, so a stray E inside a trailing comment survives.
func rewriteE(line *gcode.Line, delta float64) *gcode.Line {
	out := *line
	if loc := eFieldRe.FindStringIndex(line.Raw); loc != nil {
		out.Raw = line.Raw[:loc[0]] + "E" + gcode.FormatFloat(delta, EPrecision) + line.Raw[loc[1]:]
	}
	out.E = delta
	return &out
}
