// Package arcs detects runs of short linear moves lying on a common circle
// and replaces each run with a single G2/G3 arc command. Slicers discretize
// curved walls into many tiny G1 segments; collapsing them shrinks the
// program and lets the firmware plan one smooth motion instead of dozens of
// junctions.
//
// The filter expects relative extrusion (see the relative package): the arc
// command's E field is the sum of the segment deltas it replaces.
package arcs

import (
	"context"
	"math"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/TigerGRBL/gcodeutils/pkg/gcode"
	"github.com/TigerGRBL/gcodeutils/pkg/geometry"
)

// CmdArcCW and CmdArcCCW are the arc move commands emitted by the filter.
const (
	CmdArcCW  = "G2"
	CmdArcCCW = "G3"
)

const ePrecision = 5

// Options configures arc detection.
type Options struct {
	// MinPoints is the minimum number of consecutive segments a run needs
	// before an arc replacement is attempted.
	MinPoints int `json:"min_points"`

	// Tolerance is the maximum radial deviation, in mm, of any run point
	// from the fitted circle.
	Tolerance float64 `json:"tolerance"`

	// Precision is the number of decimal places for emitted coordinates.
	Precision int `json:"precision"`

	Logger *log.Logger `json:"-"`
}

// DefaultOptions returns detection thresholds tight enough that only
// genuinely circular geometry is rewritten.
func DefaultOptions() Options {
	return Options{
		MinPoints: 6,
		Tolerance: 0.02,
		Precision: gcode.DefaultPrecision,
	}
}

// Filter replaces circular G1 runs with arc commands.
type Filter struct {
	opts Options
}

// New creates an arcs filter with the given options.
func New(opts Options) *Filter {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Precision == 0 {
		opts.Precision = gcode.DefaultPrecision
	}
	return &Filter{opts: opts}
}

// Name implements filter.Filter.
func (f *Filter) Name() string { return "arcs" }

// run is a maximal sequence of candidate segments plus the anchor point the
// first segment starts from.
type run struct {
	lines  []*gcode.Line
	points []geometry.Vec2
}

func (r *run) reset() {
	r.lines = r.lines[:0]
	r.points = r.points[:0]
}

// Apply scans each layer for maximal runs of extruding XY moves. A run long
// enough to matter is fitted against the circle through its first, middle
// and last points; if every point stays within the radial tolerance and the
// winding never reverses, the whole run becomes one G2 or G3. Anything else
// passes through untouched.
func (f *Filter) Apply(ctx context.Context, prog *gcode.Program) (*gcode.Program, error) {
	replaced := 0

	em := gcode.NewEmitter()
	var prev *gcode.Line
	var r run
	flush := func() {
		if arc, ok := f.fit(&r); ok {
			em.Passthrough(arc)
			replaced++
		} else {
			for _, l := range r.lines {
				em.Passthrough(l)
			}
		}
		r.reset()
	}

	for _, layer := range prog.Layers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		em.StartLayer(layer)

		for _, line := range layer.Lines {
			if candidate(line) {
				if len(r.lines) == 0 {
					anchor := geometry.Vec2{}
					if prev != nil {
						anchor = prev.Point()
					}
					r.points = append(r.points, anchor)
				}
				r.lines = append(r.lines, line)
				r.points = append(r.points, line.Point())
			} else {
				flush()
				em.Passthrough(line)
			}
			prev = line
		}
		flush()
	}

	f.opts.Logger.Debug("arc pass complete", "arcs", replaced)
	return em.Program(), nil
}

// candidate reports whether a line can join an arc run: an extruding move in
// the layer plane. A move that changes Z breaks the run.
func candidate(line *gcode.Line) bool {
	return line.IsMove() && line.HasE && !line.HasZ && (line.HasX || line.HasY)
}

// fit attempts to replace the run with a single arc command.
func (f *Filter) fit(r *run) (*gcode.Line, bool) {
	if len(r.lines) < f.opts.MinPoints {
		return nil, false
	}
	pts := r.points

	circle, ok := geometry.CircleThrough(pts[0], pts[len(pts)/2], pts[len(pts)-1])
	if !ok {
		return nil, false
	}
	for _, p := range pts {
		if math.Abs(p.Sub(circle.Center).Length()-circle.Radius) > f.opts.Tolerance {
			return nil, false
		}
	}

	// All segments must sweep the same way around the center.
	first := 0.0
	for i := 0; i+1 < len(pts); i++ {
		cr := pts[i].Sub(circle.Center).Cross(pts[i+1].Sub(circle.Center))
		if cr == 0 || (first != 0 && (cr > 0) != (first > 0)) {
			return nil, false
		}
		if first == 0 {
			first = cr
		}
	}

	return f.arcLine(r, circle, first < 0), true
}

// arcLine renders the replacement command. I and J are the center offsets
// from the run's start point; E sums the segment deltas; the first explicit
// feed rate in the run, if any, is preserved.
func (f *Filter) arcLine(r *run, circle geometry.Circle, clockwise bool) *gcode.Line {
	cmd := CmdArcCCW
	if clockwise {
		cmd = CmdArcCW
	}

	start := r.points[0]
	end := r.points[len(r.points)-1]
	offset := circle.Center.Sub(start)

	sumE := 0.0
	feed := 0.0
	for _, l := range r.lines {
		sumE += l.E
		if feed == 0 && l.HasF {
			feed = l.F
		}
	}

	var b strings.Builder
	b.WriteString(cmd)
	b.WriteString(" X")
	b.WriteString(gcode.FormatFloat(end.X, f.opts.Precision))
	b.WriteString(" Y")
	b.WriteString(gcode.FormatFloat(end.Y, f.opts.Precision))
	b.WriteString(" I")
	b.WriteString(gcode.FormatFloat(offset.X, f.opts.Precision))
	b.WriteString(" J")
	b.WriteString(gcode.FormatFloat(offset.Y, f.opts.Precision))
	b.WriteString(" E")
	b.WriteString(gcode.FormatFloat(sumE, ePrecision))
	if feed > 0 {
		b.WriteString(" F")
		b.WriteString(gcode.FormatFloat(feed, f.opts.Precision))
	}

	last := r.lines[len(r.lines)-1]
	line := &gcode.Line{
		Raw:     b.String(),
		Command: cmd,
		X:       end.X,
		Y:       end.Y,
		Z:       last.Z,
		E:       sumE,
		HasX:    true,
		HasY:    true,
		HasE:    true,
	}
	if feed > 0 {
		line.F, line.HasF = feed, true
	}
	return line
}
