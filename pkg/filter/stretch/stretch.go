package stretch

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/TigerGRBL/gcodeutils/pkg/gcode"
	"github.com/TigerGRBL/gcodeutils/pkg/geometry"
)

// damping applied to the summed tangent estimates to avoid overshoot.
const damping = 0.8

// Filter applies stretch compensation to a program.
type Filter struct {
	opts Options
}

// New creates a stretch filter with the given options.
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
func (f *Filter) Name() string { return "stretch" }

// Apply rewrites every qualifying linear move in prog. A move qualifies when
// extrusion is on (or turns on before the next move) and the active feature
// has a positive maximum stretch; everything else passes through verbatim.
//
// The pass is strictly sequential: one scan over the document, with the
// feature state machine and feed-rate carry threaded through it.
func (f *Filter) Apply(ctx context.Context, prog *gcode.Program) (*gcode.Program, error) {
	if !f.opts.Activate {
		return prog, nil
	}

	th := newThresholds(f.opts, DefaultEdgeWidth)
	track := Tracker{}
	initDone := false
	stretched := 0

	em := gcode.NewEmitter()
	for _, layer := range prog.Layers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		em.StartLayer(layer)

		for i, line := range layer.Lines {
			if !initDone {
				if w, ok := line.EdgeWidth(); ok {
					th = newThresholds(f.opts, w)
					f.opts.Logger.Debug("edge width declared", "width", w)
				}
				if line.IsInitEnd() {
					initDone = true
				}
				em.Passthrough(line)
				continue
			}

			if !line.IsMove() {
				track = track.Next(line)
				em.Passthrough(line)
				continue
			}

			maxStretch := th.maxFor(track.Feature)
			qualifies := maxStretch > 0 &&
				(track.Extruding || justBeforeExtrusion(layer.Lines, i))
			if !qualifies {
				em.Passthrough(line)
				continue
			}

			if line.HasF {
				em.Feed(line.F)
			}
			p := stretchPoint(layer.Lines, i, line.Point(), track.Loop, th, maxStretch)
			em.Move(p, line.Z, f.opts.Precision)
			stretched++
		}
	}

	f.opts.Logger.Debug("stretch pass complete", "moves", stretched)
	return em.Program(), nil
}

// stretchPoint computes the replacement endpoint for the move at index i.
func stretchPoint(lines []*gcode.Line, i int, loc geometry.Vec2, loop bool, th thresholds, maxStretch float64) geometry.Vec2 {
	fwd := newCursor(lines, i+1, loop, +1)
	back := newCursor(lines, i-1, loop, -1)
	rel := tangentEstimate(fwd, loc, th.lookahead).
		Add(tangentEstimate(back, loc, th.lookahead)).
		Scale(damping)

	// Cross-limiting uses its own cursors: it inspects the single nearest
	// move on each side rather than walking a distance.
	rel = crossLimit(rel, newCursor(lines, i+1, loop, +1), loc, th)
	rel = crossLimit(rel, newCursor(lines, i-1, loop, -1), loc, th)

	if l := rel.Length(); l > 1 {
		rel = rel.Scale(1 / l)
	}
	return loc.Add(rel.Scale(maxStretch))
}

// tangentEstimate walks the cursor until the accumulated path length reaches
// the lookahead distance, interpolates the point at exactly that distance
// along the last segment, and returns the direction from there back toward
// loc, scaled by the lookahead (magnitude at most 1). If the cursor exhausts
// first, the direction toward the last visited point is used instead, or the
// zero vector if nothing was visited.
func tangentEstimate(c *cursor, loc geometry.Vec2, lookahead float64) geometry.Vec2 {
	last := loc
	point := loc
	oldTotal := 0.0
	total := 0.0

	for {
		line, err := c.next()
		if err != nil {
			return loc.Sub(point).Normalize()
		}
		point = line.Point()
		seg := last.Sub(point).Length()
		total += seg
		if total >= lookahead {
			t := (lookahead - oldTotal) / seg
			at := geometry.Lerp(last, point, t)
			return loc.Sub(at).Scale(1 / lookahead)
		}
		last = point
		oldTotal = total
	}
}

// crossLimit suppresses the component of stretch perpendicular to the
// direction toward the first point the cursor yields. Nearby geometry must
// not be pushed into: past the cross-limit distance only the parallel
// component survives; between one third of that distance and the full
// distance, the perpendicular component ramps linearly to zero; below one
// third the comparison is unreliable and stretch is left unchanged.
func crossLimit(stretch geometry.Vec2, c *cursor, loc geometry.Vec2, th thresholds) geometry.Vec2 {
	line, err := c.next()
	if err != nil {
		return stretch
	}

	delta := loc.Sub(line.Point())
	dist := delta.Length()
	if dist <= th.crossFraction {
		return stretch
	}

	parallel := delta.Scale(1 / dist)
	parallelStretch := parallel.Scale(parallel.Dot(stretch))
	if dist > th.crossLimit {
		return parallelStretch
	}

	cross := parallel.Perp()
	crossStretch := cross.Scale(cross.Dot(stretch))
	portion := (th.crossLimit - dist) / th.crossRemainder
	return parallelStretch.Add(crossStretch.Scale(portion))
}

// justBeforeExtrusion reports whether the extruder activates before the next
// move or deactivate in the layer: the current move is the approach onto a
// thread's first vertex and is stretched with it.
func justBeforeExtrusion(lines []*gcode.Line, i int) bool {
	for _, line := range lines[i+1:] {
		if line.IsMove() || line.Command == gcode.CmdExtruderOff {
			return false
		}
		if line.Command == gcode.CmdExtruderOn {
			return true
		}
	}
	return false
}
