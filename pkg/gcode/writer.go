package gcode

import (
	"math"
	"strconv"
	"strings"

	"github.com/TigerGRBL/gcodeutils/pkg/geometry"
)

// DefaultPrecision is the number of decimal places used when rendering
// rewritten coordinates. Formatting is a policy of output emission, not of
// the algorithms; every filter accepts an override.
const DefaultPrecision = 3

// FormatFloat renders v rounded to the given number of decimal places with
// trailing zeros trimmed, matching the compact convention of the filter
// suite ("1.5" rather than "1.500", "1" rather than "1.000").
func FormatFloat(v float64, precision int) string {
	if precision < 0 {
		precision = DefaultPrecision
	}
	scale := math.Pow10(precision)
	v = math.Round(v*scale) / scale
	if v == 0 {
		// Avoid "-0" after rounding.
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// NewMove builds a linear-move line at the given location. A positive feed
// rate is rendered as an F field; feed <= 0 omits it (no feed rate seen yet).
// The E field of prev, if any, is not repeated: rewritten moves replace only
// the geometry of the move they supersede.
func NewMove(p geometry.Vec2, z, feed float64, precision int) *Line {
	var b strings.Builder
	b.WriteString(CmdMove)
	b.WriteString(" X")
	b.WriteString(FormatFloat(p.X, precision))
	b.WriteString(" Y")
	b.WriteString(FormatFloat(p.Y, precision))
	b.WriteString(" Z")
	b.WriteString(FormatFloat(z, precision))
	if feed > 0 {
		b.WriteString(" F")
		b.WriteString(FormatFloat(feed, precision))
	}

	l := &Line{
		Raw:     b.String(),
		Command: CmdMove,
		X:       p.X,
		Y:       p.Y,
		Z:       z,
		HasX:    true,
		HasY:    true,
		HasZ:    true,
	}
	if feed > 0 {
		l.F, l.HasF = feed, true
	}
	return l
}

// Emitter accumulates output lines in document order, mirroring the layer
// structure of the source program, and owns the feed-rate carry-forward
// shared with the move-rewriting filters: the last explicit F seen on any
// input line is applied to rewritten moves that do not set one.
type Emitter struct {
	prog *Program
	cur  *Layer
	feed float64
}

// NewEmitter returns an emitter for a fresh output program.
func NewEmitter() *Emitter {
	return &Emitter{prog: &Program{}}
}

// StartLayer opens a new output layer with the Z band of src.
func (e *Emitter) StartLayer(src *Layer) {
	e.cur = &Layer{Z: src.Z, HasZ: src.HasZ}
	e.prog.Layers = append(e.prog.Layers, e.cur)
}

// Passthrough appends an input line unchanged, recording its feed rate.
func (e *Emitter) Passthrough(l *Line) {
	if l.HasF {
		e.feed = l.F
	}
	e.cur.Lines = append(e.cur.Lines, l)
}

// Feed records an explicit feed rate without emitting a line.
func (e *Emitter) Feed(f float64) {
	e.feed = f
}

// Move appends a rewritten linear move at p, carrying the last known feed
// rate. The superseded line's explicit F, if any, must already have been
// recorded by the caller via Feed.
func (e *Emitter) Move(p geometry.Vec2, z float64, precision int) {
	e.cur.Lines = append(e.cur.Lines, NewMove(p, z, e.feed, precision))
}

// Program returns the accumulated output program.
func (e *Emitter) Program() *Program {
	return e.prog
}
