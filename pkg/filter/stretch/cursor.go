package stretch

import (
	"errors"

	"github.com/TigerGRBL/gcodeutils/pkg/gcode"
)

// errExhausted is the internal control-flow signal raised when a cursor runs
// out of qualifying moves. It is consumed by the stretch computation (which
// falls back to the last-known tangent) and never propagates further.
var errExhausted = errors.New("traversal exhausted")

// cursor walks the line sequence of one layer in a fixed direction,
// returning only linear moves and honoring loop boundaries. Forward and
// backward traversal share this implementation; dir is +1 or -1 and the
// boundary rules mirror accordingly:
//
//   - Revisiting the index where traversal started signals exhaustion, so a
//     closed loop is walked at most once.
//   - Crossing an extruder-off boundary ends a non-loop traversal. In a
//     loop, a forward cursor wraps to just after the activate command and a
//     backward cursor wraps to two lines before the next deactivate (the
//     closing move of a loop revisits its first vertex, so the wrap lands on
//     the last distinct one).
//   - A backward cursor reaching a move that precedes the thread's first
//     extruded move treats it like the boundary itself: dry travel moves are
//     not part of the shape's geometry.
//
// A cursor is owned by exactly one stretch computation and never shared.
type cursor struct {
	lines []*gcode.Line
	idx   int
	loop  bool
	dir   int

	started  bool
	startIdx int

	returned  bool
	firstMove int
}

func newCursor(lines []*gcode.Line, start int, loop bool, dir int) *cursor {
	return &cursor{lines: lines, idx: start, loop: loop, dir: dir}
}

// next returns the next qualifying linear move, or errExhausted.
//
// Exhaustion on revisit is checked against both the starting index and the
// index of the first returned move. The start index alone is not enough: a
// cursor whose start lies outside the activate/deactivate span (the forward
// cursor of an approach move) wraps into a cycle that never revisits it, and
// the first returned move always lies inside the cycle.
func (c *cursor) next() (*gcode.Line, error) {
	if c.dir < 0 && c.idx < 1 && c.loop {
		wrapped, ok := c.beforeDeactivate(c.idx)
		if !ok {
			return nil, errExhausted
		}
		c.idx = wrapped
	}

	for c.idx >= 0 && c.idx < len(c.lines) {
		if c.started && c.idx == c.startIdx {
			return nil, errExhausted
		}
		if c.returned && c.idx == c.firstMove {
			return nil, errExhausted
		}
		if !c.started {
			c.started = true
			c.startIdx = c.idx
		}

		line := c.lines[c.idx]
		next := c.idx + c.dir

		switch {
		case line.Command == gcode.CmdExtruderOff:
			if !c.loop {
				return nil, errExhausted
			}
			var ok bool
			if c.dir > 0 {
				next, ok = c.afterActivate(c.idx)
			} else {
				next, ok = c.beforeDeactivate(c.idx)
			}
			if !ok {
				return nil, errExhausted
			}

		case line.IsMove():
			if c.dir < 0 && c.beforeExtrusion(c.idx) {
				if !c.loop {
					return nil, errExhausted
				}
				var ok bool
				next, ok = c.beforeDeactivate(c.idx)
				if !ok {
					return nil, errExhausted
				}
			} else {
				if !c.returned {
					c.returned = true
					c.firstMove = c.idx
				}
				c.idx = next
				return line, nil
			}
		}

		c.idx = next
	}
	return nil, errExhausted
}

// afterActivate scans backward from i for the extruder-activate command and
// returns the index just after it: the start of the current loop thread.
func (c *cursor) afterActivate(i int) (int, bool) {
	for j := i - 1; j >= 1; j-- {
		if c.lines[j].Command == gcode.CmdExtruderOn {
			return j + 1, true
		}
	}
	return 0, false
}

// beforeDeactivate scans forward from i for the extruder-deactivate command
// and returns the index two lines before it: the last distinct vertex of the
// current loop thread.
func (c *cursor) beforeDeactivate(i int) (int, bool) {
	for j := i + 1; j < len(c.lines); j++ {
		if c.lines[j].Command == gcode.CmdExtruderOff {
			return j - 2, true
		}
	}
	return 0, false
}

// beforeExtrusion reports whether the move at i lies before the thread's
// extrusion begins: scanning ahead, an activate command appears with at
// least one other move in between. The move immediately preceding the
// activate is the approach that positions the head on the thread's first
// vertex and counts as geometry. When neither an activate nor a deactivate
// command is found ahead, the move is permissively treated as part of the
// thread.
func (c *cursor) beforeExtrusion(i int) bool {
	moves := 0
	for j := i + 1; j < len(c.lines); j++ {
		switch {
		case c.lines[j].IsMove():
			moves++
		case c.lines[j].Command == gcode.CmdExtruderOn:
			return moves > 0
		case c.lines[j].Command == gcode.CmdExtruderOff:
			return false
		}
	}
	return false
}
