package stretch

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/TigerGRBL/gcodeutils/pkg/gcode"
	"github.com/TigerGRBL/gcodeutils/pkg/geometry"
)

func parseLines(t *testing.T, src string) []*gcode.Line {
	t.Helper()
	var lines []*gcode.Line
	var prev *gcode.Line
	for _, raw := range strings.Split(strings.TrimSpace(src), "\n") {
		line, err := gcode.ParseLine(strings.TrimSpace(raw), prev)
		if err != nil {
			t.Fatalf("ParseLine(%q): %v", raw, err)
		}
		lines = append(lines, line)
		prev = line
	}
	return lines
}

// squareLoop is a closed unit square: a travel move to the start corner,
// extruder on, three edges plus the closing move, extruder off.
//
//	0: (<edge> inner )
//	1: G1 X0 Y0 Z0.3
//	2: M101
//	3: G1 X1 Y0
//	4: G1 X1 Y1
//	5: G1 X0 Y1
//	6: G1 X0 Y0
//	7: M103
//	8: (</edge>)
func squareLoop(t *testing.T) []*gcode.Line {
	t.Helper()
	return parseLines(t, `
		(<edge> inner )
		G1 X0 Y0 Z0.3
		M101
		G1 X1 Y0
		G1 X1 Y1
		G1 X0 Y1
		G1 X0 Y0
		M103
		(</edge>)
	`)
}

// collect drains a cursor into the points it yields, failing the test if it
// does not exhaust within max calls.
func collect(t *testing.T, c *cursor, max int) []geometry.Vec2 {
	t.Helper()
	var points []geometry.Vec2
	for i := 0; i <= max; i++ {
		line, err := c.next()
		if err == errExhausted {
			return points
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		points = append(points, line.Point())
	}
	t.Fatalf("cursor did not exhaust within %d calls, yielded %v", max, points)
	return nil
}

func TestCursorForwardNonLoop(t *testing.T) {
	lines := squareLoop(t)
	c := newCursor(lines, 4, false, 1)

	got := collect(t, c, 10)
	want := []geometry.Vec2{{X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("forward non-loop points mismatch (-want +got):\n%s", diff)
	}
}

func TestCursorForwardStopsAtDeactivate(t *testing.T) {
	lines := squareLoop(t)
	c := newCursor(lines, 6, false, 1)

	got := collect(t, c, 10)
	want := []geometry.Vec2{{X: 0, Y: 0}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("points mismatch (-want +got):\n%s", diff)
	}
}

func TestCursorForwardLoopWrap(t *testing.T) {
	lines := squareLoop(t)
	c := newCursor(lines, 6, true, 1)

	// The closing move comes first, then the wrap lands just after M101 and
	// replays the loop until the starting index comes around again.
	got := collect(t, c, 10)
	want := []geometry.Vec2{
		{X: 0, Y: 0},
		{X: 1, Y: 0},
		{X: 1, Y: 1},
		{X: 0, Y: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("forward loop points mismatch (-want +got):\n%s", diff)
	}
}

func TestCursorBackwardLoopWrap(t *testing.T) {
	lines := squareLoop(t)
	c := newCursor(lines, 2, true, -1)

	// Walking backward from M101: the travel move immediately before it is
	// geometry, then the wrap re-enters just before the closing move.
	got := collect(t, c, 10)
	want := []geometry.Vec2{
		{X: 0, Y: 0},
		{X: 0, Y: 1},
		{X: 1, Y: 1},
		{X: 1, Y: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("backward loop points mismatch (-want +got):\n%s", diff)
	}
}

func TestCursorBackwardNonLoop(t *testing.T) {
	lines := squareLoop(t)
	c := newCursor(lines, 5, false, -1)

	got := collect(t, c, 10)
	want := []geometry.Vec2{
		{X: 0, Y: 1},
		{X: 1, Y: 1},
		{X: 1, Y: 0},
		{X: 0, Y: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("backward non-loop points mismatch (-want +got):\n%s", diff)
	}
}

func TestCursorBackwardApproachBoundary(t *testing.T) {
	// Two travel moves before the extruder activates. The one adjacent to
	// M101 is part of the thread; anything before it is a boundary.
	lines := parseLines(t, `
		G1 X-1 Y0 Z0.3
		G1 X0 Y0
		M101
		G1 X1 Y0
		M103
	`)
	c := newCursor(lines, 1, false, -1)

	got := collect(t, c, 10)
	want := []geometry.Vec2{{X: 0, Y: 0}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("points mismatch (-want +got):\n%s", diff)
	}
}

func TestCursorBackwardNoExtruderCommands(t *testing.T) {
	// Without M101/M103 anywhere ahead, every move counts as geometry.
	lines := parseLines(t, `
		G1 X1 Y0 Z0.3
		G1 X2 Y0
	`)
	c := newCursor(lines, 1, false, -1)

	got := collect(t, c, 10)
	want := []geometry.Vec2{{X: 2, Y: 0}, {X: 1, Y: 0}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("points mismatch (-want +got):\n%s", diff)
	}
}

func TestCursorLoopTermination(t *testing.T) {
	lines := squareLoop(t)
	moves := 0
	for _, line := range lines {
		if line.IsMove() {
			moves++
		}
	}

	// Cursors start adjacent to a thread move, the way the engine builds
	// them. Each must exhaust within moves+1 calls regardless of direction.
	for _, i := range []int{1, 3, 4, 5, 6} {
		for _, dir := range []int{1, -1} {
			c := newCursor(lines, i+dir, true, dir)
			calls := 0
			for {
				calls++
				if calls > moves+1 {
					t.Fatalf("cursor(start=%d, dir=%d) still running after %d calls", i+dir, dir, calls)
				}
				if _, err := c.next(); err == errExhausted {
					break
				}
			}
		}
	}
}
