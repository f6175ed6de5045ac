package arcs

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/TigerGRBL/gcodeutils/pkg/gcode"
)

func mustParse(t *testing.T, src string) *gcode.Program {
	t.Helper()
	prog, err := gcode.ParseString(src, nil)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	return prog
}

// circleSrc emits a travel to the 180-degree point of a radius-10 circle
// centered at (10,0), then segs extruding segments stepping by step degrees.
// Positive step sweeps counter-clockwise.
func circleSrc(segs int, step float64, feedOnFirst bool) string {
	var b strings.Builder
	b.WriteString("(<layer> 0.2 )\n")
	b.WriteString("G1 X0 Y0 Z0.2 F1200\n")
	for k := 1; k <= segs; k++ {
		th := (180 + step*float64(k)) * math.Pi / 180
		x := 10 + 10*math.Cos(th)
		y := 10 * math.Sin(th)
		if k == 1 && feedOnFirst {
			fmt.Fprintf(&b, "G1 X%.4f Y%.4f E0.1 F900\n", x, y)
		} else {
			fmt.Fprintf(&b, "G1 X%.4f Y%.4f E0.1\n", x, y)
		}
	}
	return b.String()
}

func TestApplyCounterClockwiseArc(t *testing.T) {
	f := New(DefaultOptions())

	out, err := f.Apply(context.Background(), mustParse(t, circleSrc(8, 15, true)))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	want := "(<layer> 0.2 )\n" +
		"G1 X0 Y0 Z0.2 F1200\n" +
		"G3 X15 Y-8.66 I10 J0 E0.8 F900\n"
	if diff := cmp.Diff(want, out.Text()); diff != "" {
		t.Errorf("ccw arc mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyClockwiseArc(t *testing.T) {
	f := New(DefaultOptions())

	out, err := f.Apply(context.Background(), mustParse(t, circleSrc(8, -15, true)))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	want := "(<layer> 0.2 )\n" +
		"G1 X0 Y0 Z0.2 F1200\n" +
		"G2 X15 Y8.66 I10 J0 E0.8 F900\n"
	if diff := cmp.Diff(want, out.Text()); diff != "" {
		t.Errorf("cw arc mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyShortRunUntouched(t *testing.T) {
	f := New(DefaultOptions())

	src := circleSrc(4, 15, false)
	out, err := f.Apply(context.Background(), mustParse(t, src))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Text() != src {
		t.Errorf("run below MinPoints was rewritten:\n%s", out.Text())
	}
}

func TestApplyStraightRunUntouched(t *testing.T) {
	f := New(DefaultOptions())

	var b strings.Builder
	b.WriteString("G1 X0 Y0 Z0.2\n")
	for k := 1; k <= 8; k++ {
		fmt.Fprintf(&b, "G1 X%d Y0 E0.1\n", k)
	}
	src := b.String()

	out, err := f.Apply(context.Background(), mustParse(t, src))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Text() != src {
		t.Errorf("colinear run was rewritten:\n%s", out.Text())
	}
}

func TestApplyWindingReversalUntouched(t *testing.T) {
	f := New(DefaultOptions())

	// Six on-circle segments that sweep out and retrace back: every point
	// passes the radial check but the winding flips halfway.
	var b strings.Builder
	b.WriteString("G1 X0 Y0 Z0.2\n")
	for _, deg := range []float64{195, 210, 225, 240, 225, 210} {
		th := deg * math.Pi / 180
		fmt.Fprintf(&b, "G1 X%.4f Y%.4f E0.1\n", 10+10*math.Cos(th), 10*math.Sin(th))
	}
	src := b.String()

	out, err := f.Apply(context.Background(), mustParse(t, src))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Text() != src {
		t.Errorf("retraced run was rewritten:\n%s", out.Text())
	}
}

func TestApplyRunBrokenByTravel(t *testing.T) {
	f := New(DefaultOptions())

	// A travel in the middle splits the circle into two runs of four,
	// both below MinPoints.
	var b strings.Builder
	b.WriteString("G1 X0 Y0 Z0.2\n")
	for k := 1; k <= 8; k++ {
		th := (180 + 15*float64(k)) * math.Pi / 180
		fmt.Fprintf(&b, "G1 X%.4f Y%.4f E0.1\n", 10+10*math.Cos(th), 10*math.Sin(th))
		if k == 4 {
			b.WriteString("G1 F600\n")
		}
	}
	src := b.String()

	out, err := f.Apply(context.Background(), mustParse(t, src))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Text() != src {
		t.Errorf("split runs were rewritten:\n%s", out.Text())
	}
}
