package gcode

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/TigerGRBL/gcodeutils/pkg/errors"
	"github.com/TigerGRBL/gcodeutils/pkg/geometry"
)

const layeredProgram = `; preamble
G21
(<layer> 0.3 )
M101
G1 X1 Y1 E1
M103
(<layer> 0.6 )
M101
G1 X2 Y2 E2
M103
(<layer> 0.9 )
G1 X3 Y3
`

func mustParse(t *testing.T, text string) *Program {
	t.Helper()
	prog, err := ParseString(text, nil)
	if err != nil {
		t.Fatalf("ParseString error: %v", err)
	}
	return prog
}

func TestParseLayers(t *testing.T) {
	prog := mustParse(t, layeredProgram)

	if len(prog.Layers) != 4 {
		t.Fatalf("layers = %d, want 4 (preamble + 3)", len(prog.Layers))
	}
	if prog.Layers[0].HasZ {
		t.Error("preamble layer should have no Z")
	}
	for i, want := range []float64{0.3, 0.6, 0.9} {
		layer := prog.Layers[i+1]
		if !layer.HasZ || layer.Z != want {
			t.Errorf("layer %d Z = (%v, %v), want (%v, true)", i+1, layer.Z, layer.HasZ, want)
		}
	}
	if !prog.Layers[1].Extrudes() {
		t.Error("layer 1 should extrude")
	}
	if prog.Layers[3].Extrudes() {
		t.Error("layer 3 has no extrusion")
	}
}

func TestTextRoundTrip(t *testing.T) {
	prog := mustParse(t, layeredProgram)
	if diff := cmp.Diff(layeredProgram, prog.Text()); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWrite(t *testing.T) {
	prog := mustParse(t, layeredProgram)
	var b strings.Builder
	if err := prog.Write(&b); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if b.String() != layeredProgram {
		t.Error("Write output differs from Text")
	}
}

func TestSlice(t *testing.T) {
	prog := mustParse(t, layeredProgram)
	sub := prog.Slice(1, 3)
	if len(sub.Layers) != 2 {
		t.Fatalf("sub layers = %d, want 2", len(sub.Layers))
	}
	if sub.Layers[0].Z != 0.3 || sub.Layers[1].Z != 0.6 {
		t.Errorf("sub layer heights = %v, %v", sub.Layers[0].Z, sub.Layers[1].Z)
	}
	// Concatenating the slices reproduces the original text.
	joined := prog.Slice(0, 1).Text() + prog.Slice(1, 3).Text() + prog.Slice(3, 4).Text()
	if joined != prog.Text() {
		t.Error("slice concatenation differs from full program")
	}
}

func TestBounds(t *testing.T) {
	prog := mustParse(t, layeredProgram)
	zmin, zmax, err := prog.Bounds(0.1)
	if err != nil {
		t.Fatalf("Bounds error: %v", err)
	}
	if zmin != 0.3 || zmax != 0.6 {
		t.Errorf("Bounds = (%v, %v), want (0.3, 0.6)", zmin, zmax)
	}
}

func TestBoundsInsufficientHeight(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{
			name: "single extruding layer",
			text: "(<layer> 0.3 )\nM101\nG1 X1 E1\nM103\n",
		},
		{
			name: "no extrusion at all",
			text: "(<layer> 0.3 )\nG1 X1\n(<layer> 0.6 )\nG1 X2\n",
		},
		{
			name: "all below threshold",
			text: "(<layer> 0.05 )\nM101\nG1 X1 E1\nM103\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := mustParse(t, tt.text)
			_, _, err := prog.Bounds(0.1)
			if err == nil {
				t.Fatal("expected INSUFFICIENT_HEIGHT")
			}
			if !errors.Is(err, errors.ErrCodeInsufficientHeight) {
				t.Errorf("error code = %v", errors.GetCode(err))
			}
		})
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{1.2345, "1.234"},
		{1.2, "1.2"},
		{1.0, "1"},
		{-0.0001, "0"},
		{959, "959"},
	}
	for _, tt := range tests {
		if got := FormatFloat(tt.v, 3); got != tt.want {
			t.Errorf("FormatFloat(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestNewMove(t *testing.T) {
	l := NewMove(geometry.Vec2{X: 1.5, Y: 0}, 0.3, 1200, 3)
	if l.Raw != "G1 X1.5 Y0 Z0.3 F1200" {
		t.Errorf("Raw = %q", l.Raw)
	}
	if !l.IsMove() || !l.HasF || l.F != 1200 {
		t.Errorf("line = %+v", l)
	}

	// No feed rate known yet: F omitted.
	l = NewMove(geometry.Vec2{X: 1, Y: 2}, 0.3, 0, 3)
	if l.Raw != "G1 X1 Y2 Z0.3" {
		t.Errorf("Raw = %q", l.Raw)
	}
}

func TestEmitterFeedCarry(t *testing.T) {
	e := NewEmitter()
	src := &Layer{Z: 0.3, HasZ: true}
	e.StartLayer(src)

	move, _ := ParseLine("G1 X0 Y0 F900", nil)
	e.Passthrough(move)
	e.Move(geometry.Vec2{X: 1, Y: 1}, 0.3, 3)

	out := e.Program()
	if len(out.Layers) != 1 || len(out.Layers[0].Lines) != 2 {
		t.Fatalf("unexpected output shape: %+v", out)
	}
	got := out.Layers[0].Lines[1].Raw
	if got != "G1 X1 Y1 Z0.3 F900" {
		t.Errorf("rewritten move = %q, want carried F900", got)
	}
}
