package gcode

import (
	"testing"

	"github.com/TigerGRBL/gcodeutils/pkg/errors"
)

func TestParseLineFields(t *testing.T) {
	l, err := ParseLine("G1 X1.5 Y-2 Z0.3 E10.2 F1200", nil)
	if err != nil {
		t.Fatalf("ParseLine error: %v", err)
	}
	if l.Command != CmdMove {
		t.Errorf("Command = %q, want G1", l.Command)
	}
	if l.X != 1.5 || l.Y != -2 || l.Z != 0.3 || l.E != 10.2 || l.F != 1200 {
		t.Errorf("fields = %+v", l)
	}
	if !l.HasX || !l.HasY || !l.HasZ || !l.HasE || !l.HasF {
		t.Errorf("presence flags = %+v", l)
	}
}

func TestParseLineCarryForward(t *testing.T) {
	prev, _ := ParseLine("G1 X1 Y2 Z0.3", nil)
	l, err := ParseLine("G1 X5", prev)
	if err != nil {
		t.Fatalf("ParseLine error: %v", err)
	}
	if l.X != 5 || l.Y != 2 || l.Z != 0.3 {
		t.Errorf("carry-forward = (%v, %v, %v), want (5, 2, 0.3)", l.X, l.Y, l.Z)
	}
	if l.HasY || l.HasZ {
		t.Error("carried fields must not be flagged explicit")
	}
}

func TestParseLineMalformed(t *testing.T) {
	prev, _ := ParseLine("G1 X1 Y2", nil)
	l, err := ParseLine("G1 Xbogus Y3", prev)
	if err == nil {
		t.Fatal("expected malformed-input error")
	}
	if !errors.Is(err, errors.ErrCodeMalformedInput) {
		t.Errorf("error code = %v, want MALFORMED_INPUT", errors.GetCode(err))
	}
	// The bad field is treated as absent: carry-forward applies.
	if l.X != 1 {
		t.Errorf("X = %v, want carried 1", l.X)
	}
	if l.Y != 3 {
		t.Errorf("Y = %v, want 3", l.Y)
	}
}

func TestParseLineComments(t *testing.T) {
	tests := []struct {
		raw     string
		command string
	}{
		{"; just a comment", ""},
		{"(<loop> outer )", ""},
		{"G1 X1 ; trailing", "G1"},
		{"G1 X1 (trailing)", "G1"},
		{"M400", "M400"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			l, err := ParseLine(tt.raw, nil)
			if err != nil {
				t.Fatalf("ParseLine error: %v", err)
			}
			if l.Command != tt.command {
				t.Errorf("Command = %q, want %q", l.Command, tt.command)
			}
			if l.Raw != tt.raw {
				t.Errorf("Raw not preserved: %q", l.Raw)
			}
		})
	}
}

func TestMarkers(t *testing.T) {
	check := func(raw string, pred func(*Line) bool) {
		t.Helper()
		l, _ := ParseLine(raw, nil)
		if !pred(l) {
			t.Errorf("marker not recognized: %q", raw)
		}
	}
	check("(<layer> 0.35 )", (*Line).IsLayerStart)
	check(";LAYER:3", (*Line).IsLayerStart)
	check("(<loop> outer )", (*Line).IsLoopBegin)
	check("(</loop>)", (*Line).IsLoopEnd)
	check("(<edge> inner )", (*Line).IsInnerEdgeBegin)
	check("(<edge> outer )", (*Line).IsOuterEdgeBegin)
	check("(/edge>)", (*Line).IsEdgeEnd)
	check("(</edge>)", (*Line).IsEdgeEnd)
	check("(</extruderInitialization>)", (*Line).IsInitEnd)

	l, _ := ParseLine("(<edge> outer )", nil)
	if l.IsInnerEdgeBegin() {
		t.Error("outer edge marker must not read as inner edge")
	}
}

func TestLayerZ(t *testing.T) {
	l, _ := ParseLine("(<layer> 0.72 )", nil)
	z, ok := l.LayerZ()
	if !ok || z != 0.72 {
		t.Errorf("LayerZ = (%v, %v), want (0.72, true)", z, ok)
	}

	l, _ = ParseLine(";LAYER:4", nil)
	if _, ok := l.LayerZ(); ok {
		t.Error("Cura layer marker carries an index, not a height")
	}
}

func TestEdgeWidth(t *testing.T) {
	l, _ := ParseLine("(<edgeWidth> 0.72 )", nil)
	w, ok := l.EdgeWidth()
	if !ok || w != 0.72 {
		t.Errorf("EdgeWidth = (%v, %v), want (0.72, true)", w, ok)
	}

	l, _ = ParseLine("(<layer> 0.72 )", nil)
	if _, ok := l.EdgeWidth(); ok {
		t.Error("non-edge-width marker must not match")
	}
}
