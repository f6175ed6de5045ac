package relative

import (
	"context"
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

func trimIndent(src string) string {
	var out []string
	for _, line := range strings.Split(strings.TrimSpace(src), "\n") {
		out = append(out, strings.TrimSpace(line))
	}
	return strings.Join(out, "\n") + "\n"
}

func TestApplyConvertsAbsoluteE(t *testing.T) {
	src := trimIndent(`
		M82
		G1 X0 Y0 Z0.2 F1200
		G1 X10 Y0 E1.5
		G1 X20 Y0 E3.0
		G92 E0
		G1 X30 Y0 E2.5
	`)

	out, err := New(nil).Apply(context.Background(), mustParse(t, src))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	want := trimIndent(`
		M83
		M83
		G1 X0 Y0 Z0.2 F1200
		G1 X10 Y0 E1.5
		G1 X20 Y0 E1.5
		G92 E0
		G1 X30 Y0 E2.5
	`)
	if diff := cmp.Diff(want, out.Text()); diff != "" {
		t.Errorf("conversion mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyAlreadyRelative(t *testing.T) {
	src := trimIndent(`
		M83
		G1 X10 Y0 E0.5
		G1 X20 Y0 E0.5
	`)

	out, err := New(nil).Apply(context.Background(), mustParse(t, src))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// The injected preamble is redundant but harmless; the deltas must
	// not be rewritten a second time.
	want := trimIndent(`
		M83
		M83
		G1 X10 Y0 E0.5
		G1 X20 Y0 E0.5
	`)
	if diff := cmp.Diff(want, out.Text()); diff != "" {
		t.Errorf("relative program changed (-want +got):\n%s", diff)
	}
}

func TestApplyRetraction(t *testing.T) {
	src := trimIndent(`
		G1 X10 Y0 E2
		G1 E1 F1800
		G1 X20 Y0 E2.00001
	`)

	out, err := New(nil).Apply(context.Background(), mustParse(t, src))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	want := trimIndent(`
		M83
		G1 X10 Y0 E2
		G1 E-1 F1800
		G1 X20 Y0 E1.00001
	`)
	if diff := cmp.Diff(want, out.Text()); diff != "" {
		t.Errorf("retraction mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyCommentEUntouched(t *testing.T) {
	src := "G1 X10 Y0 E1.5 ; E axis ramp\n"

	out, err := New(nil).Apply(context.Background(), mustParse(t, src))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !strings.Contains(out.Text(), "; E axis ramp") {
		t.Errorf("comment mangled:\n%s", out.Text())
	}
	if !strings.Contains(out.Text(), "G1 X10 Y0 E1.5 ;") {
		t.Errorf("first move delta wrong:\n%s", out.Text())
	}
}
