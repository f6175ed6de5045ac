package stretch

import "github.com/TigerGRBL/gcodeutils/pkg/gcode"

// Feature is the structural role of the move currently being traced. It
// determines the maximum stretch magnitude applied to the move.
type Feature int

const (
	FeaturePath Feature = iota
	FeatureLoop
	FeatureInnerEdge
	FeatureOuterEdge
)

// String returns the feature name for logs.
func (f Feature) String() string {
	switch f {
	case FeatureLoop:
		return "loop"
	case FeatureInnerEdge:
		return "inner-edge"
	case FeatureOuterEdge:
		return "outer-edge"
	default:
		return "path"
	}
}

// Tracker is the feature state machine, scanned over lines in document
// order. It is a value: Next returns the successor state rather than
// mutating, so any prefix of a document can be replayed independently.
//
// Inner and outer edges set the loop flag: edge threads are closed and
// traversal must wrap around them like any other loop.
type Tracker struct {
	Feature   Feature
	Loop      bool
	Extruding bool
}

// Next returns the state after scanning one line.
func (t Tracker) Next(line *gcode.Line) Tracker {
	switch {
	case line.Command == gcode.CmdExtruderOn:
		t.Extruding = true
	case line.Command == gcode.CmdExtruderOff:
		t.Extruding = false
		t.Feature = FeaturePath
		t.Loop = false
	case line.IsLoopBegin():
		t.Feature = FeatureLoop
		t.Loop = true
	case line.IsLoopEnd():
		t.Feature = FeaturePath
		t.Loop = false
	case line.IsInnerEdgeBegin():
		t.Feature = FeatureInnerEdge
		t.Loop = true
	case line.IsOuterEdgeBegin():
		t.Feature = FeatureOuterEdge
		t.Loop = true
	case line.IsEdgeEnd():
		t.Feature = FeaturePath
		t.Loop = false
	}
	return t
}
