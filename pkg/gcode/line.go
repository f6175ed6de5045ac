// Package gcode implements the program model shared by all toolpath filters:
// parsing raw G-code text into typed lines, grouping lines into layers, and
// serializing programs back out.
//
// The parser recognizes the commands the filters inspect (linear moves,
// extruder on/off, a handful of marker comments) and passes everything else
// through verbatim. Coordinates are stateful across lines: a move that omits
// an axis keeps the previous known value, so every parsed Line carries fully
// resolved X/Y/Z/E coordinates alongside presence flags for the fields that
// were explicit in the source.
package gcode

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/TigerGRBL/gcodeutils/pkg/errors"
	"github.com/TigerGRBL/gcodeutils/pkg/geometry"
)

// Command tokens inspected by the filters.
const (
	CmdMove        = "G1"
	CmdExtruderOn  = "M101"
	CmdExtruderOff = "M103"
	CmdSetPosition = "G92"
	CmdSetTemp     = "M104"
)

// Marker comments recognized in the input stream. The bracketed forms are
// the annotation dialect emitted by skeinforge-family slicers; the ;LAYER:
// form is the Cura equivalent for layer boundaries.
const (
	markerLayer     = "(<layer>"
	markerLayerCura = ";LAYER:"
	markerLoopBegin = "(<loop>"
	markerLoopEnd   = "(</loop>)"
	markerEdgeBegin = "(<edge>"
	markerOuterEdge = "(<edge> outer"
	markerInitEnd   = "(</extruderInitialization>)"
)

var edgeWidthRe = regexp.MustCompile(`^\(<edgeWidth> ([.\d]+)`)

// Line is one source record. It is immutable once parsed; a rewritten move is
// always a new Line, never a mutation of history.
type Line struct {
	Raw     string // original text, preserved verbatim for passthrough
	Command string // first word before any comment, "" for pure comments

	// Resolved coordinates after carry-forward. Valid for every line;
	// lines that never move simply repeat the previous location.
	X, Y, Z float64
	E       float64

	// F is the feed rate if explicitly present.
	F float64

	// Presence flags for fields that appeared explicitly on this line.
	HasX, HasY, HasZ, HasE, HasF bool
}

// IsMove reports whether the line is a linear move.
func (l *Line) IsMove() bool {
	return l.Command == CmdMove
}

// Point returns the resolved XY location of the line.
func (l *Line) Point() geometry.Vec2 {
	return geometry.Vec2{X: l.X, Y: l.Y}
}

// IsLayerStart reports whether the line marks the beginning of a new layer.
func (l *Line) IsLayerStart() bool {
	return strings.HasPrefix(l.Raw, markerLayer) || strings.HasPrefix(l.Raw, markerLayerCura)
}

// LayerZ extracts the Z height from a layer-start marker.
// Returns false for Cura-style markers, which carry a layer index instead.
func (l *Line) LayerZ() (float64, bool) {
	if !strings.HasPrefix(l.Raw, markerLayer) {
		return 0, false
	}
	rest := strings.TrimPrefix(l.Raw, markerLayer)
	rest = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), ")"))
	z, err := strconv.ParseFloat(rest, 64)
	if err != nil {
		return 0, false
	}
	return z, true
}

// IsLoopBegin reports a loop-begin marker.
func (l *Line) IsLoopBegin() bool {
	return strings.HasPrefix(l.Raw, markerLoopBegin)
}

// IsLoopEnd reports a loop-end marker.
func (l *Line) IsLoopEnd() bool {
	return strings.HasPrefix(l.Raw, markerLoopEnd)
}

// IsInnerEdgeBegin reports an edge-begin marker not tagged outer.
func (l *Line) IsInnerEdgeBegin() bool {
	return strings.HasPrefix(l.Raw, markerEdgeBegin) && !strings.HasPrefix(l.Raw, markerOuterEdge)
}

// IsOuterEdgeBegin reports an outer-edge-begin marker.
func (l *Line) IsOuterEdgeBegin() bool {
	return strings.HasPrefix(l.Raw, markerOuterEdge)
}

// IsEdgeEnd reports an edge-end marker. Both the historical "(/edge>)" token
// and the balanced "(</edge>)" form appear in the wild.
func (l *Line) IsEdgeEnd() bool {
	return strings.HasPrefix(l.Raw, "(/edge>)") || strings.HasPrefix(l.Raw, "(</edge>)")
}

// IsInitEnd reports the end of the initialization block.
func (l *Line) IsInitEnd() bool {
	return l.Raw == markerInitEnd
}

// EdgeWidth extracts the declared edge width from an edge-width marker.
func (l *Line) EdgeWidth() (float64, bool) {
	m := edgeWidthRe.FindStringSubmatch(l.Raw)
	if m == nil {
		return 0, false
	}
	w, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return w, true
}

// splitFields strips any trailing comment (semicolon or parenthesized) and
// splits the remainder into whitespace-separated words. A line that starts
// with a comment yields no words.
func splitFields(raw string) []string {
	if i := strings.IndexByte(raw, ';'); i >= 0 {
		raw = raw[:i]
	}
	if i := strings.IndexByte(raw, '('); i > 0 {
		raw = raw[:i]
	} else if i == 0 {
		return nil
	}
	return strings.Fields(raw)
}

// ParseLine parses one source record, carrying unresolved coordinates forward
// from prev. prev may be nil for the first line of a program, in which case
// the location starts at the origin.
//
// A numeric field that fails to parse is treated as absent; the returned
// error carries ErrCodeMalformedInput so callers can log it, but the Line is
// still valid and the run continues.
func ParseLine(raw string, prev *Line) (*Line, error) {
	l := &Line{Raw: raw}
	if prev != nil {
		l.X, l.Y, l.Z, l.E = prev.X, prev.Y, prev.Z, prev.E
	}

	words := splitFields(raw)
	if len(words) == 0 {
		return l, nil
	}
	l.Command = words[0]

	var parseErr error
	for _, word := range words[1:] {
		if len(word) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(word[1:], 64)
		if err != nil {
			parseErr = errors.Wrap(errors.ErrCodeMalformedInput, err, "field %q in %q", word, raw)
			continue
		}
		switch word[0] {
		case 'X', 'x':
			l.X, l.HasX = v, true
		case 'Y', 'y':
			l.Y, l.HasY = v, true
		case 'Z', 'z':
			l.Z, l.HasZ = v, true
		case 'E', 'e':
			l.E, l.HasE = v, true
		case 'F', 'f':
			l.F, l.HasF = v, true
		}
	}
	return l, parseErr
}
