package gcode

import (
	"bufio"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/TigerGRBL/gcodeutils/pkg/errors"
)

// Layer is an ordered sequence of lines sharing one Z band, in source order.
// Layers are never reordered and traversal never crosses a layer boundary.
type Layer struct {
	Lines []*Line

	// Z is the layer height taken from the layer-start marker when present,
	// otherwise from the first move in the layer that sets Z.
	Z    float64
	HasZ bool
}

// Extrudes reports whether the layer deposits any material: it contains an
// extruder-activate command or a move with an explicit E field.
func (l *Layer) Extrudes() bool {
	for _, line := range l.Lines {
		if line.Command == CmdExtruderOn {
			return true
		}
		if line.IsMove() && line.HasE {
			return true
		}
	}
	return false
}

// Program is an ordered sequence of layers built once from input text.
// It is read-only for the filters: rewrites produce new programs.
type Program struct {
	Layers []*Layer
}

// Parse reads a program line by line, grouping lines into layers on
// layer-start markers. Lines before the first marker form layer zero.
//
// Malformed numeric fields are debug-logged and treated as absent; they
// never abort the parse.
func Parse(r io.Reader, logger *log.Logger) (*Program, error) {
	if logger == nil {
		logger = log.Default()
	}

	prog := &Program{}
	current := &Layer{}
	prog.Layers = append(prog.Layers, current)

	var prev *Line
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line, err := ParseLine(scanner.Text(), prev)
		if err != nil {
			logger.Debug("recovered malformed field", "err", err)
		}
		prev = line

		if line.IsLayerStart() && len(current.Lines) > 0 {
			current = &Layer{}
			prog.Layers = append(prog.Layers, current)
		}
		current.Lines = append(current.Lines, line)

		if !current.HasZ {
			if z, ok := line.LayerZ(); ok {
				current.Z, current.HasZ = z, true
			} else if line.IsMove() && line.HasZ {
				current.Z, current.HasZ = line.Z, true
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "reading program")
	}
	return prog, nil
}

// ParseString parses a program held in memory.
func ParseString(text string, logger *log.Logger) (*Program, error) {
	return Parse(strings.NewReader(text), logger)
}

// NumLines returns the total number of lines across all layers.
func (p *Program) NumLines() int {
	n := 0
	for _, layer := range p.Layers {
		n += len(layer.Lines)
	}
	return n
}

// Slice returns the contiguous sub-program holding layers [from, to).
// The returned program shares the underlying layers; filters treat programs
// as read-only, so a slice behaves exactly like a complete program over the
// same layer range.
func (p *Program) Slice(from, to int) *Program {
	return &Program{Layers: p.Layers[from:to]}
}

// Bounds returns the usable Z span of the program: the lowest extruding
// layer height above minZChange and the highest extruding layer height.
//
// A program whose span is empty or inverted cannot carry a meaningful
// Z gradient; Bounds then returns an INSUFFICIENT_HEIGHT error.
func (p *Program) Bounds(minZChange float64) (zmin, zmax float64, err error) {
	found := false
	for _, layer := range p.Layers {
		if !layer.HasZ || !layer.Extrudes() {
			continue
		}
		if layer.Z > zmax {
			zmax = layer.Z
		}
		if !found && layer.Z > minZChange {
			zmin = layer.Z
			found = true
		}
	}
	if !found {
		return 0, 0, errors.New(errors.ErrCodeInsufficientHeight,
			"no extruding layer above %.2fmm", minZChange)
	}
	if zmin >= zmax {
		return 0, 0, errors.New(errors.ErrCodeInsufficientHeight,
			"usable Z span %.2fmm-%.2fmm is empty", zmin, zmax)
	}
	return zmin, zmax, nil
}

// Text serializes the program back to source text, one line per record.
func (p *Program) Text() string {
	var b strings.Builder
	for _, layer := range p.Layers {
		for _, line := range layer.Lines {
			b.WriteString(line.Raw)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Write streams the program to w.
func (p *Program) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, layer := range p.Layers {
		for _, line := range layer.Lines {
			if _, err := bw.WriteString(line.Raw); err != nil {
				return err
			}
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
