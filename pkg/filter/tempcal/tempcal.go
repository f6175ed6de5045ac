// Package tempcal injects a temperature gradient along Z, turning any sliced
// model into an unattended temperature-calibration print: each layer band
// gets an M104 for the temperature interpolated between the start and end
// targets over the usable height of the program.
package tempcal

import (
	"context"
	"fmt"
	"math"

	"github.com/charmbracelet/log"

	"github.com/TigerGRBL/gcodeutils/pkg/errors"
	"github.com/TigerGRBL/gcodeutils/pkg/gcode"
)

// Safety bounds. A computed target outside this range is never emitted.
const (
	AbsoluteMinTemperature = 150
	AbsoluteMaxTemperature = 250
)

// Options configures the gradient.
type Options struct {
	// StartTemp applies at the bottom of the usable span, EndTemp at the
	// top of the model. Degrees Celsius.
	StartTemp float64 `json:"start_temp"`
	EndTemp   float64 `json:"end_temp"`

	// MinZChange excludes the first layers from the gradient so the
	// slicer's adhesion temperature survives.
	MinZChange float64 `json:"min_z_change"`

	// Continuous interpolates per layer; otherwise the span is divided
	// into Steps bands of constant temperature.
	Continuous bool `json:"continuous"`
	Steps      int  `json:"steps"`

	Logger *log.Logger `json:"-"`
}

// DefaultOptions returns the stepped gradient most hotends can follow.
func DefaultOptions() Options {
	return Options{
		MinZChange: 0.1,
		Steps:      10,
	}
}

// gradient maps a layer height to a raw target temperature.
type gradient func(z float64) float64

// Filter injects temperature changes into a program.
type Filter struct {
	opts Options
}

// New creates a tempcal filter with the given options.
func New(opts Options) *Filter {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Filter{opts: opts}
}

// Name implements filter.Filter.
func (f *Filter) Name() string { return "tempcal" }

// Apply injects one M104 ahead of every layer whose target temperature,
// rounded to 0.1°C, differs from the previous layer's. Layers below the
// usable span keep the slicer temperature; a program too short for any
// usable span is rejected with INSUFFICIENT_HEIGHT.
func (f *Filter) Apply(ctx context.Context, prog *gcode.Program) (*gcode.Program, error) {
	if !f.opts.Continuous && f.opts.Steps < 1 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "step gradient needs at least 1 step, got %d", f.opts.Steps)
	}

	zmin, zmax, err := prog.Bounds(f.opts.MinZChange)
	if err != nil {
		return nil, err
	}

	grad := f.gradient(zmin, zmax)
	f.opts.Logger.Info("temperature gradient",
		"start", f.opts.StartTemp, "zmin", zmin,
		"end", f.opts.EndTemp, "zmax", zmax)

	last := math.NaN()
	em := gcode.NewEmitter()
	for _, layer := range prog.Layers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		em.StartLayer(layer)

		if layer.HasZ && layer.Z >= zmin && layer.Z <= zmax {
			target := math.Round(grad(layer.Z)*10) / 10
			if target != last {
				last = target
				if target >= AbsoluteMinTemperature && target <= AbsoluteMaxTemperature {
					f.opts.Logger.Debug("target temperature", "z", layer.Z, "temp", target)
					em.Passthrough(setTempLine(target))
				} else {
					f.opts.Logger.Warn("target temperature outside safe range, skipped",
						"z", layer.Z, "temp", target)
				}
			}
		}

		for _, line := range layer.Lines {
			em.Passthrough(line)
		}
	}
	return em.Program(), nil
}

func (f *Filter) gradient(zmin, zmax float64) gradient {
	opts := f.opts
	if opts.Continuous {
		perZ := (opts.EndTemp - opts.StartTemp) / (zmax - zmin)
		return func(z float64) float64 {
			return opts.StartTemp + perZ*(z-zmin)
		}
	}

	// The stepped gradient overshoots its nominal end by one step and adds
	// one band, so the top of the model still prints a full band at the
	// end temperature instead of a sliver.
	overshoot := opts.EndTemp + (opts.EndTemp-opts.StartTemp)/float64(opts.Steps)
	bands := float64(opts.Steps + 1)
	return func(z float64) float64 {
		progress := math.Floor((z-zmin)/(zmax-zmin)*bands) / bands
		target := opts.StartTemp + progress*(overshoot-opts.StartTemp)
		if opts.EndTemp < opts.StartTemp {
			return math.Max(opts.EndTemp, target)
		}
		return math.Min(opts.EndTemp, target)
	}
}

func setTempLine(temp float64) *gcode.Line {
	return &gcode.Line{
		Raw:     fmt.Sprintf("M104 S%.1f", temp),
		Command: gcode.CmdSetTemp,
	}
}
