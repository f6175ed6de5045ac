package server

import (
	"net/url"
	"strconv"

	"github.com/TigerGRBL/gcodeutils/pkg/errors"
	"github.com/TigerGRBL/gcodeutils/pkg/filter/arcs"
	"github.com/TigerGRBL/gcodeutils/pkg/filter/stretch"
	"github.com/TigerGRBL/gcodeutils/pkg/filter/tempcal"
	"github.com/TigerGRBL/gcodeutils/pkg/pipeline"
)

// optionsFromQuery maps query parameters onto pipeline options. Parameter
// names mirror the JSON field names of the per-filter option structs.
// Absent parameters keep their defaults; malformed values are rejected.
func optionsFromQuery(name string, q url.Values) (pipeline.Options, error) {
	opts := pipeline.Options{Filter: name}
	if !pipeline.ValidFilters[name] {
		return opts, errors.New(errors.ErrCodeInvalidFilter, "unknown filter %q", name)
	}

	p := &queryParser{q: q}
	p.boolVal("refresh", &opts.Refresh)
	p.intVal("workers", &opts.Workers)

	switch name {
	case pipeline.FilterStretch:
		opts.Stretch = stretch.DefaultOptions()
		p.boolVal("activate", &opts.Stretch.Activate)
		p.floatVal("loop_ratio", &opts.Stretch.LoopRatio)
		p.floatVal("path_ratio", &opts.Stretch.PathRatio)
		p.floatVal("edge_inside_ratio", &opts.Stretch.EdgeInsideRatio)
		p.floatVal("edge_outside_ratio", &opts.Stretch.EdgeOutsideRatio)
		p.floatVal("cross_limit_ratio", &opts.Stretch.CrossLimitRatio)
		p.floatVal("lookahead_ratio", &opts.Stretch.LookaheadRatio)
		p.intVal("precision", &opts.Stretch.Precision)
	case pipeline.FilterTempcal:
		opts.Tempcal = tempcal.DefaultOptions()
		p.floatVal("start_temp", &opts.Tempcal.StartTemp)
		p.floatVal("end_temp", &opts.Tempcal.EndTemp)
		p.floatVal("min_z_change", &opts.Tempcal.MinZChange)
		p.boolVal("continuous", &opts.Tempcal.Continuous)
		p.intVal("steps", &opts.Tempcal.Steps)
		if p.err == nil && !q.Has("start_temp") {
			return opts, errors.New(errors.ErrCodeInvalidInput, "tempcal requires start_temp and end_temp")
		}
		if p.err == nil && !q.Has("end_temp") {
			return opts, errors.New(errors.ErrCodeInvalidInput, "tempcal requires start_temp and end_temp")
		}
	case pipeline.FilterArcs:
		opts.Arcs = arcs.DefaultOptions()
		p.intVal("min_points", &opts.Arcs.MinPoints)
		p.floatVal("tolerance", &opts.Arcs.Tolerance)
		p.intVal("precision", &opts.Arcs.Precision)
	case pipeline.FilterRelext:
		// No options.
	}
	return opts, p.err
}

// queryParser accumulates the first conversion failure so callers can
// chain lookups without checking each one.
type queryParser struct {
	q   url.Values
	err error
}

func (p *queryParser) floatVal(key string, dst *float64) {
	if p.err != nil || !p.q.Has(key) {
		return
	}
	v, err := strconv.ParseFloat(p.q.Get(key), 64)
	if err != nil {
		p.err = errors.New(errors.ErrCodeInvalidInput, "parameter %s: not a number: %q", key, p.q.Get(key))
		return
	}
	*dst = v
}

func (p *queryParser) intVal(key string, dst *int) {
	if p.err != nil || !p.q.Has(key) {
		return
	}
	v, err := strconv.Atoi(p.q.Get(key))
	if err != nil {
		p.err = errors.New(errors.ErrCodeInvalidInput, "parameter %s: not an integer: %q", key, p.q.Get(key))
		return
	}
	*dst = v
}

func (p *queryParser) boolVal(key string, dst *bool) {
	if p.err != nil || !p.q.Has(key) {
		return
	}
	v, err := strconv.ParseBool(p.q.Get(key))
	if err != nil {
		p.err = errors.New(errors.ErrCodeInvalidInput, "parameter %s: not a boolean: %q", key, p.q.Get(key))
		return
	}
	*dst = v
}
