// Package pkg provides the core libraries for gcodeutils G-code filtering.
//
// # Overview
//
// Gcodeutils rewrites sliced G-code before it reaches the printer. Each
// filter is an independent package under [filter]; the [pipeline] package
// orchestrates parsing, filtering and result caching for both the CLI and
// the HTTP service.
//
// # Architecture
//
// The typical data flow:
//
//	G-code source (slicer output)
//	         ↓
//	    [gcode] package (parse into layers and typed lines)
//	         ↓
//	    [filter/...] package (stretch, tempcal, arcs, relext)
//	         ↓
//	    [pipeline] package (caching, parallel layer ranges)
//	         ↓
//	    rewritten G-code
//
// # Quick Start
//
// Run the stretch filter over a file:
//
//	import (
//	    "context"
//	    "github.com/TigerGRBL/gcodeutils/pkg/filter/stretch"
//	    "github.com/TigerGRBL/gcodeutils/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, err := runner.Execute(context.Background(), input, pipeline.Options{
//	    Filter:  pipeline.FilterStretch,
//	    Stretch: stretch.DefaultOptions(),
//	})
//
// # Main Packages
//
// [gcode] - Line-oriented G-code parsing and rendering. A Program is a
// sequence of layers; each Line keeps its raw text so untouched lines
// survive byte-for-byte.
//
// [geometry] - Small 2D vector and circle-fitting helpers shared by the
// stretch and arcs filters.
//
// [filter/stretch] - Stretch compensation. Moves extrusion points outward
// against the inward pull of cooling filament, strongest on inner edges.
//
// [filter/tempcal] - Temperature calibration towers. Injects M104 commands
// so one print sweeps a temperature range, stepped or continuous.
//
// [filter/arcs] - Arc fitting. Replaces circular runs of short G1 segments
// with single G2/G3 commands.
//
// [filter/relative] - Relative extrusion conversion, a precondition for
// arc fitting.
//
// [pipeline] - Orchestration shared by CLI and HTTP service: content-hash
// result caching and parallel processing of layer ranges.
//
// [cache] - Cache backends (file, null, redis) and key derivation.
//
// [config] - The optional TOML profile that seeds filter options.
//
// [server] - The HTTP surface (POST /v1/filter/{name}).
//
// [errors] - Structured error codes shared by CLI and HTTP responses.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...              # All tests
//	go test ./pkg/filter/...       # Filters only
//
// [gcode]: https://pkg.go.dev/github.com/TigerGRBL/gcodeutils/pkg/gcode
// [geometry]: https://pkg.go.dev/github.com/TigerGRBL/gcodeutils/pkg/geometry
// [filter]: https://pkg.go.dev/github.com/TigerGRBL/gcodeutils/pkg/filter
// [filter/stretch]: https://pkg.go.dev/github.com/TigerGRBL/gcodeutils/pkg/filter/stretch
// [filter/tempcal]: https://pkg.go.dev/github.com/TigerGRBL/gcodeutils/pkg/filter/tempcal
// [filter/arcs]: https://pkg.go.dev/github.com/TigerGRBL/gcodeutils/pkg/filter/arcs
// [filter/relative]: https://pkg.go.dev/github.com/TigerGRBL/gcodeutils/pkg/filter/relative
// [pipeline]: https://pkg.go.dev/github.com/TigerGRBL/gcodeutils/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/TigerGRBL/gcodeutils/pkg/cache
// [config]: https://pkg.go.dev/github.com/TigerGRBL/gcodeutils/pkg/config
// [server]: https://pkg.go.dev/github.com/TigerGRBL/gcodeutils/pkg/server
// [errors]: https://pkg.go.dev/github.com/TigerGRBL/gcodeutils/pkg/errors
package pkg
