// Package config loads the optional TOML profile that seeds filter options
// before command-line flags are applied. The profile lives at
// ~/.config/gcodeutils/config.toml (or $XDG_CONFIG_HOME) unless an explicit
// path is given.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/TigerGRBL/gcodeutils/pkg/errors"
	"github.com/TigerGRBL/gcodeutils/pkg/filter/arcs"
	"github.com/TigerGRBL/gcodeutils/pkg/filter/stretch"
	"github.com/TigerGRBL/gcodeutils/pkg/filter/tempcal"
	"github.com/TigerGRBL/gcodeutils/pkg/gcode"
)

const appName = "gcodeutils"

// Config is the full profile. Zero values are replaced by the package
// defaults in Default, so a profile only needs the keys it overrides.
type Config struct {
	Stretch StretchConfig `toml:"stretch"`
	Tempcal TempcalConfig `toml:"tempcal"`
	Arcs    ArcsConfig    `toml:"arcs"`
	Output  OutputConfig  `toml:"output"`
	Serve   ServeConfig   `toml:"serve"`
}

// StretchConfig mirrors stretch.Options, ratios relative to edge width.
type StretchConfig struct {
	Activate         bool    `toml:"activate"`
	LoopRatio        float64 `toml:"loop_ratio"`
	PathRatio        float64 `toml:"path_ratio"`
	EdgeInsideRatio  float64 `toml:"edge_inside_ratio"`
	EdgeOutsideRatio float64 `toml:"edge_outside_ratio"`
	CrossLimitRatio  float64 `toml:"cross_limit_ratio"`
	LookaheadRatio   float64 `toml:"lookahead_ratio"`
}

// TempcalConfig mirrors tempcal.Options.
type TempcalConfig struct {
	StartTemp  float64 `toml:"start_temp"`
	EndTemp    float64 `toml:"end_temp"`
	MinZChange float64 `toml:"min_z_change"`
	Continuous bool    `toml:"continuous"`
	Steps      int     `toml:"steps"`
}

// ArcsConfig mirrors arcs.Options.
type ArcsConfig struct {
	MinPoints int     `toml:"min_points"`
	Tolerance float64 `toml:"tolerance"`
}

// OutputConfig controls rendering of rewritten lines.
type OutputConfig struct {
	Precision int `toml:"precision"`
}

// ServeConfig controls the HTTP service.
type ServeConfig struct {
	Addr      string `toml:"addr"`
	Cache     string `toml:"cache"` // file, null or redis
	RedisAddr string `toml:"redis_addr"`
}

// Default returns the profile used when no file is present.
func Default() Config {
	so := stretch.DefaultOptions()
	to := tempcal.DefaultOptions()
	ao := arcs.DefaultOptions()
	return Config{
		Stretch: StretchConfig{
			Activate:         so.Activate,
			LoopRatio:        so.LoopRatio,
			PathRatio:        so.PathRatio,
			EdgeInsideRatio:  so.EdgeInsideRatio,
			EdgeOutsideRatio: so.EdgeOutsideRatio,
			CrossLimitRatio:  so.CrossLimitRatio,
			LookaheadRatio:   so.LookaheadRatio,
		},
		Tempcal: TempcalConfig{
			MinZChange: to.MinZChange,
			Continuous: to.Continuous,
			Steps:      to.Steps,
		},
		Arcs: ArcsConfig{
			MinPoints: ao.MinPoints,
			Tolerance: ao.Tolerance,
		},
		Output: OutputConfig{Precision: gcode.DefaultPrecision},
		Serve: ServeConfig{
			Addr:  ":8080",
			Cache: "file",
		},
	}
}

// Load reads a profile on top of the defaults. An empty path means the
// XDG location; a missing file there is not an error. An explicit path
// that does not exist is.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		var err error
		if path, err = defaultPath(); err != nil {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		if os.IsNotExist(err) {
			return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "profile %s", path)
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "reading profile %s", path)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parsing profile %s", path)
	}
	return cfg, nil
}

// defaultPath returns the profile path using the XDG standard
// (~/.config/gcodeutils/config.toml).
func defaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// StretchOptions builds filter options from the profile.
func (c Config) StretchOptions() stretch.Options {
	opts := stretch.DefaultOptions()
	opts.Activate = c.Stretch.Activate
	opts.LoopRatio = c.Stretch.LoopRatio
	opts.PathRatio = c.Stretch.PathRatio
	opts.EdgeInsideRatio = c.Stretch.EdgeInsideRatio
	opts.EdgeOutsideRatio = c.Stretch.EdgeOutsideRatio
	opts.CrossLimitRatio = c.Stretch.CrossLimitRatio
	opts.LookaheadRatio = c.Stretch.LookaheadRatio
	opts.Precision = c.Output.Precision
	return opts
}

// TempcalOptions builds filter options from the profile. Temperatures come
// from flags or the profile; there are no default targets.
func (c Config) TempcalOptions() tempcal.Options {
	return tempcal.Options{
		StartTemp:  c.Tempcal.StartTemp,
		EndTemp:    c.Tempcal.EndTemp,
		MinZChange: c.Tempcal.MinZChange,
		Continuous: c.Tempcal.Continuous,
		Steps:      c.Tempcal.Steps,
	}
}

// ArcsOptions builds filter options from the profile.
func (c Config) ArcsOptions() arcs.Options {
	return arcs.Options{
		MinPoints: c.Arcs.MinPoints,
		Tolerance: c.Arcs.Tolerance,
		Precision: c.Output.Precision,
	}
}
