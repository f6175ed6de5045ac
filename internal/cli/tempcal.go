package cli

import (
	"github.com/spf13/cobra"

	"github.com/TigerGRBL/gcodeutils/pkg/config"
	"github.com/TigerGRBL/gcodeutils/pkg/errors"
	"github.com/TigerGRBL/gcodeutils/pkg/pipeline"
)

// newTempcalCmd creates the tempcal command for temperature calibration
// towers. Start and end temperatures are required, from flags or profile.
func newTempcalCmd(root *rootOpts) *cobra.Command {
	var common filterOpts
	var (
		startTemp  float64
		endTemp    float64
		minZChange float64
		continuous bool
		steps      int
	)

	cmd := &cobra.Command{
		Use:   "tempcal [file]",
		Short: "Inject a temperature gradient for calibration towers",
		Long: `Tempcal inserts M104 commands so a single print sweeps a temperature
range from bottom to top. Print a test tower, pick the height that looks
best, and read off the temperature.

The default mode uses stepped bands; --continuous interpolates per layer.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.profile)
			if err != nil {
				return err
			}
			opts := cfg.TempcalOptions()
			f := cmd.Flags()
			if f.Changed("start") {
				opts.StartTemp = startTemp
			}
			if f.Changed("end") {
				opts.EndTemp = endTemp
			}
			if f.Changed("min-z-change") {
				opts.MinZChange = minZChange
			}
			if f.Changed("continuous") {
				opts.Continuous = continuous
			}
			if f.Changed("steps") {
				opts.Steps = steps
			}
			if opts.StartTemp == 0 || opts.EndTemp == 0 {
				return errors.New(errors.ErrCodeInvalidConfig, "start and end temperatures are required (--start, --end, or profile)")
			}
			return runFilter(cmd, args, root, &common, pipeline.Options{
				Filter:  pipeline.FilterTempcal,
				Tempcal: opts,
			})
		},
	}

	defaults := config.Default().Tempcal
	cmd.Flags().Float64Var(&startTemp, "start", 0, "temperature at the bottom of the tower (°C)")
	cmd.Flags().Float64Var(&endTemp, "end", 0, "temperature at the top of the tower (°C)")
	cmd.Flags().Float64Var(&minZChange, "min-z-change", defaults.MinZChange, "height below which the slicer temperature is kept")
	cmd.Flags().BoolVar(&continuous, "continuous", defaults.Continuous, "interpolate per layer instead of stepped bands")
	cmd.Flags().IntVar(&steps, "steps", defaults.Steps, "number of temperature steps")
	addFilterFlags(cmd, &common)

	return cmd
}
