package cli

import (
	"github.com/spf13/cobra"

	"github.com/TigerGRBL/gcodeutils/pkg/config"
	"github.com/TigerGRBL/gcodeutils/pkg/pipeline"
)

// newArcsCmd creates the arcs command.
func newArcsCmd(root *rootOpts) *cobra.Command {
	var common filterOpts
	var (
		minPoints int
		tolerance float64
	)

	cmd := &cobra.Command{
		Use:   "arcs [file]",
		Short: "Replace circular G1 runs with G2/G3 arc commands",
		Long: `Arcs detects runs of short extruding segments that lie on a circle and
replaces each run with a single G2 or G3 command. The firmware then
interpolates the curve itself, which smooths motion and shrinks the file.

The input must use relative extrusion; run the relext filter first if the
slicer emits absolute E values.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.profile)
			if err != nil {
				return err
			}
			opts := cfg.ArcsOptions()
			f := cmd.Flags()
			if f.Changed("min-points") {
				opts.MinPoints = minPoints
			}
			if f.Changed("tolerance") {
				opts.Tolerance = tolerance
			}
			return runFilter(cmd, args, root, &common, pipeline.Options{
				Filter: pipeline.FilterArcs,
				Arcs:   opts,
			})
		},
	}

	defaults := config.Default().Arcs
	cmd.Flags().IntVar(&minPoints, "min-points", defaults.MinPoints, "minimum segments before an arc is attempted")
	cmd.Flags().Float64Var(&tolerance, "tolerance", defaults.Tolerance, "maximum radial deviation from the fitted circle (mm)")
	addFilterFlags(cmd, &common)

	return cmd
}
