package cli

import (
	"github.com/spf13/cobra"

	"github.com/TigerGRBL/gcodeutils/pkg/config"
	"github.com/TigerGRBL/gcodeutils/pkg/pipeline"
)

// newStretchCmd creates the stretch command. Flags override the profile,
// which overrides the built-in defaults.
func newStretchCmd(root *rootOpts) *cobra.Command {
	var common filterOpts
	var (
		loop        float64
		path        float64
		edgeInside  float64
		edgeOutside float64
		crossLimit  float64
		lookahead   float64
	)

	cmd := &cobra.Command{
		Use:   "stretch [file]",
		Short: "Compensate filament stretch on loops and edges",
		Long: `Stretch moves extrusion points outward to counter the inward pull of
cooling filament. Inner edges (holes) get the strongest correction, which
is what makes printed holes come out at their designed diameter.

All ratios are relative to the edge width declared in the G-code preamble.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.profile)
			if err != nil {
				return err
			}
			opts := cfg.StretchOptions()
			f := cmd.Flags()
			if f.Changed("loop-ratio") {
				opts.LoopRatio = loop
			}
			if f.Changed("path-ratio") {
				opts.PathRatio = path
			}
			if f.Changed("edge-inside-ratio") {
				opts.EdgeInsideRatio = edgeInside
			}
			if f.Changed("edge-outside-ratio") {
				opts.EdgeOutsideRatio = edgeOutside
			}
			if f.Changed("cross-limit-ratio") {
				opts.CrossLimitRatio = crossLimit
			}
			if f.Changed("lookahead-ratio") {
				opts.LookaheadRatio = lookahead
			}
			return runFilter(cmd, args, root, &common, pipeline.Options{
				Filter:  pipeline.FilterStretch,
				Stretch: opts,
			})
		},
	}

	defaults := config.Default().Stretch
	cmd.Flags().Float64Var(&loop, "loop-ratio", defaults.LoopRatio, "max stretch on loop features")
	cmd.Flags().Float64Var(&path, "path-ratio", defaults.PathRatio, "max stretch on open paths")
	cmd.Flags().Float64Var(&edgeInside, "edge-inside-ratio", defaults.EdgeInsideRatio, "max stretch on inner edges (holes)")
	cmd.Flags().Float64Var(&edgeOutside, "edge-outside-ratio", defaults.EdgeOutsideRatio, "max stretch on outer edges")
	cmd.Flags().Float64Var(&crossLimit, "cross-limit-ratio", defaults.CrossLimitRatio, "suppression distance near neighboring points")
	cmd.Flags().Float64Var(&lookahead, "lookahead-ratio", defaults.LookaheadRatio, "tangent sampling distance")
	addFilterFlags(cmd, &common)

	return cmd
}
