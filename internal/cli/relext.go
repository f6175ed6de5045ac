package cli

import (
	"github.com/spf13/cobra"

	"github.com/TigerGRBL/gcodeutils/pkg/pipeline"
)

// newRelextCmd creates the relext command. It has no tuning options.
func newRelextCmd(root *rootOpts) *cobra.Command {
	var common filterOpts

	cmd := &cobra.Command{
		Use:   "relext [file]",
		Short: "Convert absolute extrusion to relative",
		Long: `Relext rewrites E values so each move carries the amount of filament it
extrudes rather than a running total. An M83 preamble is inserted and any
M82 or G92 commands in the body are handled.

Relative extrusion is a precondition for the arcs filter.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(cmd, args, root, &common, pipeline.Options{
				Filter: pipeline.FilterRelext,
			})
		},
	}

	addFilterFlags(cmd, &common)
	return cmd
}
