package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/TigerGRBL/gcodeutils/pkg/buildinfo"
)

// rootOpts holds the persistent flags shared by all subcommands.
type rootOpts struct {
	verbose bool
	profile string // path to a TOML profile, empty means the XDG location
	noCache bool
}

// Execute runs the gcodeutils CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
//
// The function sets up the root command with all subcommands, configures
// logging based on the --verbose flag, and executes the command tree.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext.
func Execute() error {
	var opts rootOpts

	root := &cobra.Command{
		Use:          "gcodeutils",
		Short:        "Gcodeutils rewrites sliced G-code for better prints",
		Long:         `Gcodeutils is a suite of G-code post-processing filters: stretch compensation for dimensional accuracy, temperature calibration towers, arc fitting, and relative extrusion conversion.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if opts.verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&opts.profile, "profile", "", "path to a TOML profile (default: ~/.config/gcodeutils/config.toml)")
	root.PersistentFlags().BoolVar(&opts.noCache, "no-cache", false, "disable the filter result cache")

	root.AddCommand(newStretchCmd(&opts))
	root.AddCommand(newTempcalCmd(&opts))
	root.AddCommand(newArcsCmd(&opts))
	root.AddCommand(newRelextCmd(&opts))
	root.AddCommand(newServeCmd(&opts))
	root.AddCommand(newCacheCmd())
	root.AddCommand(newCompletionCmd())

	return root.ExecuteContext(context.Background())
}
