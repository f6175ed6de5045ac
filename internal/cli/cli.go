package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/TigerGRBL/gcodeutils/pkg/cache"
	"github.com/TigerGRBL/gcodeutils/pkg/errors"
	"github.com/TigerGRBL/gcodeutils/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "gcodeutils"

// filterOpts holds the flags shared by every filter command.
type filterOpts struct {
	output  string // output file path ("-" for stdout, empty to derive)
	refresh bool   // bypass the result cache
	workers int    // layer-range fan-out bound
}

// addFilterFlags registers the flags common to all filter commands.
func addFilterFlags(cmd *cobra.Command, opts *filterOpts) {
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file ('-' for stdout, default: derived from input)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when a cached result exists")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "parallel layer workers (0 = one per CPU)")
}

// runFilter executes one filter over the input named by args and writes the
// result. It is the shared body of every filter command.
func runFilter(cmd *cobra.Command, args []string, root *rootOpts, common *filterOpts, opts pipeline.Options) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	inputPath, err := resolveInput(args)
	if err != nil {
		return err
	}
	input, err := readInput(inputPath)
	if err != nil {
		return err
	}

	opts.Logger = logger
	opts.Refresh = common.refresh
	opts.Workers = common.workers

	runner, err := newRunner(logger, root.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	spin := newSpinnerWithContext(ctx, fmt.Sprintf("Running %s filter", opts.Filter))
	spin.Start()
	res, err := runner.Execute(ctx, input, opts)
	spin.Stop()
	if err != nil {
		printError("%s", errors.UserMessage(err))
		return err
	}
	prog.done(fmt.Sprintf("Filtered %d layers", res.Stats.Layers))

	outputPath := common.output
	if outputPath == "" {
		outputPath = derivedOutput(inputPath, opts.Filter)
	}
	if err := writeOutput(outputPath, res.Output); err != nil {
		return err
	}

	if outputPath != "-" {
		printSuccess("Wrote %s", outputPath)
		printStats(res.Stats.Layers, res.Stats.Lines, res.CacheInfo.Hit)
	}
	return nil
}

// newRunner creates a pipeline runner for CLI use.
func newRunner(logger *log.Logger, noCache bool) (*pipeline.Runner, error) {
	c, err := newResultCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(c, nil, logger), nil
}

func newResultCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/gcodeutils/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// resolveInput picks the input file. With an argument it is used directly
// ("-" means stdin); without one, an interactive picker lists the G-code
// files in the working directory.
func resolveInput(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return pickGcodeFile(".")
}

// readInput loads the G-code source from path, or stdin for "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "input %s", path)
		}
		return nil, err
	}
	return data, nil
}

// derivedOutput builds the default output path: the input name with the
// filter name appended before the extension (model.gcode -> model_arcs.gcode).
// Stdin input goes to stdout.
func derivedOutput(inputPath, filter string) string {
	if inputPath == "-" {
		return "-"
	}
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + "_" + filter + ext
}

// writeOutput writes data to path, or stdout for "-".
func writeOutput(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = out.Write(data)
	return err
}

// nopCloser wraps an io.Writer with a no-op Close method.
// It is used to make os.Stdout compatible with io.WriteCloser.
type nopCloser struct{ io.Writer }

// Close implements io.Closer with a no-op.
func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is "-", it returns os.Stdout wrapped in nopCloser.
// Otherwise, it creates the file at path, overwriting if it exists.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
