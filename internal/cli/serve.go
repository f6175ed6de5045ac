package cli

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/TigerGRBL/gcodeutils/pkg/cache"
	"github.com/TigerGRBL/gcodeutils/pkg/config"
	"github.com/TigerGRBL/gcodeutils/pkg/errors"
	"github.com/TigerGRBL/gcodeutils/pkg/pipeline"
	"github.com/TigerGRBL/gcodeutils/pkg/server"
)

// shutdownTimeout bounds how long in-flight requests may finish after a
// termination signal.
const shutdownTimeout = 10 * time.Second

// newServeCmd creates the serve command, running the filters as an HTTP
// service. Cache backend and listen address come from the profile and can
// be overridden by flags.
func newServeCmd(root *rootOpts) *cobra.Command {
	var (
		addr      string
		backend   string
		redisAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the filters as an HTTP service",
		Long: `Serve exposes the filters at POST /v1/filter/{name}, with the G-code in
the request body and options as query parameters. Results are cached by
content hash; the backend is selected with --cache (file, null or redis).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.profile)
			if err != nil {
				return err
			}
			serveCfg := cfg.Serve
			f := cmd.Flags()
			if f.Changed("addr") {
				serveCfg.Addr = addr
			}
			if f.Changed("cache") {
				serveCfg.Cache = backend
			}
			if f.Changed("redis-addr") {
				serveCfg.RedisAddr = redisAddr
			}
			if root.noCache {
				serveCfg.Cache = "null"
			}
			return runServe(cmd.Context(), serveCfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from profile, ':8080')")
	cmd.Flags().StringVar(&backend, "cache", "", "cache backend: file, null or redis")
	cmd.Flags().StringVar(&redisAddr, "redis-addr", "", "redis address for --cache=redis")

	return cmd
}

func runServe(ctx context.Context, cfg config.ServeConfig) error {
	logger := loggerFromContext(ctx)

	c, err := serveCache(cfg)
	if err != nil {
		return err
	}
	keyer := cache.NewScopedKeyer(nil, "v1:")
	runner := pipeline.NewRunner(c, keyer, logger)
	defer runner.Close()

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      server.New(runner, logger).Handler(),
		ReadTimeout:  time.Minute,
		WriteTimeout: 5 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Listening on %s (cache: %s)", cfg.Addr, cfg.Cache)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// serveCache builds the cache backend for the HTTP service.
func serveCache(cfg config.ServeConfig) (cache.Cache, error) {
	switch cfg.Cache {
	case "null":
		return cache.NewNullCache(), nil
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "redis cache selected but no redis address configured")
		}
		return cache.NewRedisCache(cfg.RedisAddr), nil
	case "file", "":
		dir, err := cacheDir()
		if err != nil {
			return nil, err
		}
		return cache.NewFileCache(dir)
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q (expected file, null or redis)", cfg.Cache)
	}
}
