package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/pixelmill/spritepack/internal/api"
	"github.com/pixelmill/spritepack/pkg/cache"
	"github.com/pixelmill/spritepack/pkg/pipeline"
)

// serveCommand creates the serve command exposing the pipeline over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		redisAddr string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the composition pipeline over HTTP",
		Long: `Serve the composition pipeline over HTTP.

POST /v1/compose runs the pipeline against server-visible paths; composed
sheets are retrievable as PNG at /v1/sheets/{name} and as JSON at
/v1/sheets/{name}/descriptor.

With --redis, composed artifacts are cached in a shared Redis instance so
multiple workers avoid recomposing identical inputs; otherwise the local
file cache is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, redisAddr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "Redis address for a shared cache (host:port)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, redisAddr string, noCache bool) error {
	store, err := c.serveCache(ctx, redisAddr, noCache)
	if err != nil {
		return err
	}
	runner := c.serveRunner(store)
	defer runner.Close()

	server := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(runner, c.Logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		c.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	}
}

// serveRunner builds the pipeline runner for the HTTP server. Its cache
// keys are scoped so a shared Redis instance can also hold entries from
// other tools without collisions.
func (c *CLI) serveRunner(store cache.Cache) *pipeline.Runner {
	return pipeline.NewRunner(store, cache.NewScopedKeyer(nil, "serve:"), c.Logger)
}

// serveCache picks the cache backend for the server.
func (c *CLI) serveCache(ctx context.Context, redisAddr string, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if redisAddr != "" {
		store, err := cache.NewRedisCache(ctx, redisAddr)
		if err != nil {
			return nil, fmt.Errorf("connect to redis %s: %w", redisAddr, err)
		}
		return store, nil
	}
	return newCache(false)
}
