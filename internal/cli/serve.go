package cli

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/aretw0/pvm"
	httpadapter "github.com/aretw0/pvm/pkg/adapters/http"
	"github.com/aretw0/pvm/pkg/instance"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions configures Serve.
type ServeOptions struct {
	Logger *slog.Logger
	// Gatherer is exposed on /metrics when set.
	Gatherer prometheus.Gatherer
	// Workers consume async jobs; zero disables them.
	Workers int
}

// Serve exposes engine over HTTP on ln until ctx is done, then shuts the
// server down gracefully. When workers are configured, parked async
// executions found in the store are queued again at startup.
func Serve(ctx context.Context, ln net.Listener, engine *pvm.Engine, opts ServeOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	handlerOpts := []httpadapter.Option{
		httpadapter.WithLogger(logger),
		httpadapter.WithVersion(pvm.Version),
	}
	if opts.Gatherer != nil {
		handlerOpts = append(handlerOpts, httpadapter.WithMetrics(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}
	srv := &http.Server{
		Handler:           httpadapter.NewHandler(engine.Definitions(), engine.Manager(), handlerOpts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting pvm server", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if opts.Workers > 0 {
		g.Go(func() error {
			err := engine.Work(ctx, opts.Workers)
			if errors.Is(err, instance.ErrAsyncDisabled) {
				logger.Warn("Workers requested but async jobs are disabled")
				return nil
			}
			return err
		})
		g.Go(func() error {
			n, err := engine.Manager().Recover(ctx)
			if err != nil && !errors.Is(err, instance.ErrAsyncDisabled) {
				logger.Warn("Recovery failed", "err", err)
				return nil
			}
			if n > 0 {
				logger.Info("Recovered parked executions", "jobs", n)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Start shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			return srv.Close()
		}
		logger.Info("pvm server stopped gracefully")
		return nil
	})

	return g.Wait()
}
