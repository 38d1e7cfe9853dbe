package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/pvm"
	"github.com/aretw0/pvm/internal/config"
	"github.com/aretw0/pvm/internal/logging"
	"github.com/aretw0/pvm/pkg/adapters/file"
	"github.com/aretw0/pvm/pkg/adapters/memory"
	"github.com/aretw0/pvm/pkg/adapters/redis"
	"github.com/aretw0/pvm/pkg/persistence/middleware"
	"github.com/aretw0/pvm/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// EngineOptions tune createEngine beyond what the config holds.
type EngineOptions struct {
	// Async queues async continuations for workers instead of running them inline.
	Async bool
	// Metrics, when set, receives the engine metrics.
	Metrics prometheus.Registerer
}

// closer releases the resources of an engine built by createEngine.
type closer func() error

// createLogger builds the logger described by cfg, writing to w.
func createLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if cfg.LogFormat == "json" {
		return logging.NewJSON(w, level), nil
	}
	return logging.NewText(w, level), nil
}

// createEngine initializes an engine with the store, locker and persistence
// middleware selected by cfg, and loads cfg.ProcessesDir.
func createEngine(cfg *config.Config, logger *slog.Logger, opts EngineOptions) (*pvm.Engine, closer, error) {
	engineOpts := []pvm.Option{pvm.WithLogger(logger)}
	done := func() error { return nil }

	var store ports.InstanceStore
	switch {
	case cfg.RedisAddr != "":
		storeOpts := []redis.Option{redis.WithTTL(cfg.InstanceTTL)}
		lockPrefix := "pvm:"
		if cfg.RedisPrefix != "" {
			storeOpts = append(storeOpts, redis.WithPrefix(cfg.RedisPrefix))
			lockPrefix = cfg.RedisPrefix
		}
		rs := redis.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, storeOpts...)
		store = rs
		engineOpts = append(engineOpts, pvm.WithLocker(redis.NewLocker(rs.Client(), lockPrefix), cfg.LockTTL))
		done = rs.Close
		logger.Debug("Using redis store", "addr", cfg.RedisAddr)
	case cfg.StoreDir != "":
		store = file.New(cfg.StoreDir)
		logger.Debug("Using file store", "dir", cfg.StoreDir)
	default:
		store = memory.NewStore()
	}

	mws, err := persistenceMiddleware(cfg)
	if err != nil {
		_ = done()
		return nil, nil, err
	}
	engineOpts = append(engineOpts, pvm.WithStore(middleware.Chain(store, mws...)))

	if opts.Async {
		engineOpts = append(engineOpts, pvm.WithAsyncJobs(cfg.JobBuffer))
	}
	if opts.Metrics != nil {
		engineOpts = append(engineOpts, pvm.WithMetrics(opts.Metrics))
	}

	engine, err := pvm.New(cfg.ProcessesDir, engineOpts...)
	if err != nil {
		_ = done()
		return nil, nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, done, nil
}

// persistenceMiddleware masks before it encrypts, so masked values never
// reach the ciphertext.
func persistenceMiddleware(cfg *config.Config) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.MaskPatterns) > 0 {
		pii, err := middleware.NewPIIMiddleware(cfg.MaskPatterns)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}
	key, err := cfg.Key()
	if err != nil {
		return nil, err
	}
	if key != nil {
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	return mws, nil
}
