// Package cli implements the commands of the pvm binary on top of the
// engine, leaving flag parsing to cmd/pvm.
package cli

import (
	"io"
	"log/slog"

	"github.com/aretw0/pvm"
	"github.com/aretw0/pvm/internal/config"
)

// GlobalOptions are the persistent flags shared by every command. Empty
// fields keep the configured value.
type GlobalOptions struct {
	ConfigPath string
	Dir        string
	LogLevel   string
}

// App bundles what a command needs.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	Engine *pvm.Engine

	close closer
}

// LoadConfig reads the configuration and applies the flag overrides.
func LoadConfig(opts GlobalOptions, environ []string) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath, environ)
	if err != nil {
		return nil, err
	}
	if opts.Dir != "" {
		cfg.ProcessesDir = opts.Dir
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	return cfg, nil
}

// Open loads the configuration, the logger (writing to logs) and the engine.
func Open(opts GlobalOptions, environ []string, logs io.Writer, eopts EngineOptions) (*App, error) {
	cfg, err := LoadConfig(opts, environ)
	if err != nil {
		return nil, err
	}
	logger, err := createLogger(cfg, logs)
	if err != nil {
		return nil, err
	}
	engine, done, err := createEngine(cfg, logger, eopts)
	if err != nil {
		return nil, err
	}
	return &App{Config: cfg, Logger: logger, Engine: engine, close: done}, nil
}

// Close releases the store connections.
func (a *App) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}
