package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/pvm/internal/cli"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [dir]",
	Short: "Start the HTTP server",
	Long: `Loads the process documents and exposes definitions and instances as a JSON API,
with Prometheus metrics on /metrics and async workers consuming parked executions.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		cfg, err := cli.LoadConfig(globalOptions(cmd, args), os.Environ())
		if err != nil {
			return err
		}
		app, err := openApp(cmd, args, cli.EngineOptions{Async: cfg.Workers > 0, Metrics: reg})
		if err != nil {
			return err
		}
		defer app.Close()

		addr := app.Config.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app.Logger.Info("Serving processes", "dir", app.Config.ProcessesDir)
		return cli.Serve(ctx, ln, app.Engine, cli.ServeOptions{
			Logger:   app.Logger,
			Gatherer: reg,
			Workers:  app.Config.Workers,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on (overrides the configured addr)")
}
