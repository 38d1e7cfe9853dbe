package main

import (
	"fmt"
	"os"

	"github.com/aretw0/pvm/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pvm",
	Short: "pvm runs process definitions on a process virtual machine",
	Long: `pvm compiles YAML process documents into definitions and runs instances of them,
interactively, as a one-off check or behind an HTTP server.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().String("dir", "", "Directory containing the process documents")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
}

// globalOptions reads the persistent flags. A positional directory is used
// when --dir is not given.
func globalOptions(cmd *cobra.Command, args []string) cli.GlobalOptions {
	configPath, _ := cmd.Flags().GetString("config")
	dir, _ := cmd.Flags().GetString("dir")
	level, _ := cmd.Flags().GetString("log-level")
	if !cmd.Flags().Changed("dir") && len(args) > 0 {
		dir = args[0]
	}
	return cli.GlobalOptions{ConfigPath: configPath, Dir: dir, LogLevel: level}
}

// openApp builds the engine for commands that need one.
func openApp(cmd *cobra.Command, args []string, eopts cli.EngineOptions) (*cli.App, error) {
	return cli.Open(globalOptions(cmd, args), os.Environ(), cmd.ErrOrStderr(), eopts)
}
