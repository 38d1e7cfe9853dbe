package main

import (
	"fmt"
	"os"

	"github.com/aretw0/pvm/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check the process documents for consistency",
	Long: `Compiles every document of the directory and crawls each definition from its
initial activity, reporting compile errors, dangling transitions and unreachable activities.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig(globalOptions(cmd, args), os.Environ())
		if err != nil {
			return err
		}
		if err := cli.RunValidate(cmd.OutOrStdout(), cfg.ProcessesDir); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
