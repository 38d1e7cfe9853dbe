package main

import (
	"github.com/aretw0/pvm/internal/cli"
	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe [dir]",
	Short: "Render a definition as a table",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		definitionID, _ := cmd.Flags().GetString("process")
		style, _ := cmd.Flags().GetString("style")

		app, err := openApp(cmd, args, cli.EngineOptions{})
		if err != nil {
			return err
		}
		defer app.Close()
		return cli.RunDescribe(cmd.Context(), cmd.OutOrStdout(), app.Engine, definitionID, style)
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().StringP("process", "p", "", "Definition id (optional when a single one is loaded)")
	describeCmd.Flags().String("style", "", "Glamour style (dark, light, notty); detected by default")
}
