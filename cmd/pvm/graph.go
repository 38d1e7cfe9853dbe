package main

import (
	"github.com/aretw0/pvm/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [dir]",
	Short: "Export the process graph visualization",
	Long:  `Outputs a Mermaid diagram (graph TD) of a definition, highlighting where an instance waits when --instance is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		definitionID, _ := cmd.Flags().GetString("process")
		instanceID, _ := cmd.Flags().GetString("instance")

		app, err := openApp(cmd, args, cli.EngineOptions{})
		if err != nil {
			return err
		}
		defer app.Close()
		return cli.RunGraph(cmd.Context(), cmd.OutOrStdout(), app.Engine, definitionID, instanceID)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("process", "p", "", "Definition id (optional when a single one is loaded)")
	graphCmd.Flags().String("instance", "", "Highlight the activities of this stored instance")
}
