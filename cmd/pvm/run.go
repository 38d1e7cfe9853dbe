package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/pvm/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [dir]",
	Short: "Run a process instance interactively",
	Long: `Starts an instance and reads commands from stdin: an empty line or "signal [activity] [name] [json]"
signals a waiting execution, "set key=value" changes variables, "cancel [reason]" deletes the instance.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		definitionID, _ := cmd.Flags().GetString("process")
		vars, _ := cmd.Flags().GetString("vars")
		headless, _ := cmd.Flags().GetBool("headless")
		style, _ := cmd.Flags().GetString("style")

		app, err := openApp(cmd, args, cli.EngineOptions{})
		if err != nil {
			return err
		}
		defer app.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return cli.RunProcess(ctx, app.Engine, cli.RunOptions{
			DefinitionID: definitionID,
			Variables:    vars,
			Headless:     headless,
			Style:        style,
			Input:        cmd.InOrStdin(),
			Output:       cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("process", "p", "", "Definition id (optional when a single one is loaded)")
	runCmd.Flags().String("vars", "", "Initial variables as a JSON object")
	runCmd.Flags().Bool("headless", false, "Run in headless mode (no banner, no prompts, plain status lines)")
	runCmd.Flags().String("style", "", "Glamour style (dark, light, notty); detected by default")
}
