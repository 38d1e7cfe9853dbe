package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/pvm"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of pvm",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pvm version %s\n", strings.TrimSpace(pvm.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
