package main

import (
	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the available property tools",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return render(cmd.OutOrStdout(), outputFormat, newToolEnv(cfg).Registry.List())
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
