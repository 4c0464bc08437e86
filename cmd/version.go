package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// versionCmd prints the application version.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("opsboard %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
