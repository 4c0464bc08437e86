package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opsboard/opsboard/transfer"
)

// exportCmd writes the current board to a CSV file.
var exportCmd = &cobra.Command{
	Use:   "export <file.csv>",
	Short: "Export tasks to a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	c, _, cleanup, err := newCache()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := c.Load(cmd.Context()); err != nil {
		return err
	}

	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	tasks := c.Tasks()
	if err := transfer.Export(f, tasks); err != nil {
		return fmt.Errorf("write %s: %w", args[0], err)
	}

	fmt.Printf("Exported %d task(s) to %s\n", len(tasks), args[0])
	return nil
}
