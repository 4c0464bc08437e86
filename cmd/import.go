package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opsboard/opsboard/transfer"
)

// importCmd loads tasks from a CSV export.
var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import tasks from a CSV file",
	Long: `Import tasks from a CSV file with the board's column layout. The first
row is treated as headers and rows without a title are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	drafts, err := transfer.Import(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}
	if len(drafts) == 0 {
		fmt.Println("No importable rows found.")
		return nil
	}

	c, _, cleanup, err := newCache()
	if err != nil {
		return err
	}
	defer cleanup()

	tasks, err := c.BulkCreate(cmd.Context(), drafts)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d task(s) from %s\n", len(tasks), args[0])
	return nil
}
