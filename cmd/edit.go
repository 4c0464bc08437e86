package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// editCmd updates every field of an existing task through prompts.
var editCmd = &cobra.Command{
	Use:   "edit <task-id>",
	Short: "Edit a task interactively",
	Long: `Edit a task field by field. Each prompt is seeded with the current
value, so pressing enter keeps it.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	id := args[0]

	c, _, cleanup, err := newCache()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := c.Load(cmd.Context()); err != nil {
		return err
	}

	task, ok := c.Get(id)
	if !ok {
		return fmt.Errorf("task %s not found", id)
	}

	draft, err := promptDraft(task.Draft())
	if err != nil {
		return err
	}

	updated, err := c.Update(cmd.Context(), id, draft)
	if err != nil {
		return err
	}

	fmt.Printf("Updated task %s: %s\n", updated.ID, updated.Title)
	return nil
}
