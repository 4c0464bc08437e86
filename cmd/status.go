package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opsboard/opsboard/models"
)

// statusCmd flips a task's status without touching the other fields.
var statusCmd = &cobra.Command{
	Use:   "status <task-id> <pending|ongoing|done>",
	Short: "Set a task's status",
	Args:  cobra.ExactArgs(2),
	RunE:  runStatus,
}

// phaseCmd moves a task to another time phase.
var phaseCmd = &cobra.Command{
	Use:   "phase <task-id> <30_days|60_days|90_days|end_of_year>",
	Short: "Set a task's time phase",
	Args:  cobra.ExactArgs(2),
	RunE:  runPhase,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(phaseCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	id, status := args[0], models.TaskStatus(args[1])
	if !validStatus(status) {
		return fmt.Errorf("unknown status %q (expected pending, ongoing or done)", args[1])
	}

	c, _, cleanup, err := newCache()
	if err != nil {
		return err
	}
	defer cleanup()

	task, err := c.UpdateStatus(cmd.Context(), id, status)
	if err != nil {
		return err
	}

	fmt.Printf("Task %s is now %s\n", task.ID, task.Status.DisplayName())
	return nil
}

func runPhase(cmd *cobra.Command, args []string) error {
	id, phase := args[0], models.TimePhase(args[1])
	if !validPhase(phase) {
		return fmt.Errorf("unknown time phase %q (expected 30_days, 60_days, 90_days or end_of_year)", args[1])
	}

	c, _, cleanup, err := newCache()
	if err != nil {
		return err
	}
	defer cleanup()

	task, err := c.UpdateTimePhase(cmd.Context(), id, phase)
	if err != nil {
		return err
	}

	fmt.Printf("Task %s moved to %s\n", task.ID, task.TimePhase.DisplayName())
	return nil
}

func validStatus(s models.TaskStatus) bool {
	for _, v := range models.Statuses() {
		if v == s {
			return true
		}
	}
	return false
}

func validPhase(p models.TimePhase) bool {
	for _, v := range models.TimePhases() {
		if v == p {
			return true
		}
	}
	return false
}
