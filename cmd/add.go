package cmd

import (
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/opsboard/opsboard/models"
)

var (
	addDescription string
	addCategory    string
	addPhase       string
	addStatus      string
	addResponsible string
	addCreatedBy   string
	addStartDate   string
	addEndDate     string
	addDuration    int
	addProgress    int
	addInteractive bool
)

// addCmd creates a task.
var addCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a new task",
	Long: `Add a task to the board. Pass the title as an argument with flags for
the rest, or use --interactive to be prompted field by field.

Examples:
  opsboard add "Vize başvuruları" --category placement_legal --phase 60_days
  opsboard add -i`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "task description")
	addCmd.Flags().StringVar(&addCategory, "category", string(models.CategorySourcing), "category (sourcing, hiring, placement_legal)")
	addCmd.Flags().StringVar(&addPhase, "phase", string(models.Phase30Days), "time phase (30_days, 60_days, 90_days, end_of_year)")
	addCmd.Flags().StringVar(&addStatus, "status", string(models.StatusPending), "status (pending, ongoing, done)")
	addCmd.Flags().StringVar(&addResponsible, "responsible", "", "responsible people, comma separated")
	addCmd.Flags().StringVar(&addCreatedBy, "created-by", "", "who created the task")
	addCmd.Flags().StringVar(&addStartDate, "start", "", "start date (YYYY-MM-DD)")
	addCmd.Flags().StringVar(&addEndDate, "end", "", "end date (YYYY-MM-DD)")
	addCmd.Flags().IntVar(&addDuration, "duration", 0, "duration in days")
	addCmd.Flags().IntVar(&addProgress, "progress", 0, "progress percentage (ongoing tasks)")
	addCmd.Flags().BoolVarP(&addInteractive, "interactive", "i", false, "prompt for each field")
}

func runAdd(cmd *cobra.Command, args []string) error {
	var draft models.TaskDraft
	var err error

	if addInteractive {
		draft, err = promptDraft(models.NewDraft(""))
		if err != nil {
			return err
		}
	} else {
		title := ""
		if len(args) > 0 {
			title = args[0]
		}
		draft = models.TaskDraft{
			Title:       title,
			Description: addDescription,
			Category:    models.TaskCategory(addCategory),
			TimePhase:   models.TimePhase(addPhase),
			Status:      models.TaskStatus(addStatus),
			Responsible: addResponsible,
			CreatedBy:   addCreatedBy,
			StartDate:   addStartDate,
			EndDate:     addEndDate,
			Duration:    addDuration,
			Progress:    addProgress,
		}
	}

	if err := models.ValidateStruct(draft); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}

	c, _, cleanup, err := newCache()
	if err != nil {
		return err
	}
	defer cleanup()

	task, err := c.Create(cmd.Context(), draft)
	if err != nil {
		return err
	}

	fmt.Printf("Created task %s: %s\n", task.ID, task.Title)
	return nil
}

// promptDraft walks the user through every field, seeded from base.
func promptDraft(base models.TaskDraft) (models.TaskDraft, error) {
	draft := base

	titlePrompt := promptui.Prompt{
		Label:   "Title",
		Default: draft.Title,
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return fmt.Errorf("title must not be empty")
			}
			return nil
		},
	}
	title, err := titlePrompt.Run()
	if err != nil {
		return models.TaskDraft{}, err
	}
	draft.Title = title

	if draft.Description, err = promptString("Description", draft.Description); err != nil {
		return models.TaskDraft{}, err
	}

	category, err := promptSelect("Category", categoryDisplayItems(), indexOfCategory(draft.Category))
	if err != nil {
		return models.TaskDraft{}, err
	}
	draft.Category = models.Categories()[category]

	phase, err := promptSelect("Time phase", phaseDisplayItems(), indexOfPhase(draft.TimePhase))
	if err != nil {
		return models.TaskDraft{}, err
	}
	draft.TimePhase = models.TimePhases()[phase]

	status, err := promptSelect("Status", statusDisplayItems(), indexOfStatus(draft.Status))
	if err != nil {
		return models.TaskDraft{}, err
	}
	draft.Status = models.Statuses()[status]

	if draft.Responsible, err = promptString("Responsible (comma separated)", draft.Responsible); err != nil {
		return models.TaskDraft{}, err
	}
	if draft.CreatedBy, err = promptString("Created by", draft.CreatedBy); err != nil {
		return models.TaskDraft{}, err
	}
	if draft.StartDate, err = promptString("Start date (YYYY-MM-DD)", draft.StartDate); err != nil {
		return models.TaskDraft{}, err
	}
	if draft.EndDate, err = promptString("End date (YYYY-MM-DD)", draft.EndDate); err != nil {
		return models.TaskDraft{}, err
	}
	if draft.Duration, err = promptInt("Duration (days)", draft.Duration); err != nil {
		return models.TaskDraft{}, err
	}
	if draft.Status == models.StatusOngoing {
		if draft.Progress, err = promptInt("Progress (0-100)", draft.Progress); err != nil {
			return models.TaskDraft{}, err
		}
	}

	return draft, nil
}

func promptString(label, def string) (string, error) {
	p := promptui.Prompt{Label: label, Default: def, AllowEdit: true}
	return p.Run()
}

func promptInt(label string, def int) (int, error) {
	p := promptui.Prompt{
		Label:   label,
		Default: fmt.Sprintf("%d", def),
		Validate: func(input string) error {
			var n int
			if _, err := fmt.Sscanf(input, "%d", &n); err != nil || n < 0 {
				return fmt.Errorf("enter a non-negative number")
			}
			return nil
		},
	}
	out, err := p.Run()
	if err != nil {
		return 0, err
	}
	var n int
	_, _ = fmt.Sscanf(out, "%d", &n)
	return n, nil
}

func promptSelect(label string, items []string, cursor int) (int, error) {
	if cursor < 0 {
		cursor = 0
	}
	s := promptui.Select{Label: label, Items: items, CursorPos: cursor}
	i, _, err := s.Run()
	return i, err
}

func categoryDisplayItems() []string {
	items := make([]string, 0, len(models.Categories()))
	for _, c := range models.Categories() {
		items = append(items, c.DisplayName())
	}
	return items
}

func phaseDisplayItems() []string {
	items := make([]string, 0, len(models.TimePhases()))
	for _, p := range models.TimePhases() {
		items = append(items, p.DisplayName())
	}
	return items
}

func statusDisplayItems() []string {
	items := make([]string, 0, len(models.Statuses()))
	for _, s := range models.Statuses() {
		items = append(items, s.DisplayName())
	}
	return items
}

func indexOfCategory(c models.TaskCategory) int {
	for i, v := range models.Categories() {
		if v == c {
			return i
		}
	}
	return 0
}

func indexOfPhase(p models.TimePhase) int {
	for i, v := range models.TimePhases() {
		if v == p {
			return i
		}
	}
	return 0
}

func indexOfStatus(s models.TaskStatus) int {
	for i, v := range models.Statuses() {
		if v == s {
			return i
		}
	}
	return 0
}
