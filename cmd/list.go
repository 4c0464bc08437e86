package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opsboard/opsboard/internal/ui"
	"github.com/opsboard/opsboard/projection"
)

var (
	listStatus      string
	listCategory    string
	listResponsible string
	listPhase       string
	listSearch      string
)

// listCmd prints a one-shot filtered view of the board.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Long: `List tasks in a table. Filters mirror the board's dropdowns: pass a
specific value or leave a flag at "all".`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listStatus, "status", projection.All, "filter by status (pending, ongoing, done)")
	listCmd.Flags().StringVar(&listCategory, "category", projection.All, "filter by category (sourcing, hiring, placement_legal)")
	listCmd.Flags().StringVar(&listResponsible, "responsible", projection.All, "filter by responsible person")
	listCmd.Flags().StringVar(&listPhase, "phase", projection.All, "filter by time phase (30_days, 60_days, 90_days, end_of_year)")
	listCmd.Flags().StringVar(&listSearch, "search", "", "case-insensitive search over title, description, responsible")
}

func runList(cmd *cobra.Command, args []string) error {
	c, _, cleanup, err := newCache()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := c.Load(cmd.Context()); err != nil {
		return err
	}

	filters := projection.Filters{
		Status:      listStatus,
		Category:    listCategory,
		Responsible: listResponsible,
		TimePhase:   listPhase,
	}
	visible := projection.Project(c.Tasks(), filters, listSearch)
	progress := projection.Summarize(visible)

	fmt.Println(ui.SummaryLine(progress))
	fmt.Println(ui.ProgressBar(progress, 40))
	fmt.Println()
	fmt.Print(ui.TaskTable(visible))

	if people := projection.ResponsibleOptions(c.Tasks()); len(people) > 0 && verbose {
		fmt.Println()
		fmt.Println(ui.StyleSubtle.Render(fmt.Sprintf("Sorumlular: %v", people)))
	}
	return nil
}
