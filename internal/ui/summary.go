package ui

import (
	"fmt"
	"strings"

	"github.com/opsboard/opsboard/models"
	"github.com/opsboard/opsboard/projection"
)

// SummaryLine renders the status counts as a single line.
func SummaryLine(p projection.Progress) string {
	return fmt.Sprintf("%s %d   %s %d   %s %d   %s %d",
		StyleTitle.Render("Toplam"), p.Total,
		StyleSuccess.Render("Tamamlanan"), p.Done,
		StyleWarning.Render("Devam Eden"), p.Ongoing,
		StyleSubtle.Render("Bekleyen"), p.Pending)
}

// ProgressBar renders an overall completion bar of the given width: done
// portion green, ongoing portion yellow, the rest dim.
func ProgressBar(p projection.Progress, width int) string {
	if width < 10 {
		width = 10
	}

	doneCells := int(p.DonePercentage / 100 * float64(width))
	ongoingCells := int(p.OngoingPercentage / 100 * float64(width))
	if doneCells+ongoingCells > width {
		ongoingCells = width - doneCells
	}
	rest := width - doneCells - ongoingCells

	bar := StyleSuccess.Render(strings.Repeat("█", doneCells)) +
		StyleWarning.Render(strings.Repeat("█", ongoingCells)) +
		StyleSubtle.Render(strings.Repeat("░", rest))

	return fmt.Sprintf("%s %%%.0f Tamamlandı · %%%.0f Devam Ediyor",
		bar, p.DonePercentage, p.OngoingPercentage)
}

// RecentActivity lists the first n visible tasks that are in motion
// (ongoing or done), the board's "Son Aktiviteler" panel.
func RecentActivity(tasks []models.Task, n int) string {
	var sb strings.Builder
	count := 0
	for _, task := range tasks {
		if task.Status != models.StatusOngoing && task.Status != models.StatusDone {
			continue
		}
		if count >= n {
			break
		}
		dot := StyleWarning.Render("●")
		if task.Status == models.StatusDone {
			dot = StyleSuccess.Render("●")
		}
		sb.WriteString(fmt.Sprintf("%s %s %s\n", dot, task.Title, StyleSubtle.Render("— "+task.Responsible)))
		count++
	}
	return sb.String()
}

// TaskTable renders tasks into the standard board table.
func TaskTable(tasks []models.Task) string {
	table := &Table{
		Headers:  []string{"Görev", "Kategori", "Zaman", "Durum", "Sorumlu", "İlerleme"},
		MaxWidth: 36,
	}
	for _, task := range tasks {
		progress := ""
		if task.Status == models.StatusOngoing {
			progress = fmt.Sprintf("%%%d", task.Progress)
		}
		table.Rows = append(table.Rows, []string{
			task.Title,
			task.Category.DisplayName(),
			task.TimePhase.DisplayName(),
			StatusStyle(string(task.Status)).Render(task.Status.DisplayName()),
			task.Responsible,
			progress,
		})
	}
	return table.Render()
}
