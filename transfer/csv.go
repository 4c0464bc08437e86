// Package transfer reads and writes the board's spreadsheet format: one task
// per row, eleven fixed columns, category/time-phase/status given by their
// localized display names rather than enum keys.
package transfer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/opsboard/opsboard/models"
)

// Column order shared by import and export.
var headers = []string{
	"Başlık", "Açıklama", "Kategori", "Zaman Dilimi", "Durum",
	"Sorumlu", "Oluşturan", "Başlangıç Tarihi", "Bitiş Tarihi", "Süre", "İlerleme",
}

// Import parses the spreadsheet from r into task drafts. The first row is
// treated as the header and skipped. Rows with an empty title are skipped
// silently; they show up only as a reduced count. Unrecognized display names
// fall back to the first enum value, unparsable numbers to zero.
func Import(r io.Reader) ([]models.TaskDraft, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse import file: %w", err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	var drafts []models.TaskDraft
	for _, row := range rows[1:] {
		cell := func(i int) string {
			if i < len(row) {
				return row[i]
			}
			return ""
		}

		title := cell(0)
		if title == "" {
			continue
		}

		drafts = append(drafts, models.TaskDraft{
			Title:       title,
			Description: cell(1),
			Category:    models.CategoryFromName(cell(2)),
			TimePhase:   models.TimePhaseFromName(cell(3)),
			Status:      models.StatusFromName(cell(4)),
			Responsible: cell(5),
			CreatedBy:   cell(6),
			StartDate:   cell(7),
			EndDate:     cell(8),
			Duration:    atoiOrZero(cell(9)),
			Progress:    atoiOrZero(cell(10)),
		})
	}
	return drafts, nil
}

// Export writes tasks to w in the same eleven-column format, substituting
// display names for enum keys.
func Export(w io.Writer, tasks []models.Task) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("write export header: %w", err)
	}

	for _, task := range tasks {
		row := []string{
			task.Title,
			task.Description,
			task.Category.DisplayName(),
			task.TimePhase.DisplayName(),
			task.Status.DisplayName(),
			task.Responsible,
			task.CreatedBy,
			task.StartDate,
			task.EndDate,
			strconv.Itoa(task.Duration),
			strconv.Itoa(task.Progress),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write export row for %q: %w", task.Title, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
