// Package projection derives the visible slice of the board from the full
// task cache. Everything here is a pure function: no gateway, no mutation.
package projection

import (
	"sort"
	"strings"

	"github.com/opsboard/opsboard/models"
)

// All is the sentinel meaning "do not filter on this dimension".
const All = "all"

// Filters is the current filter state. Each field is either All or a
// specific value. The zero value filters everything out, so start from
// NewFilters.
type Filters struct {
	Status      string
	Category    string
	Responsible string
	TimePhase   string
}

// NewFilters returns the default, fully open filter state.
func NewFilters() Filters {
	return Filters{Status: All, Category: All, Responsible: All, TimePhase: All}
}

// Reset restores the defaults in place.
func (f *Filters) Reset() {
	*f = NewFilters()
}

// Project returns the tasks visible under the filters and search term, in
// the order they appear in tasks. A task matches when every active filter
// matches and, if searchTerm is non-empty, the term occurs case-insensitively
// in the title, description, or responsible field. The responsible filter is
// substring containment, not exact match: the field is comma-joined free
// text, so "Alice" matches "Alice, Bob".
func Project(tasks []models.Task, filters Filters, searchTerm string) []models.Task {
	term := strings.ToLower(searchTerm)

	visible := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		if term != "" &&
			!strings.Contains(strings.ToLower(task.Title), term) &&
			!strings.Contains(strings.ToLower(task.Description), term) &&
			!strings.Contains(strings.ToLower(task.Responsible), term) {
			continue
		}
		if filters.Status != All && string(task.Status) != filters.Status {
			continue
		}
		if filters.Category != All && string(task.Category) != filters.Category {
			continue
		}
		if filters.Responsible != All && !strings.Contains(task.Responsible, filters.Responsible) {
			continue
		}
		if filters.TimePhase != All && string(task.TimePhase) != filters.TimePhase {
			continue
		}
		visible = append(visible, task)
	}
	return visible
}

// Progress aggregates status counts for the dashboard header.
type Progress struct {
	Total   int
	Done    int
	Ongoing int
	Pending int
	// Percentages are 0 when Total is 0.
	DonePercentage    float64
	OngoingPercentage float64
}

// Summarize computes the status breakdown of tasks.
func Summarize(tasks []models.Task) Progress {
	p := Progress{Total: len(tasks)}
	for _, task := range tasks {
		switch task.Status {
		case models.StatusDone:
			p.Done++
		case models.StatusOngoing:
			p.Ongoing++
		case models.StatusPending:
			p.Pending++
		}
	}
	if p.Total > 0 {
		p.DonePercentage = float64(p.Done) / float64(p.Total) * 100
		p.OngoingPercentage = float64(p.Ongoing) / float64(p.Total) * 100
	}
	return p
}

// ResponsibleOptions derives the filter dropdown's options: every distinct
// trimmed, non-empty name found by splitting each task's responsible field
// on commas, across the full cache, sorted ascending.
func ResponsibleOptions(tasks []models.Task) []string {
	seen := make(map[string]bool)
	for _, task := range tasks {
		for _, name := range strings.Split(task.Responsible, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				seen[name] = true
			}
		}
	}

	options := make([]string, 0, len(seen))
	for name := range seen {
		options = append(options, name)
	}
	sort.Strings(options)
	return options
}
