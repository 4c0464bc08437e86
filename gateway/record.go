package gateway

import "github.com/opsboard/opsboard/models"

// TaskRecord is the wire shape of a task row. Column names are snake_case,
// matching the store schema, and optional columns may be null; Task()
// substitutes the declared defaults so the internal shape never carries
// missing fields.
type TaskRecord struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Category    string  `json:"category"`
	TimePhase   string  `json:"time_phase"`
	Status      string  `json:"status"`
	Responsible *string `json:"responsible"`
	CreatedBy   *string `json:"created_by"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	Duration    *int    `json:"duration"`
	Progress    *int    `json:"progress"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

// RecordFields is the mutable column set submitted on insert and update.
type RecordFields struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	TimePhase   string `json:"time_phase"`
	Status      string `json:"status"`
	Responsible string `json:"responsible"`
	CreatedBy   string `json:"created_by"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Duration    int    `json:"duration"`
	Progress    int    `json:"progress"`
}

// Task converts the wire record to the internal shape, substituting
// empty-string and zero defaults for null optional columns.
func (r TaskRecord) Task() models.Task {
	return models.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: strOrEmpty(r.Description),
		Category:    models.TaskCategory(r.Category),
		TimePhase:   models.TimePhase(r.TimePhase),
		Status:      models.TaskStatus(r.Status),
		Responsible: strOrEmpty(r.Responsible),
		CreatedBy:   strOrEmpty(r.CreatedBy),
		StartDate:   strOrEmpty(r.StartDate),
		EndDate:     strOrEmpty(r.EndDate),
		Duration:    intOrZero(r.Duration),
		Progress:    intOrZero(r.Progress),
	}
}

// FieldsFromDraft converts a draft to the wire column set.
func FieldsFromDraft(d models.TaskDraft) RecordFields {
	return RecordFields{
		Title:       d.Title,
		Description: d.Description,
		Category:    string(d.Category),
		TimePhase:   string(d.TimePhase),
		Status:      string(d.Status),
		Responsible: d.Responsible,
		CreatedBy:   d.CreatedBy,
		StartDate:   d.StartDate,
		EndDate:     d.EndDate,
		Duration:    d.Duration,
		Progress:    d.Progress,
	}
}

// RecordFromTask converts an internal task back to a wire record. Used by
// the server side and by tests that fabricate realtime events.
func RecordFromTask(t models.Task) TaskRecord {
	return TaskRecord{
		ID:          t.ID,
		Title:       t.Title,
		Description: strPtr(t.Description),
		Category:    string(t.Category),
		TimePhase:   string(t.TimePhase),
		Status:      string(t.Status),
		Responsible: strPtr(t.Responsible),
		CreatedBy:   strPtr(t.CreatedBy),
		StartDate:   strPtr(t.StartDate),
		EndDate:     strPtr(t.EndDate),
		Duration:    intPtr(t.Duration),
		Progress:    intPtr(t.Progress),
	}
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intOrZero(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
