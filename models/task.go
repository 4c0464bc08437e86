package models

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// TaskStatus represents the possible statuses of a task.
type TaskStatus string

const (
	StatusPending TaskStatus = "pending"
	StatusOngoing TaskStatus = "ongoing"
	StatusDone    TaskStatus = "done"
)

// TaskCategory represents the work stream a task belongs to.
type TaskCategory string

const (
	CategorySourcing       TaskCategory = "sourcing"
	CategoryHiring         TaskCategory = "hiring"
	CategoryPlacementLegal TaskCategory = "placement_legal"
)

// TimePhase is the coarse project-timeline bucket a task is planned for.
type TimePhase string

const (
	Phase30Days    TimePhase = "30_days"
	Phase60Days    TimePhase = "60_days"
	Phase90Days    TimePhase = "90_days"
	PhaseEndOfYear TimePhase = "end_of_year"
)

// Task represents a unit of tracked work. The ID is assigned by the remote
// store at creation and is immutable thereafter.
type Task struct {
	ID          string       `json:"id" validate:"required"`
	Title       string       `json:"title" validate:"required"`
	Description string       `json:"description,omitempty"`
	Category    TaskCategory `json:"category" validate:"required,oneof=sourcing hiring placement_legal"`
	TimePhase   TimePhase    `json:"timePhase" validate:"required,oneof=30_days 60_days 90_days end_of_year"`
	Status      TaskStatus   `json:"status" validate:"required,oneof=pending ongoing done"`
	// Responsible is a comma-separated list of names, kept as free text.
	Responsible string `json:"responsible,omitempty"`
	CreatedBy   string `json:"createdBy,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
	// Duration is measured in days.
	Duration int `json:"duration" validate:"min=0"`
	// Progress is a percentage, only meaningful while Status is ongoing.
	Progress int `json:"progress" validate:"min=0,max=100"`
}

// TaskDraft carries the user-editable fields of a task, before the remote
// store has assigned an ID. It is the payload of create and update calls.
type TaskDraft struct {
	Title       string       `json:"title" validate:"required"`
	Description string       `json:"description,omitempty"`
	Category    TaskCategory `json:"category" validate:"required,oneof=sourcing hiring placement_legal"`
	TimePhase   TimePhase    `json:"timePhase" validate:"required,oneof=30_days 60_days 90_days end_of_year"`
	Status      TaskStatus   `json:"status" validate:"required,oneof=pending ongoing done"`
	Responsible string       `json:"responsible,omitempty"`
	CreatedBy   string       `json:"createdBy,omitempty"`
	StartDate   string       `json:"startDate,omitempty"`
	EndDate     string       `json:"endDate,omitempty"`
	Duration    int          `json:"duration" validate:"min=0"`
	Progress    int          `json:"progress" validate:"min=0,max=100"`
}

// NewDraft returns a draft with the defaults the board uses for a fresh task.
func NewDraft(title string) TaskDraft {
	return TaskDraft{
		Title:     title,
		Category:  CategorySourcing,
		TimePhase: Phase30Days,
		Status:    StatusPending,
	}
}

// Draft returns the editable fields of an existing task.
func (t Task) Draft() TaskDraft {
	return TaskDraft{
		Title:       t.Title,
		Description: t.Description,
		Category:    t.Category,
		TimePhase:   t.TimePhase,
		Status:      t.Status,
		Responsible: t.Responsible,
		CreatedBy:   t.CreatedBy,
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		Duration:    t.Duration,
		Progress:    t.Progress,
	}
}

// global validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateStruct performs validation on any struct that has validation tags.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMessages []string
		for _, e := range validationErrors {
			errorMessages = append(errorMessages, fmt.Sprintf("field '%s' failed rule '%s' (value: '%v')", e.StructNamespace(), e.Tag(), e.Value()))
		}
		return fmt.Errorf("%s", strings.Join(errorMessages, "; "))
	}
	return nil
}
