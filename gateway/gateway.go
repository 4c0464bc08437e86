// Package gateway defines the contract with the remote task store and the
// shapes that cross that boundary. The store speaks snake_case records; the
// rest of the program only ever sees models.Task. Translation happens here
// and nowhere else.
package gateway

import "context"

// EventKind classifies a realtime change notification.
type EventKind string

const (
	EventInsert EventKind = "insert"
	EventUpdate EventKind = "update"
	EventDelete EventKind = "delete"
)

// ActivityType classifies an activity-log entry.
type ActivityType string

const (
	ActivityCreated       ActivityType = "created"
	ActivityUpdated       ActivityType = "updated"
	ActivityStatusChanged ActivityType = "status_changed"
)

// ChangeEvent is one realtime notification from the store. New carries the
// canonical record for inserts and updates; Old carries at least the id for
// deletes. Delivery is at-most-once and in server callback order.
type ChangeEvent struct {
	Kind EventKind   `json:"kind"`
	New  *TaskRecord `json:"new,omitempty"`
	Old  *TaskRecord `json:"old,omitempty"`
}

// Handle identifies an active realtime subscription.
type Handle interface {
	// ID returns an opaque identifier, useful for logging.
	ID() string
}

// Gateway is the remote store as consumed by the cache layer. All mutating
// calls return the canonical record so callers can refresh their copy; the
// store assigns ids and timestamps.
type Gateway interface {
	// ListTasks returns every task, ordered by creation time, most
	// recent first.
	ListTasks(ctx context.Context) ([]TaskRecord, error)

	// InsertTask creates a task from the given fields and returns the
	// canonical record with the store-assigned id.
	InsertTask(ctx context.Context, fields RecordFields) (TaskRecord, error)

	// UpdateTask replaces every user-editable field of the task with id.
	UpdateTask(ctx context.Context, id string, fields RecordFields) (TaskRecord, error)

	// UpdateTaskField patches a single column and returns the full
	// canonical record afterwards.
	UpdateTaskField(ctx context.Context, id, field string, value any) (TaskRecord, error)

	// BulkInsertTasks creates all given tasks in one call and returns the
	// canonical records in insertion order.
	BulkInsertTasks(ctx context.Context, fields []RecordFields) ([]TaskRecord, error)

	// AppendActivityLog records an audit-trail entry. Best effort: callers
	// log failures and move on, they never propagate them.
	AppendActivityLog(ctx context.Context, taskID string, kind ActivityType, details map[string]any) error

	// Subscribe registers onEvent for every subsequent store change.
	// Events arrive one at a time, in commit order.
	Subscribe(onEvent func(ChangeEvent)) (Handle, error)

	// Unsubscribe tears down the feed; no events are delivered afterwards.
	Unsubscribe(h Handle) error

	// Close releases the gateway's resources.
	Close() error
}
