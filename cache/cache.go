// Package cache holds the in-process task collection and keeps it consistent
// with the remote store. Local mutations go through the gateway first and the
// cache is updated only from the canonical record in the response, never
// optimistically. Remote change events are merged in arrival order; records
// carry no version field, so the last applied write wins.
package cache

import (
	"context"
	"strings"
	"sync"

	"github.com/opsboard/opsboard/gateway"
	"github.com/opsboard/opsboard/models"
	"github.com/opsboard/opsboard/types"
)

// Cache is the single source of truth per task id. Instances are
// independent; tests build as many as they like around mock gateways.
type Cache struct {
	gw gateway.Gateway

	// Logf, when set, receives diagnostics for swallowed failures such as
	// activity-log writes. Mutations never fail because of them.
	Logf func(format string, args ...any)

	mu    sync.Mutex
	tasks []models.Task
}

// New builds an empty cache over gw. Call Load to populate it.
func New(gw gateway.Gateway) *Cache {
	return &Cache{gw: gw}
}

func (c *Cache) logf(format string, args ...any) {
	if c.Logf != nil {
		c.Logf(format, args...)
	}
}

// Load replaces the cache wholesale with the store's current task set. An
// empty store is zero tasks, not an error. On gateway failure the cache
// keeps its last-known-good contents and a RemoteError is returned.
func (c *Cache) Load(ctx context.Context) error {
	records, err := c.gw.ListTasks(ctx)
	if err != nil {
		return types.NewRemoteError("load", err)
	}

	tasks := make([]models.Task, 0, len(records))
	for _, r := range records {
		tasks = append(tasks, r.Task())
	}

	c.mu.Lock()
	c.tasks = tasks
	c.mu.Unlock()
	return nil
}

// Create validates the draft locally, submits it, and inserts the canonical
// record. An empty title fails with a ValidationError before any gateway
// call is made.
func (c *Cache) Create(ctx context.Context, draft models.TaskDraft) (models.Task, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return models.Task{}, &types.ValidationError{Field: "title", Reason: "must not be empty"}
	}

	record, err := c.gw.InsertTask(ctx, gateway.FieldsFromDraft(draft))
	if err != nil {
		return models.Task{}, types.NewRemoteError("create", err)
	}

	task := record.Task()
	c.mu.Lock()
	c.upsertLocked(task)
	c.mu.Unlock()

	c.appendActivity(ctx, task.ID, gateway.ActivityCreated, map[string]any{"title": task.Title})
	return task, nil
}

// Update submits a full-field update for id and replaces the cached record
// with the store's response. The gateway is authoritative about existence:
// the cache does not pre-check, and a record unknown locally is inserted.
func (c *Cache) Update(ctx context.Context, id string, draft models.TaskDraft) (models.Task, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return models.Task{}, &types.ValidationError{Field: "title", Reason: "must not be empty"}
	}

	record, err := c.gw.UpdateTask(ctx, id, gateway.FieldsFromDraft(draft))
	if err != nil {
		return models.Task{}, types.NewRemoteError("update", err)
	}

	task := record.Task()
	c.mu.Lock()
	c.upsertLocked(task)
	c.mu.Unlock()

	c.appendActivity(ctx, task.ID, gateway.ActivityUpdated, map[string]any{"title": task.Title})
	return task, nil
}

// UpdateStatus patches only the status column. The cached record is still
// replaced wholesale with the server's full response, so of two in-flight
// single-field updates to the same task the later response wins in full.
func (c *Cache) UpdateStatus(ctx context.Context, id string, status models.TaskStatus) (models.Task, error) {
	task, err := c.updateField(ctx, id, "status", string(status))
	if err != nil {
		return models.Task{}, err
	}
	c.appendActivity(ctx, id, gateway.ActivityStatusChanged, map[string]any{"newStatus": string(status)})
	return task, nil
}

// UpdateTimePhase patches only the time_phase column; see UpdateStatus for
// the replacement semantics.
func (c *Cache) UpdateTimePhase(ctx context.Context, id string, phase models.TimePhase) (models.Task, error) {
	task, err := c.updateField(ctx, id, "time_phase", string(phase))
	if err != nil {
		return models.Task{}, err
	}
	c.appendActivity(ctx, id, gateway.ActivityUpdated, map[string]any{"field": "time_phase", "newValue": string(phase)})
	return task, nil
}

func (c *Cache) updateField(ctx context.Context, id, field string, value any) (models.Task, error) {
	record, err := c.gw.UpdateTaskField(ctx, id, field, value)
	if err != nil {
		return models.Task{}, types.NewRemoteError("update "+field, err)
	}

	task := record.Task()
	c.mu.Lock()
	c.upsertLocked(task)
	c.mu.Unlock()
	return task, nil
}

// BulkCreate submits all drafts in a single gateway call and appends the
// returned records. Unlike Create it performs no per-row validation; callers
// (the importer) filter invalid rows before they get here.
func (c *Cache) BulkCreate(ctx context.Context, drafts []models.TaskDraft) ([]models.Task, error) {
	if len(drafts) == 0 {
		return nil, nil
	}

	fields := make([]gateway.RecordFields, 0, len(drafts))
	for _, d := range drafts {
		fields = append(fields, gateway.FieldsFromDraft(d))
	}

	records, err := c.gw.BulkInsertTasks(ctx, fields)
	if err != nil {
		return nil, types.NewRemoteError("bulk create", err)
	}

	tasks := make([]models.Task, 0, len(records))
	c.mu.Lock()
	for _, r := range records {
		task := r.Task()
		c.upsertLocked(task)
		tasks = append(tasks, task)
	}
	c.mu.Unlock()

	for _, t := range tasks {
		c.appendActivity(ctx, t.ID, gateway.ActivityCreated, map[string]any{"title": t.Title})
	}
	return tasks, nil
}

// ApplyRemoteEvent merges one externally observed change. Insert appends
// unless the id is already cached, so duplicate delivery of the same insert
// stays a single record. Update replaces the matching record and is a no-op
// for unknown ids; delete removes the matching record and is a no-op for
// unknown ids.
func (c *Cache) ApplyRemoteEvent(ev gateway.ChangeEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Kind {
	case gateway.EventInsert:
		if ev.New == nil {
			return
		}
		task := ev.New.Task()
		if c.findLocked(task.ID) < 0 {
			c.tasks = append(c.tasks, task)
		}
	case gateway.EventUpdate:
		if ev.New == nil {
			return
		}
		task := ev.New.Task()
		if i := c.findLocked(task.ID); i >= 0 {
			c.tasks[i] = task
		}
	case gateway.EventDelete:
		if ev.Old == nil {
			return
		}
		if i := c.findLocked(ev.Old.ID); i >= 0 {
			c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
		}
	}
}

// Tasks returns a copy of the cached tasks in insertion order: the initial
// load's ordering (newest first, per the store) with later creations
// appended at the end.
func (c *Cache) Tasks() []models.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

// Get returns the cached task with id, if present.
func (c *Cache) Get(id string) (models.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.findLocked(id); i >= 0 {
		return c.tasks[i], true
	}
	return models.Task{}, false
}

// Len returns the number of cached tasks.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tasks)
}

func (c *Cache) findLocked(id string) int {
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Cache) upsertLocked(task models.Task) {
	if i := c.findLocked(task.ID); i >= 0 {
		c.tasks[i] = task
		return
	}
	c.tasks = append(c.tasks, task)
}

// appendActivity writes an audit-trail entry. Failures are logged and
// swallowed; they never affect the mutation that triggered them.
func (c *Cache) appendActivity(ctx context.Context, taskID string, kind gateway.ActivityType, details map[string]any) {
	if err := c.gw.AppendActivityLog(ctx, taskID, kind, details); err != nil {
		c.logf("activity log write failed for task %s: %v", taskID, err)
	}
}
