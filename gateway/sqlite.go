package gateway

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteGateway is a store backend kept in a local SQLite database. It is
// what the serve command runs on, and it doubles as a single-machine setup
// with no server at all. Realtime events are fanned out in-process to every
// subscriber after each successful mutation, in commit order.
type SQLiteGateway struct {
	db *sql.DB

	mu   sync.Mutex
	subs map[string]*sqliteSub
}

// sqliteSub tracks one subscriber and its in-flight deliveries, so that
// Unsubscribe can wait them out before returning.
type sqliteSub struct {
	onEvent  func(ChangeEvent)
	inFlight sync.WaitGroup
}

// NewSQLiteGateway opens (creating if needed) the database at path and
// ensures the schema exists. Use ":memory:" for an ephemeral store.
func NewSQLiteGateway(path string) (*SQLiteGateway, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	g := &SQLiteGateway{
		db:   db,
		subs: make(map[string]*sqliteSub),
	}

	if err := g.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return g, nil
}

func (g *SQLiteGateway) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		category TEXT NOT NULL,
		time_phase TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		responsible TEXT,
		created_by TEXT,
		start_date TEXT,
		end_date TEXT,
		duration INTEGER DEFAULT 0,
		progress INTEGER DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS activity_log (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL,
		type TEXT NOT NULL,
		details TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_created ON tasks(created_at);
	CREATE INDEX IF NOT EXISTS idx_activity_task ON activity_log(task_id);
	`
	_, err := g.db.Exec(schema)
	return err
}

const taskColumns = `id, title, description, category, time_phase, status,
	responsible, created_by, start_date, end_date, duration, progress, created_at`

func scanRecord(row interface{ Scan(...any) error }) (TaskRecord, error) {
	var r TaskRecord
	var description, responsible, createdBy, startDate, endDate sql.NullString
	var duration, progress sql.NullInt64

	err := row.Scan(&r.ID, &r.Title, &description, &r.Category, &r.TimePhase,
		&r.Status, &responsible, &createdBy, &startDate, &endDate,
		&duration, &progress, &r.CreatedAt)
	if err != nil {
		return TaskRecord{}, err
	}

	if description.Valid {
		r.Description = &description.String
	}
	if responsible.Valid {
		r.Responsible = &responsible.String
	}
	if createdBy.Valid {
		r.CreatedBy = &createdBy.String
	}
	if startDate.Valid {
		r.StartDate = &startDate.String
	}
	if endDate.Valid {
		r.EndDate = &endDate.String
	}
	if duration.Valid {
		d := int(duration.Int64)
		r.Duration = &d
	}
	if progress.Valid {
		p := int(progress.Int64)
		r.Progress = &p
	}
	return r, nil
}

// ListTasks returns all tasks, newest first.
func (g *SQLiteGateway) ListTasks(ctx context.Context) ([]TaskRecord, error) {
	rows, err := g.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []TaskRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task rows: %w", err)
	}
	return records, nil
}

func (g *SQLiteGateway) getTask(ctx context.Context, id string) (TaskRecord, error) {
	row := g.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	r, err := scanRecord(row)
	if err != nil {
		return TaskRecord{}, fmt.Errorf("get task %s: %w", id, err)
	}
	return r, nil
}

func (g *SQLiteGateway) insertOne(ctx context.Context, fields RecordFields) (TaskRecord, error) {
	id := uuid.NewString()
	createdAt := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := g.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, category, time_phase, status,
			responsible, created_by, start_date, end_date, duration, progress, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, fields.Title, fields.Description, fields.Category, fields.TimePhase,
		fields.Status, fields.Responsible, fields.CreatedBy, fields.StartDate,
		fields.EndDate, fields.Duration, fields.Progress, createdAt)
	if err != nil {
		return TaskRecord{}, fmt.Errorf("insert task: %w", err)
	}

	return g.getTask(ctx, id)
}

// InsertTask creates one task and emits an insert event.
func (g *SQLiteGateway) InsertTask(ctx context.Context, fields RecordFields) (TaskRecord, error) {
	record, err := g.insertOne(ctx, fields)
	if err != nil {
		return TaskRecord{}, err
	}
	g.emit(ChangeEvent{Kind: EventInsert, New: &record})
	return record, nil
}

// UpdateTask replaces every editable column of the task with id.
func (g *SQLiteGateway) UpdateTask(ctx context.Context, id string, fields RecordFields) (TaskRecord, error) {
	res, err := g.db.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, category = ?, time_phase = ?,
			status = ?, responsible = ?, created_by = ?, start_date = ?,
			end_date = ?, duration = ?, progress = ?
		WHERE id = ?`,
		fields.Title, fields.Description, fields.Category, fields.TimePhase,
		fields.Status, fields.Responsible, fields.CreatedBy, fields.StartDate,
		fields.EndDate, fields.Duration, fields.Progress, id)
	if err != nil {
		return TaskRecord{}, fmt.Errorf("update task %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return TaskRecord{}, fmt.Errorf("update task %s: %w", id, sql.ErrNoRows)
	}

	record, err := g.getTask(ctx, id)
	if err != nil {
		return TaskRecord{}, err
	}
	g.emit(ChangeEvent{Kind: EventUpdate, New: &record})
	return record, nil
}

// Columns a partial update may touch. Anything else is rejected rather than
// interpolated into SQL.
var patchableColumns = map[string]bool{
	"title":       true,
	"description": true,
	"category":    true,
	"time_phase":  true,
	"status":      true,
	"responsible": true,
	"created_by":  true,
	"start_date":  true,
	"end_date":    true,
	"duration":    true,
	"progress":    true,
}

// UpdateTaskField patches a single column and returns the full record.
func (g *SQLiteGateway) UpdateTaskField(ctx context.Context, id, field string, value any) (TaskRecord, error) {
	if !patchableColumns[field] {
		return TaskRecord{}, fmt.Errorf("update task %s: column %q is not patchable", id, field)
	}

	res, err := g.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE tasks SET %s = ? WHERE id = ?`, field), value, id)
	if err != nil {
		return TaskRecord{}, fmt.Errorf("update task %s field %s: %w", id, field, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return TaskRecord{}, fmt.Errorf("update task %s: %w", id, sql.ErrNoRows)
	}

	record, err := g.getTask(ctx, id)
	if err != nil {
		return TaskRecord{}, err
	}
	g.emit(ChangeEvent{Kind: EventUpdate, New: &record})
	return record, nil
}

// BulkInsertTasks creates all tasks in one transaction, then emits one
// insert event per created record, in insertion order.
func (g *SQLiteGateway) BulkInsertTasks(ctx context.Context, fields []RecordFields) ([]TaskRecord, error) {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin bulk insert: %w", err)
	}

	createdAt := time.Now().UTC().Format(time.RFC3339Nano)
	ids := make([]string, 0, len(fields))
	for _, f := range fields {
		id := uuid.NewString()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (id, title, description, category, time_phase, status,
				responsible, created_by, start_date, end_date, duration, progress, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, f.Title, f.Description, f.Category, f.TimePhase, f.Status,
			f.Responsible, f.CreatedBy, f.StartDate, f.EndDate, f.Duration,
			f.Progress, createdAt)
		if err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("bulk insert task %q: %w", f.Title, err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk insert: %w", err)
	}

	records := make([]TaskRecord, 0, len(ids))
	for _, id := range ids {
		record, err := g.getTask(ctx, id)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	for i := range records {
		g.emit(ChangeEvent{Kind: EventInsert, New: &records[i]})
	}
	return records, nil
}

// DeleteTask removes a task and emits a delete event. The board UI never
// calls this; it exists so other clients (and tests) can cause the event.
func (g *SQLiteGateway) DeleteTask(ctx context.Context, id string) error {
	record, err := g.getTask(ctx, id)
	if err != nil {
		return err
	}
	if _, err := g.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	g.emit(ChangeEvent{Kind: EventDelete, Old: &record})
	return nil
}

// AppendActivityLog records an audit-trail entry.
func (g *SQLiteGateway) AppendActivityLog(ctx context.Context, taskID string, kind ActivityType, details map[string]any) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal activity details: %w", err)
	}

	_, err = g.db.ExecContext(ctx, `
		INSERT INTO activity_log (id, task_id, type, details, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), taskID, string(kind), string(payload),
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append activity log: %w", err)
	}
	return nil
}

type sqliteHandle struct{ id string }

func (h sqliteHandle) ID() string { return h.id }

// Subscribe registers onEvent for every subsequent mutation.
func (g *SQLiteGateway) Subscribe(onEvent func(ChangeEvent)) (Handle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	h := sqliteHandle{id: uuid.NewString()}
	g.subs[h.id] = &sqliteSub{onEvent: onEvent}
	return h, nil
}

// Unsubscribe removes the feed registered under h and waits for deliveries
// already dispatched to it, so that no callback runs after it returns.
func (g *SQLiteGateway) Unsubscribe(h Handle) error {
	g.mu.Lock()
	sub, ok := g.subs[h.ID()]
	if !ok {
		g.mu.Unlock()
		return fmt.Errorf("unknown subscription %s", h.ID())
	}
	delete(g.subs, h.ID())
	g.mu.Unlock()

	sub.inFlight.Wait()
	return nil
}

func (g *SQLiteGateway) emit(ev ChangeEvent) {
	// The in-flight count is raised under the same lock that Unsubscribe
	// takes to remove the subscription, so a removed subscriber gets no
	// further dispatches and Unsubscribe waits for the ones already counted.
	g.mu.Lock()
	targets := make([]*sqliteSub, 0, len(g.subs))
	for _, sub := range g.subs {
		sub.inFlight.Add(1)
		targets = append(targets, sub)
	}
	g.mu.Unlock()

	for _, sub := range targets {
		sub.onEvent(ev)
		sub.inFlight.Done()
	}
}

// Close releases the database handle.
func (g *SQLiteGateway) Close() error {
	return g.db.Close()
}
