package gateway

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/opsboard/opsboard/models"
)

func setupSQLite(t *testing.T) *SQLiteGateway {
	t.Helper()

	g, err := NewSQLiteGateway(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("NewSQLiteGateway failed: %v", err)
	}
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func sampleFields(title string) RecordFields {
	return FieldsFromDraft(models.NewDraft(title))
}

func TestSQLiteInsertAndList(t *testing.T) {
	g := setupSQLite(t)
	ctx := context.Background()

	created, err := g.InsertTask(ctx, sampleFields("first task"))
	if err != nil {
		t.Fatalf("InsertTask failed: %v", err)
	}
	if created.ID == "" {
		t.Error("created record should have a store-assigned ID")
	}
	if created.Title != "first task" {
		t.Errorf("Title = %q", created.Title)
	}

	records, err := g.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].ID != created.ID {
		t.Errorf("ID mismatch: got %q, want %q", records[0].ID, created.ID)
	}
}

func TestSQLiteUpdateTask(t *testing.T) {
	g := setupSQLite(t)
	ctx := context.Background()

	created, err := g.InsertTask(ctx, sampleFields("before"))
	if err != nil {
		t.Fatalf("InsertTask failed: %v", err)
	}

	fields := sampleFields("after")
	fields.Status = string(models.StatusOngoing)
	fields.Progress = 30
	updated, err := g.UpdateTask(ctx, created.ID, fields)
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}

	if updated.Title != "after" || updated.Status != "ongoing" {
		t.Errorf("updated record = %+v", updated)
	}
	if updated.Progress == nil || *updated.Progress != 30 {
		t.Errorf("Progress = %v, want 30", updated.Progress)
	}
	if updated.CreatedAt != created.CreatedAt {
		t.Errorf("update must not touch created_at: %q vs %q", updated.CreatedAt, created.CreatedAt)
	}
}

func TestSQLiteUpdateMissingTaskIsNoRows(t *testing.T) {
	g := setupSQLite(t)

	_, err := g.UpdateTask(context.Background(), "nope", sampleFields("x"))
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("want sql.ErrNoRows, got %v", err)
	}

	_, err = g.UpdateTaskField(context.Background(), "nope", "status", "done")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("want sql.ErrNoRows, got %v", err)
	}
}

func TestSQLiteUpdateTaskFieldReturnsFullRecord(t *testing.T) {
	g := setupSQLite(t)
	ctx := context.Background()

	fields := sampleFields("patch me")
	fields.Responsible = "Alice"
	created, err := g.InsertTask(ctx, fields)
	if err != nil {
		t.Fatalf("InsertTask failed: %v", err)
	}

	record, err := g.UpdateTaskField(ctx, created.ID, "status", "done")
	if err != nil {
		t.Fatalf("UpdateTaskField failed: %v", err)
	}
	if record.Status != "done" {
		t.Errorf("Status = %q, want done", record.Status)
	}
	if record.Responsible == nil || *record.Responsible != "Alice" {
		t.Error("patch response must carry the untouched columns too")
	}
}

func TestSQLiteRejectsUnknownPatchColumn(t *testing.T) {
	g := setupSQLite(t)

	_, err := g.UpdateTaskField(context.Background(), "any", "created_at; DROP TABLE tasks", "x")
	if err == nil {
		t.Fatal("unknown column must be rejected")
	}
}

func TestSQLiteBulkInsert(t *testing.T) {
	g := setupSQLite(t)
	ctx := context.Background()

	records, err := g.BulkInsertTasks(ctx, []RecordFields{
		sampleFields("row one"), sampleFields("row two"),
	})
	if err != nil {
		t.Fatalf("BulkInsertTasks failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].ID == records[1].ID {
		t.Error("bulk insert assigned duplicate IDs")
	}

	listed, err := g.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(listed) != 2 {
		t.Errorf("store holds %d records, want 2", len(listed))
	}
}

func TestSQLiteMutationsEmitEvents(t *testing.T) {
	g := setupSQLite(t)
	ctx := context.Background()

	var events []ChangeEvent
	handle, err := g.Subscribe(func(ev ChangeEvent) { events = append(events, ev) })
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	created, err := g.InsertTask(ctx, sampleFields("tracked"))
	if err != nil {
		t.Fatalf("InsertTask failed: %v", err)
	}
	if _, err := g.UpdateTaskField(ctx, created.ID, "status", "done"); err != nil {
		t.Fatalf("UpdateTaskField failed: %v", err)
	}
	if err := g.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}

	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].Kind != EventInsert || events[1].Kind != EventUpdate || events[2].Kind != EventDelete {
		t.Errorf("event kinds = %v, %v, %v", events[0].Kind, events[1].Kind, events[2].Kind)
	}
	if events[2].Old == nil || events[2].Old.ID != created.ID {
		t.Errorf("delete event should carry the old record: %+v", events[2])
	}

	if err := g.Unsubscribe(handle); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}
	if _, err := g.InsertTask(ctx, sampleFields("silent")); err != nil {
		t.Fatalf("InsertTask failed: %v", err)
	}
	if len(events) != 3 {
		t.Error("no events may arrive after Unsubscribe")
	}
}

// Subscribers tear their receiving channel down right after Unsubscribe
// returns, so a delivery still running at that point would send on a closed
// channel. Unsubscribe must wait for dispatched deliveries to finish.
func TestSQLiteUnsubscribeWaitsForInFlightDelivery(t *testing.T) {
	g := setupSQLite(t)
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	handle, err := g.Subscribe(func(ChangeEvent) {
		close(entered)
		<-release
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	insertDone := make(chan struct{})
	go func() {
		defer close(insertDone)
		if _, err := g.InsertTask(ctx, sampleFields("mid-flight")); err != nil {
			t.Errorf("InsertTask failed: %v", err)
		}
	}()
	<-entered // the callback is now blocked mid-delivery

	unsubDone := make(chan struct{})
	go func() {
		defer close(unsubDone)
		if err := g.Unsubscribe(handle); err != nil {
			t.Errorf("Unsubscribe failed: %v", err)
		}
	}()

	select {
	case <-unsubDone:
		t.Fatal("Unsubscribe returned while a delivery was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-unsubDone
	<-insertDone
}

func TestSQLiteNullableColumns(t *testing.T) {
	g := setupSQLite(t)
	ctx := context.Background()

	created, err := g.InsertTask(ctx, sampleFields("bare minimum"))
	if err != nil {
		t.Fatalf("InsertTask failed: %v", err)
	}

	task := created.Task()
	if task.Description != "" || task.Responsible != "" || task.StartDate != "" {
		t.Errorf("optional columns should default to empty: %+v", task)
	}
	if task.Duration != 0 || task.Progress != 0 {
		t.Errorf("numeric columns should default to zero: %+v", task)
	}
}

func TestSQLiteAppendActivityLog(t *testing.T) {
	g := setupSQLite(t)
	ctx := context.Background()

	created, err := g.InsertTask(ctx, sampleFields("audited"))
	if err != nil {
		t.Fatalf("InsertTask failed: %v", err)
	}

	err = g.AppendActivityLog(ctx, created.ID, ActivityStatusChanged, map[string]any{"newStatus": "done"})
	if err != nil {
		t.Fatalf("AppendActivityLog failed: %v", err)
	}

	var count int
	row := g.db.QueryRow(`SELECT COUNT(*) FROM activity_log WHERE task_id = ?`, created.ID)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("count activity rows: %v", err)
	}
	if count != 1 {
		t.Errorf("activity rows = %d, want 1", count)
	}
}
