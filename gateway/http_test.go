package gateway_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsboard/opsboard/gateway"
	"github.com/opsboard/opsboard/internal/server"
	"github.com/opsboard/opsboard/models"
)

func setupHTTPGateway(t *testing.T, apiKey string) (*gateway.HTTPGateway, *gateway.SQLiteGateway) {
	t.Helper()

	store, err := gateway.NewSQLiteGateway(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ts := httptest.NewServer(server.New(0, store, apiKey).Handler())
	t.Cleanup(ts.Close)

	g := gateway.NewHTTPGateway(ts.URL, apiKey)
	t.Cleanup(func() { _ = g.Close() })
	return g, store
}

func httpFields(title string) gateway.RecordFields {
	return gateway.FieldsFromDraft(models.NewDraft(title))
}

func TestHTTPGatewayInsertAndList(t *testing.T) {
	g, _ := setupHTTPGateway(t, "")
	ctx := context.Background()

	records, err := g.ListTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 0)

	created, err := g.InsertTask(ctx, httpFields("through the client"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "through the client", created.Title)

	records, err = g.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, created.ID, records[0].ID)
}

func TestHTTPGatewayUpdateTask(t *testing.T) {
	g, _ := setupHTTPGateway(t, "")
	ctx := context.Background()

	created, err := g.InsertTask(ctx, httpFields("before"))
	require.NoError(t, err)

	fields := httpFields("after")
	fields.Status = string(models.StatusDone)
	updated, err := g.UpdateTask(ctx, created.ID, fields)
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Title)
	assert.Equal(t, "done", updated.Status)
}

func TestHTTPGatewayMissingTaskMapsTo404(t *testing.T) {
	g, _ := setupHTTPGateway(t, "")
	ctx := context.Background()

	_, err := g.UpdateTask(ctx, "no-such-id", httpFields("ghost"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	_, err = g.UpdateTaskField(ctx, "no-such-id", "status", "done")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestHTTPGatewayUpdateTaskFieldReturnsFullRecord(t *testing.T) {
	g, _ := setupHTTPGateway(t, "")
	ctx := context.Background()

	fields := httpFields("patch me")
	fields.Responsible = "Alice"
	created, err := g.InsertTask(ctx, fields)
	require.NoError(t, err)

	record, err := g.UpdateTaskField(ctx, created.ID, "status", "ongoing")
	require.NoError(t, err)
	assert.Equal(t, "ongoing", record.Status)
	require.NotNil(t, record.Responsible)
	assert.Equal(t, "Alice", *record.Responsible, "patch response carries the untouched columns too")
}

func TestHTTPGatewayBulkInsert(t *testing.T) {
	g, _ := setupHTTPGateway(t, "")
	ctx := context.Background()

	records, err := g.BulkInsertTasks(ctx, []gateway.RecordFields{
		httpFields("one"), httpFields("two"),
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.NotEqual(t, records[0].ID, records[1].ID)
}

func TestHTTPGatewayAppendActivityLog(t *testing.T) {
	g, _ := setupHTTPGateway(t, "")
	ctx := context.Background()

	created, err := g.InsertTask(ctx, httpFields("audited"))
	require.NoError(t, err)

	err = g.AppendActivityLog(ctx, created.ID, gateway.ActivityStatusChanged, map[string]any{"newStatus": "done"})
	assert.NoError(t, err)
}

func TestHTTPGatewayBearerAuth(t *testing.T) {
	withKey, store := setupHTTPGateway(t, "sekrit")
	ctx := context.Background()

	_, err := withKey.ListTasks(ctx)
	assert.NoError(t, err)

	// A client with no key against the same server gets rejected.
	ts := httptest.NewServer(server.New(0, store, "sekrit").Handler())
	t.Cleanup(ts.Close)
	noKey := gateway.NewHTTPGateway(ts.URL, "")
	t.Cleanup(func() { _ = noKey.Close() })

	_, err = noKey.ListTasks(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestHTTPGatewayRealtimeFeed(t *testing.T) {
	g, store := setupHTTPGateway(t, "")
	ctx := context.Background()

	events := make(chan gateway.ChangeEvent, 32)
	handle, err := g.Subscribe(func(ev gateway.ChangeEvent) { events <- ev })
	require.NoError(t, err)

	_, err = g.Subscribe(func(gateway.ChangeEvent) {})
	assert.Error(t, err, "only one feed may be open per gateway")

	// The server registers its store subscription just after the upgrade
	// handshake; give it a moment before committing the mutation.
	time.Sleep(100 * time.Millisecond)

	created, err := store.InsertTask(ctx, httpFields("broadcast me"))
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, gateway.EventInsert, ev.Kind)
		require.NotNil(t, ev.New)
		assert.Equal(t, created.ID, ev.New.ID)
	case <-time.After(5 * time.Second):
		t.Fatal("no realtime event arrived over the websocket")
	}

	require.NoError(t, g.Unsubscribe(handle))

	_, err = store.InsertTask(ctx, httpFields("after teardown"))
	require.NoError(t, err)

	select {
	case ev := <-events:
		t.Fatalf("event delivered after Unsubscribe: %+v", ev)
	case <-time.After(150 * time.Millisecond):
	}
}
