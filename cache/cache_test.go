package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsboard/opsboard/gateway"
	"github.com/opsboard/opsboard/models"
	"github.com/opsboard/opsboard/types"
)

func newTestCache(t *testing.T) (*Cache, *gateway.MockGateway) {
	t.Helper()
	mock := gateway.NewMockGateway()
	return New(mock), mock
}

func draft(title string) models.TaskDraft {
	d := models.NewDraft(title)
	d.Responsible = "Alice"
	return d
}

func TestCreateRejectsEmptyTitleBeforeGatewayCall(t *testing.T) {
	c, mock := newTestCache(t)

	_, err := c.Create(context.Background(), draft("   "))

	require.Error(t, err)
	assert.True(t, types.IsValidation(err), "want a validation error, got %v", err)
	assert.Equal(t, 0, mock.Calls("InsertTask"), "gateway must not be called for invalid input")
	assert.Equal(t, 0, c.Len())
}

func TestCreateInsertsCanonicalRecord(t *testing.T) {
	c, mock := newTestCache(t)

	task, err := c.Create(context.Background(), draft("Mülakat planı"))

	require.NoError(t, err)
	assert.Equal(t, "task-1", task.ID)
	assert.Equal(t, "Mülakat planı", task.Title)
	assert.Equal(t, models.StatusPending, task.Status)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, mock.Calls("AppendActivityLog"))
}

func TestCreateNeverDuplicatesIDs(t *testing.T) {
	c, _ := newTestCache(t)

	a, err := c.Create(context.Background(), draft("first"))
	require.NoError(t, err)
	b, err := c.Create(context.Background(), draft("second"))
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, c.Len())
}

func TestLoadReplacesWholesale(t *testing.T) {
	c, mock := newTestCache(t)

	_, err := c.Create(context.Background(), draft("stale"))
	require.NoError(t, err)

	mock.Records = []gateway.TaskRecord{
		gateway.RecordFromTask(models.Task{ID: "r1", Title: "remote one", Status: models.StatusDone}),
		gateway.RecordFromTask(models.Task{ID: "r2", Title: "remote two", Status: models.StatusPending}),
	}

	require.NoError(t, c.Load(context.Background()))

	tasks := c.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "r1", tasks[0].ID)
	assert.Equal(t, "r2", tasks[1].ID)
}

func TestLoadEmptyStoreIsNotAnError(t *testing.T) {
	c, _ := newTestCache(t)

	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, 0, c.Len())
}

func TestLoadFailureKeepsLastKnownGood(t *testing.T) {
	c, mock := newTestCache(t)

	_, err := c.Create(context.Background(), draft("survivor"))
	require.NoError(t, err)

	mock.FailWith["ListTasks"] = errors.New("connection reset")
	err = c.Load(context.Background())

	require.Error(t, err)
	assert.True(t, types.IsRemote(err), "want a remote error, got %v", err)
	require.Equal(t, 1, c.Len(), "cache must keep last-known-good contents")
	task, ok := c.Get("task-1")
	require.True(t, ok)
	assert.Equal(t, "survivor", task.Title)
}

func TestUpdateReplacesCachedRecord(t *testing.T) {
	c, _ := newTestCache(t)

	created, err := c.Create(context.Background(), draft("before"))
	require.NoError(t, err)

	d := created.Draft()
	d.Title = "after"
	d.Status = models.StatusOngoing
	d.Progress = 40
	updated, err := c.Update(context.Background(), created.ID, d)

	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "after", updated.Title)
	assert.Equal(t, 1, c.Len())

	cached, ok := c.Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, "after", cached.Title)
	assert.Equal(t, 40, cached.Progress)
}

// A single-field patch still replaces the whole cached record with the
// server's response, so a concurrent full edit visible in that response
// lands locally too.
func TestQuickUpdateReplacesWholeRecord(t *testing.T) {
	c, mock := newTestCache(t)

	created, err := c.Create(context.Background(), draft("original title"))
	require.NoError(t, err)

	// Another client renames the task behind our back.
	mock.Records[0].Title = "renamed elsewhere"

	updated, err := c.UpdateStatus(context.Background(), created.ID, models.StatusDone)

	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, updated.Status)
	assert.Equal(t, "renamed elsewhere", updated.Title)

	cached, ok := c.Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, "renamed elsewhere", cached.Title)
}

func TestUpdateTimePhase(t *testing.T) {
	c, _ := newTestCache(t)

	created, err := c.Create(context.Background(), draft("move me"))
	require.NoError(t, err)

	updated, err := c.UpdateTimePhase(context.Background(), created.ID, models.Phase90Days)

	require.NoError(t, err)
	assert.Equal(t, models.Phase90Days, updated.TimePhase)
}

func TestBulkCreateUsesSingleGatewayCall(t *testing.T) {
	c, mock := newTestCache(t)

	tasks, err := c.BulkCreate(context.Background(), []models.TaskDraft{
		draft("row one"), draft("row two"), draft("row three"),
	})

	require.NoError(t, err)
	assert.Len(t, tasks, 3)
	assert.Equal(t, 1, mock.Calls("BulkInsertTasks"))
	assert.Equal(t, 0, mock.Calls("InsertTask"))
	assert.Equal(t, 3, c.Len())
}

func TestBulkCreateEmptyInput(t *testing.T) {
	c, mock := newTestCache(t)

	tasks, err := c.BulkCreate(context.Background(), nil)

	require.NoError(t, err)
	assert.Nil(t, tasks)
	assert.Equal(t, 0, mock.Calls("BulkInsertTasks"))
}

func TestActivityLogFailureDoesNotFailMutation(t *testing.T) {
	c, mock := newTestCache(t)
	mock.FailWith["AppendActivityLog"] = errors.New("audit table locked")

	var logged bool
	c.Logf = func(string, ...any) { logged = true }

	task, err := c.Create(context.Background(), draft("still works"))

	require.NoError(t, err)
	assert.Equal(t, "still works", task.Title)
	assert.True(t, logged, "swallowed failure should be reported via Logf")
}

func TestApplyRemoteInsertAppends(t *testing.T) {
	c, _ := newTestCache(t)

	record := gateway.RecordFromTask(models.Task{ID: "ext-1", Title: "from elsewhere", Status: models.StatusPending})
	c.ApplyRemoteEvent(gateway.ChangeEvent{Kind: gateway.EventInsert, New: &record})

	require.Equal(t, 1, c.Len())
	task, ok := c.Get("ext-1")
	require.True(t, ok)
	assert.Equal(t, "from elsewhere", task.Title)
}

func TestApplyRemoteInsertDuplicateIsIdempotent(t *testing.T) {
	c, _ := newTestCache(t)

	record := gateway.RecordFromTask(models.Task{ID: "ext-1", Title: "delivered twice"})
	ev := gateway.ChangeEvent{Kind: gateway.EventInsert, New: &record}
	c.ApplyRemoteEvent(ev)
	c.ApplyRemoteEvent(ev)

	assert.Equal(t, 1, c.Len())
}

func TestApplyRemoteUpdateUnknownIDIsNoOp(t *testing.T) {
	c, _ := newTestCache(t)

	record := gateway.RecordFromTask(models.Task{ID: "ghost", Title: "never seen"})
	c.ApplyRemoteEvent(gateway.ChangeEvent{Kind: gateway.EventUpdate, New: &record})

	assert.Equal(t, 0, c.Len())
}

func TestApplyRemoteUpdateReplacesMatch(t *testing.T) {
	c, _ := newTestCache(t)

	insert := gateway.RecordFromTask(models.Task{ID: "ext-1", Title: "v1"})
	c.ApplyRemoteEvent(gateway.ChangeEvent{Kind: gateway.EventInsert, New: &insert})

	update := gateway.RecordFromTask(models.Task{ID: "ext-1", Title: "v2", Status: models.StatusDone})
	c.ApplyRemoteEvent(gateway.ChangeEvent{Kind: gateway.EventUpdate, New: &update})

	task, ok := c.Get("ext-1")
	require.True(t, ok)
	assert.Equal(t, "v2", task.Title)
	assert.Equal(t, models.StatusDone, task.Status)
	assert.Equal(t, 1, c.Len())
}

func TestApplyRemoteDelete(t *testing.T) {
	c, _ := newTestCache(t)

	insert := gateway.RecordFromTask(models.Task{ID: "ext-1", Title: "doomed"})
	c.ApplyRemoteEvent(gateway.ChangeEvent{Kind: gateway.EventInsert, New: &insert})

	old := gateway.TaskRecord{ID: "ext-1"}
	c.ApplyRemoteEvent(gateway.ChangeEvent{Kind: gateway.EventDelete, Old: &old})
	assert.Equal(t, 0, c.Len())

	// Deleting again must not panic or change anything.
	c.ApplyRemoteEvent(gateway.ChangeEvent{Kind: gateway.EventDelete, Old: &old})
	assert.Equal(t, 0, c.Len())
}

func TestApplyRemoteEventNilPayloadIsIgnored(t *testing.T) {
	c, _ := newTestCache(t)

	c.ApplyRemoteEvent(gateway.ChangeEvent{Kind: gateway.EventInsert})
	c.ApplyRemoteEvent(gateway.ChangeEvent{Kind: gateway.EventUpdate})
	c.ApplyRemoteEvent(gateway.ChangeEvent{Kind: gateway.EventDelete})

	assert.Equal(t, 0, c.Len())
}

func TestTasksReturnsACopy(t *testing.T) {
	c, _ := newTestCache(t)

	_, err := c.Create(context.Background(), draft("keep me intact"))
	require.NoError(t, err)

	tasks := c.Tasks()
	tasks[0].Title = "mutated copy"

	cached, ok := c.Get("task-1")
	require.True(t, ok)
	assert.Equal(t, "keep me intact", cached.Title)
}
