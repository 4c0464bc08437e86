package ui

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/opsboard/opsboard/cache"
	"github.com/opsboard/opsboard/gateway"
	"github.com/opsboard/opsboard/models"
)

func seedCache(t *testing.T, statuses ...models.TaskStatus) *cache.Cache {
	t.Helper()

	c := cache.New(gateway.NewMockGateway())
	for i, status := range statuses {
		record := gateway.RecordFromTask(models.Task{
			ID:        fmt.Sprintf("t%d", i+1),
			Title:     fmt.Sprintf("Görev %d", i+1),
			Category:  models.CategorySourcing,
			TimePhase: models.Phase30Days,
			Status:    status,
		})
		c.ApplyRemoteEvent(gateway.ChangeEvent{Kind: gateway.EventInsert, New: &record})
	}
	return c
}

// The bar reflects the whole board even while filters narrow the table; only
// the count line follows the filtered selection.
func TestBoardProgressBarCoversFullCacheUnderFilters(t *testing.T) {
	c := seedCache(t,
		models.StatusDone, models.StatusDone,
		models.StatusOngoing, models.StatusPending)

	m := NewBoard(c, time.Minute)
	m.loading = false
	m.filters.Status = string(models.StatusDone)

	view := m.View()
	if !strings.Contains(view, "%50 Tamamlandı") {
		t.Errorf("bar should show 50%% done over the full cache, got:\n%s", view)
	}
	if strings.Contains(view, "%100 Tamamlandı") {
		t.Error("bar must not be computed from the filtered selection")
	}
	if !strings.Contains(view, "%25 Devam Ediyor") {
		t.Errorf("bar should show 25%% ongoing over the full cache, got:\n%s", view)
	}
}

func TestBoardViewRendersRemoteNotice(t *testing.T) {
	c := seedCache(t, models.StatusPending)
	m := NewBoard(c, time.Minute)
	m.loading = false

	record := gateway.RecordFromTask(models.Task{ID: "t9", Title: "Yeni kayıt"})
	model, _ := m.Update(RemoteMsg{Ev: gateway.ChangeEvent{Kind: gateway.EventInsert, New: &record}})

	view := model.View()
	if !strings.Contains(view, "Yeni görev eklendi: Yeni kayıt") {
		t.Errorf("remote insert should surface a notice, got:\n%s", view)
	}
}
