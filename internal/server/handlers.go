package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/opsboard/opsboard/gateway"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ListTasks(r.Context())
	if err != nil {
		storeError(w, err)
		return
	}
	if records == nil {
		records = []gateway.TaskRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleInsertTask(w http.ResponseWriter, r *http.Request) {
	var fields gateway.RecordFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if fields.Title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}

	record, err := s.store.InsertTask(r.Context(), fields)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleBulkInsert(w http.ResponseWriter, r *http.Request) {
	var fields []gateway.RecordFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	records, err := s.store.BulkInsertTasks(r.Context(), fields)
	if err != nil {
		storeError(w, err)
		return
	}
	if records == nil {
		records = []gateway.TaskRecord{}
	}
	writeJSON(w, http.StatusCreated, records)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var fields gateway.RecordFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	record, err := s.store.UpdateTask(r.Context(), id, fields)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

type patchRequest struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

func (s *Server) handlePatchTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	record, err := s.store.UpdateTaskField(r.Context(), id, req.Field, req.Value)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTask(r.Context(), r.PathValue("id")); err != nil {
		storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type activityRequest struct {
	TaskID  string         `json:"task_id"`
	Type    string         `json:"type"`
	Details map[string]any `json:"details"`
}

func (s *Server) handleAppendActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.AppendActivityLog(r.Context(), req.TaskID, gateway.ActivityType(req.Type), req.Details); err != nil {
		storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var upgrader = websocket.Upgrader{
	// The REST surface is already origin-open behind CORS; the feed
	// carries the same data.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleRealtime streams change events to the client. Events committed while
// the socket is open are forwarded in commit order; a slow client that falls
// more than a buffer behind is disconnected rather than blocking the store.
func (s *Server) handleRealtime(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	outbox := make(chan gateway.ChangeEvent, 256)
	handle, err := s.store.Subscribe(func(ev gateway.ChangeEvent) {
		select {
		case outbox <- ev:
		default:
			// Buffer full: drop the connection, not the store's latency.
			_ = conn.Close()
		}
	})
	if err != nil {
		_ = conn.Close()
		return
	}

	// Writer: forwards events until the outbox closes or the write fails.
	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		for ev := range outbox {
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}()

	// Reader: only detects the client going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	_ = s.store.Unsubscribe(handle)
	close(outbox)
	<-writeDone
	_ = conn.Close()
}
