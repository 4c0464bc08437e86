// Package server exposes a SQLite-backed task store over HTTP so that other
// board clients can share it: REST for queries and mutations, a websocket
// endpoint streaming change events as they commit.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/opsboard/opsboard/gateway"
)

// Server wraps an http.Server around a SQLiteGateway.
type Server struct {
	store  *gateway.SQLiteGateway
	apiKey string
	port   int
	server *http.Server
}

// New builds a server on port over store. apiKey, when non-empty, is
// required as a bearer token on every request.
func New(port int, store *gateway.SQLiteGateway, apiKey string) *Server {
	s := &Server{
		store:  store,
		apiKey: apiKey,
		port:   port,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	mux.HandleFunc("POST /api/tasks", s.handleInsertTask)
	mux.HandleFunc("POST /api/tasks/bulk", s.handleBulkInsert)
	mux.HandleFunc("PUT /api/tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("PATCH /api/tasks/{id}", s.handlePatchTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.handleDeleteTask)
	mux.HandleFunc("POST /api/activity", s.handleAppendActivity)
	mux.HandleFunc("GET /api/realtime", s.handleRealtime)

	handler := corsMiddleware(s.authMiddleware(mux))

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handler,
	}

	return s
}

// Handler returns the configured handler, for tests driving the server
// through httptest.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start runs ListenAndServe on its own goroutine, reporting a failure other
// than a clean shutdown on errChan.
func (s *Server) Start(wg *sync.WaitGroup, errChan chan<- error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("task server error: %w", err)
		}
	}()
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
