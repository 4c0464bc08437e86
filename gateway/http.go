package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// HTTPGateway talks to an opsboard server: REST for queries and mutations,
// a websocket feed for realtime change events. Reconnecting a dropped feed
// is left to the caller; the gateway reports the feed as closed and nothing
// more.
type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client

	mu   sync.Mutex
	conn *websocket.Conn
	done chan struct{}
}

// NewHTTPGateway builds a gateway for the server at baseURL, e.g.
// "http://boards.internal:8787". apiKey may be empty.
func NewHTTPGateway(baseURL, apiKey string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

func (g *HTTPGateway) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: server returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// ListTasks returns all tasks, newest first (server ordering).
func (g *HTTPGateway) ListTasks(ctx context.Context) ([]TaskRecord, error) {
	var records []TaskRecord
	if err := g.do(ctx, http.MethodGet, "/api/tasks", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// InsertTask creates one task.
func (g *HTTPGateway) InsertTask(ctx context.Context, fields RecordFields) (TaskRecord, error) {
	var record TaskRecord
	if err := g.do(ctx, http.MethodPost, "/api/tasks", fields, &record); err != nil {
		return TaskRecord{}, err
	}
	return record, nil
}

// UpdateTask replaces every editable field of the task with id.
func (g *HTTPGateway) UpdateTask(ctx context.Context, id string, fields RecordFields) (TaskRecord, error) {
	var record TaskRecord
	if err := g.do(ctx, http.MethodPut, "/api/tasks/"+url.PathEscape(id), fields, &record); err != nil {
		return TaskRecord{}, err
	}
	return record, nil
}

type patchRequest struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// UpdateTaskField patches a single column.
func (g *HTTPGateway) UpdateTaskField(ctx context.Context, id, field string, value any) (TaskRecord, error) {
	var record TaskRecord
	body := patchRequest{Field: field, Value: value}
	if err := g.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id), body, &record); err != nil {
		return TaskRecord{}, err
	}
	return record, nil
}

// BulkInsertTasks creates all tasks in one request.
func (g *HTTPGateway) BulkInsertTasks(ctx context.Context, fields []RecordFields) ([]TaskRecord, error) {
	var records []TaskRecord
	if err := g.do(ctx, http.MethodPost, "/api/tasks/bulk", fields, &records); err != nil {
		return nil, err
	}
	return records, nil
}

type activityRequest struct {
	TaskID  string         `json:"task_id"`
	Type    string         `json:"type"`
	Details map[string]any `json:"details"`
}

// AppendActivityLog records an audit-trail entry on the server.
func (g *HTTPGateway) AppendActivityLog(ctx context.Context, taskID string, kind ActivityType, details map[string]any) error {
	body := activityRequest{TaskID: taskID, Type: string(kind), Details: details}
	return g.do(ctx, http.MethodPost, "/api/activity", body, nil)
}

type wsHandle struct{ id string }

func (h wsHandle) ID() string { return h.id }

// Subscribe dials the server's realtime endpoint and delivers each change
// event to onEvent, in the order messages arrive on the socket. Only one
// feed may be open per gateway.
func (g *HTTPGateway) Subscribe(onEvent func(ChangeEvent)) (Handle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.conn != nil {
		return nil, fmt.Errorf("realtime feed already open")
	}

	wsURL, err := realtimeURL(g.baseURL)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if g.apiKey != "" {
		header.Set("Authorization", "Bearer "+g.apiKey)
	}

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		return nil, fmt.Errorf("dial realtime feed: %w", err)
	}
	if resp != nil {
		_ = resp.Body.Close()
	}

	g.conn = conn
	g.done = make(chan struct{})

	go func(conn *websocket.Conn, done chan struct{}) {
		defer close(done)
		for {
			var ev ChangeEvent
			if err := conn.ReadJSON(&ev); err != nil {
				// Socket closed, locally or by the server. No replay,
				// no reconnect; the feed is simply over.
				return
			}
			onEvent(ev)
		}
	}(conn, g.done)

	return wsHandle{id: wsURL}, nil
}

// Unsubscribe closes the websocket and waits for the read loop to exit, so
// no events are delivered after it returns.
func (g *HTTPGateway) Unsubscribe(Handle) error {
	g.mu.Lock()
	conn, done := g.conn, g.done
	g.conn, g.done = nil, nil
	g.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("no realtime feed open")
	}
	err := conn.Close()
	<-done
	return err
}

// Close tears down any open feed and idles the HTTP client.
func (g *HTTPGateway) Close() error {
	g.mu.Lock()
	conn, done := g.conn, g.done
	g.conn, g.done = nil, nil
	g.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
		<-done
	}
	g.client.CloseIdleConnections()
	return nil
}

func realtimeURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base URL %q: %w", base, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q in base URL", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/realtime"
	return u.String(), nil
}
