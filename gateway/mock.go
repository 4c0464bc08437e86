package gateway

import (
	"context"
	"fmt"
	"sync"
)

// MockGateway is an in-memory Gateway for tests. It counts every call,
// returns scripted errors, and lets tests push realtime events by hand.
type MockGateway struct {
	mu sync.Mutex

	// Records is what ListTasks returns and what mutations append to.
	Records []TaskRecord
	// FailWith, when set for a method name ("ListTasks", "InsertTask", ...),
	// makes that method return the error without touching Records.
	FailWith map[string]error

	calls   map[string]int
	nextID  int
	onEvent func(ChangeEvent)
	handle  *mockHandle
}

type mockHandle struct{ id string }

func (h *mockHandle) ID() string { return h.id }

// NewMockGateway returns an empty mock.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		FailWith: make(map[string]error),
		calls:    make(map[string]int),
	}
}

// Calls returns how many times the named method has been invoked.
func (m *MockGateway) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockGateway) record(method string) error {
	m.calls[method]++
	return m.FailWith[method]
}

func (m *MockGateway) assignID() string {
	m.nextID++
	return fmt.Sprintf("task-%d", m.nextID)
}

func (m *MockGateway) ListTasks(context.Context) ([]TaskRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListTasks"); err != nil {
		return nil, err
	}
	out := make([]TaskRecord, len(m.Records))
	copy(out, m.Records)
	return out, nil
}

func (m *MockGateway) InsertTask(_ context.Context, fields RecordFields) (TaskRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("InsertTask"); err != nil {
		return TaskRecord{}, err
	}
	record := recordFromFields(m.assignID(), fields)
	m.Records = append(m.Records, record)
	return record, nil
}

func (m *MockGateway) UpdateTask(_ context.Context, id string, fields RecordFields) (TaskRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("UpdateTask"); err != nil {
		return TaskRecord{}, err
	}
	record := recordFromFields(id, fields)
	for i := range m.Records {
		if m.Records[i].ID == id {
			m.Records[i] = record
			return record, nil
		}
	}
	m.Records = append(m.Records, record)
	return record, nil
}

func (m *MockGateway) UpdateTaskField(_ context.Context, id, field string, value any) (TaskRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("UpdateTaskField"); err != nil {
		return TaskRecord{}, err
	}
	for i := range m.Records {
		if m.Records[i].ID != id {
			continue
		}
		switch field {
		case "status":
			m.Records[i].Status = fmt.Sprint(value)
		case "time_phase":
			m.Records[i].TimePhase = fmt.Sprint(value)
		case "title":
			m.Records[i].Title = fmt.Sprint(value)
		default:
			return TaskRecord{}, fmt.Errorf("mock: unhandled field %q", field)
		}
		return m.Records[i], nil
	}
	return TaskRecord{}, fmt.Errorf("mock: no task %s", id)
}

func (m *MockGateway) BulkInsertTasks(_ context.Context, fields []RecordFields) ([]TaskRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("BulkInsertTasks"); err != nil {
		return nil, err
	}
	records := make([]TaskRecord, 0, len(fields))
	for _, f := range fields {
		record := recordFromFields(m.assignID(), f)
		m.Records = append(m.Records, record)
		records = append(records, record)
	}
	return records, nil
}

func (m *MockGateway) AppendActivityLog(_ context.Context, _ string, _ ActivityType, _ map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record("AppendActivityLog")
}

func (m *MockGateway) Subscribe(onEvent func(ChangeEvent)) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Subscribe"); err != nil {
		return nil, err
	}
	if m.handle != nil {
		return nil, fmt.Errorf("mock: feed already open")
	}
	m.onEvent = onEvent
	m.handle = &mockHandle{id: fmt.Sprintf("feed-%d", m.calls["Subscribe"])}
	return m.handle, nil
}

func (m *MockGateway) Unsubscribe(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Unsubscribe"); err != nil {
		return err
	}
	if m.handle == nil || h == nil || h.ID() != m.handle.ID() {
		return fmt.Errorf("mock: unknown subscription")
	}
	m.handle = nil
	m.onEvent = nil
	return nil
}

func (m *MockGateway) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record("Close")
}

// Emit delivers a realtime event to the active subscriber, mimicking the
// transport callback. It panics if no feed is open, which in a test is the
// bug being looked for.
func (m *MockGateway) Emit(ev ChangeEvent) {
	m.mu.Lock()
	cb := m.onEvent
	m.mu.Unlock()
	if cb == nil {
		panic("mock: Emit with no active subscription")
	}
	cb(ev)
}

// Subscribed reports whether a feed is currently open.
func (m *MockGateway) Subscribed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle != nil
}

func recordFromFields(id string, f RecordFields) TaskRecord {
	description := f.Description
	responsible := f.Responsible
	createdBy := f.CreatedBy
	startDate := f.StartDate
	endDate := f.EndDate
	duration := f.Duration
	progress := f.Progress
	return TaskRecord{
		ID:          id,
		Title:       f.Title,
		Description: &description,
		Category:    f.Category,
		TimePhase:   f.TimePhase,
		Status:      f.Status,
		Responsible: &responsible,
		CreatedBy:   &createdBy,
		StartDate:   &startDate,
		EndDate:     &endDate,
		Duration:    &duration,
		Progress:    &progress,
	}
}
