package tracker

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-memory Tracker used by tests and by `foundry plan`
// previews. It is safe for concurrent use and supports scripted failures
// so applier retry behavior can be exercised deterministically.
type Memory struct {
	mu       sync.Mutex
	parents  map[string]map[string]*SubIssue // parent id -> issue id -> issue
	parentOf map[string]string

	// failures maps an operation name ("create", "update", "state",
	// "list") to a queue of errors returned, one per call, before the
	// operation succeeds again.
	failures map[string][]error
}

// NewMemory returns an empty in-memory tracker.
func NewMemory() *Memory {
	return &Memory{
		parents:  make(map[string]map[string]*SubIssue),
		parentOf: make(map[string]string),
		failures: make(map[string][]error),
	}
}

// Seed installs an existing sub-issue under parentID, preserving the given
// id. Used to set up observed state in tests.
func (m *Memory) Seed(parentID string, issue SubIssue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.parents[parentID] == nil {
		m.parents[parentID] = make(map[string]*SubIssue)
	}
	cp := issue
	m.parents[parentID][issue.ID] = &cp
	m.parentOf[issue.ID] = parentID
}

// FailNext queues err to be returned by the next call(s) of op. Each queued
// error is consumed by exactly one call.
func (m *Memory) FailNext(op string, errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = append(m.failures[op], errs...)
}

func (m *Memory) popFailure(op string) error {
	if q := m.failures[op]; len(q) > 0 {
		m.failures[op] = q[1:]
		return q[0]
	}
	return nil
}

// ListChildren implements Tracker. Results are sorted by id so snapshots
// are deterministic.
func (m *Memory) ListChildren(ctx context.Context, parentID string) ([]SubIssue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.popFailure("list"); err != nil {
		return nil, err
	}

	var out []SubIssue
	for _, iss := range m.parents[parentID] {
		out = append(out, *iss)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CreateSubIssue implements Tracker. Created issues carry the ownership
// label and the given task key, mirroring what the Linear adapter stamps.
func (m *Memory) CreateSubIssue(ctx context.Context, parentID, title, taskKey string, completed bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.popFailure("create"); err != nil {
		return "", err
	}

	id := uuid.NewString()
	if m.parents[parentID] == nil {
		m.parents[parentID] = make(map[string]*SubIssue)
	}
	m.parents[parentID][id] = &SubIssue{
		ID:      id,
		Title:   title,
		Open:    !completed,
		TaskKey: taskKey,
		Foundry: true,
	}
	m.parentOf[id] = parentID
	return id, nil
}

// UpdateTitle implements Tracker.
func (m *Memory) UpdateTitle(ctx context.Context, id, title string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.popFailure("update"); err != nil {
		return err
	}

	iss, err := m.lookup(id)
	if err != nil {
		return err
	}
	iss.Title = title
	return nil
}

// SetState implements Tracker.
func (m *Memory) SetState(ctx context.Context, id string, open bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.popFailure("state"); err != nil {
		return err
	}

	iss, err := m.lookup(id)
	if err != nil {
		return err
	}
	iss.Open = open
	return nil
}

func (m *Memory) lookup(id string) (*SubIssue, error) {
	parent, ok := m.parentOf[id]
	if !ok {
		return nil, Permanent("issue not found: "+id, nil)
	}
	return m.parents[parent][id], nil
}
