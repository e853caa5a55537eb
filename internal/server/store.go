package server

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskman/internal/service"
)

// memStore keeps each user's tasks in memory. It exists for local
// development and tests; nothing survives a restart.
type memStore struct {
	mu    sync.Mutex
	tasks map[string]map[string]record
	seqs  map[string]int
	now   func() time.Time
}

type record struct {
	task service.Task
	seq  int
}

func newMemStore() *memStore {
	return &memStore{
		tasks: make(map[string]map[string]record),
		seqs:  make(map[string]int),
		now:   time.Now,
	}
}

func (m *memStore) list(userID string) []service.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := make([]record, 0, len(m.tasks[userID]))
	for _, r := range m.tasks[userID] {
		recs = append(recs, r)
	}
	// Insertion order, like the document store the API mirrors.
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })
	out := make([]service.Task, len(recs))
	for i, r := range recs {
		out[i] = r.task
	}
	return out
}

func (m *memStore) create(userID string, draft service.Draft) service.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := service.Task{
		ID:          uuid.NewString(),
		Title:       draft.Title,
		Description: draft.Description,
		CreatedAt:   m.now().UTC(),
		DueDate:     draft.DueDate,
		Status:      draft.Status,
	}
	if m.tasks[userID] == nil {
		m.tasks[userID] = make(map[string]record)
	}
	// Monotonic per user, so order stays stable across deletes.
	m.seqs[userID]++
	m.tasks[userID][t.ID] = record{task: t, seq: m.seqs[userID]}
	return t
}

func (m *memStore) update(userID, taskID string, patch service.Patch) (service.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.tasks[userID][taskID]
	if !ok {
		return service.Task{}, false
	}
	r.task = patch.Apply(r.task)
	m.tasks[userID][taskID] = r
	return r.task, true
}

// delete removes a task; removing an absent task is not an error.
func (m *memStore) delete(userID, taskID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks[userID], taskID)
}
