// Package testutil provides testing fakes for the store and auth provider
// boundaries.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"taskman/internal/service"
)

// FakeStore is an in-memory implementation of service.Store. Error fields
// inject failures per method; gate channels, when non-nil, make the matching
// method block until a value is sent, so tests can control completion order.
type FakeStore struct {
	mu     sync.Mutex
	tasks  map[string][]service.Task // userID -> tasks in insertion order
	nextID int

	ListErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error

	ListGate   chan struct{}
	CreateGate chan struct{}
	UpdateGate chan struct{}
	DeleteGate chan struct{}

	listCalls   int
	createCalls int
	updateCalls int
	deleteCalls int
}

// NewFakeStore creates an empty fake store.
func NewFakeStore() *FakeStore {
	return &FakeStore{tasks: make(map[string][]service.Task)}
}

// Seed adds a task directly to a user's collection.
func (f *FakeStore) Seed(userID string, t service.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[userID] = append(f.tasks[userID], t)
}

// Tasks returns a copy of a user's stored tasks.
func (f *FakeStore) Tasks(userID string) []service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]service.Task, len(f.tasks[userID]))
	copy(out, f.tasks[userID])
	return out
}

// ListCalls reports how many List calls were made.
func (f *FakeStore) ListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

// DeleteCalls reports how many Delete calls were made.
func (f *FakeStore) DeleteCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleteCalls
}

// CreateCalls reports how many Create calls were made.
func (f *FakeStore) CreateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls
}

// List implements service.Store.
func (f *FakeStore) List(ctx context.Context, userID string) ([]service.Task, error) {
	f.mu.Lock()
	f.listCalls++
	gate := f.ListGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return f.Tasks(userID), nil
}

// Create implements service.Store.
func (f *FakeStore) Create(ctx context.Context, userID string, draft service.Draft) (service.Task, error) {
	f.mu.Lock()
	f.createCalls++
	gate := f.CreateGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.CreateErr != nil {
		return service.Task{}, f.CreateErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	t := service.Task{
		ID:          fmt.Sprintf("srv-%d", f.nextID),
		Title:       draft.Title,
		Description: draft.Description,
		DueDate:     draft.DueDate,
		Status:      draft.Status,
	}
	f.tasks[userID] = append(f.tasks[userID], t)
	return t, nil
}

// Update implements service.Store.
func (f *FakeStore) Update(ctx context.Context, userID, taskID string, patch service.Patch) (service.Task, error) {
	f.mu.Lock()
	f.updateCalls++
	gate := f.UpdateGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.UpdateErr != nil {
		return service.Task{}, f.UpdateErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks[userID] {
		if t.ID == taskID {
			updated := patch.Apply(t)
			f.tasks[userID][i] = updated
			return updated, nil
		}
	}
	return service.Task{}, service.ErrNotFound
}

// Delete implements service.Store. Like the real API, deleting an absent id
// succeeds.
func (f *FakeStore) Delete(ctx context.Context, userID, taskID string) error {
	f.mu.Lock()
	f.deleteCalls++
	gate := f.DeleteGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.DeleteErr != nil {
		return f.DeleteErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks[userID] {
		if t.ID == taskID {
			f.tasks[userID] = append(f.tasks[userID][:i], f.tasks[userID][i+1:]...)
			return nil
		}
	}
	return nil
}
