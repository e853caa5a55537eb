// Package service defines the domain model and the boundary interfaces the
// sync layer is built on.
package service

import "time"

// Status is a task's progress state as it appears on the wire.
type Status string

const (
	StatusTodo       Status = "Todo"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// ValidStatus reports whether s is one of the known statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Task is a single task record. ID is assigned by the server and stays empty
// until the create has been acknowledged; a task without an ID must never be
// updated or deleted remotely, only created.
type Task struct {
	ID          string
	Title       string
	Description string
	CreatedAt   time.Time
	DueDate     time.Time
	Status      Status
}

// Draft is the client-supplied portion of a new task. The server assigns the
// id and the creation time.
type Draft struct {
	Title       string
	Description string
	DueDate     time.Time
	Status      Status
}

// Patch carries replacement values for an update. The wire contract replaces
// all four fields, so a patch is always complete.
type Patch struct {
	Title       string
	Description string
	DueDate     time.Time
	Status      Status
}

// Apply returns t with the patch's fields substituted in.
func (p Patch) Apply(t Task) Task {
	t.Title = p.Title
	t.Description = p.Description
	t.DueDate = p.DueDate
	t.Status = p.Status
	return t
}
