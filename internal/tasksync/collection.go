package tasksync

import "taskman/internal/service"

// SyncState is the per-entry reconciliation state. It exists only in the
// client; the server never sees it.
type SyncState int

const (
	Synced SyncState = iota
	PendingCreate
	PendingUpdate
	PendingDelete
	Failed
)

func (s SyncState) String() string {
	switch s {
	case Synced:
		return "synced"
	case PendingCreate:
		return "pending-create"
	case PendingUpdate:
		return "pending-update"
	case PendingDelete:
		return "pending-delete"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Entry is a read-only view of one collection slot. Key is the local
// correlation key, stable before and after the server id exists.
type Entry struct {
	Key   string
	Task  service.Task
	State SyncState
	Err   error // set when State == Failed
}

// slot is the mutable collection record behind an Entry. confirmed holds the
// last server-acknowledged value and is what a failed update rolls back to.
type slot struct {
	key       string
	task      service.Task
	state     SyncState
	err       error
	confirmed service.Task
	hidden    bool // optimistically removed, delete still in flight
}

func (s *slot) entry() Entry {
	return Entry{Key: s.key, Task: s.task, State: s.state, Err: s.err}
}

// collection is the insertion-ordered local task collection. It is only
// ever touched under the engine's mutex.
type collection struct {
	order []*slot
	byKey map[string]*slot
}

func newCollection() *collection {
	return &collection{byKey: make(map[string]*slot)}
}

// insertHead puts a new optimistic entry at the front: newest local action
// first, ahead of everything from the last load.
func (c *collection) insertHead(s *slot) {
	c.order = append([]*slot{s}, c.order...)
	c.byKey[s.key] = s
}

func (c *collection) get(key string) *slot {
	return c.byKey[key]
}

// byID finds the slot holding the given server id, if any.
func (c *collection) byID(id string) *slot {
	if id == "" {
		return nil
	}
	for _, s := range c.order {
		if s.task.ID == id {
			return s
		}
	}
	return nil
}

func (c *collection) remove(key string) {
	s, ok := c.byKey[key]
	if !ok {
		return
	}
	delete(c.byKey, key)
	for i, cur := range c.order {
		if cur == s {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// replaceAll swaps the whole collection for the server's tasks, preserving
// server order, every entry synced.
func (c *collection) replaceAll(tasks []service.Task, newKey func() string) {
	c.order = make([]*slot, 0, len(tasks))
	c.byKey = make(map[string]*slot, len(tasks))
	for _, t := range tasks {
		s := &slot{key: newKey(), task: t, state: Synced, confirmed: t}
		c.order = append(c.order, s)
		c.byKey[s.key] = s
	}
}

// snapshot copies the visible entries in display order.
func (c *collection) snapshot() []Entry {
	out := make([]Entry, 0, len(c.order))
	for _, s := range c.order {
		if s.hidden {
			continue
		}
		out = append(out, s.entry())
	}
	return out
}
