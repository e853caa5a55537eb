// Package tasksync owns the local task collection and reconciles optimistic
// mutations with the remote store.
//
// Mutation methods apply their optimistic effect and return without waiting
// on the network; completions are applied in completion order under one
// mutex. Each optimistic entry is addressed by its own correlation key, so
// interleaved completions cannot touch unrelated entries. Completions issued
// under a session that has since signed out are discarded.
package tasksync

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"taskman/internal/auth"
	"taskman/internal/service"
	"taskman/internal/validate"
)

// Engine is the optimistic-update state machine over the local collection.
type Engine struct {
	session *auth.Session
	store   service.Store

	mu   sync.Mutex
	col  *collection
	load *loadCall // in-flight LoadAll, nil when idle

	pending sync.WaitGroup
	newKey  func() string

	cancelWatch func()
}

// loadCall is a single in-flight LoadAll that concurrent callers join.
type loadCall struct {
	done    chan struct{}
	entries []Entry
	err     error
}

// New creates an engine bound to the given session and store. The engine
// clears its collection whenever the session leaves SignedIn, so a later
// sign-in never sees another user's tasks.
func New(session *auth.Session, store service.Store) *Engine {
	e := &Engine{
		session: session,
		store:   store,
		col:     newCollection(),
		newKey:  func() string { return uuid.New().String() },
	}
	e.cancelWatch = session.Watch(func(snap auth.Snapshot) {
		if snap.State != auth.SignedIn {
			e.mu.Lock()
			e.col = newCollection()
			e.mu.Unlock()
		}
	})
	return e
}

// Close cancels the session watch.
func (e *Engine) Close() {
	if e.cancelWatch != nil {
		e.cancelWatch()
	}
}

// Snapshot returns a read-only copy of the visible collection in display
// order: optimistic entries newest-first at the head, then the last load's
// server order.
func (e *Engine) Snapshot() []Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.col.snapshot()
}

// Get looks an entry up by server id or correlation key.
func (e *Engine) Get(ref string) (Entry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.lookup(ref)
	if s == nil || s.hidden {
		return Entry{}, false
	}
	return s.entry(), true
}

// Flush blocks until every outstanding completion has been applied. One-shot
// consumers call this before reading the final snapshot.
func (e *Engine) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// origin records who an operation was issued for. Completions check it so a
// result for a signed-out user is dropped instead of being applied to a
// collection that may belong to someone else by then.
type origin struct {
	userID string
	epoch  uint64
}

func (e *Engine) signedIn() (origin, error) {
	snap := e.session.Snapshot()
	if snap.State != auth.SignedIn {
		return origin{}, service.ErrNotAuthenticated
	}
	return origin{userID: snap.UserID, epoch: snap.Epoch}, nil
}

func (e *Engine) live(o origin) bool {
	snap := e.session.Snapshot()
	return snap.State == auth.SignedIn && snap.UserID == o.userID && snap.Epoch == o.epoch
}

// LoadAll fetches the user's tasks and replaces the collection wholesale
// with the server's ordering, every entry synced. At most one list request
// is in flight: a concurrent call joins the first and returns its result.
func (e *Engine) LoadAll(ctx context.Context) ([]Entry, error) {
	o, err := e.signedIn()
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if e.load != nil {
		call := e.load
		e.mu.Unlock()
		select {
		case <-call.done:
			return call.entries, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &loadCall{done: make(chan struct{})}
	e.load = call
	e.mu.Unlock()

	tasks, err := e.store.List(ctx, o.userID)

	e.mu.Lock()
	e.load = nil
	switch {
	case err != nil:
		call.err = err
	case !e.live(o):
		call.err = service.ErrNotAuthenticated
	default:
		e.col.replaceAll(tasks, e.newKey)
		call.entries = e.col.snapshot()
	}
	e.mu.Unlock()

	close(call.done)
	return call.entries, call.err
}

// Create validates the draft, inserts it at the head of the collection as
// pending, and returns its correlation key without waiting on the network.
// On acknowledgment the entry is rewritten in place with the server-assigned
// id; on failure it stays visible, flagged failed, for retry or discard.
func (e *Engine) Create(ctx context.Context, draft service.Draft) (string, error) {
	if err := validate.Draft(draft); err != nil {
		return "", err
	}
	o, err := e.signedIn()
	if err != nil {
		return "", err
	}

	key := e.newKey()
	s := &slot{
		key:   key,
		state: PendingCreate,
		task: service.Task{
			Title:       draft.Title,
			Description: draft.Description,
			DueDate:     draft.DueDate,
			Status:      draft.Status,
		},
	}
	e.mu.Lock()
	e.col.insertHead(s)
	e.mu.Unlock()

	e.dispatchCreate(ctx, o, key, draft)
	return key, nil
}

func (e *Engine) dispatchCreate(ctx context.Context, o origin, key string, draft service.Draft) {
	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		created, err := e.store.Create(ctx, o.userID, draft)

		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.live(o) {
			return
		}
		s := e.col.get(key)
		if s == nil {
			// Deleted locally before the create resolved; nothing to apply.
			return
		}
		if err != nil {
			s.state = Failed
			s.err = err
			return
		}
		s.task = created
		s.confirmed = created
		s.state = Synced
		s.err = nil
	}()
}

// Update applies the patch optimistically and issues the remote call. The
// target must be synced or failed with a server id; an entry with an
// operation already in flight is rejected. On failure the entry rolls back
// to its last confirmed value and is flagged failed.
func (e *Engine) Update(ctx context.Context, id string, patch service.Patch) error {
	if err := validate.Patch(patch); err != nil {
		return err
	}
	o, err := e.signedIn()
	if err != nil {
		return err
	}

	e.mu.Lock()
	s := e.col.byID(id)
	if s == nil || s.hidden {
		e.mu.Unlock()
		return service.ErrNotFound
	}
	if s.state != Synced && s.state != Failed {
		e.mu.Unlock()
		return service.ErrConflicting
	}
	key := s.key
	s.task = patch.Apply(s.task)
	s.state = PendingUpdate
	s.err = nil
	e.mu.Unlock()

	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		updated, err := e.store.Update(ctx, o.userID, id, patch)

		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.live(o) {
			return
		}
		s := e.col.get(key)
		if s == nil {
			return
		}
		if err != nil {
			s.task = s.confirmed
			s.state = Failed
			s.err = err
			return
		}
		s.task = updated
		s.confirmed = updated
		s.state = Synced
		s.err = nil
	}()
	return nil
}

// Delete removes the entry optimistically. An entry the server has never
// acknowledged is dropped locally with no network call; anything else is
// hidden immediately, deleted remotely, and reinserted flagged failed if the
// delete does not go through.
func (e *Engine) Delete(ctx context.Context, ref string) error {
	o, err := e.signedIn()
	if err != nil {
		return err
	}

	e.mu.Lock()
	s := e.lookup(ref)
	if s == nil || s.hidden {
		e.mu.Unlock()
		return service.ErrNotFound
	}
	if s.task.ID == "" {
		e.col.remove(s.key)
		e.mu.Unlock()
		return nil
	}
	if s.state == PendingUpdate || s.state == PendingDelete {
		e.mu.Unlock()
		return service.ErrConflicting
	}
	key, id := s.key, s.task.ID
	s.state = PendingDelete
	s.hidden = true
	e.mu.Unlock()

	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		err := e.store.Delete(ctx, o.userID, id)

		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.live(o) {
			return
		}
		s := e.col.get(key)
		if s == nil {
			return
		}
		if err != nil {
			s.hidden = false
			s.state = Failed
			s.err = err
			return
		}
		e.col.remove(key)
	}()
	return nil
}

// Retry re-issues the create for a failed entry the server never
// acknowledged.
func (e *Engine) Retry(ctx context.Context, ref string) error {
	o, err := e.signedIn()
	if err != nil {
		return err
	}

	e.mu.Lock()
	s := e.lookup(ref)
	if s == nil || s.hidden {
		e.mu.Unlock()
		return service.ErrNotFound
	}
	if s.state != Failed || s.task.ID != "" {
		e.mu.Unlock()
		return service.ErrConflicting
	}
	draft := service.Draft{
		Title:       s.task.Title,
		Description: s.task.Description,
		DueDate:     s.task.DueDate,
		Status:      s.task.Status,
	}
	key := s.key
	s.state = PendingCreate
	s.err = nil
	e.mu.Unlock()

	e.dispatchCreate(ctx, o, key, draft)
	return nil
}

// Discard drops a failed entry from the local collection. It only applies
// to failed entries; anything else either is consistent with the server or
// has an operation in flight.
func (e *Engine) Discard(ref string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.lookup(ref)
	if s == nil || s.hidden {
		return service.ErrNotFound
	}
	if s.state != Failed {
		return service.ErrConflicting
	}
	e.col.remove(s.key)
	return nil
}

// lookup resolves a reference that may be a server id or a correlation key.
func (e *Engine) lookup(ref string) *slot {
	if s := e.col.byID(ref); s != nil {
		return s
	}
	return e.col.get(ref)
}
