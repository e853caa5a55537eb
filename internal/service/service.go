package service

import "context"

// Store is the remote per-user task collection. Implementations are
// stateless with respect to the user: the id is supplied on every call and
// never cached, so a session change mid-flight cannot leak across users.
type Store interface {
	// List returns the user's tasks in server order. Callers must not
	// re-sort.
	List(ctx context.Context, userID string) ([]Task, error)

	// Create stores a new task and returns it with the server-assigned id.
	Create(ctx context.Context, userID string, draft Draft) (Task, error)

	// Update replaces the stored task and returns the server's
	// representation. Fails with ErrNotFound if the server has no such id.
	Update(ctx context.Context, userID, taskID string, patch Patch) (Task, error)

	// Delete removes a task. Deleting an id the server no longer has is not
	// an error; the desired end state is reached either way.
	Delete(ctx context.Context, userID, taskID string) error
}
