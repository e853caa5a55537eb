package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"taskman/internal/auth"
	"taskman/internal/config"
	"taskman/internal/exitcode"
	"taskman/internal/service"
	"taskman/internal/tasksync"
)

// resolveEntry maps a positional reference to a collection entry. The
// reference is the 1-based number from `taskman list` output, or a task id.
func resolveEntry(entries []tasksync.Entry, ref string) (tasksync.Entry, bool) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(entries) {
			return tasksync.Entry{}, false
		}
		return entries[n-1], true
	}
	for _, e := range entries {
		if e.Task.ID == ref || e.Key == ref {
			return e, true
		}
	}
	return tasksync.Entry{}, false
}

// parseDue accepts a date ("2006-01-02") or a full RFC 3339 timestamp.
func parseDue(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid due date %q (want 2006-01-02 or RFC 3339)", s)
}

// exitFor maps a failure to an exit code.
func exitFor(err error) int {
	var aerr *auth.Error
	var verr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrNotAuthenticated):
		return exitcode.AuthError
	case errors.As(err, &aerr):
		if aerr.Kind == auth.KindNetwork {
			return exitcode.BackendError
		}
		return exitcode.AuthError
	case errors.As(err, &verr),
		errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrConflicting):
		return exitcode.UserError
	default:
		return exitcode.BackendError
	}
}

// finishMutation waits for the queued operation and reports the outcome.
// In one-shot CLI use a mutation that failed after its optimistic apply
// must still fail the command.
func finishMutation(ctx context.Context, cfg *config.Config, app *App, ref string, out, errOut io.Writer) int {
	if err := app.Engine.Flush(ctx); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	if entry, ok := app.Engine.Get(ref); ok && entry.State == tasksync.Failed {
		fmt.Fprintf(errOut, "error: %v\n", entry.Err)
		return exitFor(entry.Err)
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// patchFrom builds a complete replacement patch from an entry's current
// values; callers substitute the fields being changed.
func patchFrom(e tasksync.Entry) service.Patch {
	return service.Patch{
		Title:       e.Task.Title,
		Description: e.Task.Description,
		DueDate:     e.Task.DueDate,
		Status:      e.Task.Status,
	}
}
