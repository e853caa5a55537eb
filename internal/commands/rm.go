package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskman/internal/config"
	"taskman/internal/exitcode"
	"taskman/internal/tasksync"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "taskman rm [common flags] <ref>" }
func (c *RmCmd) NeedsAuth() bool   { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "error: task reference required")
		return exitcode.UserError
	}

	entries, err := app.Engine.LoadAll(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitFor(err)
	}
	entry, found := resolveEntry(entries, args[0])
	if !found {
		fmt.Fprintf(errOut, "error: task not found: %s\n", args[0])
		return exitcode.UserError
	}

	ref := entry.Task.ID
	if ref == "" {
		// Unacknowledged create; only the correlation key names it.
		ref = entry.Key
	}
	if err := app.Engine.Delete(ctx, ref); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitFor(err)
	}
	if err := app.Engine.Flush(ctx); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}

	// A failed delete reinserts the entry flagged failed.
	if e, ok := app.Engine.Get(ref); ok && e.State == tasksync.Failed {
		fmt.Fprintf(errOut, "error: %v\n", e.Err)
		return exitFor(e.Err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
