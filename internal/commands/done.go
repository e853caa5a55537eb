package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskman/internal/config"
	"taskman/internal/exitcode"
	"taskman/internal/service"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return nil }
func (c *DoneCmd) Synopsis() string  { return "Mark a task done" }
func (c *DoneCmd) Usage() string     { return "taskman done [common flags] <ref>" }
func (c *DoneCmd) NeedsAuth() bool   { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
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

	patch := patchFrom(entry)
	patch.Status = service.StatusDone
	if err := app.Engine.Update(ctx, entry.Task.ID, patch); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitFor(err)
	}
	return finishMutation(ctx, cfg, app, entry.Task.ID, out, errOut)
}
