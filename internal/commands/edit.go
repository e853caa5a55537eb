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
	Register(&EditCmd{})
}

// EditCmd implements the edit command. Unset flags keep the task's current
// values; the wire contract always submits the full record.
type EditCmd struct {
	title  string
	desc   string
	due    string
	status string
}

// SetFlags sets the flag values directly (for testing).
func (c *EditCmd) SetFlags(title, desc, due, status string) {
	c.title, c.desc, c.due, c.status = title, desc, due, status
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Edit a task" }
func (c *EditCmd) Usage() string {
	return "taskman edit [common flags] [--title <t>] [--desc <d>] [--due <date>] [--status <s>] <ref>"
}
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.title, "title", "", "")
	fs.StringVar(&c.desc, "desc", "", "")
	fs.StringVar(&c.due, "due", "", "")
	fs.StringVar(&c.status, "status", "", "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
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
	if c.title != "" {
		patch.Title = c.title
	}
	if c.desc != "" {
		patch.Description = c.desc
	}
	if c.status != "" {
		patch.Status = service.Status(c.status)
	}
	if c.due != "" {
		due, err := parseDue(c.due)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		patch.DueDate = due
	}

	if err := app.Engine.Update(ctx, entry.Task.ID, patch); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitFor(err)
	}
	return finishMutation(ctx, cfg, app, entry.Task.ID, out, errOut)
}
