package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskman/internal/config"
	"taskman/internal/exitcode"
	"taskman/internal/service"
	"taskman/internal/tasksync"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	desc   string
	due    string
	status string
}

// SetFlags sets the flag values directly (for testing).
func (c *AddCmd) SetFlags(desc, due, status string) {
	c.desc, c.due, c.status = desc, due, status
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "taskman add [common flags] --desc <text> [--due <date>] [--status <s>] <title...>"
}
func (c *AddCmd) NeedsAuth() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.desc, "desc", "", "")
	fs.StringVar(&c.desc, "d", "", "")
	fs.StringVar(&c.due, "due", "", "")
	fs.StringVar(&c.status, "status", string(service.StatusTodo), "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}
	title := strings.Join(args, " ")
	if strings.TrimSpace(title) == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	draft := service.Draft{
		Title:       title,
		Description: c.desc,
		Status:      service.Status(c.status),
	}
	if c.due != "" {
		due, err := parseDue(c.due)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		draft.DueDate = due
	}

	key, err := app.Engine.Create(ctx, draft)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitFor(err)
	}
	if err := app.Engine.Flush(ctx); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}

	// One-shot invocation: surface a failed create instead of exiting 0.
	entry, ok := app.Engine.Get(key)
	if ok && entry.State == tasksync.Failed {
		fmt.Fprintf(errOut, "error: %v\n", entry.Err)
		return exitFor(entry.Err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
