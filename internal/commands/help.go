package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskman/internal/config"
	"taskman/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskman help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  taskman                                        List tasks
  taskman list [common flags]
  taskman add [common flags] --desc <text> [--due <date>] [--status <s>] <title...>
  taskman edit [common flags] [--title <t>] [--desc <d>] [--due <date>] [--status <s>] <ref>
  taskman done [common flags] <ref>
  taskman rm [common flags] <ref>
  taskman signup [common flags] --email <addr> --password <pw>
  taskman login [common flags] --email <addr> --password <pw>
  taskman logout [common flags]
  taskman help
  taskman version

A <ref> is the task number from the list output, or a task id.
Statuses: "Todo", "In Progress", "Done".

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
