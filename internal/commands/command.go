// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"taskman/internal/auth"
	"taskman/internal/config"
	"taskman/internal/tasksync"
)

// App bundles the signed-in session and the sync engine a command operates
// on. It is nil for commands that don't need authentication.
type App struct {
	Session *auth.Session
	Engine  *tasksync.Engine
}

// Close releases the engine and session watchers.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Engine != nil {
		a.Engine.Close()
	}
	if a.Session != nil {
		a.Session.Close()
	}
}

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command requires a signed-in session.
	// Commands like help, version, login, signup, logout return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, paths).
	// app is nil if NeedsAuth() returns false.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int
}
