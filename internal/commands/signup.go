package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskman/internal/auth"
	"taskman/internal/config"
	"taskman/internal/exitcode"
	"taskman/internal/validate"
)

func init() {
	Register(&SignupCmd{})
}

// SignupCmd implements the signup command. A successful sign-up also signs
// the user in.
type SignupCmd struct {
	email    string
	password string

	provider auth.Provider
}

// SetProvider overrides the auth provider (for testing).
func (c *SignupCmd) SetProvider(p auth.Provider) { c.provider = p }

// SetCredentials sets the flag values directly (for testing).
func (c *SignupCmd) SetCredentials(email, password string) {
	c.email, c.password = email, password
}

func (c *SignupCmd) Name() string      { return "signup" }
func (c *SignupCmd) Aliases() []string { return nil }
func (c *SignupCmd) Synopsis() string  { return "Create an account" }
func (c *SignupCmd) Usage() string {
	return "taskman signup [common flags] --email <addr> --password <pw>"
}
func (c *SignupCmd) NeedsAuth() bool { return false }

func (c *SignupCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *SignupCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	// Catch bad input locally before it reaches the provider.
	if c.email != "" && !validate.IsValidEmail(c.email) {
		fmt.Fprintln(errOut, "error: invalid email address")
		return exitcode.UserError
	}
	if c.password != "" && !validate.IsValidPassword(c.password) {
		fmt.Fprintf(errOut, "error: password must be at least %d characters with upper, lower, digit, and special characters\n", validate.PasswordMinLen)
		return exitcode.UserError
	}

	return runAuth(ctx, cfg, c.provider, c.email, c.password, out, errOut,
		func(ctx context.Context, s *auth.Session, email, password string) (string, error) {
			return s.SignUp(ctx, email, password)
		})
}
