package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskman/internal/auth"
	"taskman/internal/auth/firebase"
	"taskman/internal/config"
	"taskman/internal/exitcode"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	email    string
	password string

	provider auth.Provider
}

// SetProvider overrides the auth provider (for testing).
func (c *LoginCmd) SetProvider(p auth.Provider) { c.provider = p }

// SetCredentials sets the flag values directly (for testing).
func (c *LoginCmd) SetCredentials(email, password string) {
	c.email, c.password = email, password
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Sign in with email and password" }
func (c *LoginCmd) Usage() string {
	return "taskman login [common flags] --email <addr> --password <pw>"
}
func (c *LoginCmd) NeedsAuth() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	return runAuth(ctx, cfg, c.provider, c.email, c.password, out, errOut,
		func(ctx context.Context, s *auth.Session, email, password string) (string, error) {
			return s.SignIn(ctx, email, password)
		})
}

// runAuth is the shared sign-in/sign-up flow: authenticate, then persist the
// session so later commands can restore it.
func runAuth(ctx context.Context, cfg *config.Config, provider auth.Provider, email, password string, out, errOut io.Writer,
	authFn func(context.Context, *auth.Session, string, string) (string, error)) int {

	if email == "" || password == "" {
		fmt.Fprintln(errOut, "error: --email and --password are required")
		return exitcode.UserError
	}

	if provider == nil {
		settings, err := cfg.LoadSettings()
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		if settings.Auth.APIKey == "" {
			fmt.Fprintf(errOut, "error: no API key configured (set auth.api_key in %s or TASKMAN_API_KEY)\n", cfg.SettingsPath())
			return exitcode.AuthError
		}
		provider = firebase.New(settings.Auth.APIKey)
	}

	session := auth.NewSession(provider)
	defer session.Close()

	userID, err := authFn(ctx, session, email, password)
	if err != nil {
		if aerr := auth.AsError(err); aerr != nil {
			fmt.Fprintf(errOut, "error: %s\n", aerr.Message())
			if aerr.Kind == auth.KindNetwork {
				return exitcode.BackendError
			}
			return exitcode.AuthError
		}
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.AuthError
	}
	saved := auth.SavedSession{
		UserID: userID,
		Email:  session.Email(),
		Token:  session.Token(),
	}
	if err := auth.SaveSession(cfg.SessionPath(), saved); err != nil {
		fmt.Fprintf(errOut, "error: failed to save session: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
