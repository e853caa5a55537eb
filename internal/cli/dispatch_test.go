package cli_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"taskman/internal/auth"
	"taskman/internal/cli"
	"taskman/internal/commands"
	"taskman/internal/config"
	"taskman/internal/exitcode"
	"taskman/internal/service"
	"taskman/internal/tasksync"
	"taskman/internal/testutil"
)

func testFactory(store *testutil.FakeStore) cli.AppFactory {
	return func(ctx context.Context, cfg *config.Config) (*commands.App, error) {
		session := auth.NewSession(testutil.NewFakeProvider())
		session.Restore(auth.Credentials{UserID: "uid-1", Email: "a@b.com"})
		return &commands.App{
			Session: session,
			Engine:  tasksync.New(session, store),
		}, nil
	}
}

func run(t *testing.T, factory cli.AppFactory, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	d := cli.NewDispatcher(commands.DefaultRegistry, factory)
	code := d.Run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestUnknownCommand(t *testing.T) {
	code, _, errOut := run(t, nil, "frobnicate")
	if code != exitcode.UserError {
		t.Errorf("code = %d, want %d", code, exitcode.UserError)
	}
	if !strings.Contains(errOut, "unknown command: frobnicate") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestFlagBeforeCommand(t *testing.T) {
	code, _, errOut := run(t, nil, "--quiet", "list")
	if code != exitcode.UserError {
		t.Errorf("code = %d, want %d", code, exitcode.UserError)
	}
	if !strings.Contains(errOut, "unknown command") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestUnknownFlag(t *testing.T) {
	code, _, errOut := run(t, nil, "version", "--bogus")
	if code != exitcode.UserError {
		t.Errorf("code = %d, want %d", code, exitcode.UserError)
	}
	if !strings.Contains(errOut, "unknown flag: bogus") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestAuthCommandWithoutFactory(t *testing.T) {
	code, _, errOut := run(t, nil, "list")
	if code != exitcode.AuthError {
		t.Errorf("code = %d, want %d", code, exitcode.AuthError)
	}
	if !strings.Contains(errOut, "not logged in") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestNoArgsDispatchesToList(t *testing.T) {
	store := testutil.NewFakeStore()
	store.Seed("uid-1", service.Task{ID: "t1", Title: "hello", Status: service.StatusTodo})
	code, out, errOut := run(t, testFactory(store))
	if code != exitcode.Success {
		t.Fatalf("code = %d, stderr = %q", code, errOut)
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("stdout = %q", out)
	}
}

func TestFactoryErrorMapsToAuthCode(t *testing.T) {
	factory := func(ctx context.Context, cfg *config.Config) (*commands.App, error) {
		return nil, service.ErrNotAuthenticated
	}
	code, _, errOut := run(t, factory, "list")
	if code != exitcode.AuthError {
		t.Errorf("code = %d, want %d", code, exitcode.AuthError)
	}
	if !strings.Contains(errOut, "taskman login") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestFactoryPlainErrorMapsToBackendCode(t *testing.T) {
	factory := func(ctx context.Context, cfg *config.Config) (*commands.App, error) {
		return nil, errors.New("parsing config.yaml: yaml: line 1: did not find expected node content")
	}
	code, _, errOut := run(t, factory, "list")
	if code != exitcode.BackendError {
		t.Errorf("code = %d, want %d", code, exitcode.BackendError)
	}
	if strings.Contains(errOut, "auth error") {
		t.Errorf("a config failure must not be reported as an auth error: %q", errOut)
	}
}

func TestVersionNeedsNoFactory(t *testing.T) {
	code, out, _ := run(t, nil, "version")
	if code != exitcode.Success {
		t.Errorf("code = %d", code)
	}
	if !strings.Contains(out, "taskman") {
		t.Errorf("stdout = %q", out)
	}
}
