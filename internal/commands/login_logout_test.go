package commands_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"taskman/internal/auth"
	"taskman/internal/commands"
	"taskman/internal/exitcode"
	"taskman/internal/testutil"
)

func TestLoginSavesSession(t *testing.T) {
	provider := testutil.NewFakeProvider()
	provider.AddUser("a@b.com", "Passw0rd!", "uid-1")
	cfg := testConfig(t)

	var out, errOut bytes.Buffer
	cmd := &commands.LoginCmd{}
	cmd.SetProvider(provider)
	cmd.SetCredentials("a@b.com", "Passw0rd!")
	code := cmd.Run(context.Background(), cfg, nil, nil, &out, &errOut)
	if code != exitcode.Success {
		t.Fatalf("code = %d, stderr = %q", code, errOut.String())
	}

	if !cfg.HasSession() {
		t.Fatal("session file not written")
	}
	saved, err := auth.LoadSession(cfg.SessionPath())
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if saved.UserID != "uid-1" || saved.Email != "a@b.com" || saved.Token == nil {
		t.Errorf("saved session = %+v", saved)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	provider := testutil.NewFakeProvider()
	provider.AddUser("a@b.com", "Passw0rd!", "uid-1")
	cfg := testConfig(t)

	var out, errOut bytes.Buffer
	cmd := &commands.LoginCmd{}
	cmd.SetProvider(provider)
	cmd.SetCredentials("a@b.com", "wrong")
	code := cmd.Run(context.Background(), cfg, nil, nil, &out, &errOut)
	if code != exitcode.AuthError {
		t.Errorf("code = %d, want %d", code, exitcode.AuthError)
	}
	if cfg.HasSession() {
		t.Error("no session may be saved on failure")
	}
	// The message is the stable user-facing one, not a provider code.
	if strings.Contains(errOut.String(), "INVALID") {
		t.Errorf("provider code leaked: %q", errOut.String())
	}
}

func TestLoginMissingFlags(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := &commands.LoginCmd{}
	code := cmd.Run(context.Background(), testConfig(t), nil, nil, &out, &errOut)
	if code != exitcode.UserError {
		t.Errorf("code = %d, want %d", code, exitcode.UserError)
	}
}

func TestSignupCreatesAccountAndSignsIn(t *testing.T) {
	provider := testutil.NewFakeProvider()
	cfg := testConfig(t)

	var out, errOut bytes.Buffer
	cmd := &commands.SignupCmd{}
	cmd.SetProvider(provider)
	cmd.SetCredentials("new@b.com", "Passw0rd!")
	code := cmd.Run(context.Background(), cfg, nil, nil, &out, &errOut)
	if code != exitcode.Success {
		t.Fatalf("code = %d, stderr = %q", code, errOut.String())
	}
	if !cfg.HasSession() {
		t.Error("signup should leave the user signed in")
	}
}

func TestSignupRejectsWeakPasswordLocally(t *testing.T) {
	provider := testutil.NewFakeProvider()

	var out, errOut bytes.Buffer
	cmd := &commands.SignupCmd{}
	cmd.SetProvider(provider)
	cmd.SetCredentials("new@b.com", "short")
	code := cmd.Run(context.Background(), testConfig(t), nil, nil, &out, &errOut)
	if code != exitcode.UserError {
		t.Errorf("code = %d, want %d", code, exitcode.UserError)
	}
}

func TestLogoutRemovesSession(t *testing.T) {
	provider := testutil.NewFakeProvider()
	provider.AddUser("a@b.com", "Passw0rd!", "uid-1")
	cfg := testConfig(t)

	var out, errOut bytes.Buffer
	login := &commands.LoginCmd{}
	login.SetProvider(provider)
	login.SetCredentials("a@b.com", "Passw0rd!")
	if code := login.Run(context.Background(), cfg, nil, nil, &out, &errOut); code != exitcode.Success {
		t.Fatalf("login code = %d", code)
	}

	out.Reset()
	logout := &commands.LogoutCmd{}
	if code := logout.Run(context.Background(), cfg, nil, nil, &out, &errOut); code != exitcode.Success {
		t.Fatalf("logout code = %d", code)
	}
	if cfg.HasSession() {
		t.Error("session file still present")
	}
}

func TestLogoutWhenNotLoggedIn(t *testing.T) {
	cfg := testConfig(t)
	var out, errOut bytes.Buffer
	cmd := &commands.LogoutCmd{}
	code := cmd.Run(context.Background(), cfg, nil, nil, &out, &errOut)
	if code != exitcode.Success {
		t.Errorf("code = %d", code)
	}
	if !strings.Contains(out.String(), "not logged in") {
		t.Errorf("stdout = %q", out.String())
	}
}
