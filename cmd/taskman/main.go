// Package main is the entry point for the taskman CLI.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskman/internal/auth"
	"taskman/internal/auth/firebase"
	"taskman/internal/backend/taskapi"
	"taskman/internal/cli"
	"taskman/internal/commands"
	"taskman/internal/config"
	"taskman/internal/service"
	"taskman/internal/tasksync"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, newApp)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}

// newApp restores the persisted session and wires the sync engine over the
// remote task API.
func newApp(ctx context.Context, cfg *config.Config) (*commands.App, error) {
	settings, err := cfg.LoadSettings()
	if err != nil {
		return nil, err
	}
	if !cfg.HasSession() {
		return nil, service.ErrNotAuthenticated
	}

	saved, err := auth.LoadSession(cfg.SessionPath())
	if err != nil {
		return nil, service.ErrNotAuthenticated
	}
	provider := firebase.New(settings.Auth.APIKey)

	// Refresh an expired token before any backend call; a rejected refresh
	// means the stored session is no longer usable.
	if saved.Token != nil && !saved.Token.Valid() && saved.Token.RefreshToken != "" {
		creds, err := provider.Refresh(ctx, saved.Token.RefreshToken)
		if err != nil {
			return nil, err
		}
		saved.UserID = creds.UserID
		saved.Token = creds.Token
		if saved.Email == "" {
			saved.Email = creds.Email
		}
		// Best effort; a stale file only costs one refresh next run.
		auth.SaveSession(cfg.SessionPath(), saved)
	}

	session := auth.NewSession(provider)
	session.Restore(saved.Credentials())

	hc := &http.Client{}
	if settings.API.Timeout > 0 {
		hc.Timeout = time.Duration(settings.API.Timeout)
	}
	store := taskapi.NewWithHTTPClient(settings.API.BaseURL, hc)

	return &commands.App{
		Session: session,
		Engine:  tasksync.New(session, store),
	}, nil
}
