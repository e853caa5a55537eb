package testutil

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"

	"taskman/internal/auth"
)

// FakeProvider is an in-memory auth.Provider. SignInGates, keyed by email,
// let tests hold individual sign-in attempts open to exercise completion
// ordering.
type FakeProvider struct {
	mu        sync.Mutex
	passwords map[string]string // email -> password
	ids       map[string]string // email -> user id

	CreateUserErr error
	SignInErr     error
	RefreshErr    error

	SignInGates map[string]chan struct{}

	listeners map[int]func(string)
	nextID    int
}

// NewFakeProvider creates an empty fake provider.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		passwords:   make(map[string]string),
		ids:         make(map[string]string),
		SignInGates: make(map[string]chan struct{}),
		listeners:   make(map[int]func(string)),
	}
}

// AddUser registers an account the fake will accept.
func (f *FakeProvider) AddUser(email, password, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passwords[email] = password
	f.ids[email] = userID
}

// Notify simulates a provider-initiated state change ("" = revoked).
func (f *FakeProvider) Notify(userID string) {
	f.mu.Lock()
	fns := make([]func(string), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(userID)
	}
}

// CreateUser implements auth.Provider.
func (f *FakeProvider) CreateUser(ctx context.Context, email, password string) (auth.Credentials, error) {
	if f.CreateUserErr != nil {
		return auth.Credentials{}, f.CreateUserErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.passwords[email]; exists {
		return auth.Credentials{}, &auth.Error{Kind: auth.KindEmailAlreadyInUse}
	}
	userID := fmt.Sprintf("uid-%d", len(f.ids)+1)
	f.passwords[email] = password
	f.ids[email] = userID
	return f.credsLocked(email), nil
}

// SignIn implements auth.Provider.
func (f *FakeProvider) SignIn(ctx context.Context, email, password string) (auth.Credentials, error) {
	f.mu.Lock()
	gate := f.SignInGates[email]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.SignInErr != nil {
		return auth.Credentials{}, f.SignInErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.passwords[email]
	if !ok {
		return auth.Credentials{}, &auth.Error{Kind: auth.KindUserNotFound}
	}
	if stored != password {
		return auth.Credentials{}, &auth.Error{Kind: auth.KindWrongCredentials}
	}
	return f.credsLocked(email), nil
}

// Refresh implements auth.Provider.
func (f *FakeProvider) Refresh(ctx context.Context, refreshToken string) (auth.Credentials, error) {
	if f.RefreshErr != nil {
		return auth.Credentials{}, f.RefreshErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for email := range f.ids {
		if "refresh-"+email == refreshToken {
			return f.credsLocked(email), nil
		}
	}
	return auth.Credentials{}, &auth.Error{Kind: auth.KindWrongCredentials}
}

// SignOut implements auth.Provider.
func (f *FakeProvider) SignOut(ctx context.Context) error { return nil }

// Subscribe implements auth.Provider.
func (f *FakeProvider) Subscribe(fn func(userID string)) (cancel func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

func (f *FakeProvider) credsLocked(email string) auth.Credentials {
	return auth.Credentials{
		UserID: f.ids[email],
		Email:  email,
		Token: &oauth2.Token{
			AccessToken:  "token-" + email,
			RefreshToken: "refresh-" + email,
			TokenType:    "Bearer",
		},
	}
}
