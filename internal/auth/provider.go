package auth

import (
	"context"

	"golang.org/x/oauth2"
)

// Credentials is what a provider returns from a successful sign-in, sign-up
// or token refresh.
type Credentials struct {
	UserID string
	Email  string
	Token  *oauth2.Token
}

// Provider is the external authentication service the session wraps.
type Provider interface {
	// CreateUser registers a new account and signs it in.
	CreateUser(ctx context.Context, email, password string) (Credentials, error)

	// SignIn authenticates an existing account.
	SignIn(ctx context.Context, email, password string) (Credentials, error)

	// Refresh exchanges a refresh token for fresh credentials. Used to
	// restore a persisted session.
	Refresh(ctx context.Context, refreshToken string) (Credentials, error)

	// SignOut invalidates provider-side state, if any.
	SignOut(ctx context.Context) error

	// Subscribe registers fn for provider-initiated state changes. It is
	// called with the user id, or "" when credentials are revoked. The
	// returned func cancels the subscription.
	Subscribe(fn func(userID string)) (cancel func())
}
