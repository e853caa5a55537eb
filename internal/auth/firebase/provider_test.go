package firebase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskman/internal/auth"
)

func newTestProvider(handler http.Handler) (*Provider, *httptest.Server) {
	srv := httptest.NewServer(handler)
	p := NewWithURLs("test-key", srv.Client(), srv.URL, srv.URL)
	return p, srv
}

func firebaseError(w http.ResponseWriter, status int, code string) {
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":{"code":%d,"message":"%s","errors":[{"message":"%s","domain":"global","reason":"invalid"}]}}`, status, code, code)
}

func TestSignInSuccess(t *testing.T) {
	p, srv := newTestProvider(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts:signInWithPassword" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key, got %q", r.URL.Query().Get("key"))
		}
		fmt.Fprint(w, `{"localId":"uid-1","email":"a@b.com","idToken":"tok","refreshToken":"ref","expiresIn":"3600"}`)
	}))
	defer srv.Close()

	p.now = func() time.Time { return time.Unix(1750000000, 0) }

	creds, err := p.SignIn(context.Background(), "a@b.com", "Secret1!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.UserID != "uid-1" || creds.Email != "a@b.com" {
		t.Errorf("unexpected credentials: %+v", creds)
	}
	if creds.Token.AccessToken != "tok" || creds.Token.RefreshToken != "ref" {
		t.Errorf("unexpected token: %+v", creds.Token)
	}
	if got := creds.Token.Expiry.Unix(); got != 1750000000+3600 {
		t.Errorf("unexpected expiry: %d", got)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		code string
		want auth.Kind
	}{
		{"EMAIL_EXISTS", auth.KindEmailAlreadyInUse},
		{"WEAK_PASSWORD : Password should be at least 6 characters", auth.KindWeakPassword},
		{"INVALID_PASSWORD", auth.KindWrongCredentials},
		{"INVALID_LOGIN_CREDENTIALS", auth.KindWrongCredentials},
		{"EMAIL_NOT_FOUND", auth.KindUserNotFound},
		{"OPERATION_NOT_ALLOWED", auth.KindUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			p, srv := newTestProvider(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				firebaseError(w, http.StatusBadRequest, tc.code)
			}))
			defer srv.Close()

			_, err := p.SignIn(context.Background(), "a@b.com", "pw")
			var aerr *auth.Error
			if !errors.As(err, &aerr) {
				t.Fatalf("expected *auth.Error, got %v", err)
			}
			if aerr.Kind != tc.want {
				t.Errorf("expected kind %d, got %d", tc.want, aerr.Kind)
			}
			// Provider-internal codes must not leak into the message.
			if aerr.Message() == tc.code {
				t.Errorf("message leaks provider code: %q", aerr.Message())
			}
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	p := NewWithURLs("k", srv.Client(), srv.URL, srv.URL)
	srv.Close()

	_, err := p.SignIn(context.Background(), "a@b.com", "pw")
	var aerr *auth.Error
	if !errors.As(err, &aerr) || aerr.Kind != auth.KindNetwork {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestRefreshRevokedNotifiesSubscribers(t *testing.T) {
	p, srv := newTestProvider(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		firebaseError(w, http.StatusBadRequest, "INVALID_REFRESH_TOKEN")
	}))
	defer srv.Close()

	revoked := make(chan string, 1)
	cancel := p.Subscribe(func(uid string) { revoked <- uid })
	defer cancel()

	_, err := p.Refresh(context.Background(), "stale")
	var aerr *auth.Error
	if !errors.As(err, &aerr) || aerr.Kind != auth.KindWrongCredentials {
		t.Fatalf("expected wrong-credentials error, got %v", err)
	}
	select {
	case uid := <-revoked:
		if uid != "" {
			t.Errorf("expected empty user id, got %q", uid)
		}
	default:
		t.Error("expected a revocation notification")
	}
}

func TestRefreshSuccess(t *testing.T) {
	p, srv := newTestProvider(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("bad form: %v", err)
		}
		if r.PostForm.Get("grant_type") != "refresh_token" {
			t.Errorf("unexpected grant type: %q", r.PostForm.Get("grant_type"))
		}
		fmt.Fprint(w, `{"user_id":"uid-1","id_token":"tok2","refresh_token":"ref2","expires_in":"3600"}`)
	}))
	defer srv.Close()

	creds, err := p.Refresh(context.Background(), "ref")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.UserID != "uid-1" || creds.Token.AccessToken != "tok2" {
		t.Errorf("unexpected credentials: %+v", creds)
	}
}
