// Package firebase implements auth.Provider against the Firebase identity
// toolkit REST API.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"taskman/internal/auth"
)

const (
	defaultBaseURL  = "https://identitytoolkit.googleapis.com/v1"
	defaultTokenURL = "https://securetoken.googleapis.com/v1"

	requestTimeout = 10 * time.Second
)

// Provider is a REST client for Firebase email/password authentication.
type Provider struct {
	apiKey   string
	baseURL  string
	tokenURL string
	http     *http.Client
	now      func() time.Time

	mu        sync.Mutex
	listeners map[int]func(string)
	nextID    int
}

// New creates a provider using the given web API key.
func New(apiKey string) *Provider {
	return NewWithURLs(apiKey, &http.Client{}, defaultBaseURL, defaultTokenURL)
}

// NewWithURLs creates a provider with custom endpoints (for testing).
func NewWithURLs(apiKey string, hc *http.Client, baseURL, tokenURL string) *Provider {
	return &Provider{
		apiKey:    apiKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		tokenURL:  strings.TrimRight(tokenURL, "/"),
		http:      hc,
		now:       time.Now,
		listeners: make(map[int]func(string)),
	}
}

// authResponse is the identity toolkit's sign-in/sign-up payload.
type authResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

// CreateUser implements auth.Provider.
func (p *Provider) CreateUser(ctx context.Context, email, password string) (auth.Credentials, error) {
	creds, err := p.accountsCall(ctx, "accounts:signUp", email, password)
	if err != nil {
		return auth.Credentials{}, err
	}
	p.notify(creds.UserID)
	return creds, nil
}

// SignIn implements auth.Provider.
func (p *Provider) SignIn(ctx context.Context, email, password string) (auth.Credentials, error) {
	creds, err := p.accountsCall(ctx, "accounts:signInWithPassword", email, password)
	if err != nil {
		return auth.Credentials{}, err
	}
	p.notify(creds.UserID)
	return creds, nil
}

func (p *Provider) accountsCall(ctx context.Context, endpoint, email, password string) (auth.Credentials, error) {
	body := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	target := fmt.Sprintf("%s/%s?key=%s", p.baseURL, endpoint, url.QueryEscape(p.apiKey))

	var resp authResponse
	if err := p.postJSON(ctx, target, body, &resp); err != nil {
		return auth.Credentials{}, err
	}
	return auth.Credentials{
		UserID: resp.LocalID,
		Email:  resp.Email,
		Token:  p.token(resp.IDToken, resp.RefreshToken, resp.ExpiresIn),
	}, nil
}

// Refresh implements auth.Provider. A refresh rejection means the
// credentials were revoked, so subscribers are told the user is gone.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (auth.Credentials, error) {
	target := fmt.Sprintf("%s/token?key=%s", p.tokenURL, url.QueryEscape(p.apiKey))
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return auth.Credentials{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := p.http.Do(req)
	if err != nil {
		return auth.Credentials{}, &auth.Error{Kind: auth.KindNetwork, Err: err}
	}
	defer httpResp.Body.Close()

	if err := googleapi.CheckResponse(httpResp); err != nil {
		aerr := mapError(err)
		if aerr.Kind != auth.KindNetwork {
			p.notify("")
		}
		return auth.Credentials{}, aerr
	}

	var resp struct {
		UserID       string `json:"user_id"`
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return auth.Credentials{}, &auth.Error{Kind: auth.KindUnknown, Err: err}
	}
	return auth.Credentials{
		UserID: resp.UserID,
		Token:  p.token(resp.IDToken, resp.RefreshToken, resp.ExpiresIn),
	}, nil
}

// SignOut implements auth.Provider. Firebase ID tokens are client-held, so
// there is nothing to invalidate server-side; subscribers are notified.
func (p *Provider) SignOut(ctx context.Context) error {
	p.notify("")
	return nil
}

// Subscribe implements auth.Provider.
func (p *Provider) Subscribe(fn func(userID string)) (cancel func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

func (p *Provider) notify(userID string) {
	p.mu.Lock()
	fns := make([]func(string), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(userID)
	}
}

func (p *Provider) token(idToken, refreshToken, expiresIn string) *oauth2.Token {
	seconds, err := strconv.Atoi(expiresIn)
	if err != nil {
		seconds = 3600
	}
	return &oauth2.Token{
		AccessToken:  idToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		Expiry:       p.now().Add(time.Duration(seconds) * time.Second),
	}
}

func (p *Provider) postJSON(ctx context.Context, target string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return &auth.Error{Kind: auth.KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		return mapError(err)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// mapError translates identity toolkit error codes into the stable taxonomy.
// Anything unrecognized collapses to KindUnknown so provider-internal codes
// never reach users.
func mapError(err error) *auth.Error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg := gerr.Message
		switch {
		case strings.Contains(msg, "EMAIL_EXISTS"):
			return &auth.Error{Kind: auth.KindEmailAlreadyInUse, Err: err}
		case strings.Contains(msg, "WEAK_PASSWORD"):
			return &auth.Error{Kind: auth.KindWeakPassword, Err: err}
		case strings.Contains(msg, "INVALID_PASSWORD"),
			strings.Contains(msg, "INVALID_LOGIN_CREDENTIALS"):
			return &auth.Error{Kind: auth.KindWrongCredentials, Err: err}
		case strings.Contains(msg, "EMAIL_NOT_FOUND"):
			return &auth.Error{Kind: auth.KindUserNotFound, Err: err}
		case strings.Contains(msg, "TOKEN_EXPIRED"),
			strings.Contains(msg, "INVALID_REFRESH_TOKEN"),
			strings.Contains(msg, "USER_DISABLED"):
			return &auth.Error{Kind: auth.KindWrongCredentials, Err: err}
		}
	}
	return &auth.Error{Kind: auth.KindUnknown, Err: err}
}
