// Package auth is the single source of truth for "who is the current user".
// It holds the session state machine and the provider boundary it wraps.
package auth

import (
	"context"
	"sync"

	"golang.org/x/oauth2"
)

// State is the authentication state of the session.
type State int

const (
	SignedOut State = iota
	Authenticating
	SignedIn
)

func (s State) String() string {
	switch s {
	case SignedOut:
		return "signed-out"
	case Authenticating:
		return "authenticating"
	case SignedIn:
		return "signed-in"
	}
	return "unknown"
}

// Snapshot is a read-only view of the session at one instant. Epoch changes
// on every sign-out, so a completion that captured an older epoch knows its
// user is gone.
type Snapshot struct {
	State   State
	UserID  string
	Epoch   uint64
	LastErr *Error
}

// Session tracks the current authentication state and wraps the external
// provider. Sign-in and sign-up are last-completion-wins: concurrent calls
// are allowed, and the observable state reflects whichever call finished
// most recently — except completions issued before a sign-out, which are
// discarded so a slow stale attempt cannot resurrect a signed-out session.
type Session struct {
	mu       sync.Mutex
	provider Provider
	state    State
	userID   string
	email    string
	token    *oauth2.Token
	lastErr  *Error
	epoch    uint64

	watchers  map[int]func(Snapshot)
	nextWatch int

	queue       []delivery
	dispatching bool

	unsubscribe func()
}

// delivery is one queued notification: the snapshot at the moment of the
// state change, plus the watchers registered at that moment.
type delivery struct {
	snap Snapshot
	fns  []func(Snapshot)
}

// NewSession creates a signed-out session wrapping the given provider.
func NewSession(p Provider) *Session {
	s := &Session{
		provider: p,
		watchers: make(map[int]func(Snapshot)),
	}
	if p != nil {
		s.unsubscribe = p.Subscribe(s.providerChanged)
	}
	return s
}

// Close cancels the provider subscription.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{State: s.state, UserID: s.userID, Epoch: s.epoch, LastErr: s.lastErr}
}

// UserID returns the signed-in user id, if any.
func (s *Session) UserID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.state == SignedIn
}

// Token returns the current credentials token, if signed in.
func (s *Session) Token() *oauth2.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Email returns the signed-in account's email, if known.
func (s *Session) Email() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email
}

// Watch registers fn for state changes. fn runs outside the session lock and
// may call back into the session. The returned func cancels the watch.
func (s *Session) Watch(fn func(Snapshot)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextWatch
	s.nextWatch++
	s.watchers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.watchers, id)
	}
}

// SignUp registers a new account. On success the session is SignedIn and the
// new user id is returned.
func (s *Session) SignUp(ctx context.Context, email, password string) (string, error) {
	return s.authenticate(ctx, email, s.provider.CreateUser, password)
}

// SignIn authenticates an existing account.
func (s *Session) SignIn(ctx context.Context, email, password string) (string, error) {
	return s.authenticate(ctx, email, s.provider.SignIn, password)
}

func (s *Session) authenticate(ctx context.Context, email string, fn func(context.Context, string, string) (Credentials, error), password string) (string, error) {
	s.mu.Lock()
	issuedEpoch := s.epoch
	if s.state != SignedIn {
		s.state = Authenticating
	}
	s.notifyLocked()
	s.mu.Unlock()

	creds, err := fn(ctx, email, password)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != issuedEpoch {
		// A sign-out happened while this attempt was in flight. The session
		// it was issued for no longer exists, so the result is not applied.
		if err != nil {
			return "", AsError(err)
		}
		return creds.UserID, nil
	}

	if err != nil {
		aerr := AsError(err)
		s.lastErr = aerr
		s.state = SignedOut
		s.userID = ""
		s.token = nil
		s.notifyLocked()
		return "", aerr
	}

	s.state = SignedIn
	s.userID = creds.UserID
	s.email = creds.Email
	s.token = creds.Token
	s.lastErr = nil
	s.notifyLocked()
	return creds.UserID, nil
}

// Restore puts the session directly into SignedIn with previously persisted
// credentials, bypassing the provider round trip.
func (s *Session) Restore(creds Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SignedIn
	s.userID = creds.UserID
	s.email = creds.Email
	s.token = creds.Token
	s.lastErr = nil
	s.notifyLocked()
}

// SignOut flips the session to SignedOut immediately. The epoch bump makes
// every in-flight completion for the old user a no-op. The provider call is
// best-effort and does not block the local transition.
func (s *Session) SignOut() {
	s.mu.Lock()
	s.epoch++
	s.state = SignedOut
	s.userID = ""
	s.email = ""
	s.token = nil
	s.lastErr = nil
	s.notifyLocked()
	provider := s.provider
	s.mu.Unlock()

	if provider != nil {
		go func() { _ = provider.SignOut(context.Background()) }()
	}
}

// providerChanged handles provider-initiated notifications. An empty user id
// means credentials were revoked. A non-empty id is adopted only while the
// session is not explicitly signed out, so a stale provider notification
// cannot undo a SignOut.
func (s *Session) providerChanged(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if userID == "" {
		if s.state == SignedOut {
			return
		}
		s.epoch++
		s.state = SignedOut
		s.userID = ""
		s.email = ""
		s.token = nil
		s.notifyLocked()
		return
	}
	if s.state == SignedOut {
		return
	}
	s.state = SignedIn
	s.userID = userID
	s.lastErr = nil
	s.notifyLocked()
}

// notifyLocked queues the current snapshot for the watchers. A single
// dispatch goroutine drains the queue, so watchers observe state changes in
// the order they happened; it runs outside the lock, so watchers can take
// their own locks and call back into the session without deadlocking.
func (s *Session) notifyLocked() {
	d := delivery{snap: s.snapshotLocked()}
	d.fns = make([]func(Snapshot), 0, len(s.watchers))
	for _, fn := range s.watchers {
		d.fns = append(d.fns, fn)
	}
	s.queue = append(s.queue, d)
	if s.dispatching {
		return
	}
	s.dispatching = true
	go s.dispatch()
}

func (s *Session) dispatch() {
	s.mu.Lock()
	for len(s.queue) > 0 {
		d := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		for _, fn := range d.fns {
			fn(d.snap)
		}
		s.mu.Lock()
	}
	s.dispatching = false
	s.mu.Unlock()
}
