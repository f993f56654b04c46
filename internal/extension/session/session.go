package session

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/markdave123-py/ticketlens/internal/core"
)

// State is the sign-in state of the session.
type State int

const (
	SignedOut State = iota
	SigningIn
	SignedIn
)

func (s State) String() string {
	switch s {
	case SigningIn:
		return "signing-in"
	case SignedIn:
		return "signed-in"
	default:
		return "signed-out"
	}
}

// Credentials is what the identity provider hands back after sign-in.
type Credentials struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url"`
	IDToken     string `json:"id_token"`
}

// Provider is the external identity provider. Interactive sign-in and token
// refresh happen there; this package only tracks the resulting session.
type Provider interface {
	SignIn(ctx context.Context) (*Credentials, error)
	Refresh(ctx context.Context, current *Credentials) (*Credentials, error)
	SignOut(ctx context.Context) error
}

// Store persists credentials between runs.
type Store interface {
	Load() (*Credentials, error)
	Save(*Credentials) error
	Clear() error
}

// RegisterFunc syncs the signed-in identity to the backend. Best-effort:
// failures are logged, never surfaced, since auth itself already succeeded.
type RegisterFunc func(ctx context.Context, creds *Credentials) error

// Manager is the explicit session object passed to components that need a
// token. Constructed once at startup; no global state.
type Manager struct {
	provider Provider
	store    Store
	register RegisterFunc

	mu        sync.Mutex
	state     State
	creds     *Credentials
	listeners []func(State)
}

func NewManager(provider Provider, store Store, register RegisterFunc) *Manager {
	return &Manager{provider: provider, store: store, register: register}
}

// Initialize restores a persisted session, if any. Safe to call before any
// listener registration; listeners added later still get the current state.
func (m *Manager) Initialize(ctx context.Context) error {
	creds, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if creds == nil || creds.IDToken == "" {
		return nil
	}
	m.mu.Lock()
	m.creds = creds
	m.mu.Unlock()
	m.setState(SignedIn)
	return nil
}

// SignInWithGoogle drives the provider's interactive flow, persists the
// resulting token and syncs the identity to the backend.
func (m *Manager) SignInWithGoogle(ctx context.Context) error {
	m.setState(SigningIn)

	creds, err := m.provider.SignIn(ctx)
	if err != nil {
		m.setState(SignedOut)
		return fmt.Errorf("sign in: %w", err)
	}

	m.mu.Lock()
	m.creds = creds
	m.mu.Unlock()

	if err := m.store.Save(creds); err != nil {
		log.Printf("session: persist credentials: %v", err)
	}
	m.setState(SignedIn)

	if m.register != nil {
		if err := m.register(ctx, creds); err != nil {
			log.Printf("session: backend registration failed (ignored): %v", err)
		}
	}
	return nil
}

// SignOut revokes the local session and clears the persisted token.
func (m *Manager) SignOut(ctx context.Context) error {
	if err := m.provider.SignOut(ctx); err != nil {
		log.Printf("session: provider sign-out: %v", err)
	}
	if err := m.store.Clear(); err != nil {
		log.Printf("session: clear persisted credentials: %v", err)
	}
	m.mu.Lock()
	m.creds = nil
	m.mu.Unlock()
	m.setState(SignedOut)
	return nil
}

// IDToken returns the current token, refreshing through the provider when
// forceRefresh is set. Fails with core.ErrNoUser while signed out.
func (m *Manager) IDToken(ctx context.Context, forceRefresh bool) (string, error) {
	m.mu.Lock()
	state, creds := m.state, m.creds
	m.mu.Unlock()

	if state != SignedIn || creds == nil {
		return "", core.ErrNoUser
	}
	if !forceRefresh {
		return creds.IDToken, nil
	}

	fresh, err := m.provider.Refresh(ctx, creds)
	if err != nil {
		return "", fmt.Errorf("refresh token: %w", err)
	}
	m.mu.Lock()
	m.creds = fresh
	m.mu.Unlock()
	if err := m.store.Save(fresh); err != nil {
		log.Printf("session: persist refreshed credentials: %v", err)
	}
	return fresh.IDToken, nil
}

// State returns the current sign-in state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Current returns the signed-in credentials, or nil.
func (m *Manager) Current() *Credentials {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds
}

// OnStateChange registers a listener. It fires immediately with the current
// state and once per subsequent transition, in registration order. A failing
// listener is logged and skipped; the rest still run.
func (m *Manager) OnStateChange(fn func(State)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	state := m.state
	m.mu.Unlock()

	invoke(fn, state)
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	if m.state == s {
		m.mu.Unlock()
		return
	}
	m.state = s
	listeners := make([]func(State), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, fn := range listeners {
		invoke(fn, s)
	}
}

func invoke(fn func(State), s State) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("session: state listener panicked: %v", r)
		}
	}()
	fn(s)
}
