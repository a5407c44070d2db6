package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/anatolykoptev/go_ytsum/internal/cookies"
	"github.com/anatolykoptev/go_ytsum/internal/engine"
)

// State is the lifecycle state of the managed jar.
type State int

const (
	StateAbsent State = iota
	StateLoaded
	StateValidated
	StateStale
	StateRefreshing
	StateCorrupt
	StateRestored
)

var stateNames = [...]string{"absent", "loaded", "validated", "stale", "refreshing", "corrupt", "restored"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Manager owns the on-disk jar and refreshes it through an Acquirer.
// A jar is only handed out after validation: non-empty and not entirely expired.
type Manager struct {
	store    *cookies.Store
	acquirer Acquirer
	creds    Credentials
	now      func() time.Time

	mu    sync.Mutex
	state State
	jar   *cookies.Jar
	trail []State
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager returns a manager for store that refreshes via acquirer.
func NewManager(store *cookies.Store, acquirer Acquirer, creds Credentials, opts ...Option) *Manager {
	m := &Manager{store: store, acquirer: acquirer, creds: creds, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Trail returns every state entered so far, oldest first.
func (m *Manager) Trail() []State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]State(nil), m.trail...)
}

func (m *Manager) enter(s State) {
	m.state = s
	m.trail = append(m.trail, s)
}

// Ensure returns a validated jar, loading it from disk and refreshing it
// when it is absent, corrupt beyond repair, empty or stale. refreshed
// reports whether the acquirer ran during this call.
func (m *Manager) Ensure(ctx context.Context) (jar *cookies.Jar, refreshed bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if m.state == StateValidated && m.jar != nil && !m.jar.Stale(now) {
		return m.jar.Clone(), false, nil
	}

	loaded, restored, err := m.store.LoadOrRestore()
	switch {
	case errors.Is(err, cookies.ErrNotFound):
		m.enter(StateAbsent)
	case err != nil:
		slog.Warn("cookies: unreadable, refreshing", slog.String("path", m.store.Path), slog.Any("error", err))
		m.enter(StateCorrupt)
	default:
		if restored {
			m.enter(StateCorrupt)
			m.enter(StateRestored)
		}
		m.enter(StateLoaded)
		if m.validate(loaded, now) {
			return m.jar.Clone(), false, nil
		}
	}

	jar, err = m.refresh(ctx)
	if err != nil {
		return nil, false, err
	}
	return jar, true, nil
}

// validate moves a loaded jar to Validated or Stale.
func (m *Manager) validate(jar *cookies.Jar, now time.Time) bool {
	if jar.Stale(now) {
		m.enter(StateStale)
		return false
	}
	m.jar = jar
	m.enter(StateValidated)
	return true
}

// Refresh acquires a new jar unconditionally. A failure to persist it is
// logged and the fresh jar is still returned.
func (m *Manager) Refresh(ctx context.Context) (*cookies.Jar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refresh(ctx)
}

// RefreshAndSave is Refresh for callers that need the jar on disk: a
// failed save is returned as an error alongside the fresh jar.
func (m *Manager) RefreshAndSave(ctx context.Context) (*cookies.Jar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	jar, saveErr, err := m.acquire(ctx)
	if err != nil {
		return nil, err
	}
	if saveErr != nil {
		return jar, fmt.Errorf("save cookies to %s: %w", m.store.Path, saveErr)
	}
	return jar, nil
}

func (m *Manager) refresh(ctx context.Context) (*cookies.Jar, error) {
	jar, saveErr, err := m.acquire(ctx)
	if saveErr != nil {
		// The atomic write left the previous file intact; keep serving the
		// fresh jar from memory for this run.
		slog.Warn("cookies: save failed", slog.String("path", m.store.Path), slog.Any("error", saveErr))
	}
	return jar, err
}

// acquire runs the acquirer and saves its jar. saveErr is set when only the
// save failed.
func (m *Manager) acquire(ctx context.Context) (jar *cookies.Jar, saveErr, err error) {
	prev := m.state
	m.enter(StateRefreshing)
	engine.IncrCookieRefresh()
	slog.Info("session: refreshing cookies", slog.String("method", m.acquirer.Name()))

	jar, err = m.acquirer.Acquire(ctx, m.creds)
	if err != nil {
		m.enter(prev)
		return nil, nil, &AuthenticationError{Method: m.acquirer.Name(), Err: err}
	}
	now := m.now()
	jar = cookies.RewriteExpiries(jar, now)
	if jar.Stale(now) {
		m.enter(prev)
		return nil, nil, &AuthenticationError{Method: m.acquirer.Name(), Err: errors.New("acquired jar is empty")}
	}

	saveErr = m.store.Save(jar)
	m.enter(StateLoaded)
	m.validate(jar, now)
	return jar.Clone(), saveErr, nil
}

// Restore reverts the on-disk jar to its backup generation and reloads it.
func (m *Manager) Restore() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Restore(); err != nil {
		return err
	}
	m.enter(StateRestored)
	jar, err := m.store.Load()
	if err != nil {
		m.enter(StateCorrupt)
		m.jar = nil
		return err
	}
	m.enter(StateLoaded)
	if !m.validate(jar, m.now()) {
		m.jar = nil
	}
	return nil
}
