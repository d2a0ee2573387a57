package session

import (
	"errors"
	"fmt"
	"sync"
)

// Storage keys for the persisted tokens.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

// ErrKeyNotFound is returned by a [Store] when the key has no value.
var ErrKeyNotFound = errors.New("key not found")

// Mode is the capability level of a session.
type Mode int

const (
	Anonymous Mode = iota
	Guest
	Authenticated
)

func (m Mode) String() string {
	switch m {
	case Guest:
		return "guest"
	case Authenticated:
		return "authenticated"
	}
	return "anonymous"
}

// Session is an immutable snapshot of the client's credentials.
type Session struct {
	AccessToken  string
	RefreshToken string
	Guest        bool
}

// Mode reports the capability level. An access token wins over the guest flag.
func (s Session) Mode() Mode {
	switch {
	case s.AccessToken != "":
		return Authenticated
	case s.Guest:
		return Guest
	}
	return Anonymous
}

// Store persists string values by key.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

// MemoryStore is a [Store] held in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// EndFunc is called after a session terminates. reason is nil for an explicit logout.
type EndFunc func(reason error)

// Manager owns the current [Session] and keeps it in sync with a [Store].
type Manager struct {
	mu      sync.RWMutex
	store   Store
	current Session

	hooksMu sync.Mutex
	hooks   map[int]EndFunc
	nextID  int
}

// NewManager creates a [Manager] backed by store. Call [Manager.Load] to restore persisted tokens.
func NewManager(store Store) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Manager{store: store, hooks: make(map[int]EndFunc)}
}

// Load restores tokens from the store. Missing keys are not an error.
func (m *Manager) Load() error {
	access, err := m.read(KeyAccessToken)
	if err != nil {
		return err
	}
	refresh, err := m.read(KeyRefreshToken)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.current = Session{AccessToken: access, RefreshToken: refresh}
	m.mu.Unlock()
	return nil
}

func (m *Manager) read(key string) (string, error) {
	v, err := m.store.Get(key)
	if errors.Is(err, ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return v, nil
}

// Current returns a snapshot of the session.
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Mode is shorthand for Current().Mode().
func (m *Manager) Mode() Mode {
	return m.Current().Mode()
}

// AccessToken returns the current access token, or "".
func (m *Manager) AccessToken() string {
	return m.Current().AccessToken
}

// RefreshToken returns the current refresh token, or "".
func (m *Manager) RefreshToken() string {
	return m.Current().RefreshToken
}

// SetTokens stores both tokens after a login and leaves guest mode.
func (m *Manager) SetTokens(access, refresh string) error {
	if err := m.store.Set(KeyAccessToken, access); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	if refresh == "" {
		if err := m.store.Remove(KeyRefreshToken); err != nil && !errors.Is(err, ErrKeyNotFound) {
			return fmt.Errorf("failed to remove refresh token: %w", err)
		}
	} else if err := m.store.Set(KeyRefreshToken, refresh); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	m.mu.Lock()
	m.current = Session{AccessToken: access, RefreshToken: refresh}
	m.mu.Unlock()
	return nil
}

// SetAccessToken replaces the access token after a refresh, keeping the refresh token.
func (m *Manager) SetAccessToken(access string) error {
	if err := m.store.Set(KeyAccessToken, access); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}

	m.mu.Lock()
	m.current.AccessToken = access
	m.mu.Unlock()
	return nil
}

// EnterGuest switches an anonymous session into guest mode. It fails when already authenticated.
func (m *Manager) EnterGuest() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current.AccessToken != "" {
		return fmt.Errorf("cannot enter guest mode while logged in")
	}
	m.current.Guest = true
	return nil
}

// ExitGuest leaves guest mode.
func (m *Manager) ExitGuest() {
	m.mu.Lock()
	m.current.Guest = false
	m.mu.Unlock()
}

// Clear removes both tokens from memory and the store without notifying subscribers.
func (m *Manager) Clear() error {
	m.mu.Lock()
	m.current = Session{}
	m.mu.Unlock()

	var errs []error
	for _, key := range []string{KeyAccessToken, KeyRefreshToken} {
		if err := m.store.Remove(key); err != nil && !errors.Is(err, ErrKeyNotFound) {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// End clears the session and notifies every subscriber with reason.
func (m *Manager) End(reason error) error {
	err := m.Clear()

	m.hooksMu.Lock()
	hooks := make([]EndFunc, 0, len(m.hooks))
	for _, fn := range m.hooks {
		hooks = append(hooks, fn)
	}
	m.hooksMu.Unlock()

	for _, fn := range hooks {
		fn(reason)
	}
	return err
}

// OnEnd registers fn to run when the session ends and returns a function that unregisters it.
func (m *Manager) OnEnd(fn EndFunc) (unsubscribe func()) {
	m.hooksMu.Lock()
	id := m.nextID
	m.nextID++
	m.hooks[id] = fn
	m.hooksMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.hooksMu.Lock()
			delete(m.hooks, id)
			m.hooksMu.Unlock()
		})
	}
}
