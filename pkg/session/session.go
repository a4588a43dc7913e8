package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"igfetch/pkg/config"
)

// Session holds the browser cookies igfetch replays against Instagram
type Session struct {
	Username     string    `json:"username"`
	SessionID    string    `json:"session_id"`
	CSRFToken    string    `json:"csrf_token,omitempty"`
	DSUserID     string    `json:"ds_user_id,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Store is a place sessions can be kept
type Store interface {
	// Store saves the session for its username
	Store(s *Session) error

	// Retrieve gets the session for username
	Retrieve(username string) (*Session, error)

	// List returns every stored session
	List() ([]*Session, error)

	// Delete removes the session for username
	Delete(username string) error

	// Exists checks if a session exists for username
	Exists(username string) bool
}

// Manager tries its stores in order
type Manager struct {
	stores []Store
}

// NewManager builds the default chain: OS keyring when available, then an
// encrypted file in configDir, then IGFETCH_* environment variables
func NewManager(configDir string) (*Manager, error) {
	var stores []Store

	if ks, err := NewKeyringStore(); err == nil {
		stores = append(stores, ks)
	}

	if configDir == "" {
		dir, err := DefaultConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get config directory: %w", err)
		}
		configDir = dir
	}
	fs, err := NewEncryptedFileStore(filepath.Join(configDir, "sessions.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, fs)
	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a Manager over explicit stores
func NewManagerWithStores(stores ...Store) *Manager {
	return &Manager{stores: stores}
}

// Store saves the session in the first store that accepts it
func (m *Manager) Store(s *Session) error {
	if s == nil || s.Username == "" {
		return errors.New("username is required")
	}
	if s.SessionID == "" {
		return errors.New("session ID is required")
	}

	s.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(s)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store session: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets the session for username from the first store that has it
func (m *Manager) Retrieve(username string) (*Session, error) {
	for _, store := range m.stores {
		if s, err := store.Retrieve(username); err == nil && s != nil {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w for user: %s", ErrSessionNotFound, username)
}

// RetrieveDefault returns the environment session if set, otherwise the most recently saved one
func (m *Manager) RetrieveDefault() (*Session, error) {
	for _, store := range m.stores {
		if env, ok := store.(*EnvironmentStore); ok {
			if s, err := env.Retrieve(""); err == nil {
				return s, nil
			}
		}
	}

	sessions, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, ErrSessionNotFound
	}
	return sessions[0], nil
}

// List returns the sessions of all stores, newest first, one per username
func (m *Manager) List() ([]*Session, error) {
	byUser := make(map[string]*Session)

	for _, store := range m.stores {
		sessions, err := store.List()
		if err != nil {
			continue
		}
		for _, s := range sessions {
			if existing, ok := byUser[s.Username]; !ok || s.LastModified.After(existing.LastModified) {
				byUser[s.Username] = s
			}
		}
	}

	result := make([]*Session, 0, len(byUser))
	for _, s := range byUser {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastModified.After(result[j].LastModified)
	})
	return result, nil
}

// Delete removes the session from every store holding it
func (m *Manager) Delete(username string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(username); err == nil {
			deleted = true
		} else if !errors.Is(err, ErrSessionNotFound) && !errors.Is(err, ErrStoreUnavailable) {
			lastErr = err
		}
	}

	if deleted {
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("failed to delete session: %w", lastErr)
	}
	return fmt.Errorf("%w for user: %s", ErrSessionNotFound, username)
}

// Apply copies the session cookies into cfg. Values already set in cfg win.
func Apply(s *Session, cfg *config.InstagramConfig) {
	if s == nil || cfg == nil {
		return
	}
	if cfg.SessionID == "" {
		cfg.SessionID = s.SessionID
	}
	if cfg.CSRFToken == "" {
		cfg.CSRFToken = s.CSRFToken
	}
	if cfg.DSUserID == "" {
		cfg.DSUserID = s.DSUserID
	}
	if s.UserAgent != "" && cfg.UserAgent == config.DefaultConfig().Instagram.UserAgent {
		cfg.UserAgent = s.UserAgent
	}
}

// DefaultConfigDir returns the per-user configuration directory, creating it
func DefaultConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "igfetch")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "igfetch")
	default: // Linux and others
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "igfetch")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "igfetch")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDir, nil
}

// Masked returns a copy with the secret values shortened for display
func Masked(s *Session) *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.SessionID = maskString(s.SessionID)
	c.CSRFToken = maskString(s.CSRFToken)
	return &c
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidSession   = errors.New("invalid session")
	ErrStoreUnavailable = errors.New("session store unavailable")
)
