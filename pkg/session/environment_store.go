package session

import (
	"os"
	"time"

	"igfetch/pkg/config"
)

// EnvironmentStore reads a session from IGFETCH_SESSION_ID and friends.
// It is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(s *Session) error {
	return ErrStoreUnavailable
}

// Retrieve builds a session from the environment; username defaults to "default"
func (e *EnvironmentStore) Retrieve(username string) (*Session, error) {
	sessionID := os.Getenv(config.EnvPrefix + "SESSION_ID")
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}
	if username == "" {
		username = "default"
	}

	return &Session{
		Username:     username,
		SessionID:    sessionID,
		CSRFToken:    os.Getenv(config.EnvPrefix + "CSRF_TOKEN"),
		DSUserID:     os.Getenv(config.EnvPrefix + "DS_USER_ID"),
		UserAgent:    os.Getenv(config.EnvPrefix + "USER_AGENT"),
		LastModified: time.Now(),
	}, nil
}

// List returns a single session if the environment has one
func (e *EnvironmentStore) List() ([]*Session, error) {
	s, err := e.Retrieve("")
	if err != nil {
		return []*Session{}, nil
	}
	return []*Session{s}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}

// Exists checks if an environment session is set
func (e *EnvironmentStore) Exists(username string) bool {
	return os.Getenv(config.EnvPrefix+"SESSION_ID") != ""
}
