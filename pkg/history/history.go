package history

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"igfetch/pkg/logger"
)

const currentVersion = 1

// Entry records one completed post
type Entry struct {
	Shortcode   string    `json:"shortcode"`
	Owner       string    `json:"owner,omitempty"`
	Files       []string  `json:"files"`
	CompletedAt time.Time `json:"completed_at"`
}

// History is the on-disk document
type History struct {
	Version   int              `json:"version"`
	Entries   map[string]Entry `json:"entries"` // shortcode -> entry
	UpdatedAt time.Time        `json:"updated_at"`
}

// Manager keeps the download history in memory and on disk
type Manager struct {
	path    string
	mu      sync.Mutex
	history *History
	logger  logger.Logger
}

// DefaultPath returns the history file in the platform data directory
func DefaultPath() (string, error) {
	dataDir, err := getDataDirectory()
	if err != nil {
		return "", fmt.Errorf("failed to get data directory: %w", err)
	}
	return filepath.Join(dataDir, "history.json"), nil
}

// NewManager opens the history at path, starting empty when the file does not exist
func NewManager(path string, log logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	m := &Manager{path: path, logger: log}
	h, err := m.load()
	if err != nil {
		return nil, err
	}
	m.history = h
	return m, nil
}

func (m *Manager) load() (*History, error) {
	file, err := os.Open(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &History{Version: currentVersion, Entries: map[string]Entry{}}, nil
		}
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer file.Close()

	var h History
	if err := json.NewDecoder(file).Decode(&h); err != nil {
		return nil, fmt.Errorf("failed to decode history %s: %w", m.path, err)
	}
	if h.Entries == nil {
		h.Entries = map[string]Entry{}
	}

	m.logger.DebugWithFields("History loaded", map[string]interface{}{
		"path":    m.path,
		"entries": len(h.Entries),
	})
	return &h, nil
}

// Has reports whether shortcode was completed before
func (m *Manager) Has(shortcode string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.history.Entries[shortcode]
	return ok
}

// Get returns the entry for shortcode
func (m *Manager) Get(shortcode string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.history.Entries[shortcode]
	return e, ok
}

// Record stores a completed post and saves the file
func (m *Manager) Record(e Entry) error {
	if e.CompletedAt.IsZero() {
		e.CompletedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.history.Entries[e.Shortcode] = e
	return m.saveLocked()
}

// Remove forgets shortcode so the next run downloads it again
func (m *Manager) Remove(shortcode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.history.Entries[shortcode]; !ok {
		return nil
	}
	delete(m.history.Entries, shortcode)
	return m.saveLocked()
}

// Len returns the number of recorded posts
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history.Entries)
}

// Shortcodes returns every recorded shortcode in sorted order
func (m *Manager) Shortcodes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.history.Entries))
	for sc := range m.history.Entries {
		out = append(out, sc)
	}
	sort.Strings(out)
	return out
}

// Path returns the history file location
func (m *Manager) Path() string {
	return m.path
}

// Exists checks if the history file exists on disk
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

// saveLocked writes the history atomically; m.mu must be held
func (m *Manager) saveLocked() error {
	m.history.Version = currentVersion
	m.history.UpdatedAt = time.Now().UTC()

	file, err := os.CreateTemp(filepath.Dir(m.path), filepath.Base(m.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary history file: %w", err)
	}
	tempPath := file.Name()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(m.history); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode history: %w", err)
	}

	// Ensure data is written to disk
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync history file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close history file: %w", err)
	}

	if err := os.Rename(tempPath, m.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace history file: %w", err)
	}

	m.logger.DebugWithFields("History saved", map[string]interface{}{
		"path":    m.path,
		"entries": len(m.history.Entries),
	})
	return nil
}

// Backup copies the history file to <path>.backup
func (m *Manager) Backup() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	src, err := os.Open(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Nothing to backup
		}
		return fmt.Errorf("failed to open history for backup: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(m.path + ".backup")
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy history to backup: %w", err)
	}
	return nil
}

// getDataDirectory returns the appropriate data directory for the current OS
func getDataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "igfetch")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "igfetch")
	default:
		// XDG_DATA_HOME if set, otherwise ~/.local/share
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "igfetch")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "igfetch")
		}
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dataDir, nil
}
