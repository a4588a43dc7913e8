package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Manager writes finished media files into one output folder
type Manager struct {
	outputDir string
	saved     map[string]bool
	mu        sync.RWMutex
}

// NewManager creates the output folder if needed
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{
		outputDir: outputDir,
		saved:     make(map[string]bool),
	}, nil
}

// Path returns where a file named name lives in the output folder
func (m *Manager) Path(name string) string {
	return filepath.Join(m.outputDir, name)
}

// Exists reports whether name is already present, from this run or an earlier one
func (m *Manager) Exists(name string) bool {
	m.mu.RLock()
	known := m.saved[name]
	m.mu.RUnlock()
	if known {
		return true
	}

	info, err := os.Stat(m.Path(name))
	return err == nil && !info.IsDir() && info.Size() > 0
}

// Save atomically writes r to name and returns the final path
func (m *Manager) Save(r io.Reader, name string) (string, int64, error) {
	path := m.Path(name)
	n, err := WriteFileAtomic(path, r)
	if err != nil {
		return "", 0, err
	}

	m.mu.Lock()
	m.saved[name] = true
	m.mu.Unlock()
	return path, n, nil
}

// SaveBytes is Save for an in-memory buffer
func (m *Manager) SaveBytes(data []byte, name string) (string, error) {
	path, _, err := m.Save(bytes.NewReader(data), name)
	return path, err
}

// MarkSaved records a file written by someone else, such as the remuxer
func (m *Manager) MarkSaved(name string) {
	m.mu.Lock()
	m.saved[name] = true
	m.mu.Unlock()
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// SavedCount returns the number of files written through this manager
func (m *Manager) SavedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.saved)
}

// WriteFileAtomic copies r into a temporary sibling of path and renames it into place
func WriteFileAtomic(path string, r io.Reader) (int64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	n, err := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if closeErr != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return n, nil
}

var unsafeChars = strings.NewReplacer(
	"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
	"\"", "_", "<", "_", ">", "_", "|", "_", "\x00", "",
)

// SanitizeFileName strips path separators and characters most filesystems reject
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(unsafeChars.Replace(name))
	name = strings.Trim(name, ".")
	if name == "" {
		return "untitled"
	}
	return name
}

// FormatName expands {username}, {shortcode}, {id} and {date} in pattern.
// Empty values collapse, so "{username}_{shortcode}" without a username becomes the shortcode.
func FormatName(pattern, username, shortcode, id string, taken time.Time) string {
	date := ""
	if !taken.IsZero() {
		date = taken.UTC().Format("20060102")
	}

	name := strings.NewReplacer(
		"{username}", username,
		"{shortcode}", shortcode,
		"{id}", id,
		"{date}", date,
	).Replace(pattern)

	for strings.Contains(name, "__") {
		name = strings.ReplaceAll(name, "__", "_")
	}
	name = strings.Trim(name, "_-. ")
	return SanitizeFileName(name)
}
