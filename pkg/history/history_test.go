package history

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestHistoryManager(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "history.json")

	t.Run("EmptyWhenMissing", func(t *testing.T) {
		mgr, err := NewManager(path, nil)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if mgr.Len() != 0 {
			t.Errorf("Expected empty history, got %d entries", mgr.Len())
		}
		if mgr.Exists() {
			t.Error("Expected no history file before the first record")
		}
	})

	t.Run("RecordAndReload", func(t *testing.T) {
		mgr, err := NewManager(path, nil)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		err = mgr.Record(Entry{Shortcode: "ABC123", Owner: "alice", Files: []string{"alice_ABC123.jpg"}})
		if err != nil {
			t.Fatalf("Failed to record: %v", err)
		}
		if !mgr.Has("ABC123") {
			t.Error("Expected ABC123 to be recorded")
		}
		if mgr.Has("XYZ789") {
			t.Error("Expected XYZ789 to not be recorded")
		}

		reloaded, err := NewManager(path, nil)
		if err != nil {
			t.Fatalf("Failed to reload: %v", err)
		}
		e, ok := reloaded.Get("ABC123")
		if !ok {
			t.Fatal("Expected ABC123 after reload")
		}
		if e.Owner != "alice" || len(e.Files) != 1 {
			t.Errorf("Unexpected entry after reload: %+v", e)
		}
		if e.CompletedAt.IsZero() {
			t.Error("Expected CompletedAt to be set")
		}
	})

	t.Run("Remove", func(t *testing.T) {
		mgr, err := NewManager(path, nil)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if err := mgr.Remove("ABC123"); err != nil {
			t.Fatalf("Failed to remove: %v", err)
		}
		if err := mgr.Remove("never-there"); err != nil {
			t.Fatalf("Removing an unknown shortcode should be a no-op: %v", err)
		}

		reloaded, err := NewManager(path, nil)
		if err != nil {
			t.Fatalf("Failed to reload: %v", err)
		}
		if reloaded.Has("ABC123") {
			t.Error("Expected ABC123 to be gone after reload")
		}
	})

	t.Run("ConcurrentRecords", func(t *testing.T) {
		mgr, err := NewManager(path, nil)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				if err := mgr.Record(Entry{Shortcode: string(rune('a' + n))}); err != nil {
					t.Errorf("Record failed: %v", err)
				}
			}(i)
		}
		wg.Wait()

		reloaded, err := NewManager(path, nil)
		if err != nil {
			t.Fatalf("History corrupted after concurrent records: %v", err)
		}
		if reloaded.Len() != 10 {
			t.Errorf("Expected 10 entries, got %d", reloaded.Len())
		}
		if got := reloaded.Shortcodes(); got[0] != "a" || got[9] != "j" {
			t.Errorf("Expected sorted shortcodes, got %v", got)
		}

		leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
		if len(leftovers) != 0 {
			t.Errorf("Temporary files left behind: %v", leftovers)
		}
	})

	t.Run("Backup", func(t *testing.T) {
		mgr, err := NewManager(path, nil)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if err := mgr.Backup(); err != nil {
			t.Fatalf("Failed to backup history: %v", err)
		}
		if _, err := os.Stat(path + ".backup"); os.IsNotExist(err) {
			t.Error("Backup file not created")
		}
	})
}

func TestCorruptHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewManager(path, nil); err == nil {
		t.Error("Expected an error for a corrupt history file")
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	path, err := DefaultPath()
	if err != nil {
		t.Fatalf("Failed to get default path: %v", err)
	}
	if filepath.Base(path) != "history.json" {
		t.Errorf("Unexpected history file name: %s", path)
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("Data directory not created: %v", err)
	}
}
