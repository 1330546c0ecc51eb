package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestNewWatcher_DefaultDebounce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")

	watcher, err := NewWatcher(path, 0, nil)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer watcher.Stop()

	if watcher.debounce != defaultDebounce {
		t.Errorf("expected default debounce %v, got %v", defaultDebounce, watcher.debounce)
	}
}

func TestWatcher_FileModification(t *testing.T) {
	tmpDir := t.TempDir()
	recordsFile := filepath.Join(tmpDir, "records.json")
	if err := os.WriteFile(recordsFile, []byte(`[]`), 0644); err != nil {
		t.Fatalf("failed to write records file: %v", err)
	}

	watcher, err := NewWatcher(recordsFile, 50*time.Millisecond, testLogger())
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}
	defer watcher.Stop()

	// Give watcher time to set up
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(recordsFile, []byte(`[{"id":"t-1","title":"Draft"}]`), 0644); err != nil {
		t.Fatalf("failed to modify records file: %v", err)
	}

	select {
	case event := <-watcher.Events():
		if event.Removed {
			t.Error("expected change event, got removal")
		}
		if event.Path != recordsFile {
			t.Errorf("expected path %s, got %s", recordsFile, event.Path)
		}
	case <-time.After(1 * time.Second):
		t.Error("timeout waiting for change event")
	}
}

func TestWatcher_FileDeletion(t *testing.T) {
	tmpDir := t.TempDir()
	recordsFile := filepath.Join(tmpDir, "records.json")
	if err := os.WriteFile(recordsFile, []byte(`[]`), 0644); err != nil {
		t.Fatalf("failed to write records file: %v", err)
	}

	watcher, err := NewWatcher(recordsFile, 50*time.Millisecond, testLogger())
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}
	defer watcher.Stop()

	// Give watcher time to set up
	time.Sleep(100 * time.Millisecond)

	if err := os.Remove(recordsFile); err != nil {
		t.Fatalf("failed to remove records file: %v", err)
	}

	select {
	case event := <-watcher.Events():
		if !event.Removed {
			t.Error("expected removal event")
		}
	case <-time.After(1 * time.Second):
		t.Error("timeout waiting for removal event")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	tmpDir := t.TempDir()
	recordsFile := filepath.Join(tmpDir, "records.json")
	if err := os.WriteFile(recordsFile, []byte(`[]`), 0644); err != nil {
		t.Fatalf("failed to write records file: %v", err)
	}

	watcher, err := NewWatcher(recordsFile, 50*time.Millisecond, testLogger())
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}
	defer watcher.Stop()

	// Give watcher time to set up
	time.Sleep(100 * time.Millisecond)

	other := filepath.Join(tmpDir, "notes.txt")
	if err := os.WriteFile(other, []byte("unrelated"), 0644); err != nil {
		t.Fatalf("failed to write unrelated file: %v", err)
	}

	select {
	case event := <-watcher.Events():
		t.Errorf("unexpected event for unrelated file: %+v", event)
	case <-time.After(300 * time.Millisecond):
		// Expected - no event for other files in the directory
	}
}

func TestWatcher_SkipsUnchangedContent(t *testing.T) {
	tmpDir := t.TempDir()
	recordsFile := filepath.Join(tmpDir, "records.json")
	content := []byte(`[{"id":"t-1","title":"Same"}]`)
	if err := os.WriteFile(recordsFile, content, 0644); err != nil {
		t.Fatalf("failed to write records file: %v", err)
	}

	watcher, err := NewWatcher(recordsFile, 50*time.Millisecond, testLogger())
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}
	defer watcher.Stop()

	// Give watcher time to set up
	time.Sleep(100 * time.Millisecond)

	// Rewrite identical content
	if err := os.WriteFile(recordsFile, content, 0644); err != nil {
		t.Fatalf("failed to rewrite records file: %v", err)
	}

	select {
	case event := <-watcher.Events():
		t.Errorf("unexpected event when content unchanged: %+v", event)
	case <-time.After(300 * time.Millisecond):
		// Expected - hash matched, no event
	}
}

func TestWatcher_DroppedEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")

	watcher, err := NewWatcher(path, 0, nil)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer watcher.Stop()

	if watcher.DroppedEvents() != 0 {
		t.Errorf("expected 0 dropped events, got %d", watcher.DroppedEvents())
	}
}
