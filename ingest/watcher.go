// Package ingest watches a raw-records file and signals when its
// contents change, so the CLI can re-run validation and rebuild the
// board snapshot.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	// eventChannelBuffer is the size of the watch event channel.
	eventChannelBuffer = 16

	// defaultDebounce is used when the configured delay is zero.
	defaultDebounce = 500 * time.Millisecond
)

// Event signals that the watched records file changed and should be
// re-ingested.
type Event struct {
	// Path is the absolute path of the records file.
	Path string

	// Removed is true when the file was deleted or renamed away.
	Removed bool
}

// Watcher watches a single records file for changes and emits debounced
// events. Editors often write via rename, so the parent directory is
// watched rather than the file itself.
type Watcher struct {
	path     string
	dir      string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	// Debouncing: mark dirty, flush on ticker
	pendingMu sync.Mutex
	pending   bool

	// Hash of the last ingested content, to skip no-op writes
	lastHash string

	events chan Event

	droppedEvents atomic.Int64
}

// NewWatcher creates a watcher for the given records file. A zero
// debounce falls back to 500ms.
func NewWatcher(path string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve records path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	return &Watcher{
		path:     abs,
		dir:      filepath.Dir(abs),
		debounce: debounce,
		watcher:  fsw,
		logger:   logger,
		events:   make(chan Event, eventChannelBuffer),
	}, nil
}

// Events returns the channel of watch events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins watching the records file for changes.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	// Seed the hash so an unchanged file doesn't trigger on startup.
	if content, err := os.ReadFile(w.path); err == nil {
		w.lastHash = contentHash(content)
	}

	go w.processEvents(ctx)

	w.logger.Info("Records watcher started",
		"path", w.path,
		"debounce", w.debounce)

	return nil
}

// Stop stops the watcher.
// The events channel is closed by processEvents when it exits.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// processEvents handles fsnotify events with debouncing.
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending()
		}
	}
}

// handleFSEvent marks the file dirty when the event targets it.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}

	w.pendingMu.Lock()
	w.pending = true
	w.pendingMu.Unlock()

	w.logger.Debug("Records change detected",
		"path", w.path,
		"op", event.Op.String())
}

// flushPending emits at most one event per debounce window.
func (w *Watcher) flushPending() {
	w.pendingMu.Lock()
	dirty := w.pending
	w.pending = false
	w.pendingMu.Unlock()

	if !dirty {
		return
	}

	content, err := os.ReadFile(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			w.lastHash = ""
			w.sendEvent(Event{Path: w.path, Removed: true})
			return
		}
		w.logger.Warn("Failed to read records file",
			"path", w.path,
			"error", err)
		return
	}

	newHash := contentHash(content)
	if newHash == w.lastHash {
		// Content unchanged, skip
		return
	}
	w.lastHash = newHash

	w.sendEvent(Event{Path: w.path})
}

// sendEvent sends an event to the output channel.
func (w *Watcher) sendEvent(event Event) {
	select {
	case w.events <- event:
		w.logger.Debug("Sent watch event",
			"path", event.Path,
			"removed", event.Removed)
	default:
		dropped := w.droppedEvents.Add(1)
		w.logger.Warn("Event channel full, dropping event",
			"path", event.Path,
			"total_dropped", dropped)
	}
}

// DroppedEvents returns the number of events dropped due to channel overflow.
func (w *Watcher) DroppedEvents() int64 {
	return w.droppedEvents.Load()
}

// contentHash returns the hex SHA-256 of the file content.
func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
