// Package reload provides script-directory hot reload via file polling and
// signal handling.
package reload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const defaultPollInterval = 5 * time.Second

// WatcherConfig configures the directory watcher.
type WatcherConfig struct {
	// Dir is the script directory to watch.
	Dir string

	// PollInterval is how often to check for changes.
	// Defaults to 5 seconds if zero.
	PollInterval time.Duration
}

func (c WatcherConfig) pollIntervalOrDefault() time.Duration {
	if c.PollInterval > 0 {
		return c.PollInterval
	}
	return defaultPollInterval
}

// EventType describes the type of change event.
type EventType string

const (
	// EventModified indicates the script directory contents changed.
	EventModified EventType = "modified"
)

// Event represents a directory change notification.
type Event struct {
	Type EventType
	Dir  string
}

// Watcher polls a script directory for changes: files added, removed, or
// rewritten. Only *.star entries participate in the fingerprint.
type Watcher struct {
	cfg     WatcherConfig
	events  chan Event
	stop    chan struct{}
	stopped chan struct{}

	started   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewWatcher creates a new directory watcher.
func NewWatcher(cfg WatcherConfig) *Watcher {
	return &Watcher{
		cfg:     cfg,
		events:  make(chan Event, 1),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start begins polling the directory for changes. Safe to call multiple
// times — only the first call starts the goroutine.
func (w *Watcher) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		w.started.Store(true)
		go w.poll(ctx)
	})
}

// Events returns the channel of change events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Stop stops the watcher. Safe to call multiple times and before Start.
//
// Note: if Stop races with Start (called after startOnce.Do sets started=true
// but before the goroutine begins executing), Stop blocks on <-w.stopped until
// the goroutine starts, sees the closed stop channel, and exits. This is safe
// because the goroutine is guaranteed to be scheduled eventually.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
	})
	if w.started.Load() {
		<-w.stopped
	}
}

func (w *Watcher) poll(ctx context.Context) {
	defer close(w.stopped)

	interval := w.cfg.pollIntervalOrDefault()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := w.fingerprint()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			current := w.fingerprint()
			if current == last {
				continue
			}
			last = current
			select {
			case w.events <- Event{Type: EventModified, Dir: w.cfg.Dir}:
			default:
				// Drop event if channel is full (debounce).
			}
		}
	}
}

// fingerprint summarizes the directory's script files: one line per file with
// name, size, and modification time. A missing directory fingerprints empty,
// the same as a directory with no scripts.
func (w *Watcher) fingerprint() string {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return ""
	}

	var b strings.Builder
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".star" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "%s\x00%d\x00%d\n", entry.Name(), info.Size(), info.ModTime().UnixNano())
	}
	return b.String()
}
