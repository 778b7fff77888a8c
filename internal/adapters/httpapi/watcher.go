package httpapi

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/claude-collective/collective/internal/logging"
)

// Watcher fans out filesystem change notifications to SSE subscribers.
type Watcher struct {
	fsw    *fsnotify.Watcher
	logger *slog.Logger

	mu   sync.Mutex
	subs map[int]chan string
	next int
	done chan struct{}
}

// NewWatcher watches dirs (typically the .claude/agents directory) and
// starts the fan-out loop.
func NewWatcher(logger *slog.Logger, dirs ...string) (*Watcher, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	w := &Watcher{
		fsw:    fsw,
		logger: logger,
		subs:   make(map[int]chan string),
		done:   make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.broadcast(event.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("filesystem watcher error", "err", err)
		}
	}
}

func (w *Watcher) broadcast(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ch := range w.subs {
		select {
		case ch <- path:
		default: // slow subscriber drops events rather than blocking the loop
		}
	}
}

// Subscribe returns a channel of changed paths and a cancel func.
func (w *Watcher) Subscribe() (<-chan string, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.next
	w.next++
	ch := make(chan string, 16)
	w.subs[id] = ch

	cancel := func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.subs, id)
	}
	return ch, cancel
}

// Close stops the watcher and the fan-out loop.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
