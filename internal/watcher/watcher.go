// Package watcher observes the content and template roots for
// filesystem changes, debouncing bursts into single change batches.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeWatcher watches directory trees and delivers debounced change
// batches to registered handlers. It runs on its own goroutines and
// never blocks request handling; transient filesystem errors are logged
// and watching continues.
type ChangeWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	filters   []FileFilter
	handlers  []ChangeHandler
	logger    *slog.Logger
	mutex     sync.RWMutex
}

// ChangeEvent is one observed filesystem change.
type ChangeEvent struct {
	Type    EventType
	Path    string
	ModTime time.Time
}

// EventType classifies a filesystem change.
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

// String returns the string representation of the EventType.
func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// FileFilter reports whether a path should produce events.
type FileFilter func(path string) bool

// ChangeHandler consumes a debounced batch of change events.
type ChangeHandler func(events []ChangeEvent) error

type debouncer struct {
	delay   time.Duration
	events  chan ChangeEvent
	output  chan []ChangeEvent
	timer   *time.Timer
	pending []ChangeEvent
	mutex   sync.Mutex
}

// New creates a ChangeWatcher with the given debounce window.
func New(debounceDelay time.Duration, logger *slog.Logger) (*ChangeWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ChangeWatcher{
		watcher: fsw,
		debouncer: &debouncer{
			delay:  debounceDelay,
			events: make(chan ChangeEvent, 100),
			output: make(chan []ChangeEvent, 10),
		},
		logger: logger,
	}, nil
}

// AddFilter adds a file filter.
func (w *ChangeWatcher) AddFilter(filter FileFilter) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.filters = append(w.filters, filter)
}

// AddHandler adds a change handler.
func (w *ChangeWatcher) AddHandler(handler ChangeHandler) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.handlers = append(w.handlers, handler)
}

// AddRecursive watches root and every directory beneath it. New
// subdirectories created later are picked up by the event loop.
func (w *ChangeWatcher) AddRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

// Start launches the watch, debounce, and dispatch goroutines. They
// run until ctx is cancelled.
func (w *ChangeWatcher) Start(ctx context.Context) {
	go w.debouncer.run(ctx)
	go w.dispatch(ctx)
	go w.watchLoop(ctx)
}

// Stop releases the underlying watch handle.
func (w *ChangeWatcher) Stop() error {
	w.debouncer.mutex.Lock()
	if w.debouncer.timer != nil {
		w.debouncer.timer.Stop()
	}
	w.debouncer.mutex.Unlock()
	return w.watcher.Close()
}

func (w *ChangeWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (w *ChangeWatcher) handleEvent(event fsnotify.Event) {
	w.mutex.RLock()
	filters := w.filters
	w.mutex.RUnlock()

	for _, filter := range filters {
		if !filter(event.Name) {
			return
		}
	}

	var eventType EventType
	switch {
	case event.Op.Has(fsnotify.Create):
		eventType = EventTypeCreated
	case event.Op.Has(fsnotify.Write):
		eventType = EventTypeModified
	case event.Op.Has(fsnotify.Remove):
		eventType = EventTypeDeleted
	case event.Op.Has(fsnotify.Rename):
		eventType = EventTypeRenamed
	default:
		eventType = EventTypeModified
	}

	var modTime time.Time
	if info, err := os.Stat(event.Name); err == nil {
		modTime = info.ModTime()
		// Newly created directories join the watch so deeper changes
		// keep arriving.
		if eventType == EventTypeCreated && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				w.logger.Warn("watching new directory", "path", event.Name, "error", err)
			}
		}
	}

	select {
	case w.debouncer.events <- ChangeEvent{Type: eventType, Path: event.Name, ModTime: modTime}:
	default:
		// Channel full; the batch already in flight covers the change.
	}
}

func (w *ChangeWatcher) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case events := <-w.debouncer.output:
			w.mutex.RLock()
			handlers := w.handlers
			w.mutex.RUnlock()

			for _, handler := range handlers {
				if err := handler(events); err != nil {
					w.logger.Warn("change handler error", "error", err)
				}
			}
		}
	}
}

func (d *debouncer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-d.events:
			d.add(event)
		}
	}
}

func (d *debouncer) add(event ChangeEvent) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.pending = append(d.pending, event)
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.flush)
}

func (d *debouncer) flush() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if len(d.pending) == 0 {
		return
	}

	// Deduplicate by path, keeping the latest event for each.
	byPath := make(map[string]ChangeEvent, len(d.pending))
	for _, event := range d.pending {
		byPath[event.Path] = event
	}

	events := make([]ChangeEvent, 0, len(byPath))
	for _, event := range byPath {
		events = append(events, event)
	}

	select {
	case d.output <- events:
	default:
	}

	d.pending = d.pending[:0]
}

// NoHidden filters out dotfiles and dot-directories.
func NoHidden(path string) bool {
	base := filepath.Base(path)
	return !strings.HasPrefix(base, ".")
}

// NoEditorArtifacts filters out editor swap and backup files.
func NoEditorArtifacts(path string) bool {
	base := filepath.Base(path)
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".swx") {
		return false
	}
	return !strings.HasPrefix(base, "#")
}
