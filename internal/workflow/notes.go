package workflow

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/agentlaboratory/agentlab/internal/agent"
	"github.com/agentlaboratory/agentlab/internal/fileutil"
)

// NotesWatcher reloads the task notes file whenever it changes, so a human
// can steer a running workflow by editing notes between phases.
type NotesWatcher struct {
	path    string
	watcher *fsnotify.Watcher

	mu       sync.RWMutex
	notes    []agent.Note
	onChange func([]agent.Note)
}

// NewNotesWatcher loads the notes file and begins watching its directory.
func NewNotesWatcher(path string) (*NotesWatcher, error) {
	w := &NotesWatcher{path: path}
	if err := w.reload(); err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory rather than the file: editors that write via
	// rename would otherwise drop the watch.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	w.watcher = fw
	return w, nil
}

// OnChange registers a callback invoked with the new notes after each
// reload.
func (w *NotesWatcher) OnChange(fn func([]agent.Note)) {
	w.mu.Lock()
	w.onChange = fn
	w.mu.Unlock()
}

// Notes returns the current notes.
func (w *NotesWatcher) Notes() []agent.Note {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]agent.Note(nil), w.notes...)
}

// Start processes file events until the context is cancelled.
func (w *NotesWatcher) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := w.reload(); err != nil {
				continue
			}
			w.mu.RLock()
			fn := w.onChange
			w.mu.RUnlock()
			if fn != nil {
				fn(w.Notes())
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// Close stops the watcher.
func (w *NotesWatcher) Close() error {
	if w.watcher == nil {
		return nil
	}
	return w.watcher.Close()
}

func (w *NotesWatcher) reload() error {
	var notes []agent.Note
	if err := fileutil.LoadYAML(w.path, &notes); err != nil {
		return fmt.Errorf("load notes: %w", err)
	}
	w.mu.Lock()
	w.notes = notes
	w.mu.Unlock()
	return nil
}
