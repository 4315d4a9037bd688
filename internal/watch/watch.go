// Package watch notifies about edits to specific definition files. Editors
// save in bursts of filesystem events (write, chmod, rename-into-place), so
// events are debounced per file before a change is reported.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"ecsboss/pkg/logging"
)

// Change reports that a watched file settled after one or more edits.
type Change struct {
	Path      string
	Timestamp time.Time
}

// Watcher watches a fixed set of files.
type Watcher struct {
	mu sync.Mutex

	// files maps the absolute path to the path the caller gave us, so
	// changes report the caller's spelling.
	files map[string]string

	// debounceInterval is how long to wait for additional events.
	debounceInterval time.Duration

	// pending tracks the debounce timer per file.
	pending map[string]*time.Timer

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	running bool
}

// New creates a watcher for the given files. A zero debounce interval gets
// the default of 500ms.
func New(files []string, debounceInterval time.Duration) (*Watcher, error) {
	if debounceInterval == 0 {
		debounceInterval = 500 * time.Millisecond
	}

	mapping := make(map[string]string, len(files))
	for _, file := range files {
		absolute, err := filepath.Abs(file)
		if err != nil {
			return nil, err
		}
		mapping[absolute] = file
	}

	return &Watcher{
		files:            mapping,
		debounceInterval: debounceInterval,
		pending:          make(map[string]*time.Timer),
		stopCh:           make(chan struct{}),
	}, nil
}

// Start begins watching and delivers debounced changes until the context is
// cancelled or Stop is called. Directories are watched rather than the files
// themselves, so atomic-rename saves keep being seen after the original inode
// is gone.
func (w *Watcher) Start(ctx context.Context, changes chan<- Change) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.running = true
	w.stopCh = make(chan struct{})

	directories := make(map[string]bool)
	for path := range w.files {
		directories[filepath.Dir(path)] = true
	}
	w.mu.Unlock()

	for directory := range directories {
		if err := watcher.Add(directory); err != nil {
			w.Stop()
			return err
		}
		logging.Debug("Watch", "Watching directory: %s", directory)
	}

	go w.processEvents(ctx, changes)

	logging.Info("Watch", "Watching %d definition file(s) for changes", len(w.files))
	return nil
}

func (w *Watcher) processEvents(ctx context.Context, changes chan<- Change) {
	for {
		select {
		case <-ctx.Done():
			w.cleanupPending()
			return

		case <-w.stopCh:
			w.cleanupPending()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event, changes)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("Watch", err, "Filesystem watcher error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event, changes chan<- Change) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}

	absolute, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}

	w.mu.Lock()
	original, watched := w.files[absolute]
	w.mu.Unlock()
	if !watched {
		return
	}

	w.debounce(absolute, original, changes)
}

// debounce resets the file's timer on every event so the change is reported
// once, after the burst settles.
func (w *Watcher) debounce(key, path string, changes chan<- Change) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[key]; ok {
		timer.Stop()
	}

	w.pending[key] = time.AfterFunc(w.debounceInterval, func() {
		w.mu.Lock()
		delete(w.pending, key)
		w.mu.Unlock()

		select {
		case changes <- Change{Path: path, Timestamp: time.Now()}:
			logging.Debug("Watch", "Change settled: %s", path)
		default:
			logging.Warn("Watch", "Change channel full, dropping event for %s", path)
		}
	})
}

func (w *Watcher) cleanupPending() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, timer := range w.pending {
		timer.Stop()
	}
	w.pending = make(map[string]*time.Timer)
}

// Stop gracefully stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false
	close(w.stopCh)

	if w.watcher != nil {
		if err := w.watcher.Close(); err != nil {
			logging.Error("Watch", err, "Error closing filesystem watcher")
		}
		w.watcher = nil
	}
	return nil
}
