package content

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes a content directory and invokes a callback after changes
// settle. Events are debounced because editors emit bursts of writes and a
// full reload per keystroke would thrash the store.
type Watcher struct {
	dir      string
	debounce time.Duration
	watcher  *fsnotify.Watcher

	mu      sync.Mutex
	pending bool
}

// NewWatcher creates a watcher for dir. A zero debounce defaults to 500ms.
func NewWatcher(dir string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{dir: dir, debounce: debounce, watcher: fsw}, nil
}

// Start watches dir recursively and calls onChange after each settled burst
// of markdown changes. It blocks until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context, onChange func()) error {
	if err := w.addRecursive(w.dir); err != nil {
		return err
	}
	defer w.watcher.Close()

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("content: watcher error: %v", err)
		case <-ticker.C:
			w.mu.Lock()
			fire := w.pending
			w.pending = false
			w.mu.Unlock()
			if fire {
				onChange()
			}
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	// New subdirectories need their own watch before their files are seen.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !hidden(event.Name) {
				_ = w.watcher.Add(event.Name)
			}
			return
		}
	}
	ext := strings.ToLower(filepath.Ext(event.Name))
	if ext != ".md" && ext != ".markdown" {
		return
	}
	w.mu.Lock()
	w.pending = true
	w.mu.Unlock()
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if hidden(path) && path != root {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func hidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "."
}
