package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 500 * time.Millisecond

// SeedWatcher watches the seed file and re-applies it on change, so pricing
// edits made to the file reach a running terminal without a restart.
type SeedWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	onSeed  func(*Seed)
	logger  *log.Logger

	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewSeedWatcher creates a watcher for the seed file at path. onSeed is
// called with each successfully parsed seed.
func NewSeedWatcher(path string, onSeed func(*Seed), logger *log.Logger) (*SeedWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[seed] ", log.LstdFlags)
	}
	return &SeedWatcher{
		watcher: watcher,
		path:    path,
		onSeed:  onSeed,
		logger:  logger,
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching. The parent directory is watched rather than the
// file itself; editors that write via rename would otherwise detach the
// watch on the first save.
func (w *SeedWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("seed watcher already running")
	}
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	w.running = true
	w.wg.Add(1)
	go w.processEvents()
	return nil
}

// Stop stops watching and waits for the event loop to exit.
func (w *SeedWatcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.done)
	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	w.wg.Wait()
	return nil
}

// processEvents debounces bursts of writes and reloads the seed once the
// file settles.
func (w *SeedWatcher) processEvents() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
				timerC = timer.C
			} else {
				timer.Reset(reloadDebounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Printf("Watch error: %v", err)
		}
	}
}

func (w *SeedWatcher) reload() {
	seed, err := LoadSeed(w.path)
	if err != nil {
		w.logger.Printf("Seed reload failed: %v", err)
		return
	}
	w.logger.Printf("Seed file changed, re-applying")
	w.onSeed(seed)
}
