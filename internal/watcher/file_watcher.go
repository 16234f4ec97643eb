package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a batch of changes is reported.
const DefaultDebounce = 500 * time.Millisecond

// Options configures a file watcher.
type Options struct {
	// Debounce is the quiet period before firing the callback (DefaultDebounce if zero).
	Debounce time.Duration

	// Filter, when set, decides which changed paths are reported.
	Filter func(path string) bool

	// Logger receives watcher warnings. Nil discards them.
	Logger *slog.Logger
}

// fileWatcher implements FileWatcher interface.
type fileWatcher struct {
	watcher       *fsnotify.Watcher
	filter        func(path string) bool
	debounceTime  time.Duration
	logger        *slog.Logger
	callback      func(files []string)
	ctx           context.Context
	cancel        context.CancelFunc
	paused        bool
	pausedMu      sync.RWMutex
	accumulated   map[string]bool
	accumulatedMu sync.Mutex
	debounceTimer *time.Timer
	timerMu       sync.Mutex
	stopOnce      sync.Once
	doneCh        chan struct{}
}

// NewFileWatcher watches the given paths. Directories are watched
// recursively, files individually.
func NewFileWatcher(paths []string, opts Options) (FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw := &fileWatcher{
		watcher:      watcher,
		filter:       opts.Filter,
		debounceTime: debounce,
		logger:       logger,
		accumulated:  make(map[string]bool),
		doneCh:       make(chan struct{}),
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			watcher.Close()
			return nil, err
		}
		if !info.IsDir() {
			if err := watcher.Add(p); err != nil {
				watcher.Close()
				return nil, err
			}
			continue
		}
		if err := fw.addDirectoriesRecursively(p); err != nil {
			watcher.Close()
			return nil, err
		}
	}

	return fw, nil
}

// Start begins watching for file changes.
func (fw *fileWatcher) Start(ctx context.Context, callback func(files []string)) error {
	if callback == nil {
		return nil
	}

	fw.callback = callback
	fw.ctx, fw.cancel = context.WithCancel(ctx)

	go fw.watch()
	return nil
}

// Stop stops the file watcher.
func (fw *fileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		if fw.cancel != nil {
			fw.cancel()
			<-fw.doneCh
		} else {
			// Never started
			close(fw.doneCh)
		}
		err = fw.watcher.Close()
	})
	return err
}

// Pause stops firing callbacks but continues accumulating events.
func (fw *fileWatcher) Pause() {
	fw.pausedMu.Lock()
	defer fw.pausedMu.Unlock()
	fw.paused = true
}

// Resume resumes firing callbacks. If events accumulated during pause, fires immediately.
func (fw *fileWatcher) Resume() {
	fw.pausedMu.Lock()
	wasPaused := fw.paused
	fw.paused = false
	fw.pausedMu.Unlock()

	if !wasPaused {
		return
	}
	if files := fw.drain(); len(files) > 0 && fw.callback != nil {
		fw.callback(files)
	}
}

// watch is the main event loop.
func (fw *fileWatcher) watch() {
	defer close(fw.doneCh)

	fireCh := make(chan struct{}, 1)

	for {
		select {
		case <-fw.ctx.Done():
			fw.stopDebounceTimer()
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			// New directories join the watch set.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fw.addDirectoriesRecursively(event.Name); err != nil {
						fw.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
				}
			}

			if !fw.shouldProcessEvent(event) {
				continue
			}

			fw.accumulatedMu.Lock()
			fw.accumulated[event.Name] = true
			fw.accumulatedMu.Unlock()

			fw.resetDebounceTimer(fireCh)

		case <-fireCh:
			fw.handleDebounceExpired()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("file watcher error", "error", err)
		}
	}
}

// handleDebounceExpired fires the callback unless paused.
func (fw *fileWatcher) handleDebounceExpired() {
	fw.pausedMu.RLock()
	paused := fw.paused
	fw.pausedMu.RUnlock()

	if paused {
		return
	}
	if files := fw.drain(); len(files) > 0 && fw.callback != nil {
		fw.callback(files)
	}
}

// drain returns and clears the accumulated changes.
func (fw *fileWatcher) drain() []string {
	fw.accumulatedMu.Lock()
	defer fw.accumulatedMu.Unlock()

	files := make([]string, 0, len(fw.accumulated))
	for file := range fw.accumulated {
		files = append(files, file)
	}
	fw.accumulated = make(map[string]bool)
	return files
}

// resetDebounceTimer resets the debounce timer, properly stopping the old one.
func (fw *fileWatcher) resetDebounceTimer(fireCh chan struct{}) {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}

	fw.debounceTimer = time.AfterFunc(fw.debounceTime, func() {
		select {
		case fireCh <- struct{}{}:
		default:
		}
	})
}

// stopDebounceTimer stops the debounce timer if it exists.
func (fw *fileWatcher) stopDebounceTimer() {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
		fw.debounceTimer = nil
	}
}

// shouldProcessEvent keeps write, create, remove and rename events that pass the filter.
func (fw *fileWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if fw.filter == nil {
		return true
	}
	return fw.filter(event.Name)
}

// addDirectoriesRecursively adds all directories in the tree to the watcher.
func (fw *fileWatcher) addDirectoriesRecursively(rootPath string) error {
	return filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == rootPath {
				return err
			}
			fw.logger.Warn("error accessing path", "path", path, "error", err)
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if err := fw.watcher.Add(path); err != nil {
			fw.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}
