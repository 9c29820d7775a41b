// BYZRA ⸻ internal/daemon/watcher.go
// file system monitoring for the daemon

package daemon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"morphra/internal/convert"
	"morphra/internal/util"
)

// processes a detected file
type FileHandler func(ctx context.Context, path string) error

// configures the watcher behavior
type WatchOptions struct {
	// directory names to exclude
	ExcludeDirs []string

	// min file age before processing (avoid processing incomplete files)
	MinFileAge time.Duration

	// watch subdirectories too, including ones created later
	Recursive bool

	// a processed path is ignored for this long
	Cooldown time.Duration

	// events waiting for the worker, extra ones are dropped
	QueueSize int
}

func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		ExcludeDirs: []string{".git", "node_modules"},
		MinFileAge:  2 * time.Second,
		Cooldown:    time.Minute,
		QueueSize:   256,
	}
}

// downloads still in flight
var partialSuffixes = []string{".part", ".crdownload", ".download", ".tmp", ".swp"}

// monitors directories for file changes
type Watcher struct {
	watcher     *fsnotify.Watcher
	dirs        []string
	options     WatchOptions
	handler     FileHandler
	logger      *zap.Logger
	queue       chan string
	pending     map[string]bool
	processed   map[string]time.Time
	processLock sync.Mutex
	wg          sync.WaitGroup
	cancel      context.CancelFunc
	running     bool
}

// new file system watcher
func NewWatcher(dirs []string, options WatchOptions, handler FileHandler, logger *zap.Logger) (*Watcher, error) {
	var validDirs []string
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil {
			logger.Warn("Skipping invalid directory", zap.String("dir", dir), zap.Error(err))
			continue
		}

		if !info.IsDir() {
			logger.Warn("Skipping non-directory path", zap.String("dir", dir))
			continue
		}

		validDirs = append(validDirs, dir)
	}

	if len(validDirs) == 0 {
		return nil, fmt.Errorf("no valid directories to watch")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if options.QueueSize <= 0 {
		options.QueueSize = DefaultWatchOptions().QueueSize
	}

	return &Watcher{
		watcher:   fsWatcher,
		dirs:      validDirs,
		options:   options,
		handler:   handler,
		logger:    logger,
		queue:     make(chan string, options.QueueSize),
		pending:   make(map[string]bool),
		processed: make(map[string]time.Time),
	}, nil
}

// begins watching the configured directories
func (w *Watcher) Start(ctx context.Context) error {
	if w.running {
		return fmt.Errorf("watcher already running")
	}

	for _, dir := range w.dirs {
		if w.options.Recursive {
			w.addTree(dir)
			continue
		}

		// just the top-level directory
		if err := w.watcher.Add(dir); err != nil {
			w.logger.Warn("Failed to watch directory", zap.String("dir", dir), zap.Error(err))
		} else {
			w.logger.Debug("Watching directory", zap.String("dir", dir))
		}
	}

	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(3)
	go w.processEvents(ctx)
	go w.work(ctx)
	go w.periodicCleanup(ctx)

	w.running = true
	w.logger.Info("File watcher started", zap.Strings("dirs", w.dirs))

	return nil
}

// terminates the watcher, waits for the file in progress
func (w *Watcher) Stop() error {
	if !w.running {
		return nil
	}

	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()

	w.running = false
	w.logger.Info("File watcher stopped")

	return err
}

func (w *Watcher) addTree(root string) {
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("Error accessing path", zap.String("path", path), zap.Error(err))
			return nil // continue walking
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.isExcluded(path) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", zap.String("dir", path), zap.Error(err))
		} else {
			w.logger.Debug("Watching directory", zap.String("dir", path))
		}
		return nil
	})
	if err != nil {
		w.logger.Error("Error walking directory", zap.String("dir", root), zap.Error(err))
	}
}

func (w *Watcher) isExcluded(dir string) bool {
	return slices.Contains(w.options.ExcludeDirs, filepath.Base(dir))
}

// checks if a file should be processed based on options
func (w *Watcher) shouldProcessFile(path string) bool {
	name := filepath.Base(path)

	// our own intermediates and backups
	if util.IsTempName(name) || convert.IsBackupName(name) {
		return false
	}

	lower := strings.ToLower(name)
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return false
		}
	}

	w.processLock.Lock()
	defer w.processLock.Unlock()

	if lastProcessed, exists := w.processed[path]; exists {
		if time.Since(lastProcessed) < w.options.Cooldown {
			return false
		}
	}

	return true
}

func (w *Watcher) markProcessed(path string) {
	w.processLock.Lock()
	defer w.processLock.Unlock()

	w.processed[path] = time.Now()
}

// queues path unless it is already waiting
func (w *Watcher) enqueue(path string) {
	w.processLock.Lock()
	if w.pending[path] {
		w.processLock.Unlock()
		return
	}
	w.pending[path] = true
	w.processLock.Unlock()

	select {
	case w.queue <- path:
	default:
		w.clearPending(path)
		w.logger.Warn("Queue full, dropping event", zap.String("file", filepath.Base(path)))
	}
}

func (w *Watcher) clearPending(path string) {
	w.processLock.Lock()
	defer w.processLock.Unlock()

	delete(w.pending, path)
}

// blocks until path is at least MinFileAge old; false when it vanished
func (w *Watcher) waitSettled(ctx context.Context, path string) bool {
	for {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			return false
		}

		age := time.Since(info.ModTime())
		if age >= w.options.MinFileAge {
			return true
		}

		// an mtime in the future still waits one period at most
		wait := min(w.options.MinFileAge-age, w.options.MinFileAge)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(wait):
		}
	}
}

// file system events
func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return // watcher was closed
			}

			// creation or write event?
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			path := event.Name

			// if a new directory was created and we're in recursive mode, watch it
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			if info.IsDir() {
				if w.options.Recursive && event.Has(fsnotify.Create) && !w.isExcluded(path) {
					w.addTree(path)
				}
				continue
			}

			if w.shouldProcessFile(path) {
				w.enqueue(path)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return // watcher closed
			}
			w.logger.Error("Watcher error", zap.Error(err))
		}
	}
}

// one file at a time, in arrival order
func (w *Watcher) work(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case path := <-w.queue:
			settled := w.waitSettled(ctx, path)
			w.clearPending(path)
			if !settled || !w.shouldProcessFile(path) {
				continue
			}

			w.logger.Debug("Processing file", zap.String("file", path))

			if err := w.handler(ctx, path); err != nil {
				w.logger.Warn("Failed to process file", zap.String("file", filepath.Base(path)), zap.Error(err))
			}

			w.markProcessed(path)
		}
	}
}

// periodically cleans the processed files map
func (w *Watcher) periodicCleanup(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			w.processLock.Lock()

			// clean entries older than 1 hour
			cutoff := time.Now().Add(-1 * time.Hour)
			for path, processed := range w.processed {
				if processed.Before(cutoff) {
					delete(w.processed, path)
				}
			}

			w.processLock.Unlock()

			w.logger.Debug("Cleaned processed files cache")
		}
	}
}
