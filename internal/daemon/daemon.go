// BYZRA ⸻ internal/daemon/daemon.go
// watch mode: converts files as they land in the watched directories

package daemon

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"morphra/internal/config"
	"morphra/internal/convert"
	"morphra/internal/formats"
)

type Options struct {
	Paths  []string
	Target string
	Watch  WatchOptions
}

// daemon options from the [watch] and [convert] sections
func OptionsFromConfig(cfg *config.Config) Options {
	watch := DefaultWatchOptions()
	watch.Recursive = cfg.Watch.Recursive
	watch.MinFileAge = cfg.Watch.MinFileAge.Duration
	if cfg.Watch.ExcludeDirs != nil {
		watch.ExcludeDirs = cfg.Watch.ExcludeDirs
	}

	return Options{
		Paths:  cfg.Watch.Paths,
		Target: cfg.Convert.Target,
		Watch:  watch,
	}
}

// background service that monitors files
type Daemon struct {
	options   Options
	converter convert.FileConverter
	logger    *zap.Logger
	watcher   *Watcher

	mu        sync.Mutex
	running   bool
	startTime time.Time
	summary   convert.Summary
}

// current state of the daemon
type DaemonStatus struct {
	Running     bool
	WatchedDirs []string
	Target      string
	StartTime   time.Time
	Summary     convert.Summary
}

// new daemon instance
func NewDaemon(options Options, converter convert.FileConverter, logger *zap.Logger) (*Daemon, error) {
	if _, err := formats.ParseTarget(options.Target); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Daemon{
		options:   options,
		converter: converter,
		logger:    logger,
		summary:   convert.NewSummary(),
	}, nil
}

func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return fmt.Errorf("daemon already running")
	}

	d.logger.Info("Starting daemon", zap.String("target", d.options.Target))

	watcher, err := NewWatcher(d.options.Paths, d.options.Watch, d.handle, d.logger)
	if err != nil {
		d.logger.Error("Failed to create watcher", zap.Error(err))
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Start(ctx); err != nil {
		d.logger.Error("Failed to start watcher", zap.Error(err))
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	d.watcher = watcher
	d.running = true
	d.startTime = time.Now()
	d.logger.Info("Daemon started successfully")

	return nil
}

// halts the daemon
func (d *Daemon) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	watcher := d.watcher
	d.mu.Unlock()

	d.logger.Info("Stopping daemon")

	// stop watcher, outside the lock so the file in progress can finish
	err := watcher.Stop()
	if err != nil {
		d.logger.Warn("Error stopping watcher", zap.Error(err))
	}

	d.mu.Lock()
	d.running = false
	d.logger.Info("Daemon stopped", zap.String("summary", d.summary.String()))
	d.mu.Unlock()

	return err
}

// starts, then blocks until ctx is done
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return d.Stop()
}

func (d *Daemon) handle(ctx context.Context, path string) error {
	outcome := d.converter.Convert(ctx, path, d.options.Target)

	d.mu.Lock()
	d.summary.Add(outcome)
	d.mu.Unlock()

	if outcome == convert.Failed {
		return fmt.Errorf("conversion of %s failed", filepath.Base(path))
	}
	return nil
}

// current daemon status
func (d *Daemon) Status() *DaemonStatus {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return &DaemonStatus{
			Running: false,
			Summary: d.summary.Clone(),
		}
	}

	return &DaemonStatus{
		Running:     true,
		WatchedDirs: d.watcher.dirs,
		Target:      d.options.Target,
		StartTime:   d.startTime,
		Summary:     d.summary.Clone(),
	}
}

// is daemon currently running?
func (d *Daemon) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.running
}
