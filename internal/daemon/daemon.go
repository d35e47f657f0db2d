package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"tidy/internal/config"
	"tidy/internal/engine"
	"tidy/internal/ledger"
	"tidy/internal/logging"
	"tidy/internal/notifications"
	"tidy/internal/runs"
	"tidy/internal/stats"
)

// Daemon wraps the engine with single-instance enforcement and the surface
// the IPC server exposes.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *ledger.Store
	engine   *engine.Engine
	notifier notifications.Service
	logPath  string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running          bool
	Watching         bool
	SourceRoot       string
	SourceRootExists bool
	LedgerPath       string
	LockFilePath     string
	PID              int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *ledger.Store, eng *engine.Engine, notifier notifications.Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || eng == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, engine, and logger")
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		engine:   eng,
		notifier: notifier,
		logPath:  filepath.Join(cfg.Paths.LogDir, "tidy.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and brings up the configured background
// triggers.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another tidy daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.engine.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start engine: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("tidy daemon started",
		logging.String("lock", d.lockPath),
		logging.String(logging.FieldPath, d.cfg.Paths.SourceRoot))
	return nil
}

// Stop shuts down background triggers and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.engine.Close()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("tidy daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status reports current daemon state without taking the run-lock.
func (d *Daemon) Status() Status {
	return Status{
		Running:          d.running.Load(),
		Watching:         d.engine.Watching(),
		SourceRoot:       d.cfg.Paths.SourceRoot,
		SourceRootExists: d.engine.SourceRootExists(),
		LedgerPath:       d.store.Path(),
		LockFilePath:     d.lockPath,
		PID:              os.Getpid(),
	}
}

// Run executes one organize pass on behalf of an IPC caller.
func (d *Daemon) Run(ctx context.Context, dryRun bool) (runs.ExecutionReport, error) {
	return d.engine.RunOnce(ctx, dryRun)
}

// Undo reverses the most recent non-reverted run.
func (d *Daemon) Undo(ctx context.Context) (runs.ExecutionReport, error) {
	return d.engine.UndoLastRun(ctx)
}

// StartWatch enables the filesystem watcher.
func (d *Daemon) StartWatch() error {
	if !d.running.Load() || d.ctx == nil {
		return errors.New("daemon is not running")
	}
	return d.engine.StartWatch(d.ctx)
}

// StopWatch disables the filesystem watcher.
func (d *Daemon) StopWatch() {
	d.engine.StopWatch()
}

// History lists recent runs from the ledger.
func (d *Daemon) History(ctx context.Context, limit int) ([]ledger.Run, error) {
	return d.engine.History(ctx, limit)
}

// Stats snapshots the organized tree.
func (d *Daemon) Stats(ctx context.Context) (*stats.Summary, error) {
	return d.engine.Stats(ctx)
}

// TestNotification pushes a test message through the notifier.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, err.Error(), nil
	}
	return true, "notification sent", nil
}

// LogPath returns the daemon's log file location.
func (d *Daemon) LogPath() string {
	return d.logPath
}
