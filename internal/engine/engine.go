package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"log/slog"

	"tidy/internal/classify"
	"tidy/internal/config"
	"tidy/internal/fileutil"
	"tidy/internal/ledger"
	"tidy/internal/logging"
	"tidy/internal/notifications"
	"tidy/internal/organize"
	"tidy/internal/runs"
	"tidy/internal/stats"
	"tidy/internal/watch"
)

// Engine owns the run-lock and coordinates every way a batch of moves can
// start: manual runs, watch flushes, scheduled runs, and undo. Exactly one of
// them executes at a time.
type Engine struct {
	cfg      *config.Config
	store    *ledger.Store
	notifier notifications.Service
	logger   *slog.Logger

	rules    *classify.RuleSet
	planner  *organize.Planner
	executor *organize.Executor

	// runMu is the run-lock. Every way a batch can start waits its turn
	// here; a manual run arriving during a watch flush blocks until the
	// flush batch completes.
	runMu sync.Mutex

	watchMu sync.Mutex
	watcher *watch.Watcher

	schedMu         sync.Mutex
	schedulerCancel context.CancelFunc
	schedulerDone   chan struct{}
}

// New compiles the rule set and wires the planner and executor. Rule
// compilation failures surface as configuration errors before anything runs.
func New(cfg *config.Config, store *ledger.Store, notifier notifications.Service, logger *slog.Logger) (*Engine, error) {
	rules, err := classify.Compile(cfg.Organize)
	if err != nil {
		return nil, err
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	engineLogger := logging.NewComponentLogger(logger, "engine")
	return &Engine{
		cfg:      cfg,
		store:    store,
		notifier: notifier,
		logger:   engineLogger,
		rules:    rules,
		planner:  organize.NewPlanner(cfg, rules, logger),
		executor: organize.NewExecutor(store, logger),
	}, nil
}

// Rules exposes the compiled rule set, mainly for stats and IPC callers.
func (e *Engine) Rules() *classify.RuleSet {
	return e.rules
}

// RunOnce executes one full organize pass over the source root. When another
// run or flush holds the run-lock it waits for that batch to finish, bounded
// by the batch size. Cancellation via ctx takes effect between moves.
func (e *Engine) RunOnce(ctx context.Context, dryRun bool) (runs.ExecutionReport, error) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	trigger := runs.TriggerManual
	if t, ok := runs.TriggerFromContext(ctx); ok {
		trigger = t
	}
	return e.executeLocked(ctx, trigger, dryRun, nil)
}

// runQueued is the blocking variant used by the watcher and the scheduler.
// A nil paths slice means a full tree scan.
func (e *Engine) runQueued(ctx context.Context, trigger runs.Trigger, paths []string) (runs.ExecutionReport, error) {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	return e.executeLocked(ctx, trigger, false, paths)
}

// executeLocked builds the plan and runs it. Callers hold the run-lock.
func (e *Engine) executeLocked(ctx context.Context, trigger runs.Trigger, dryRun bool, paths []string) (runs.ExecutionReport, error) {
	runID := runs.NewID()
	ctx = runs.WithRunID(runs.WithTrigger(ctx, trigger), runID)
	logger := e.logger.With(
		logging.String(logging.FieldRunID, runID),
		logging.String(logging.FieldTrigger, string(trigger)))

	var plan *organize.Plan
	if paths == nil {
		built, err := e.planner.Plan()
		if err != nil {
			logger.Error("run aborted", logging.Error(err))
			e.notifyError(err, string(trigger)+" run")
			return runs.ExecutionReport{RunID: runID, Trigger: trigger}, err
		}
		plan = built
	} else {
		plan = e.planner.PlanFiles(paths)
	}

	logger.Info("run started", logging.Bool("dry_run", dryRun))
	report, err := e.executor.Execute(ctx, plan, dryRun)
	if err != nil {
		logger.Error("run stopped",
			logging.Int("succeeded", report.SucceededCount()),
			logging.Int("failed", report.FailedCount()),
			logging.Error(err))
		if !errors.Is(err, context.Canceled) {
			e.notifyError(err, string(trigger)+" run")
		}
		return report, err
	}

	logger.Info("run completed",
		logging.Int("succeeded", report.SucceededCount()),
		logging.Int("failed", report.FailedCount()),
		logging.Duration("duration", report.Duration))
	e.notifyRun(report)
	return report, nil
}

// UndoLastRun reverses the most recent non-reverted run, newest record first.
// Records whose filesystem state no longer matches the ledger are reported as
// conflicts and skipped; the run is marked reverted regardless, so a repeated
// undo targets the run before it. Like RunOnce it waits for any batch
// currently holding the run-lock.
func (e *Engine) UndoLastRun(ctx context.Context) (runs.ExecutionReport, error) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	run, records, err := e.store.LastRun(ctx)
	if err != nil {
		return runs.ExecutionReport{}, err
	}

	logger := e.logger.With(
		logging.String(logging.FieldRunID, run.ID),
		logging.String(logging.FieldTrigger, string(runs.TriggerUndo)))
	logger.Info("undo started", logging.Int("records", len(records)))

	report := runs.ExecutionReport{
		RunID:     run.ID,
		Trigger:   runs.TriggerUndo,
		StartedAt: time.Now(),
	}
	for i := len(records) - 1; i >= 0; i-- {
		if ctxErr := ctx.Err(); ctxErr != nil {
			report.Duration = time.Since(report.StartedAt)
			return report, ctxErr
		}
		rec := records[i]
		if err := e.revertRecord(rec); err != nil {
			report.Failed = append(report.Failed, runs.Failure{
				Source: rec.Destination,
				Reason: err.Error(),
			})
			logger.Warn("undo conflict",
				logging.String(logging.FieldPath, rec.Destination),
				logging.Error(err))
			continue
		}
		report.Succeeded = append(report.Succeeded, runs.Outcome{
			Source:      rec.Destination,
			Destination: rec.Source,
		})
	}
	report.Duration = time.Since(report.StartedAt)

	if err := e.store.MarkReverted(ctx, run.ID); err != nil {
		return report, err
	}
	logger.Info("undo completed",
		logging.Int("restored", report.SucceededCount()),
		logging.Int("conflicts", report.FailedCount()))
	e.notifyUndo(report)
	return report, nil
}

// revertRecord moves one file back where it came from. The destination must
// still exist and the original path must be free, otherwise the record is in
// conflict and stays where it is.
func (e *Engine) revertRecord(rec ledger.MoveRecord) error {
	if _, err := os.Lstat(rec.Destination); err != nil {
		return runs.Wrap(runs.ErrUndoConflict, "undo", "moved file is gone from "+rec.Destination, err)
	}
	if _, err := os.Lstat(rec.Source); err == nil {
		return runs.Wrap(runs.ErrUndoConflict, "undo", "original path "+rec.Source+" is occupied", nil)
	} else if !errors.Is(err, os.ErrNotExist) {
		return runs.Wrap(runs.ErrUndoConflict, "undo", "stat original path", err)
	}
	if err := fileutil.EnsureParent(rec.Source); err != nil {
		return runs.Wrap(runs.ErrUndoConflict, "undo", "restore parent directory", err)
	}
	if err := fileutil.MoveFile(rec.Destination, rec.Source); err != nil {
		return runs.Wrap(runs.ErrUndoConflict, "undo", "move back", err)
	}
	return nil
}

// StartWatch subscribes to the source root and begins debounced organizing.
func (e *Engine) StartWatch(ctx context.Context) error {
	e.watchMu.Lock()
	defer e.watchMu.Unlock()

	if e.watcher != nil {
		return runs.Wrap(runs.ErrBusy, "watch", "watch already active", nil)
	}

	watcher := watch.New(e.cfg, e.rules, func(paths []string) {
		if _, err := e.runQueued(ctx, runs.TriggerWatch, paths); err != nil {
			e.logger.Error("watch flush failed", logging.Error(err))
		}
	}, e.logger)

	if err := watcher.Start(); err != nil {
		return err
	}
	e.watcher = watcher
	return nil
}

// StopWatch tears the watcher down. An in-flight flush batch completes; no
// new moves start afterwards.
func (e *Engine) StopWatch() {
	e.watchMu.Lock()
	defer e.watchMu.Unlock()

	if e.watcher == nil {
		return
	}
	e.watcher.Stop()
	e.watcher = nil
}

// Watching reports whether a watcher is active.
func (e *Engine) Watching() bool {
	e.watchMu.Lock()
	defer e.watchMu.Unlock()
	return e.watcher != nil
}

// StartScheduler launches the periodic full-scan ticker. Each tick queues a
// run behind the run-lock like any other trigger.
func (e *Engine) StartScheduler(ctx context.Context) error {
	e.schedMu.Lock()
	defer e.schedMu.Unlock()

	if e.schedulerDone != nil {
		return runs.Wrap(runs.ErrBusy, "scheduler", "scheduler already active", nil)
	}
	interval := time.Duration(e.cfg.Scheduler.IntervalMinutes) * time.Minute
	if interval <= 0 {
		return runs.Wrap(runs.ErrConfiguration, "scheduler", "interval must be positive", nil)
	}

	schedCtx, cancel := context.WithCancel(ctx)
	e.schedulerCancel = cancel
	done := make(chan struct{})
	e.schedulerDone = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-schedCtx.Done():
				return
			case <-ticker.C:
				if _, err := e.runQueued(schedCtx, runs.TriggerScheduled, nil); err != nil {
					if !errors.Is(err, context.Canceled) {
						e.logger.Error("scheduled run failed", logging.Error(err))
					}
				}
			}
		}
	}()
	e.logger.Info("scheduler started", logging.Duration("interval", interval))
	return nil
}

// StopScheduler cancels the ticker and waits for a tick in flight.
func (e *Engine) StopScheduler() {
	e.schedMu.Lock()
	defer e.schedMu.Unlock()

	if e.schedulerDone == nil {
		return
	}
	e.schedulerCancel()
	<-e.schedulerDone
	e.schedulerCancel = nil
	e.schedulerDone = nil
}

// Start brings up the configured background triggers. The daemon calls it
// once after construction.
func (e *Engine) Start(ctx context.Context) error {
	if e.cfg.Watch.Enabled {
		if err := e.StartWatch(ctx); err != nil {
			return err
		}
	}
	if e.cfg.Scheduler.Enabled {
		if err := e.StartScheduler(ctx); err != nil {
			e.StopWatch()
			return err
		}
	}
	return nil
}

// Close stops every background trigger. Safe to call more than once.
func (e *Engine) Close() {
	e.StopWatch()
	e.StopScheduler()
}

// Stats snapshots the organized tree and the ledger's monthly move trend.
func (e *Engine) Stats(ctx context.Context) (*stats.Summary, error) {
	return stats.Collect(ctx, e.cfg, e.rules, e.store)
}

// History returns the most recent runs with their move counts.
func (e *Engine) History(ctx context.Context, limit int) ([]ledger.Run, error) {
	return e.store.Runs(ctx, limit)
}

func (e *Engine) notifyRun(report runs.ExecutionReport) {
	if err := e.notifier.NotifyRunCompleted(context.Background(), report); err != nil {
		e.logger.Warn("run notification failed", logging.Error(err))
	}
}

func (e *Engine) notifyUndo(report runs.ExecutionReport) {
	if err := e.notifier.NotifyUndoCompleted(context.Background(), report); err != nil {
		e.logger.Warn("undo notification failed", logging.Error(err))
	}
}

func (e *Engine) notifyError(cause error, label string) {
	if err := e.notifier.NotifyError(context.Background(), cause, label); err != nil {
		e.logger.Warn("error notification failed", logging.Error(err))
	}
}

// SourceRootExists verifies the configured source root without taking the
// run-lock, for status reporting.
func (e *Engine) SourceRootExists() bool {
	info, err := os.Stat(filepath.Clean(e.cfg.Paths.SourceRoot))
	return err == nil && info.IsDir()
}
