package organize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"log/slog"

	"tidy/internal/fileutil"
	"tidy/internal/ledger"
	"tidy/internal/logging"
	"tidy/internal/runs"
)

// Executor applies a plan to the filesystem and records every landed move in
// the ledger. Failures are scoped to single files; the batch runs to the end
// unless the context is cancelled or a fatal planning error surfaces.
type Executor struct {
	store  *ledger.Store
	logger *slog.Logger
}

// NewExecutor constructs an executor over the given ledger store. A nil store
// is only valid for dry runs.
func NewExecutor(store *ledger.Store, logger *slog.Logger) *Executor {
	return &Executor{
		store:  store,
		logger: logging.NewComponentLogger(logger, "executor"),
	}
}

// Execute consumes the plan move by move. Under dry-run the intended moves are
// reported verbatim with no filesystem or ledger writes. Otherwise each move
// re-checks its source, creates the destination bucket, re-resolves a
// collision that appeared since planning, performs the move, and appends a
// ledger record before the next move starts.
//
// Cancellation is honored between moves: the report covers everything that
// landed before ctx was done, and ctx.Err() is returned alongside it.
func (e *Executor) Execute(ctx context.Context, plan *Plan, dryRun bool) (runs.ExecutionReport, error) {
	report := runs.ExecutionReport{
		DryRun:    dryRun,
		StartedAt: time.Now(),
	}
	if id, ok := runs.RunIDFromContext(ctx); ok {
		report.RunID = id
	} else {
		report.RunID = runs.NewID()
	}
	if trigger, ok := runs.TriggerFromContext(ctx); ok {
		report.Trigger = trigger
	} else {
		report.Trigger = runs.TriggerManual
	}

	for move, err := range plan.Moves {
		if ctxErr := ctx.Err(); ctxErr != nil {
			report.Duration = time.Since(report.StartedAt)
			return report, ctxErr
		}
		if err != nil {
			if runs.IsFatal(err) {
				report.Duration = time.Since(report.StartedAt)
				return report, err
			}
			report.Failed = append(report.Failed, runs.Failure{
				Source: move.Source,
				Reason: err.Error(),
			})
			e.logger.Warn("skipping planned move",
				logging.String(logging.FieldPath, move.Source),
				logging.Error(err))
			continue
		}

		if dryRun {
			e.logger.Info("planned move",
				logging.String(logging.FieldPath, move.Source),
				logging.String(logging.FieldDestination, move.Destination),
				logging.String("rule", move.Rule.Name()))
			report.Succeeded = append(report.Succeeded, runs.Outcome{
				Source:      move.Source,
				Destination: move.Destination,
				Rule:        move.Rule.Name(),
			})
			continue
		}

		landed, failure, ok := e.executeOne(ctx, report.RunID, string(report.Trigger), plan, move)
		if !ok {
			report.Failed = append(report.Failed, failure)
			continue
		}
		report.Succeeded = append(report.Succeeded, runs.Outcome{
			Source:      move.Source,
			Destination: landed,
			Rule:        move.Rule.Name(),
		})
	}

	report.Duration = time.Since(report.StartedAt)
	return report, nil
}

// executeOne lands a single move and returns the destination the file actually
// reached, which differs from the planned one when a collision forced a
// re-resolve. On failure the destination reservation is released so a later
// file can claim the slot.
func (e *Executor) executeOne(ctx context.Context, runID, trigger string, plan *Plan, move PlannedMove) (string, runs.Failure, bool) {
	fail := func(err error) (string, runs.Failure, bool) {
		plan.Resolver.Release(move.Destination)
		e.logger.Warn("move failed",
			logging.String(logging.FieldPath, move.Source),
			logging.String(logging.FieldDestination, move.Destination),
			logging.Error(err))
		return "", runs.Failure{Source: move.Source, Reason: err.Error()}, false
	}

	if _, err := os.Lstat(move.Source); err != nil {
		return fail(runs.Wrap(runs.ErrPerFile, "stat source", move.Source, err))
	}
	if err := fileutil.EnsureDir(filepath.Dir(move.Destination)); err != nil {
		return fail(runs.Wrap(runs.ErrPerFile, "create bucket", filepath.Dir(move.Destination), err))
	}

	// Something may have claimed the destination since planning. Resolve a
	// fresh slot rather than clobbering it.
	if _, err := os.Lstat(move.Destination); err == nil {
		plan.Resolver.Release(move.Destination)
		resolved, rerr := plan.Resolver.Resolve(filepath.Dir(move.Destination), filepath.Base(move.Source))
		if rerr != nil {
			return "", runs.Failure{Source: move.Source, Reason: rerr.Error()}, false
		}
		e.logger.Debug("re-resolved destination",
			logging.String(logging.FieldPath, move.Source),
			logging.String("planned", move.Destination),
			logging.String(logging.FieldDestination, resolved))
		move.Destination = resolved
	} else if !errors.Is(err, os.ErrNotExist) {
		return fail(runs.Wrap(runs.ErrPerFile, "stat destination", move.Destination, err))
	}

	if err := fileutil.MoveFile(move.Source, move.Destination); err != nil {
		return fail(runs.Wrap(runs.ErrPerFile, "move file", move.Source, err))
	}

	e.logger.Info("moved file",
		logging.String(logging.FieldPath, move.Source),
		logging.String(logging.FieldDestination, move.Destination),
		logging.String("rule", move.Rule.Name()))

	if err := e.store.Append(ctx, runID, trigger, ledger.MoveRecord{
		Source:      move.Source,
		Destination: move.Destination,
	}); err != nil {
		// The file is already in place; report the gap so the user knows this
		// move will be invisible to undo and history.
		e.logger.Error("ledger append failed after move",
			logging.String(logging.FieldPath, move.Source),
			logging.String(logging.FieldDestination, move.Destination),
			logging.Error(err))
		return "", runs.Failure{
			Source: move.Source,
			Reason: "moved to " + move.Destination + " but history write failed: " + err.Error(),
		}, false
	}
	return move.Destination, runs.Failure{}, true
}
