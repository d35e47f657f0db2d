package organize_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tidy/internal/classify"
	"tidy/internal/config"
	"tidy/internal/ledger"
	"tidy/internal/logging"
	"tidy/internal/organize"
	"tidy/internal/runs"
	"tidy/internal/testsupport"
)

func newPlanner(t *testing.T, cfg *config.Config) *organize.Planner {
	t.Helper()
	rules, err := classify.Compile(cfg.Organize)
	if err != nil {
		t.Fatalf("classify.Compile: %v", err)
	}
	return organize.NewPlanner(cfg, rules, logging.NewNop())
}

func mustPlan(t *testing.T, p *organize.Planner) *organize.Plan {
	t.Helper()
	plan, err := p.Plan()
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	return plan
}

func TestExecuteMovesFilesIntoBuckets(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	root := cfg.Paths.SourceRoot

	testsupport.WriteFile(t, filepath.Join(root, "a.txt"), "alpha")
	testsupport.WriteFile(t, filepath.Join(root, "b.jpg"), "beta")
	testsupport.WriteFile(t, filepath.Join(root, "c.txt"), "gamma")

	plan := mustPlan(t, newPlanner(t, cfg))
	executor := organize.NewExecutor(store, logging.NewNop())
	report, err := executor.Execute(context.Background(), plan, false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if report.SucceededCount() != 3 || report.FailedCount() != 0 {
		t.Fatalf("expected 3 succeeded 0 failed, got %d/%d", report.SucceededCount(), report.FailedCount())
	}

	for _, want := range []string{
		filepath.Join(root, "Documents", "a.txt"),
		filepath.Join(root, "Images", "b.jpg"),
		filepath.Join(root, "Documents", "c.txt"),
	} {
		if _, err := os.Stat(want); err != nil {
			t.Fatalf("expected %s to exist: %v", want, err)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "a.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("source a.txt should be gone, stat: %v", err)
	}

	records, err := store.RecordsForRun(context.Background(), report.RunID)
	if err != nil {
		t.Fatalf("RecordsForRun: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 ledger records, got %d", len(records))
	}
}

func TestDryRunTouchesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	root := cfg.Paths.SourceRoot

	testsupport.WriteFile(t, filepath.Join(root, "a.txt"), "alpha")
	testsupport.WriteFile(t, filepath.Join(root, "b.jpg"), "beta")

	plan := mustPlan(t, newPlanner(t, cfg))
	report, err := organize.NewExecutor(store, logging.NewNop()).Execute(context.Background(), plan, true)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !report.DryRun || report.SucceededCount() != 2 {
		t.Fatalf("expected 2 intended moves, got %+v", report)
	}

	if _, err := os.Stat(filepath.Join(root, "a.txt")); err != nil {
		t.Fatalf("dry run moved a.txt: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "Documents")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("dry run created a bucket: %v", err)
	}
	if _, _, err := store.LastRun(context.Background()); !errors.Is(err, ledger.ErrNoRuns) {
		t.Fatalf("dry run wrote to the ledger: %v", err)
	}
}

func TestDryRunLogsEveryPlannedMove(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	root := cfg.Paths.SourceRoot

	testsupport.WriteFile(t, filepath.Join(root, "a.txt"), "alpha")
	testsupport.WriteFile(t, filepath.Join(root, "b.jpg"), "beta")

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	plan := mustPlan(t, newPlanner(t, cfg))
	report, err := organize.NewExecutor(store, logger).Execute(context.Background(), plan, true)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if report.SucceededCount() != 2 {
		t.Fatalf("expected 2 intended moves, got %+v", report)
	}

	out := buf.String()
	if got := strings.Count(out, "planned move"); got != 2 {
		t.Fatalf("expected one log event per intended move, got %d in %q", got, out)
	}
	for _, want := range []string{"a.txt", "b.jpg", filepath.Join(root, "Documents", "a.txt")} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q: %q", want, out)
		}
	}
}

func TestCollisionResolvesToSuffixedName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	root := cfg.Paths.SourceRoot

	testsupport.WriteFile(t, filepath.Join(root, "Documents", "a.txt"), "old")
	testsupport.WriteFile(t, filepath.Join(root, "a.txt"), "new")

	plan := mustPlan(t, newPlanner(t, cfg))
	report, err := organize.NewExecutor(store, logging.NewNop()).Execute(context.Background(), plan, false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if report.SucceededCount() != 1 {
		t.Fatalf("expected 1 move, got %+v", report)
	}
	want := filepath.Join(root, "Documents", "a (1).txt")
	if report.Succeeded[0].Destination != want {
		t.Fatalf("expected destination %s, got %s", want, report.Succeeded[0].Destination)
	}
	if got := testsupport.ReadFile(t, want); got != "new" {
		t.Fatalf("suffixed file holds %q", got)
	}
	if got := testsupport.ReadFile(t, filepath.Join(root, "Documents", "a.txt")); got != "old" {
		t.Fatalf("existing file was clobbered, holds %q", got)
	}
}

func TestInPlanCollisionsGetDistinctDestinations(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRecursive(true))
	root := cfg.Paths.SourceRoot

	testsupport.WriteFile(t, filepath.Join(root, "a.txt"), "one")
	testsupport.WriteFile(t, filepath.Join(root, "sub", "a.txt"), "two")

	plan := mustPlan(t, newPlanner(t, cfg))
	seen := map[string]bool{}
	for move, err := range plan.Moves {
		if err != nil {
			t.Fatalf("plan error: %v", err)
		}
		if seen[move.Destination] {
			t.Fatalf("duplicate planned destination %s", move.Destination)
		}
		seen[move.Destination] = true
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 planned moves, got %d", len(seen))
	}
	if !seen[filepath.Join(root, "Documents", "a.txt")] || !seen[filepath.Join(root, "Documents", "a (1).txt")] {
		t.Fatalf("unexpected destinations: %v", seen)
	}
}

func TestSecondRunPlansNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	root := cfg.Paths.SourceRoot

	testsupport.WriteFile(t, filepath.Join(root, "a.txt"), "alpha")
	testsupport.WriteFile(t, filepath.Join(root, "b.jpg"), "beta")

	planner := newPlanner(t, cfg)
	executor := organize.NewExecutor(store, logging.NewNop())
	if _, err := executor.Execute(context.Background(), mustPlan(t, planner), false); err != nil {
		t.Fatalf("first Execute: %v", err)
	}

	report, err := executor.Execute(context.Background(), mustPlan(t, planner), false)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !report.Empty() {
		t.Fatalf("second run should plan nothing, got %+v", report)
	}
}

func TestPlanOrderIsDeterministic(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRecursive(true))
	root := cfg.Paths.SourceRoot

	testsupport.WriteFile(t, filepath.Join(root, "z.txt"), "z")
	testsupport.WriteFile(t, filepath.Join(root, "a.txt"), "a")
	testsupport.WriteFile(t, filepath.Join(root, "nested", "m.txt"), "m")

	planner := newPlanner(t, cfg)
	collect := func() []string {
		var sources []string
		for move, err := range mustPlan(t, planner).Moves {
			if err != nil {
				t.Fatalf("plan error: %v", err)
			}
			sources = append(sources, move.Source)
		}
		return sources
	}

	first := collect()
	want := []string{
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "z.txt"),
		filepath.Join(root, "nested", "m.txt"),
	}
	if strings.Join(first, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected plan order: %v", first)
	}
	if second := collect(); strings.Join(second, "|") != strings.Join(first, "|") {
		t.Fatalf("plan order not stable: %v vs %v", first, second)
	}
}

func TestNonRecursiveIgnoresSubdirectories(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	root := cfg.Paths.SourceRoot

	testsupport.WriteFile(t, filepath.Join(root, "a.txt"), "a")
	testsupport.WriteFile(t, filepath.Join(root, "nested", "b.txt"), "b")

	var sources []string
	for move, err := range mustPlan(t, newPlanner(t, cfg)).Moves {
		if err != nil {
			t.Fatalf("plan error: %v", err)
		}
		sources = append(sources, move.Source)
	}
	if len(sources) != 1 || sources[0] != filepath.Join(root, "a.txt") {
		t.Fatalf("expected only the root file, got %v", sources)
	}
}

func TestPlanFailsWhenSourceRootMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.RemoveAll(cfg.Paths.SourceRoot); err != nil {
		t.Fatalf("remove source root: %v", err)
	}

	_, err := newPlanner(t, cfg).Plan()
	if !errors.Is(err, runs.ErrSourceMissing) {
		t.Fatalf("expected source-missing error, got %v", err)
	}
}

func TestDateModeBucketsByModificationMonth(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMode(config.ModeDate))
	store := testsupport.MustOpenLedger(t, cfg)
	root := cfg.Paths.SourceRoot

	path := filepath.Join(root, "old.pdf")
	testsupport.WriteFile(t, path, "pdf")
	stamp := time.Date(2024, time.March, 14, 12, 0, 0, 0, time.Local)
	if err := os.Chtimes(path, stamp, stamp); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	plan := mustPlan(t, newPlanner(t, cfg))
	report, err := organize.NewExecutor(store, logging.NewNop()).Execute(context.Background(), plan, false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := filepath.Join(root, "2024-03", "old.pdf")
	if report.SucceededCount() != 1 || report.Succeeded[0].Destination != want {
		t.Fatalf("expected move to %s, got %+v", want, report)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("stat %s: %v", want, err)
	}
}

func TestSuffixCapExhaustionIsPerFile(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSuffixCap(1))
	store := testsupport.MustOpenLedger(t, cfg)
	root := cfg.Paths.SourceRoot

	testsupport.WriteFile(t, filepath.Join(root, "Documents", "a.txt"), "taken")
	testsupport.WriteFile(t, filepath.Join(root, "Documents", "a (1).txt"), "taken")
	testsupport.WriteFile(t, filepath.Join(root, "a.txt"), "blocked")
	testsupport.WriteFile(t, filepath.Join(root, "b.txt"), "fine")

	plan := mustPlan(t, newPlanner(t, cfg))
	report, err := organize.NewExecutor(store, logging.NewNop()).Execute(context.Background(), plan, false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if report.SucceededCount() != 1 || report.FailedCount() != 1 {
		t.Fatalf("expected 1 succeeded 1 failed, got %+v", report)
	}
	if report.Failed[0].Source != filepath.Join(root, "a.txt") {
		t.Fatalf("unexpected failed source: %+v", report.Failed[0])
	}
	if !strings.Contains(report.Failed[0].Reason, "collision suffix cap") {
		t.Fatalf("unexpected failure reason: %q", report.Failed[0].Reason)
	}
	if _, err := os.Stat(filepath.Join(root, "Documents", "b.txt")); err != nil {
		t.Fatalf("batch did not continue past the failure: %v", err)
	}
}

func TestPlanFilesSkipsBucketsAndMissingPaths(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	root := cfg.Paths.SourceRoot

	inBucket := filepath.Join(root, "Documents", "done.txt")
	testsupport.WriteFile(t, inBucket, "done")
	fresh := filepath.Join(root, "fresh.txt")
	testsupport.WriteFile(t, fresh, "fresh")
	gone := filepath.Join(root, "gone.txt")

	plan := newPlanner(t, cfg).PlanFiles([]string{inBucket, gone, fresh})
	var sources []string
	for move, err := range plan.Moves {
		if err != nil {
			t.Fatalf("plan error: %v", err)
		}
		sources = append(sources, move.Source)
	}
	if len(sources) != 1 || sources[0] != fresh {
		t.Fatalf("expected only %s, got %v", fresh, sources)
	}
}

func TestExecuteStopsOnCancelledContext(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	root := cfg.Paths.SourceRoot

	testsupport.WriteFile(t, filepath.Join(root, "a.txt"), "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	plan := mustPlan(t, newPlanner(t, cfg))
	report, err := organize.NewExecutor(store, logging.NewNop()).Execute(ctx, plan, false)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !report.Empty() {
		t.Fatalf("cancelled run should report no moves, got %+v", report)
	}
	if _, err := os.Stat(filepath.Join(root, "a.txt")); err != nil {
		t.Fatalf("cancelled run moved the file: %v", err)
	}
}
