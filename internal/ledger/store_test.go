package ledger_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"tidy/internal/ledger"
)

func openStore(t *testing.T) *ledger.Store {
	t.Helper()
	store, err := ledger.OpenPath(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func appendMove(t *testing.T, store *ledger.Store, runID, src, dst string) {
	t.Helper()
	err := store.Append(context.Background(), runID, "manual", ledger.MoveRecord{
		Source:      src,
		Destination: dst,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
}

func TestAppendAndLastRun(t *testing.T) {
	store := openStore(t)

	appendMove(t, store, "run-1", "/src/a.txt", "/src/Text/a.txt")
	appendMove(t, store, "run-1", "/src/b.jpg", "/src/Images/b.jpg")

	run, records, err := store.LastRun(context.Background())
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if run.ID != "run-1" || run.Trigger != "manual" || run.Reverted {
		t.Fatalf("unexpected run %+v", run)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Source != "/src/a.txt" || records[1].Source != "/src/b.jpg" {
		t.Fatalf("records out of append order: %+v", records)
	}
}

func TestLastRunSkipsReverted(t *testing.T) {
	store := openStore(t)

	appendMove(t, store, "run-1", "/src/a.txt", "/src/Text/a.txt")
	time.Sleep(5 * time.Millisecond)
	appendMove(t, store, "run-2", "/src/b.txt", "/src/Text/b.txt")

	if err := store.MarkReverted(context.Background(), "run-2"); err != nil {
		t.Fatalf("MarkReverted: %v", err)
	}

	run, _, err := store.LastRun(context.Background())
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if run.ID != "run-1" {
		t.Fatalf("expected run-1 after run-2 reverted, got %s", run.ID)
	}

	if err := store.MarkReverted(context.Background(), "run-1"); err != nil {
		t.Fatalf("MarkReverted run-1: %v", err)
	}
	if _, _, err := store.LastRun(context.Background()); !errors.Is(err, ledger.ErrNoRuns) {
		t.Fatalf("expected ErrNoRuns, got %v", err)
	}
}

func TestMarkRevertedUnknownRun(t *testing.T) {
	store := openStore(t)
	if err := store.MarkReverted(context.Background(), "ghost"); !errors.Is(err, ledger.ErrNoRuns) {
		t.Fatalf("expected ErrNoRuns, got %v", err)
	}
}

func TestHistorySurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	store, err := ledger.OpenPath(dbPath)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	if err := store.Append(context.Background(), "run-1", "watch", ledger.MoveRecord{
		Source:      "/src/a.txt",
		Destination: "/src/Text/a.txt",
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := ledger.OpenPath(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	runs, err := reopened.Runs(context.Background(), 0)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "run-1" || runs[0].Records != 1 || runs[0].Trigger != "watch" {
		t.Fatalf("unexpected runs after reopen: %+v", runs)
	}
}

func TestRunsNewestFirstWithLimit(t *testing.T) {
	store := openStore(t)
	for i, id := range []string{"run-1", "run-2", "run-3"} {
		err := store.Append(context.Background(), id, "manual", ledger.MoveRecord{
			Source:      "/src/f.txt",
			Destination: "/src/Text/f.txt",
			MovedAt:     time.Date(2026, time.March, i+1, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("Append %s: %v", id, err)
		}
	}

	runs, err := store.Runs(context.Background(), 2)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-3" || runs[1].ID != "run-2" {
		t.Fatalf("unexpected order: %+v", runs)
	}
}

func TestMonthlyMoveCounts(t *testing.T) {
	store := openStore(t)
	stamps := []time.Time{
		time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.January, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
	}
	for i, ts := range stamps {
		err := store.Append(context.Background(), "run-1", "manual", ledger.MoveRecord{
			Source:      "/src/f.txt",
			Destination: "/src/Text/f.txt",
			MovedAt:     ts,
		})
		if err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	counts, err := store.MonthlyMoveCounts(context.Background())
	if err != nil {
		t.Fatalf("MonthlyMoveCounts: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("expected 2 months, got %+v", counts)
	}
	if counts[0].Month != "2026-01" || counts[0].Moves != 2 {
		t.Fatalf("unexpected january row: %+v", counts[0])
	}
	if counts[1].Month != "2026-02" || counts[1].Moves != 1 {
		t.Fatalf("unexpected february row: %+v", counts[1])
	}
}
