package stats_test

import (
	"context"
	"path/filepath"
	"testing"

	"tidy/internal/classify"
	"tidy/internal/ledger"
	"tidy/internal/stats"
	"tidy/internal/testsupport"
)

func TestCollectCountsBucketsAndLooseFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	root := cfg.Paths.SourceRoot

	testsupport.WriteFile(t, filepath.Join(root, "Documents", "a.txt"), "12345")
	testsupport.WriteFile(t, filepath.Join(root, "Documents", "b.txt"), "123")
	testsupport.WriteFile(t, filepath.Join(root, "Images", "c.jpg"), "1")
	testsupport.WriteFile(t, filepath.Join(root, "NotABucket", "d.txt"), "ignored")
	testsupport.WriteFile(t, filepath.Join(root, "loose.txt"), "loose")

	rules, err := classify.Compile(cfg.Organize)
	if err != nil {
		t.Fatalf("classify.Compile: %v", err)
	}
	summary, err := stats.Collect(context.Background(), cfg, rules, store)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if summary.Unorganized != 1 {
		t.Fatalf("expected 1 unorganized file, got %d", summary.Unorganized)
	}
	if len(summary.Buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %+v", summary.Buckets)
	}
	if summary.Buckets[0].Bucket != "Documents" || summary.Buckets[0].Files != 2 || summary.Buckets[0].Bytes != 8 {
		t.Fatalf("unexpected Documents stat: %+v", summary.Buckets[0])
	}
	if summary.Buckets[1].Bucket != "Images" || summary.Buckets[1].Files != 1 {
		t.Fatalf("unexpected Images stat: %+v", summary.Buckets[1])
	}
	if summary.TotalFiles != 3 || summary.TotalBytes != 9 {
		t.Fatalf("unexpected totals: %d files %d bytes", summary.TotalFiles, summary.TotalBytes)
	}
}

func TestCollectIncludesMonthlyTrend(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	err := store.Append(context.Background(), "run-1", "manual", ledger.MoveRecord{
		Source:      "/in/a.txt",
		Destination: "/in/Documents/a.txt",
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	rules, err := classify.Compile(cfg.Organize)
	if err != nil {
		t.Fatalf("classify.Compile: %v", err)
	}
	summary, err := stats.Collect(context.Background(), cfg, rules, store)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(summary.Monthly) != 1 || summary.Monthly[0].Moves != 1 {
		t.Fatalf("unexpected monthly trend: %+v", summary.Monthly)
	}
}

func TestLabelPreservesDateBuckets(t *testing.T) {
	if got := stats.Label("2024-03"); got != "2024-03" {
		t.Fatalf("date bucket mangled: %q", got)
	}
	if got := stats.Label("music"); got != "Music" {
		t.Fatalf("expected title case, got %q", got)
	}
	if got := stats.Label("PDFs"); got != "PDFs" {
		t.Fatalf("expected existing casing preserved, got %q", got)
	}
}
