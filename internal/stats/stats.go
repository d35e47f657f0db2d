package stats

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tidy/internal/classify"
	"tidy/internal/config"
	"tidy/internal/ledger"
	"tidy/internal/runs"
)

// BucketStat summarizes one destination bucket.
type BucketStat struct {
	Bucket string `json:"bucket"`
	Files  int    `json:"files"`
	Bytes  int64  `json:"bytes"`
}

// Summary is a metadata-only snapshot of the source tree plus the move trend
// from the ledger. No file content is ever read.
type Summary struct {
	SourceRoot  string              `json:"source_root"`
	Unorganized int                 `json:"unorganized"`
	Buckets     []BucketStat        `json:"buckets"`
	TotalFiles  int                 `json:"total_files"`
	TotalBytes  int64               `json:"total_bytes"`
	Monthly     []ledger.MonthCount `json:"monthly"`
}

var titleCaser = cases.Title(language.English, cases.NoLower)

// Label renders a bucket name for display. Extension buckets get title
// casing; date buckets pass through untouched.
func Label(bucket string) string {
	if bucket == "" {
		return bucket
	}
	if r := rune(bucket[0]); r >= '0' && r <= '9' {
		return bucket
	}
	return titleCaser.String(bucket)
}

// Collect walks the source root and aggregates per-bucket file counts and
// sizes, counts files still awaiting organization, and pulls the monthly move
// trend from the ledger. A nil store skips the trend.
func Collect(ctx context.Context, cfg *config.Config, rules *classify.RuleSet, store *ledger.Store) (*Summary, error) {
	root := cfg.Paths.SourceRoot
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, runs.Wrap(runs.ErrSourceMissing, "collect stats", root, err)
		}
		return nil, runs.Wrap(runs.ErrConfiguration, "collect stats", "read source root", err)
	}

	summary := &Summary{SourceRoot: root}
	for _, entry := range entries {
		if entry.IsDir() {
			if !rules.IsBucket(entry.Name()) {
				continue
			}
			files, bytes := measureDir(filepath.Join(root, entry.Name()))
			summary.Buckets = append(summary.Buckets, BucketStat{
				Bucket: entry.Name(),
				Files:  files,
				Bytes:  bytes,
			})
			summary.TotalFiles += files
			summary.TotalBytes += bytes
			continue
		}
		summary.Unorganized++
	}
	sort.Slice(summary.Buckets, func(i, j int) bool {
		return summary.Buckets[i].Bucket < summary.Buckets[j].Bucket
	})

	if store != nil {
		monthly, err := store.MonthlyMoveCounts(ctx)
		if err != nil {
			return nil, err
		}
		summary.Monthly = monthly
	}
	return summary, nil
}

// measureDir totals files and bytes under dir from stat data alone.
// Unreadable entries are skipped rather than failing the snapshot.
func measureDir(dir string) (int, int64) {
	var files int
	var bytes int64
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		files++
		if info, err := d.Info(); err == nil {
			bytes += info.Size()
		}
		return nil
	})
	return files, bytes
}
