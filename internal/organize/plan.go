package organize

import (
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"log/slog"

	"tidy/internal/classify"
	"tidy/internal/config"
	"tidy/internal/logging"
	"tidy/internal/runs"
)

// PlannedMove pairs a source file with its resolved destination. It is owned
// by the run that created it and never outlives the planning pass.
type PlannedMove struct {
	Source      string
	Destination string
	Rule        classify.Rule
}

// Plan is one planning pass: a lazy, finite move sequence plus the resolver
// that reserved its destinations. Iterating Moves does not touch the
// filesystem beyond stat calls; the executor owns all mutation.
type Plan struct {
	Moves    iter.Seq2[PlannedMove, error]
	Resolver *Resolver
}

// Planner walks a source tree and produces ordered move plans.
type Planner struct {
	cfg    *config.Config
	rules  *classify.RuleSet
	logger *slog.Logger
}

// NewPlanner constructs a planner over the compiled rule set.
func NewPlanner(cfg *config.Config, rules *classify.RuleSet, logger *slog.Logger) *Planner {
	return &Planner{
		cfg:    cfg,
		rules:  rules,
		logger: logging.NewComponentLogger(logger, "planner"),
	}
}

// Plan walks the source root and yields planned moves lazily. Traversal is
// deterministic: entries of each directory in lexicographic order, files
// before descent into subdirectories. The walk skips the rule set's own
// destination buckets (so a second pass plans nothing), the ledger and log
// locations, and symbolic links unless configured otherwise.
//
// A missing source root is fatal and reported before any move is yielded.
func (p *Planner) Plan() (*Plan, error) {
	root := p.cfg.Paths.SourceRoot
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, runs.Wrap(runs.ErrSourceMissing, "plan", root, err)
		}
		return nil, runs.Wrap(runs.ErrSourceMissing, "plan", "stat source root", err)
	}
	if !info.IsDir() {
		return nil, runs.Wrap(runs.ErrSourceMissing, "plan", root+" is not a directory", nil)
	}

	resolver := NewResolver(p.cfg.Organize.CollisionSuffixCap)
	moves := func(yield func(PlannedMove, error) bool) {
		p.walkDir(root, root, resolver, yield)
	}
	return &Plan{Moves: moves, Resolver: resolver}, nil
}

// PlanFiles builds a plan covering only the given paths, used by watch flushes.
// Paths that no longer exist, live outside the source root, or already sit in
// a destination bucket are silently skipped; ordering is lexicographic.
func (p *Planner) PlanFiles(paths []string) *Plan {
	sorted := append([]string{}, paths...)
	sort.Strings(sorted)

	resolver := NewResolver(p.cfg.Organize.CollisionSuffixCap)
	moves := func(yield func(PlannedMove, error) bool) {
		for _, path := range sorted {
			if !p.eligible(path) {
				continue
			}
			info, err := os.Lstat(path)
			if err != nil {
				// Vanished between event and flush; nothing to plan.
				continue
			}
			if info.IsDir() || (info.Mode()&fs.ModeSymlink != 0 && !p.cfg.Organize.FollowSymlinks) {
				continue
			}
			if !p.planOne(path, info, resolver, yield) {
				return
			}
		}
	}
	return &Plan{Moves: moves, Resolver: resolver}
}

// walkDir emits moves for one directory, then recurses. Returns false when
// the consumer stopped iterating.
func (p *Planner) walkDir(root, dir string, resolver *Resolver, yield func(PlannedMove, error) bool) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return yield(PlannedMove{}, runs.Wrap(runs.ErrPerFile, "read directory", dir, err))
	}

	var subdirs []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if p.protected(path) {
			continue
		}
		if entry.IsDir() {
			if dir == root && p.rules.IsBucket(entry.Name()) {
				continue
			}
			subdirs = append(subdirs, path)
			continue
		}
		if entry.Type()&fs.ModeSymlink != 0 && !p.cfg.Organize.FollowSymlinks {
			p.logger.Debug("skipping symlink", logging.String(logging.FieldPath, path))
			continue
		}
		info, err := p.statEntry(path, entry)
		if err != nil {
			if !yield(PlannedMove{}, runs.Wrap(runs.ErrPerFile, "stat file", path, err)) {
				return false
			}
			continue
		}
		if info.IsDir() {
			// Symlink to a directory with follow enabled; never descends.
			continue
		}
		if !p.planOne(path, info, resolver, yield) {
			return false
		}
	}

	if !p.cfg.Organize.Recursive {
		return true
	}
	for _, sub := range subdirs {
		if !p.walkDir(root, sub, resolver, yield) {
			return false
		}
	}
	return true
}

func (p *Planner) planOne(path string, info fs.FileInfo, resolver *Resolver, yield func(PlannedMove, error) bool) bool {
	entry := classify.NewEntry(path, info)
	bucket, rule := p.rules.Classify(entry)
	destDir := filepath.Join(p.cfg.Paths.SourceRoot, bucket)

	destination, err := resolver.Resolve(destDir, filepath.Base(path))
	if err != nil {
		return yield(PlannedMove{Source: path}, err)
	}
	return yield(PlannedMove{Source: path, Destination: destination, Rule: rule}, nil)
}

func (p *Planner) statEntry(path string, entry fs.DirEntry) (fs.FileInfo, error) {
	if entry.Type()&fs.ModeSymlink != 0 {
		return os.Stat(path)
	}
	return entry.Info()
}

// eligible reports whether a watch-delivered path belongs to the organizable
// part of the tree: under the source root but not inside a destination bucket.
func (p *Planner) eligible(path string) bool {
	if p.protected(path) {
		return false
	}
	root := p.cfg.Paths.SourceRoot
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	if first := strings.SplitN(rel, string(filepath.Separator), 2)[0]; p.rules.IsBucket(first) {
		return false
	}
	return true
}

// protected reports whether the path belongs to tidy's own state: the ledger
// database, lock, socket, or log files. These never enter a plan even when
// the data directory nests inside the source root.
func (p *Planner) protected(path string) bool {
	for _, dir := range []string{p.cfg.Paths.DataDir, p.cfg.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if path == dir {
			return true
		}
		if strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
