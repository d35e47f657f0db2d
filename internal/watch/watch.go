package watch

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/fsnotify/fsnotify"

	"tidy/internal/classify"
	"tidy/internal/config"
	"tidy/internal/logging"
)

// FlushFunc receives a batch of paths whose activity has settled. The watcher
// calls it from its flush goroutine, one batch at a time, never concurrently.
type FlushFunc func(paths []string)

// Watcher subscribes to filesystem events under the source root and debounces
// them into stable batches. Each instance owns its own state, so tests can run
// independent watchers side by side.
type Watcher struct {
	cfg    *config.Config
	rules  *classify.RuleSet
	flush  FlushFunc
	logger *slog.Logger

	flushInterval time.Duration
	quietPeriod   time.Duration

	fsw *fsnotify.Watcher

	// pending maps path to last observed activity. Single-writer via mu.
	mu      sync.Mutex
	pending map[string]time.Time

	done    chan struct{}
	wg      sync.WaitGroup
	started bool
}

// New constructs a watcher over the configured source root. Nothing runs
// until Start.
func New(cfg *config.Config, rules *classify.RuleSet, flush FlushFunc, logger *slog.Logger) *Watcher {
	return &Watcher{
		cfg:           cfg,
		rules:         rules,
		flush:         flush,
		logger:        logging.NewComponentLogger(logger, "watch"),
		flushInterval: time.Duration(cfg.Watch.FlushIntervalSeconds) * time.Second,
		quietPeriod:   time.Duration(cfg.Watch.QuietPeriodSeconds) * time.Second,
		pending:       make(map[string]time.Time),
		done:          make(chan struct{}),
	}
}

// Start subscribes to the source root (and its current subdirectories when
// recursive) and launches the event and flush goroutines. Directories created
// later are added to the subscription live.
func (w *Watcher) Start() error {
	if w.started {
		return errors.New("watcher already started")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsw = fsw

	if err := w.addTree(w.cfg.Paths.SourceRoot, true); err != nil {
		fsw.Close()
		w.fsw = nil
		return err
	}

	w.done = make(chan struct{})
	w.started = true
	w.wg.Add(2)
	go w.eventLoop()
	go w.flushLoop()

	w.logger.Info("watching source root",
		logging.String(logging.FieldPath, w.cfg.Paths.SourceRoot),
		logging.Bool("recursive", w.cfg.Organize.Recursive),
		logging.Duration("quiet_period", w.quietPeriod))
	return nil
}

// Stop tears the watcher down: the subscription is released, both goroutines
// exit, and the debounce map is cleared. A flush batch already handed to the
// callback runs to completion before Stop returns.
func (w *Watcher) Stop() {
	if !w.started {
		return
	}
	close(w.done)
	w.fsw.Close()
	w.wg.Wait()

	w.mu.Lock()
	w.pending = make(map[string]time.Time)
	w.mu.Unlock()
	w.started = false
	w.logger.Info("watcher stopped")
}

// Pending returns the number of paths awaiting their quiet period.
func (w *Watcher) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// addTree subscribes dir. When recursive, existing subdirectories are added
// too, skipping destination buckets and tidy's own state directories.
func (w *Watcher) addTree(dir string, isRoot bool) error {
	if err := w.fsw.Add(dir); err != nil {
		return err
	}
	if !w.cfg.Organize.Recursive {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sub := filepath.Join(dir, entry.Name())
		if w.excluded(sub) {
			continue
		}
		if isRoot && w.rules.IsBucket(entry.Name()) {
			continue
		}
		if err := w.addTree(sub, false); err != nil {
			return err
		}
	}
	return nil
}

// excluded reports whether path belongs to tidy's data or log directories.
func (w *Watcher) excluded(path string) bool {
	for _, dir := range []string{w.cfg.Paths.DataDir, w.cfg.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// insideBucket reports whether path sits beneath a destination bucket at the
// root level. Events there are the watcher observing its own output.
func (w *Watcher) insideBucket(path string) bool {
	rel, err := filepath.Rel(w.cfg.Paths.SourceRoot, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return true
	}
	first := strings.SplitN(rel, string(filepath.Separator), 2)[0]
	return w.rules.IsBucket(first)
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", logging.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		// Either gone for good or about to reappear under a new name with
		// its own Create event.
		w.mu.Lock()
		delete(w.pending, event.Name)
		w.mu.Unlock()
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if w.excluded(event.Name) || w.insideBucket(event.Name) {
		return
	}

	info, err := os.Lstat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if event.Op&fsnotify.Create != 0 && w.cfg.Organize.Recursive {
			if err := w.addTree(event.Name, false); err != nil {
				w.logger.Warn("adding new directory to watch",
					logging.String(logging.FieldPath, event.Name),
					logging.Error(err))
			}
			// Files moved in along with the directory produced no events of
			// their own. Stamp whatever is already inside.
			w.stampExisting(event.Name)
		}
		return
	}

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// stampExisting marks files already present under dir as pending, as if each
// had just produced an event.
func (w *Watcher) stampExisting(dir string) {
	now := time.Now()
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		w.mu.Lock()
		w.pending[path] = now
		w.mu.Unlock()
		return nil
	})
}

func (w *Watcher) flushLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case now := <-ticker.C:
			if batch := w.collectStable(now); len(batch) > 0 {
				w.logger.Debug("flushing stable paths", logging.Int("count", len(batch)))
				w.flush(batch)
			}
		}
	}
}

// collectStable removes and returns the paths quiet for at least the quiet
// period, sorted for deterministic handling downstream.
func (w *Watcher) collectStable(now time.Time) []string {
	threshold := now.Add(-w.quietPeriod)

	w.mu.Lock()
	defer w.mu.Unlock()

	var stable []string
	for path, lastActivity := range w.pending {
		if lastActivity.Before(threshold) || lastActivity.Equal(threshold) {
			stable = append(stable, path)
		}
	}
	for _, path := range stable {
		delete(w.pending, path)
	}
	sort.Strings(stable)
	return stable
}
