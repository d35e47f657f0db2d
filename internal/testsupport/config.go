package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"tidy/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.SourceRoot = filepath.Join(base, "inbox")
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Watch.Enabled = false
	cfgVal.Scheduler.Enabled = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := os.MkdirAll(builder.cfg.Paths.SourceRoot, 0o755); err != nil {
		t.Fatalf("mkdir source root: %v", err)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithMode sets the organize mode on the test config.
func WithMode(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Organize.Mode = mode
	}
}

// WithRecursive toggles recursive traversal on the test config.
func WithRecursive(recursive bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Organize.Recursive = recursive
	}
}

// WithRules replaces the rule list on the test config.
func WithRules(rules []config.Rule) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Organize.Rules = rules
	}
}

// WithSuffixCap overrides the collision suffix cap on the test config.
func WithSuffixCap(limit int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Organize.CollisionSuffixCap = limit
	}
}

// WithWatch enables watching with the given flush and quiet periods in seconds.
func WithWatch(flushSeconds, quietSeconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Watch.Enabled = true
		b.cfg.Watch.FlushIntervalSeconds = flushSeconds
		b.cfg.Watch.QuietPeriodSeconds = quietSeconds
	}
}
