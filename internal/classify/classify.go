package classify

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"tidy/internal/config"
	"tidy/internal/runs"
)

// FileEntry is a read-only snapshot of the file metadata classification needs.
// It is captured at plan time and not re-validated until move time beyond an
// existence check.
type FileEntry struct {
	Path    string
	Ext     string
	ModTime time.Time
	Size    int64
}

// NewEntry builds a FileEntry from a path and its stat result.
func NewEntry(path string, info fs.FileInfo) FileEntry {
	return FileEntry{
		Path:    path,
		Ext:     strings.ToLower(filepath.Ext(path)),
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}
}

// Kind discriminates the rule variants.
type Kind int

const (
	// KindExtension matches a file by its extension.
	KindExtension Kind = iota
	// KindDate buckets a file by its modification month.
	KindDate
)

// Rule is one compiled classification rule. Exactly the fields for its Kind
// are populated.
type Rule struct {
	Kind        Kind
	Extensions  map[string]struct{}
	Destination string
	Layout      string
	Location    *time.Location
}

// Name returns a short label for the rule, used in reports and log lines.
func (r Rule) Name() string {
	switch r.Kind {
	case KindExtension:
		return "type:" + r.Destination
	case KindDate:
		return "date:" + r.Layout
	default:
		return "unknown"
	}
}

// RuleSet is an ordered, immutable-per-run set of compiled rules plus the
// fallback bucket for type mode.
type RuleSet struct {
	rules    []Rule
	fallback string
}

// Compile translates the validated configuration into a RuleSet. Type mode
// yields one extension rule per configured rule plus the fallback bucket;
// date mode yields a single date rule.
func Compile(org config.Organize) (*RuleSet, error) {
	switch org.Mode {
	case config.ModeType:
		rules := make([]Rule, 0, len(org.Rules))
		for _, rc := range org.Rules {
			exts := make(map[string]struct{}, len(rc.Extensions))
			for _, ext := range rc.Extensions {
				exts[strings.ToLower(ext)] = struct{}{}
			}
			rules = append(rules, Rule{
				Kind:        KindExtension,
				Extensions:  exts,
				Destination: rc.Destination,
			})
		}
		return &RuleSet{rules: rules, fallback: org.FallbackBucket}, nil
	case config.ModeDate:
		loc := time.Local
		if org.Timezone != "" {
			parsed, err := time.LoadLocation(org.Timezone)
			if err != nil {
				return nil, runs.Wrap(runs.ErrConfiguration, "compile rules", fmt.Sprintf("timezone %q", org.Timezone), err)
			}
			loc = parsed
		}
		// A layout that renders path separators would produce nested buckets
		// the planner cannot recognize as its own output.
		if rendered := time.Now().In(loc).Format(org.DateFormat); strings.ContainsAny(rendered, `/\`) {
			return nil, runs.Wrap(runs.ErrConfiguration, "compile rules", fmt.Sprintf("date format %q renders %q, not a bare folder name", org.DateFormat, rendered), nil)
		}
		return &RuleSet{rules: []Rule{{
			Kind:     KindDate,
			Layout:   org.DateFormat,
			Location: loc,
		}}}, nil
	default:
		return nil, runs.Wrap(runs.ErrConfiguration, "compile rules", fmt.Sprintf("unknown mode %q", org.Mode), nil)
	}
}

// Classify maps a file entry to its destination subfolder name. It is a pure
// function: no filesystem access, no side effects. Unmatched extensions land
// in the fallback bucket and never cause failure.
func (s *RuleSet) Classify(entry FileEntry) (string, Rule) {
	for _, rule := range s.rules {
		switch rule.Kind {
		case KindExtension:
			if _, ok := rule.Extensions[entry.Ext]; ok {
				return rule.Destination, rule
			}
		case KindDate:
			return entry.ModTime.In(rule.Location).Format(rule.Layout), rule
		}
	}
	return s.fallback, Rule{Kind: KindExtension, Destination: s.fallback}
}

// IsBucket reports whether name is a destination this rule set could produce.
// The planner uses it to skip the tool's own output folders on later passes.
func (s *RuleSet) IsBucket(name string) bool {
	for _, rule := range s.rules {
		switch rule.Kind {
		case KindExtension:
			if name == rule.Destination {
				return true
			}
		case KindDate:
			if parsed, err := time.ParseInLocation(rule.Layout, name, rule.Location); err == nil {
				if parsed.In(rule.Location).Format(rule.Layout) == name {
					return true
				}
			}
		}
	}
	return s.fallback != "" && name == s.fallback
}
