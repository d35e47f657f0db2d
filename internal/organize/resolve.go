package organize

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tidy/internal/runs"
)

// Resolver picks non-colliding destination paths. The reserved set tracks
// paths handed out during the current planning pass so two planned moves
// never share a destination even before either lands on disk.
type Resolver struct {
	suffixCap int
	reserved  map[string]struct{}
}

// NewResolver constructs a resolver with the configured collision suffix cap.
func NewResolver(suffixCap int) *Resolver {
	if suffixCap <= 0 {
		suffixCap = 1000
	}
	return &Resolver{
		suffixCap: suffixCap,
		reserved:  make(map[string]struct{}),
	}
}

// Resolve returns destDir/filename, or the first "name (N).ext" variant that
// neither exists on disk nor has been reserved this pass. Existence is
// re-checked with os.Stat per attempt rather than trusting a cached listing.
// Exhausting the suffix cap is a per-file failure.
func (r *Resolver) Resolve(destDir, filename string) (string, error) {
	candidate := filepath.Join(destDir, filename)
	free, err := r.available(candidate)
	if err != nil {
		return "", err
	}
	if free {
		r.reserved[candidate] = struct{}{}
		return candidate, nil
	}

	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	for n := 1; n <= r.suffixCap; n++ {
		candidate = filepath.Join(destDir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
		free, err := r.available(candidate)
		if err != nil {
			return "", err
		}
		if free {
			r.reserved[candidate] = struct{}{}
			return candidate, nil
		}
	}
	return "", runs.Wrap(runs.ErrSuffixExhausted, "resolve path",
		fmt.Sprintf("no free slot for %s in %s within %d attempts", filename, destDir, r.suffixCap), nil)
}

// Release frees a reservation, letting a later resolve reuse the path. The
// executor calls it when a planned move fails before reaching the filesystem.
func (r *Resolver) Release(path string) {
	delete(r.reserved, path)
}

func (r *Resolver) available(path string) (bool, error) {
	if _, reserved := r.reserved[path]; reserved {
		return false, nil
	}
	if _, err := os.Lstat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}
