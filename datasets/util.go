package datasets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ErrEmptyCorpus is returned when no replay file can produce examples, either
// because none matched or because every candidate was dropped.
var ErrEmptyCorpus = errors.New("no usable replay files")

// ReplaySource lists the candidate replay files for a generator.
type ReplaySource interface {
	Files() ([]string, error)
}

// DirSource globs Pattern inside Dir.
type DirSource struct {
	Dir     string
	Pattern string
}

// Files returns the regular files matching the pattern, sorted.
func (s DirSource) Files() ([]string, error) {
	pattern := s.Pattern
	if pattern == "" {
		pattern = "*"
	}
	matches, err := filepath.Glob(filepath.Join(s.Dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to glob pattern %s: %w", pattern, err)
	}
	files := matches[:0]
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)
	return files, nil
}

// FindReplays returns the replay files in dir matching pattern, or
// ErrEmptyCorpus when there are none.
func FindReplays(dir, pattern string) ([]string, error) {
	files, err := DirSource{Dir: dir, Pattern: pattern}.Files()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: nothing matches %s in %s", ErrEmptyCorpus, pattern, dir)
	}
	return files, nil
}
