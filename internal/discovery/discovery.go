package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/quantmind-br/bundlefile/internal/domain"
	"github.com/quantmind-br/bundlefile/internal/utils"
)

// ErrNotDirectory is returned when the discovery root is not a directory
var ErrNotDirectory = errors.New("not a directory")

// Filter decides which relative paths are included in a bundle.
// A path is included when it matches at least one allow pattern (or the
// allow list is empty) and no deny pattern.
type Filter struct {
	allow []string
	deny  []string
}

// NewFilter validates every pattern and returns a Filter
func NewFilter(allow, deny []string) (*Filter, error) {
	a, err := compilePatterns(allow)
	if err != nil {
		return nil, err
	}
	d, err := compilePatterns(deny)
	if err != nil {
		return nil, err
	}
	return &Filter{allow: a, deny: d}, nil
}

func compilePatterns(patterns []string) ([]string, error) {
	out := make([]string, 0, len(patterns))
	for _, pat := range patterns {
		pat = strings.TrimPrefix(filepath.ToSlash(strings.TrimSpace(pat)), "./")
		if pat == "" {
			continue
		}
		if !doublestar.ValidatePattern(pat) {
			return nil, &domain.PatternError{Pattern: pat, Err: doublestar.ErrBadPattern}
		}
		out = append(out, pat)
	}
	return out, nil
}

// Allowed reports whether rel (relative to the walk root) is included
func (f *Filter) Allowed(rel string) bool {
	rel = filepath.ToSlash(rel)
	if len(f.allow) > 0 && !matchAny(f.allow, rel) {
		return false
	}
	return !matchAny(f.deny, rel)
}

// Denied reports whether rel matches a deny pattern
func (f *Filter) Denied(rel string) bool {
	return matchAny(f.deny, filepath.ToSlash(rel))
}

// DeniesTree reports whether a deny pattern ending in "/**" covers the
// directory dir, so that every path below it is denied
func (f *Filter) DeniesTree(dir string) bool {
	dir = filepath.ToSlash(dir)
	for _, pat := range f.deny {
		prefix, ok := strings.CutSuffix(pat, "/**")
		if !ok || prefix == "" {
			continue
		}
		if matched, err := doublestar.Match(prefix, dir); err == nil && matched {
			return true
		}
	}
	return false
}

// matchAny matches rel against patterns. Patterns without a slash also
// match the base name at any depth.
func matchAny(patterns []string, rel string) bool {
	base := path.Base(rel)
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
		if !strings.Contains(pat, "/") {
			if ok, err := doublestar.Match(pat, base); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// SkipFunc receives a selected file that was left out of the result and
// the reason
type SkipFunc func(rel string, err error)

// Discover walks root and returns the sorted relative slash paths of the
// regular files selected by allow and deny. Every file is decided on its
// own path; a directory is only skipped when a "dir/**" deny pattern
// covers it. Symlinks are not followed and files whose names a bundle
// cannot carry are left out.
func Discover(root string, allow, deny []string) ([]string, error) {
	filter, err := NewFilter(allow, deny)
	if err != nil {
		return nil, err
	}
	return Walk(root, filter, nil)
}

// Walk is Discover with a prepared Filter. Left out files are reported to
// skip when it is not nil.
func Walk(root string, filter *Filter, skip SkipFunc) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("discover %s: %w", root, ErrNotDirectory)
	}

	var found []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		switch {
		case d.IsDir():
			if filter.DeniesTree(rel) {
				return filepath.SkipDir
			}
			return nil
		case !d.Type().IsRegular():
			return nil
		}

		if !filter.Allowed(rel) {
			return nil
		}
		if err := representable(rel); err != nil {
			if skip != nil {
				skip(rel, err)
			}
			return nil
		}
		found = append(found, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", root, err)
	}

	sort.Strings(found)
	return found, nil
}

// representable reports an error for on-disk names that would change under
// bundle path normalization, such as surrounding spaces or backslashes
func representable(rel string) error {
	normalized, err := utils.NormalizeRelPath(rel)
	if err != nil {
		return err
	}
	if normalized != rel {
		return domain.NewValidationError("path", fmt.Sprintf("%q cannot be stored in a bundle (would become %q)", rel, normalized))
	}
	return nil
}
