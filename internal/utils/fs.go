package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/quantmind-br/bundlefile/internal/domain"
)

// maxRenameAttempts bounds the search for a free "name_N.ext" path
const maxRenameAttempts = 10000

// NormalizeRelPath converts a relative path found on disk or in a bundle to
// the canonical slash form used by manifests
func NormalizeRelPath(p string) (string, error) {
	return domain.NormalizePath(filepath.ToSlash(p))
}

// SafeJoin joins a bundle path onto base and guarantees the result stays
// inside base, also after resolving symlinks in the parts that exist
func SafeJoin(base, rel string) (string, error) {
	normalized, err := domain.NormalizePath(rel)
	if err != nil {
		return "", err
	}

	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolve base %s: %w", base, err)
	}
	target := filepath.Join(absBase, filepath.FromSlash(normalized))

	if !within(absBase, target) {
		return "", fmt.Errorf("%w: %q", domain.ErrPathEscape, rel)
	}

	realBase, err := resolveExisting(absBase)
	if err != nil {
		return "", fmt.Errorf("resolve base %s: %w", base, err)
	}
	realTarget, err := resolveExisting(target)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", rel, err)
	}
	if !within(realBase, realTarget) {
		return "", fmt.Errorf("%w: %q resolves to %s", domain.ErrPathEscape, rel, realTarget)
	}
	return target, nil
}

func within(base, target string) bool {
	back, err := filepath.Rel(base, target)
	return err == nil && back != ".." && !strings.HasPrefix(back, ".."+string(filepath.Separator))
}

// resolveExisting evaluates the symlinks of the longest existing prefix of
// the absolute path p and appends the missing rest unchanged
func resolveExisting(p string) (string, error) {
	existing, rest := p, ""
	for {
		_, err := os.Lstat(existing)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return p, nil
		}
		rest = filepath.Join(filepath.Base(existing), rest)
		existing = parent
	}
	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolved, rest), nil
}

// EnsureDir ensures a directory exists, creating it if necessary
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}

// Exists reports whether path exists. Errors other than "not exist" are
// returned.
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// IsDir reports whether path is an existing directory
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// RenameCandidate returns the n-th alternative name for path: "stem_n.ext".
// Dotfiles without an extension get the suffix appended.
func RenameCandidate(path string, n int) string {
	dir, file := filepath.Split(path)
	ext := filepath.Ext(file)
	stem := strings.TrimSuffix(file, ext)
	if stem == "" {
		stem, ext = file, ""
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
}

// FreeName returns the first RenameCandidate of path that does not exist
func FreeName(path string) (string, error) {
	for n := 1; n <= maxRenameAttempts; n++ {
		candidate := RenameCandidate(path, n)
		exists, err := Exists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free name for %s after %d attempts", path, maxRenameAttempts)
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	return path
}
