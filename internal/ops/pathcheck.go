package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/guangnotepad/guang/internal/codec"
	"github.com/guangnotepad/guang/internal/config"
	"github.com/guangnotepad/guang/internal/errors"
)

// PathCheckMode indicates whether the path check is for reading or writing.
type PathCheckMode int

const (
	PathCheckRead  PathCheckMode = iota // document is read
	PathCheckWrite                      // document is created or replaced
)

// ValidatePath resolves path to an absolute document path, or reports why
// the current config does not let us open (PathCheckRead) or save
// (PathCheckWrite) it.
//
// Both modes require a .txt or .rtf name with no ".." component, and refuse a
// symlinked file. Unless AllowUnsafePaths is set, the file must also sit
// directly in the documents directory or in one of AllowedPaths, and that
// directory must not itself be a symlink. A read additionally requires a
// regular file no larger than MaxFileBytes. A write refuses a directory target.
func ValidatePath(path string, mode PathCheckMode, cfg *config.Config) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.NewInvalidRequest("path is required")
	}
	if containsTraversal(path) {
		return "", errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}
	if _, err := codec.FormatForPath(abs); err != nil {
		return "", err
	}

	if cfg == nil || !cfg.AllowUnsafePaths {
		if err := checkDocumentDir(filepath.Dir(abs), cfg); err != nil {
			return "", err
		}
	}

	info, err := os.Lstat(abs)
	switch {
	case os.IsNotExist(err):
		if mode == PathCheckRead {
			return "", errors.NewNotFound(path)
		}
	case err != nil:
		return "", errors.NewIOFailure("stat", path, err)
	case info.Mode()&os.ModeSymlink != 0:
		return "", errors.NewInvalidRequest("path must not be a symlink")
	case info.IsDir():
		return "", errors.NewInvalidRequest("path is a directory")
	case mode == PathCheckRead && !info.Mode().IsRegular():
		return "", errors.NewInvalidRequest("path is not a regular file")
	case mode == PathCheckRead && cfg != nil && cfg.MaxFileBytes > 0 && info.Size() > cfg.MaxFileBytes:
		return "", errors.NewFileTooLarge(cfg.MaxFileBytes, info.Size())
	}
	return abs, nil
}

// checkDocumentDir requires dir to be one of the document directories, not a
// subdirectory of one. Nested paths are refused so that no intermediate
// component can be swapped for a symlink between this check and the open.
func checkDocumentDir(dir string, cfg *config.Config) error {
	dirs, err := documentDirs(cfg)
	if err != nil {
		return err
	}
	if !slices.Contains(dirs, filepath.Clean(dir)) {
		return errors.NewInvalidRequest(fmt.Sprintf(
			"document must be directly in one of %v (no subdirectories)", dirs))
	}
	if info, err := os.Lstat(dir); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("parent directory must not be a symlink")
	}
	return nil
}

// documentDirs lists ~/.guang/documents followed by the absolute AllowedPaths
// entries. A symlinked entry is replaced by its target.
func documentDirs(cfg *config.Config) ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to get home directory: %w", err))
	}
	candidates := []string{filepath.Join(home, config.DirName, "documents")}
	if cfg != nil {
		for _, p := range cfg.AllowedPaths {
			if filepath.IsAbs(p) {
				candidates = append(candidates, filepath.Clean(p))
			}
		}
	}
	dirs := make([]string, 0, len(candidates))
	for _, d := range candidates {
		if info, err := os.Lstat(d); err == nil && info.Mode()&os.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(d)
			if err != nil {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot resolve symlink in allowed path: %v", err))
			}
			d = resolved
		}
		dirs = append(dirs, d)
	}
	return dirs, nil
}

// containsTraversal reports a ".." component under either separator.
func containsTraversal(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	})
	return slices.Contains(parts, "..")
}
