// Package pathmap computes mirrored destination paths for converted files.
package pathmap

import (
	"os"
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🚫 ErrNotUnderRoot is returned when a source path does not live under the
// source root it is being mapped from.
var ErrNotUnderRoot = errors.New("path is not under the source root")

// 🗺️ Map re-roots sourceFile from sourceRoot to destRoot and swaps the file
// extension for targetExt.
func Map(sourceRoot, destRoot, sourceFile, targetExt string) (string, error) {
	mirrored, err := rebase(sourceRoot, destRoot, sourceFile)
	if err != nil {
		return "", err
	}
	return ReplaceExt(mirrored, targetExt), nil
}

// 🗺️ MapDir re-roots a directory from sourceRoot to destRoot, preserving the
// relative path as-is.
func MapDir(sourceRoot, destRoot, sourceDir string) (string, error) {
	return rebase(sourceRoot, destRoot, sourceDir)
}

func rebase(sourceRoot, destRoot, path string) (string, error) {
	rel, err := filepath.Rel(sourceRoot, path)
	if err != nil {
		return "", errors.Errorf("resolving relative path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("%s: %w", path, ErrNotUnderRoot)
	}
	return filepath.Join(destRoot, rel), nil
}

// 🔄 ReplaceExt swaps the extension of path for ext, appending it when the
// path has no extension at all.
func ReplaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + strings.TrimPrefix(ext, ".")
}

// 📁 EnsureParentDir creates the immediate parent directory of path if it is
// absent. Already-existing directories are not an error.
func EnsureParentDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}
	return nil
}
