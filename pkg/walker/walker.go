// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package walker enumerates candidate source files under a root, honoring
// gitignore semantics so vendored and generated trees are never visited.
package walker

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📄 Entry is a single walk result: either a directory (always yielded, so
// the tree shape can be mirrored) or a file whose extension matched.
type Entry struct {
	Path  string
	IsDir bool
}

// 🚶 Walker walks a tree and yields directories plus files matching the
// configured source extension. Each Walk call is an independent traversal.
type Walker struct {
	ext      string
	patterns []string
}

// 🏭 New creates a walker for the given source extension (without the dot)
// and extra ignore patterns matched against root-relative paths.
func New(ext string, ignorePatterns []string) *Walker {
	return &Walker{
		ext:      strings.TrimPrefix(ext, "."),
		patterns: ignorePatterns,
	}
}

// 🚶 Walk traverses root in directory-before-descendants order, calling fn
// for every included entry. Ignored directories are pruned, never entered.
// Traversal errors abort the walk.
func (w *Walker) Walk(ctx context.Context, root string, fn func(Entry) error) error {
	logger := zerolog.Ctx(ctx)

	// gitignore rules found so far, each scoped to the directory that
	// declared it
	var rules []rule

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Errorf("reading %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if path == root {
			rules = append(rules, loadIgnoreFile(root)...)
			return nil
		}

		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			if w.ignored(root, path, rules, true) {
				logger.Debug().Str("dir", path).Msg("pruning ignored directory")
				return filepath.SkipDir
			}
			rules = append(rules, loadIgnoreFile(path)...)
			return fn(Entry{Path: path, IsDir: true})
		}

		if w.ignored(root, path, rules, false) {
			logger.Debug().Str("file", path).Msg("skipping ignored file")
			return nil
		}
		// extension match is case-sensitive
		if strings.TrimPrefix(filepath.Ext(path), ".") != w.ext {
			return nil
		}
		return fn(Entry{Path: path, IsDir: false})
	})
}

// 🔍 ignored reports whether path is excluded by a configured pattern or by
// a gitignore rule declared in one of its ancestor directories.
func (w *Walker) ignored(root, path string, rules []rule, isDir bool) bool {
	if rel, ok := relTo(root, path); ok {
		for _, p := range w.patterns {
			if matched, err := doublestar.Match(p, rel); err == nil && matched {
				return true
			}
		}
	}

	// later rules win, so negations ("!pattern") can re-include
	ignored := false
	for _, r := range rules {
		if r.dirOnly && !isDir {
			continue
		}
		rel, ok := relTo(r.base, path)
		if !ok {
			continue
		}
		if r.matches(rel) {
			ignored = !r.negate
		}
	}
	return ignored
}

func relTo(base, path string) (string, bool) {
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
