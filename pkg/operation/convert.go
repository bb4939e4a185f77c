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

package operation

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/walteh/convertrc/pkg/pathmap"
	"github.com/walteh/convertrc/pkg/walker"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 🏃 Execute runs the conversion. The returned error is fatal
// (configuration or discovery); per-file failures are reported through the
// reporter and counted in the summary instead.
func (op *ConvertOperation) Execute(ctx context.Context) (*Summary, error) {
	if err := op.cfg.Validate(ctx); err != nil {
		return nil, err
	}

	info, err := os.Stat(op.cfg.Source)
	if err != nil {
		return nil, errors.Errorf("reading source %s: %w", op.cfg.Source, err)
	}

	if info.Mode().IsRegular() {
		return op.convertSingle(ctx)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("%s: not a regular file or directory", op.cfg.Source)
	}
	return op.convertTree(ctx)
}

// 📄 convertSingle converts one file synchronously into the destination
// root, preserving the file name and swapping the extension.
func (op *ConvertOperation) convertSingle(ctx context.Context) (*Summary, error) {
	dest := filepath.Join(op.cfg.Destination,
		pathmap.ReplaceExt(filepath.Base(op.cfg.Source), op.cfg.TargetExt))

	zerolog.Ctx(ctx).Debug().
		Str("source", op.cfg.Source).
		Str("destination", dest).
		Msg("single file mode")

	if err := op.convertFile(ctx, op.cfg.Source, dest); err != nil {
		return &Summary{Total: 1, Failed: 1}, errors.Errorf("%s: %w", dest, err)
	}
	return &Summary{Total: 1, Succeeded: 1}, nil
}

// 🌳 convertTree walks the source tree, mirrors each directory eagerly in
// walk order, and spawns one task per matching file. Directories are
// guaranteed to exist before any file beneath them is written because the
// walk yields a directory before its descendants and mirroring is
// synchronous, while file conversions are fire-and-forget.
func (op *ConvertOperation) convertTree(ctx context.Context) (*Summary, error) {
	w := walker.New(op.cfg.SourceExt, op.cfg.IgnorePatterns)

	g, gctx := errgroup.WithContext(ctx)
	if op.cfg.Concurrency > 0 {
		g.SetLimit(op.cfg.Concurrency)
	}

	op.reporter.Start(ctx)

	var spawned int
	var failed int64
	walkErr := w.Walk(ctx, op.cfg.Source, func(e walker.Entry) error {
		if e.IsDir {
			dest, err := pathmap.MapDir(op.cfg.Source, op.cfg.Destination, e.Path)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dest, 0755); err != nil {
				return errors.Errorf("creating directory %s: %w", dest, err)
			}
			return nil
		}

		dest, err := pathmap.Map(op.cfg.Source, op.cfg.Destination, e.Path, op.cfg.TargetExt)
		if err != nil {
			return err
		}

		spawned++
		op.reporter.Add(ctx, 1)

		// Task errors are recorded as outcomes, never returned into the
		// group: one failed file must not cancel its siblings.
		source := e.Path
		g.Go(func() error {
			if err := op.convertFile(gctx, source, dest); err != nil {
				atomic.AddInt64(&failed, 1)
				op.reporter.ReportFailure(gctx, errors.Errorf("%s: %w", dest, err))
			}
			op.reporter.Increment(gctx)
			return nil
		})
		return nil
	})

	// tasks never return errors; this only drains them
	_ = g.Wait()
	op.reporter.Finish(ctx)

	summary := &Summary{
		Total:     spawned,
		Succeeded: spawned - int(failed),
		Failed:    int(failed),
	}

	if walkErr != nil {
		return summary, errors.Errorf("walking source tree: %w", walkErr)
	}

	zerolog.Ctx(ctx).Info().
		Int("total", summary.Total).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Msg("conversion run complete")

	return summary, nil
}

// 🔄 convertFile reads one source file, translates it and writes the
// result. The whole pipeline is one unit of work; failures wrap the stage
// that broke.
func (op *ConvertOperation) convertFile(ctx context.Context, source, dest string) error {
	content, err := os.ReadFile(source)
	if err != nil {
		return errors.Errorf("reading source file: %w", err)
	}

	translated, err := op.translator.Translate(ctx, string(content))
	if err != nil {
		return errors.Errorf("translating: %w", err)
	}

	if err := pathmap.EnsureParentDir(dest); err != nil {
		return err
	}
	if err := os.WriteFile(dest, []byte(translated), 0644); err != nil {
		return errors.Errorf("writing output: %w", err)
	}
	return nil
}
