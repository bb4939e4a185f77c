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
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/convertrc/pkg/config"
	"github.com/walteh/convertrc/pkg/translator"
	"gitlab.com/tozd/go/errors"
)

// stubTranslator delegates to fn, defaulting to a recognizable rewrite.
type stubTranslator struct {
	fn func(content string) (string, error)
}

func (s *stubTranslator) Translate(ctx context.Context, content string) (string, error) {
	if s.fn != nil {
		return s.fn(content)
	}
	return "<?php // " + content, nil
}

// recordingReporter captures reporter calls for assertions.
type recordingReporter struct {
	mu       sync.Mutex
	total    int
	done     int
	failures []string
	finished bool
}

func (r *recordingReporter) Start(ctx context.Context) {}

func (r *recordingReporter) Add(ctx context.Context, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total += delta
}

func (r *recordingReporter) Increment(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done++
}

func (r *recordingReporter) ReportFailure(ctx context.Context, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, err.Error())
}

func (r *recordingReporter) Finish(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = true
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755), "creating fixture dirs")
		require.NoError(t, os.WriteFile(path, []byte(content), 0644), "writing fixture file")
	}
}

func newTestOp(t *testing.T, cfg *config.Config, tr translator.Translator) (*ConvertOperation, *recordingReporter) {
	t.Helper()
	reporter := &recordingReporter{}
	op, err := NewConvertOperation(Options{Config: cfg, Translator: tr, Reporter: reporter})
	require.NoError(t, err, "creating operation")
	return op, reporter
}

func testConfig(source, dest string) *config.Config {
	cfg := config.Default()
	cfg.Source = source
	cfg.Destination = dest
	cfg.APIKey = "test-key"
	return cfg
}

func TestTreeConversion(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	writeTree(t, source, map[string]string{
		"Main.java":            "class Main {}",
		"com/example/App.java": "class App {}",
		"README.md":            "docs",
	})

	op, reporter := newTestOp(t, testConfig(source, dest), &stubTranslator{})
	summary, err := op.Execute(context.Background())
	require.NoError(t, err, "run should succeed")

	assert.Equal(t, 2, summary.Total, "both java files should be converted")
	assert.Equal(t, 2, summary.Succeeded, "both conversions should succeed")
	assert.Equal(t, 0, summary.Failed, "no conversions should fail")

	// every matched file exists at the mirrored path with translated content
	data, err := os.ReadFile(filepath.Join(dest, "Main.php"))
	require.NoError(t, err, "Main.php should exist")
	assert.Equal(t, "<?php // class Main {}", string(data), "content should be the translator output")

	data, err = os.ReadFile(filepath.Join(dest, "com", "example", "App.php"))
	require.NoError(t, err, "nested App.php should exist at the mirrored path")
	assert.Equal(t, "<?php // class App {}", string(data), "content should be the translator output")

	// non-matching files produce no output
	_, err = os.Stat(filepath.Join(dest, "README.md"))
	assert.True(t, os.IsNotExist(err), "non-matching files should not be copied")
	_, err = os.Stat(filepath.Join(dest, "README.php"))
	assert.True(t, os.IsNotExist(err), "non-matching files should not be converted")

	assert.Equal(t, 2, reporter.total, "reporter total should match spawned tasks")
	assert.Equal(t, 2, reporter.done, "reporter should see one increment per task")
	assert.True(t, reporter.finished, "reporter should be finished")
}

func TestTreeFaultIsolation(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	writeTree(t, source, map[string]string{
		"A.java": "class A {}",
		"B.java": "class B {}",
		"C.java": "class C {}",
	})

	tr := &stubTranslator{fn: func(content string) (string, error) {
		if strings.Contains(content, "class B") {
			return "", errors.New("simulated endpoint failure")
		}
		return "<?php // " + content, nil
	}}

	op, reporter := newTestOp(t, testConfig(source, dest), tr)
	summary, err := op.Execute(context.Background())
	require.NoError(t, err, "per-file failures must not fail the run")

	assert.Equal(t, 3, summary.Total, "all files should be attempted")
	assert.Equal(t, 2, summary.Succeeded, "siblings of the failed file should convert")
	assert.Equal(t, 1, summary.Failed, "exactly one failure")

	assert.FileExists(t, filepath.Join(dest, "A.php"), "A should convert despite B failing")
	assert.FileExists(t, filepath.Join(dest, "C.php"), "C should convert despite B failing")
	assert.NoFileExists(t, filepath.Join(dest, "B.php"), "failed conversion should write nothing")

	require.Len(t, reporter.failures, 1, "one failure should be reported")
	assert.Contains(t, reporter.failures[0], "B.php", "failure should be wrapped with the destination path")
	assert.Contains(t, reporter.failures[0], "simulated endpoint failure", "failure should carry the cause")
	assert.Equal(t, 3, reporter.done, "progress should advance for failures too")
}

func TestTreeDirectoriesExistBeforeFileWrites(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	// file contents name their own destination directory so the translator
	// can check it mid-flight
	writeTree(t, source, map[string]string{
		"a/One.java":     "a",
		"a/b/Two.java":   "a/b",
		"a/b/c/Three.java": "a/b/c",
	})

	tr := &stubTranslator{fn: func(content string) (string, error) {
		info, err := os.Stat(filepath.Join(dest, filepath.FromSlash(content)))
		if err != nil || !info.IsDir() {
			return "", errors.Errorf("destination directory %q missing at translate time", content)
		}
		return "ok", nil
	}}

	op, _ := newTestOp(t, testConfig(source, dest), tr)
	summary, err := op.Execute(context.Background())
	require.NoError(t, err, "run should succeed")
	assert.Equal(t, 3, summary.Succeeded, "every directory should exist before its files are written")
}

func TestTreeIgnoredSubtrees(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	writeTree(t, source, map[string]string{
		".gitignore":          "vendor/\n",
		"Main.java":           "class Main {}",
		"vendor/Dep.java":     "vendored",
	})

	op, _ := newTestOp(t, testConfig(source, dest), &stubTranslator{})
	summary, err := op.Execute(context.Background())
	require.NoError(t, err, "run should succeed")

	assert.Equal(t, 1, summary.Total, "ignored trees should not be converted")
	assert.NoFileExists(t, filepath.Join(dest, "vendor", "Dep.php"), "vendored files should not be translated")
	assert.NoDirExists(t, filepath.Join(dest, "vendor"), "ignored directories should not be mirrored")
}

func TestTreeRerunIsIdempotent(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	writeTree(t, source, map[string]string{
		"com/example/App.java": "class App {}",
	})

	cfg := testConfig(source, dest)
	op, _ := newTestOp(t, cfg, &stubTranslator{})
	_, err := op.Execute(context.Background())
	require.NoError(t, err, "first run should succeed")

	op2, _ := newTestOp(t, cfg, &stubTranslator{})
	summary, err := op2.Execute(context.Background())
	require.NoError(t, err, "rerun against an existing destination tree should succeed")
	assert.Equal(t, 1, summary.Succeeded, "rerun should convert again")
}

func TestTreeBoundedConcurrency(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	writeTree(t, source, map[string]string{
		"A.java": "a", "B.java": "b", "C.java": "c", "D.java": "d",
	})

	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0
	tr := &stubTranslator{fn: func(content string) (string, error) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()
		defer func() {
			mu.Lock()
			inFlight--
			mu.Unlock()
		}()
		return "ok", nil
	}}

	cfg := testConfig(source, dest)
	cfg.Concurrency = 1
	op, _ := newTestOp(t, cfg, tr)
	summary, err := op.Execute(context.Background())
	require.NoError(t, err, "run should succeed")

	assert.Equal(t, 4, summary.Succeeded, "all files should convert")
	assert.Equal(t, 1, maxInFlight, "concurrency limit should be respected")
}

func TestSingleFileMode(t *testing.T) {
	sourceDir := t.TempDir()
	dest := t.TempDir()
	sourceFile := filepath.Join(sourceDir, "Foo.java")
	require.NoError(t, os.WriteFile(sourceFile, []byte("class Foo {}"), 0644), "writing fixture")

	op, reporter := newTestOp(t, testConfig(sourceFile, dest), &stubTranslator{})
	summary, err := op.Execute(context.Background())
	require.NoError(t, err, "single-file run should succeed")

	assert.Equal(t, &Summary{Total: 1, Succeeded: 1}, summary, "summary should reflect one success")

	data, err := os.ReadFile(filepath.Join(dest, "Foo.php"))
	require.NoError(t, err, "Foo.php should exist directly under the destination")
	assert.Equal(t, "<?php // class Foo {}", string(data), "content should be the translator output")

	assert.Empty(t, reporter.failures, "no failures expected")
}

func TestSingleFileFailureFailsRun(t *testing.T) {
	sourceDir := t.TempDir()
	dest := t.TempDir()
	sourceFile := filepath.Join(sourceDir, "Foo.java")
	require.NoError(t, os.WriteFile(sourceFile, []byte("class Foo {}"), 0644), "writing fixture")

	tr := &stubTranslator{fn: func(string) (string, error) {
		return "", errors.New("endpoint down")
	}}

	op, _ := newTestOp(t, testConfig(sourceFile, dest), tr)
	summary, err := op.Execute(context.Background())
	require.Error(t, err, "single-file mode fails the run on failure")
	assert.Contains(t, err.Error(), "Foo.php", "error should name the destination")
	assert.Equal(t, 1, summary.Failed, "summary should reflect the failure")
}

func TestDestinationValidationFailsFast(t *testing.T) {
	source := t.TempDir()
	writeTree(t, source, map[string]string{"Main.java": "class Main {}"})

	translateCalled := false
	tr := &stubTranslator{fn: func(content string) (string, error) {
		translateCalled = true
		return "ok", nil
	}}

	cfg := testConfig(source, filepath.Join(t.TempDir(), "does-not-exist"))
	op, _ := newTestOp(t, cfg, tr)
	_, err := op.Execute(context.Background())

	require.Error(t, err, "missing destination should fail the run")
	assert.ErrorIs(t, err, config.ErrDestinationNotDir, "failure should be the config kind")
	assert.False(t, translateCalled, "no file should be read or translated")
}

func TestEmptyCandidateResultIsFailureOutcome(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	writeTree(t, source, map[string]string{"Main.java": "class Main {}"})

	tr := &stubTranslator{fn: func(string) (string, error) {
		return "", translator.ErrNoChoices
	}}

	op, reporter := newTestOp(t, testConfig(source, dest), tr)
	summary, err := op.Execute(context.Background())
	require.NoError(t, err, "empty candidates are a per-file failure, not a fatal error")

	assert.Equal(t, 1, summary.Failed, "empty result should be a failure outcome")
	assert.NoFileExists(t, filepath.Join(dest, "Main.php"), "no empty file should be written")
	require.Len(t, reporter.failures, 1, "the failure should reach the reporter")
	assert.Contains(t, reporter.failures[0], "no translation candidates", "message should say no result came back")
}

func TestMissingSourceIsFatal(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "missing"), t.TempDir())
	op, _ := newTestOp(t, cfg, &stubTranslator{})
	_, err := op.Execute(context.Background())
	require.Error(t, err, "a missing source should abort before any conversion")
	assert.Contains(t, err.Error(), "reading source", "error should name the discovery stage")
}

func TestNewConvertOperationValidation(t *testing.T) {
	_, err := NewConvertOperation(Options{})
	assert.Error(t, err, "config is required")

	_, err = NewConvertOperation(Options{Config: config.Default()})
	assert.Error(t, err, "translator is required")

	_, err = NewConvertOperation(Options{Config: config.Default(), Translator: &stubTranslator{}})
	assert.Error(t, err, "reporter is required")
}
