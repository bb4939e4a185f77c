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

// Package status tracks conversion progress and reports per-file failures
// without interrupting the run.
package status

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 📈 Reporter consumes conversion outcomes. All methods are safe to call
// concurrently from conversion tasks. The total may keep growing after
// increments have started, since discovery and spawning are interleaved.
type Reporter interface {
	// Start begins rendering progress
	Start(ctx context.Context)
	// Add grows the total by delta
	Add(ctx context.Context, delta int)
	// Increment records one completed conversion, success or failure alike
	Increment(ctx context.Context)
	// ReportFailure prints one failure line immediately, out of band from
	// the progress render
	ReportFailure(ctx context.Context, err error)
	// Finish renders the final state
	Finish(ctx context.Context)
}

// 🔧 Manager implements Reporter with a pterm progress bar on out and
// immediate failure lines on errOut.
type Manager struct {
	out       io.Writer
	errOut    io.Writer
	formatter *Formatter

	mu        sync.Mutex
	bar       *pterm.ProgressbarPrinter
	total     int
	completed int
	failed    int
}

// 🏭 NewManager creates a manager writing progress to out and failures to
// errOut.
func NewManager(out, errOut io.Writer) *Manager {
	return &Manager{
		out:       out,
		errOut:    errOut,
		formatter: NewFormatter(),
	}
}

func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.bar != nil {
		return
	}
	bar, err := pterm.DefaultProgressbar.
		WithTotal(m.total).
		WithWriter(m.out).
		WithTitle("converting").
		Start()
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("starting progress bar")
		return
	}
	m.bar = bar
}

func (m *Manager) Add(ctx context.Context, delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total += delta
	if m.bar != nil {
		m.bar.Total = m.total
	}
}

func (m *Manager) Increment(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.completed++
	if m.bar != nil {
		m.bar.Increment()
	}
	zerolog.Ctx(ctx).Debug().
		Int("completed", m.completed).
		Int("total", m.total).
		Msg("conversion completed")
}

func (m *Manager) ReportFailure(ctx context.Context, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failed++
	fmt.Fprintln(m.errOut, m.formatter.FormatFailure(err))
	zerolog.Ctx(ctx).Error().Err(err).Msg("conversion failed")
}

func (m *Manager) Finish(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.bar != nil {
		m.bar.Stop()
		m.bar = nil
	}
	fmt.Fprintln(m.out, m.formatter.FormatSummary(m.completed, m.failed, m.total))
	zerolog.Ctx(ctx).Info().
		Int("completed", m.completed).
		Int("failed", m.failed).
		Int("total", m.total).
		Msg("run finished")
}

// 📊 Counts returns the current progress state.
func (m *Manager) Counts() (total, completed, failed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total, m.completed, m.failed
}
