// Package operation drives the conversion run: single-file or tree mode,
// one concurrent task per discovered file.
package operation

import (
	"github.com/walteh/convertrc/pkg/config"
	"github.com/walteh/convertrc/pkg/status"
	"github.com/walteh/convertrc/pkg/translator"
	"gitlab.com/tozd/go/errors"
)

// 📊 Summary aggregates per-file outcomes of one run. Per-file failures do
// not abort the run; they only show up here and in the reporter.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
}

// 🔧 Options contains the collaborators of a conversion run.
type Options struct {
	// Config is the run configuration
	Config *config.Config
	// Translator performs the per-file remote translation
	Translator translator.Translator
	// Reporter receives progress updates and failure lines
	Reporter status.Reporter
}

// 🏭 NewConvertOperation creates a conversion run from the given options.
func NewConvertOperation(opts Options) (*ConvertOperation, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Translator == nil {
		return nil, errors.New("translator is required")
	}
	if opts.Reporter == nil {
		return nil, errors.New("reporter is required")
	}
	return &ConvertOperation{
		cfg:        opts.Config,
		translator: opts.Translator,
		reporter:   opts.Reporter,
	}, nil
}

// 🎮 ConvertOperation converts one source file or a whole source tree.
type ConvertOperation struct {
	cfg        *config.Config
	translator translator.Translator
	reporter   status.Reporter
}
