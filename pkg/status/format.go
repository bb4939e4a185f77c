package status

import (
	"fmt"

	"github.com/fatih/color"
)

// Formatter renders user-facing status lines.
type Formatter struct{}

// NewFormatter creates a new Formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// FormatFailure renders a one-line failure message identifying the file and
// cause.
func (f *Formatter) FormatFailure(err error) string {
	return fmt.Sprintf("%s %v", color.New(color.FgRed).Sprint("✗"), err)
}

// FormatSummary renders the final state of a run.
func (f *Formatter) FormatSummary(completed, failed, total int) string {
	if failed > 0 {
		return fmt.Sprintf("%s converted %d/%d files (%d failed)",
			color.New(color.FgYellow).Sprint("⚠"), completed-failed, total, failed)
	}
	return fmt.Sprintf("%s converted %d/%d files",
		color.New(color.FgGreen).Sprint("✓"), completed, total)
}
