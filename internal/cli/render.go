package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/UserUpload/internal/core"
	"github.com/JonMunkholm/UserUpload/internal/database"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette - keeping it minimal and accessible.
var (
	colorSuccess = lipgloss.Color("34")  // Green
	colorError   = lipgloss.Color("196") // Red
	colorWarning = lipgloss.Color("214") // Orange
	colorMuted   = lipgloss.Color("240") // Dark gray
)

var (
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(colorSuccess)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	labelStyle   = lipgloss.NewStyle().Foreground(colorMuted).Width(10)
)

// isInteractive reports whether a human is at the terminal.
//
// Returns false if:
//   - stdin or stdout is not a terminal (piped, CI/CD)
//   - CI is set (common CI/CD convention)
//   - NO_COLOR is set (accessibility/automation indicator)
func isInteractive() bool {
	if os.Getenv("CI") != "" || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// renderResult writes a human-readable summary of one ingestion.
func renderResult(w io.Writer, res core.IngestResult) {
	name := filepath.Base(res.SourcePath)

	var b strings.Builder
	if res.OK() {
		b.WriteString(successStyle.Render(fmt.Sprintf("✓ Inserted %d rows from %s", res.RowCount, name)))
		b.WriteString("\n")
	} else {
		b.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %s", name, outcomeLabel(res.Outcome))))
		b.WriteString("\n")

		msg := core.MapError(res.Err)
		row(&b, "Problem", fmt.Sprintf("%s (%s)", msg.Message, msg.Code))
		if msg.Action != "" {
			row(&b, "Action", msg.Action)
		}
		row(&b, "Kind", core.KindOf(res.Err).String())
		row(&b, "Detail", warningStyle.Render(res.Reason))
		if res.FailedFrom != "" {
			row(&b, "Stage", string(res.FailedFrom))
		}
	}

	if res.ArchivedPath != "" {
		row(&b, "Archived", res.ArchivedPath)
	}
	row(&b, "ID", mutedStyle.Render(res.ID))
	row(&b, "Took", mutedStyle.Render(res.Duration.Round(time.Millisecond).String()))

	fmt.Fprint(w, b.String())
}

func row(b *strings.Builder, label, value string) {
	b.WriteString("  ")
	b.WriteString(labelStyle.Render(label))
	b.WriteString(value)
	b.WriteString("\n")
}

func outcomeLabel(o core.Outcome) string {
	switch o {
	case core.OutcomeRejectedFile:
		return "file rejected"
	case core.OutcomeValidationFailed:
		return "validation failed"
	case core.OutcomeStoreFailed:
		return "database write failed"
	}
	return string(o)
}

// renderPoolStatus writes a one-line pool summary.
func renderPoolStatus(w io.Writer, s database.PoolStatus) {
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("pool %s: %d/%d active, peak %d", s.Name, s.Active, s.MaxSize, s.Peak)))
}
