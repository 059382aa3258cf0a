package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/JonMunkholm/UserUpload/internal/core"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

type progressMsg struct {
	done, total int
}

type finishedMsg struct {
	result core.IngestResult
}

// ingestModel shows a progress bar while rows are written.
// ctrl+c cancels the ingestion; the model keeps running until the
// rollback finishes and the result arrives.
type ingestModel struct {
	file       string
	bar        progress.Model
	done       int
	total      int
	cancel     context.CancelFunc
	cancelling bool
	finished   bool
}

func newIngestModel(file string, cancel context.CancelFunc) ingestModel {
	return ingestModel{
		file:   filepath.Base(file),
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		cancel: cancel,
	}
}

func (m ingestModel) Init() tea.Cmd {
	return nil
}

func (m ingestModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC && !m.cancelling {
			m.cancelling = true
			m.cancel()
		}
		return m, nil

	case progressMsg:
		m.done, m.total = msg.done, msg.total
		return m, nil

	case finishedMsg:
		m.finished = true
		return m, tea.Quit
	}
	return m, nil
}

func (m ingestModel) View() string {
	if m.finished {
		return ""
	}
	if m.total == 0 {
		return mutedStyle.Render(fmt.Sprintf("Ingesting %s...", m.file)) + "\n"
	}

	status := fmt.Sprintf("%d/%d rows", m.done, m.total)
	if m.cancelling {
		status = warningStyle.Render("cancelling, rolling back...")
	}
	return fmt.Sprintf("Ingesting %s\n%s %s\n", m.file, m.bar.ViewAs(float64(m.done)/float64(m.total)), status)
}

// runWithProgress runs ingest while a bubbletea program renders its progress
// on out. ingest receives the progress callback to hand to the ingestor.
func runWithProgress(parent context.Context, out io.Writer, file string,
	ingest func(ctx context.Context, progress core.ProgressFunc) core.IngestResult) core.IngestResult {

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	p := tea.NewProgram(newIngestModel(file, cancel), tea.WithOutput(out), tea.WithContext(parent))

	results := make(chan core.IngestResult, 1)
	go func() {
		res := ingest(ctx, func(done, total int) {
			p.Send(progressMsg{done: done, total: total})
		})
		results <- res
		p.Send(finishedMsg{result: res})
	}()

	if _, err := p.Run(); err != nil {
		// The ingestion continues without a display; wait for it.
		slog.Debug("progress display stopped", "error", err)
	}
	return <-results
}
