package tui

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"codescope/internal/index"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type indexingModel struct {
	spinner        spinner.Model
	phase          string
	filesProcessed int
	filesTotal     int
	done           bool
	stats          *index.Stats
	err            error
}

func newIndexingModel() indexingModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle
	return indexingModel{
		spinner: sp,
		phase:   "Discovering files...",
	}
}

// indexDoneMsg is sent when indexing completes.
type indexDoneMsg struct {
	stats *index.Stats
	err   error
}

// indexProgressMsg is sent periodically during indexing.
type indexProgressMsg struct {
	phase          string
	filesProcessed int
	filesTotal     int
}

func runIndex(cfg Config) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		st, err := cfg.OpenStore(ctx, cfg.Model)
		if err != nil {
			return indexDoneMsg{err: err}
		}
		defer st.Close()

		ixCfg := cfg.Indexer
		ixCfg.Model = cfg.Model
		ixCfg.OnProgress = func(phase string, processed, total int) {
			if cfg.program != nil && cfg.program.p != nil {
				cfg.program.p.Send(indexProgressMsg{
					phase:          phase,
					filesProcessed: processed,
					filesTotal:     total,
				})
			}
		}

		stats, _, err := index.NewIndexer(st, cfg.Registry, ixCfg).Run(ctx, cfg.Root)
		return indexDoneMsg{stats: stats, err: err}
	}
}

func (m indexingModel) Update(msg tea.Msg) (indexingModel, tea.Cmd) {
	switch msg := msg.(type) {
	case indexDoneMsg:
		m.done = true
		m.stats = msg.stats
		m.err = msg.err
		return m, nil
	case indexProgressMsg:
		if m.done {
			return m, nil
		}
		m.phase = msg.phase
		m.filesProcessed = msg.filesProcessed
		m.filesTotal = msg.filesTotal
		return m, nil
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m indexingModel) View(width, height int) string {
	s := "\n"
	s += titleStyle.Render("  Indexing") + "\n\n"

	if m.done {
		if m.err != nil {
			s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
			s += dimStyle.Render("  Press q to quit.") + "\n"
			return s
		}
		s += successStyle.Render("  ✓ Indexing complete!") + "\n\n"
		if m.stats != nil {
			s += fmt.Sprintf("  Files: %d total, %d indexed, %d skipped\n",
				m.stats.FilesTotal, m.stats.FilesIndexed, m.stats.FilesSkipped)
			s += fmt.Sprintf("  Chunks: %d\n", m.stats.ChunksTotal)
			for _, lang := range slices.Sorted(maps.Keys(m.stats.ByLanguage)) {
				s += dimStyle.Render(fmt.Sprintf("    %-12s %d", lang, m.stats.ByLanguage[lang])) + "\n"
			}
		}
		s += "\n"
		if m.stats != nil && m.stats.ChunksTotal == 0 {
			s += warnStyle.Render("  No chunks found. Press q to quit.") + "\n"
		} else {
			s += dimStyle.Render("  Press Enter to start searching") + "\n"
		}
		return s
	}

	s += fmt.Sprintf("  %s %s\n", m.spinner.View(), m.phase)
	if m.filesTotal > 0 {
		s += fmt.Sprintf("  %d / %d\n", m.filesProcessed, m.filesTotal)
	}
	s += "\n"
	s += dimStyle.Render("  This may take a while for large codebases...") + "\n"
	return s
}

// searchable reports whether Enter should open the search screen.
func (m indexingModel) searchable() bool {
	return m.done && m.err == nil && m.stats != nil && m.stats.ChunksTotal > 0
}
