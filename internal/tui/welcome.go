package tui

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

type indexStatus int

const (
	indexNotFound indexStatus = iota
	indexReady
	indexStale
)

type welcomeModel struct {
	status      indexStatus
	staleReason string
	chunks      int
	ready       bool // true once the check has completed
	err         error
}

// checkIndexMsg is sent after checking the index status.
type checkIndexMsg struct {
	status      indexStatus
	staleReason string
	chunks      int
	err         error
}

func checkIndex(cfg Config) tea.Cmd {
	return func() tea.Msg {
		if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
			return checkIndexMsg{status: indexNotFound}
		}

		ctx := context.Background()
		st, err := cfg.OpenStore(ctx, cfg.Model)
		if err != nil {
			return checkIndexMsg{status: indexNotFound, err: err}
		}
		defer st.Close()

		lastModel, err := st.EmbeddingModel(ctx)
		if err != nil || lastModel == "" {
			return checkIndexMsg{status: indexNotFound, err: err}
		}
		n, err := st.Count(ctx)
		if err != nil {
			return checkIndexMsg{status: indexNotFound, err: err}
		}

		if lastModel != cfg.Model {
			return checkIndexMsg{
				status:      indexStale,
				staleReason: fmt.Sprintf("model changed: %s → %s", lastModel, cfg.Model),
				chunks:      n,
			}
		}
		if n == 0 {
			return checkIndexMsg{status: indexNotFound}
		}

		return checkIndexMsg{status: indexReady, chunks: n}
	}
}

func (m welcomeModel) Update(msg tea.Msg) (welcomeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case checkIndexMsg:
		m.status = msg.status
		m.staleReason = msg.staleReason
		m.chunks = msg.chunks
		m.err = msg.err
		m.ready = true
	}
	return m, nil
}

func (m welcomeModel) View(width, height int) string {
	s := "\n"
	s += titleStyle.Render("  ◆ codescope") + "\n"
	s += subtitleStyle.Render("  Semantic search over your functions, classes and types") + "\n\n"

	if !m.ready {
		s += dimStyle.Render("  Checking index...") + "\n"
		return s
	}

	switch m.status {
	case indexReady:
		s += successStyle.Render(fmt.Sprintf("  ✓ Index ready (%d chunks)", m.chunks)) + "\n"
	case indexNotFound:
		s += warnStyle.Render("  ✗ No index found") + "\n"
		if m.err != nil {
			s += dimStyle.Render("    "+m.err.Error()) + "\n"
		}
	case indexStale:
		s += warnStyle.Render("  ⚠ Index stale") + "\n"
		s += dimStyle.Render("    "+m.staleReason) + "\n"
	}

	s += "\n"
	if m.status == indexReady {
		s += dimStyle.Render("  Press Enter to search, or i to re-index") + "\n"
	} else {
		s += dimStyle.Render("  Press Enter to index this project") + "\n"
	}
	return s
}
