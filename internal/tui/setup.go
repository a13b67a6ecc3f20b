package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

type setupModel struct {
	models []OllamaModel
	cursor int
	loaded bool
	err    error
}

// fetchModelsMsg is sent when models have been fetched from Ollama.
type fetchModelsMsg struct {
	models []OllamaModel
	err    error
}

func fetchModels(baseURL string) tea.Cmd {
	return func() tea.Msg {
		models, err := ListModels(context.Background(), baseURL)
		return fetchModelsMsg{models: models, err: err}
	}
}

func (m setupModel) Update(msg tea.Msg, cfg Config) (setupModel, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchModelsMsg:
		m.loaded = true
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.models = embeddingModels(msg.models)
		for i, model := range m.models {
			if model.Name == cfg.Model || model.Name == cfg.Model+":latest" {
				m.cursor = i
				break
			}
		}

	case tea.KeyMsg:
		if !m.loaded || m.err != nil {
			return m, nil
		}
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.models)-1 {
				m.cursor++
			}
		}
	}
	return m, nil
}

// canConfirm reports whether Enter should start indexing.
func (m setupModel) canConfirm() bool {
	return m.loaded && m.err == nil && len(m.models) > 0
}

func (m setupModel) selected() string {
	if m.cursor < len(m.models) {
		return m.models[m.cursor].Name
	}
	return ""
}

func (m setupModel) View(width, height int) string {
	s := "\n"
	s += titleStyle.Render("  Select Embedding Model") + "\n"

	if !m.loaded {
		s += "\n" + dimStyle.Render("  Fetching models from Ollama...") + "\n"
		return s
	}

	if m.err != nil {
		s += "\n" + errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
		s += dimStyle.Render("  Make sure Ollama is running and try again.") + "\n"
		s += dimStyle.Render("  Press q to quit.") + "\n"
		return s
	}

	if len(m.models) == 0 {
		s += "\n" + warnStyle.Render("  No models found in Ollama.") + "\n"
		s += dimStyle.Render("  Pull a model first: ollama pull nomic-embed-text") + "\n"
		return s
	}

	s += dimStyle.Render("  Used to generate vector embeddings for code chunks") + "\n\n"
	for i, model := range m.models {
		cursor := "  "
		style := listItemStyle
		if i == m.cursor {
			cursor = "▸ "
			style = selectedStyle
		}
		s += fmt.Sprintf("  %s%s\n", cursor, style.Render(fmt.Sprintf("%s (%s)", model.Name, formatSize(model.Size))))
	}
	s += "\n"
	s += helpStyle.Render("  ↑/↓ navigate • Enter index") + "\n"
	return s
}
