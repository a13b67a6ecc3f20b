package tui

import (
	"context"
	"fmt"
	"strings"

	"codescope/internal/index"
	"codescope/internal/store"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const searchHelp = "Commands:\n  /reindex - rebuild the index\n  /clear   - clear results\n  /exit    - quit\n  /help    - show this help"

type searchModel struct {
	viewport    viewport.Model
	input       textinput.Model
	spinner     spinner.Model
	renderer    *glamour.TermRenderer
	st          *store.SQLiteStore
	searcher    *index.Searcher
	k           int
	searching   bool
	query       string
	hits        []index.Hit
	notice      string
	err         error
	width       int
	height      int
	initialized bool
}

// searchResultMsg is sent when a query completes.
type searchResultMsg struct {
	query string
	hits  []index.Hit
	err   error
}

// reindexMsg asks the top-level model to rebuild the index.
type reindexMsg struct{}

func newSearchModel(st *store.SQLiteStore, searcher *index.Searcher, k int) searchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle

	ti := textinput.New()
	ti.Placeholder = "Describe the code you are looking for..."
	ti.CharLimit = 2000
	ti.Focus()

	return searchModel{
		spinner:  sp,
		input:    ti,
		st:       st,
		searcher: searcher,
		k:        k,
		notice:   "Search your codebase in plain language.\n\n" + searchHelp,
	}
}

func (m *searchModel) initViewport(width, height int) {
	m.width = width
	m.height = height

	// Layout: viewport + status bar (1 line) + input (1 line) + gap (1 line).
	vpHeight := max(height-3, 5)
	m.viewport = viewport.New(width, vpHeight)

	m.input.Width = width - 4

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(width-2, 20)),
	)
	if err == nil {
		m.renderer = r
	}

	m.initialized = true
	m.refresh()
}

func runSearch(searcher *index.Searcher, query string, k int) tea.Cmd {
	return func() tea.Msg {
		hits, err := searcher.Search(context.Background(), query, k, "")
		return searchResultMsg{query: query, hits: hits, err: err}
	}
}

func (m searchModel) Update(msg tea.Msg) (searchModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.initViewport(msg.Width, msg.Height)
		return m, nil

	case searchResultMsg:
		m.searching = false
		m.query = msg.query
		m.hits = msg.hits
		m.err = msg.err
		m.notice = ""
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if m.searching {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			m.refresh()
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m, nil
		}
		if msg.Type == tea.KeyEnter {
			query := strings.TrimSpace(m.input.Value())
			if query == "" {
				return m, nil
			}
			m.input.Reset()

			switch query {
			case "/exit", "/quit":
				return m, tea.Quit
			case "/reindex":
				return m, func() tea.Msg { return reindexMsg{} }
			case "/clear":
				m.query, m.hits, m.err, m.notice = "", nil, nil, "Results cleared."
				m.refresh()
				return m, nil
			case "/help":
				m.notice = searchHelp
				m.refresh()
				return m, nil
			}

			m.searching = true
			m.query = query
			m.refresh()
			return m, tea.Batch(m.spinner.Tick, runSearch(m.searcher, query, m.k))
		}
	}

	if !m.searching {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *searchModel) refresh() {
	if !m.initialized {
		return
	}
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

func (m searchModel) renderMarkdown(content string) string {
	if m.renderer == nil {
		return resultStyle.Render(content)
	}
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return resultStyle.Render(content)
	}
	return strings.TrimRight(rendered, "\n")
}

func (m searchModel) renderContent() string {
	switch {
	case m.searching:
		return m.spinner.View() + " " + dimStyle.Render(fmt.Sprintf("Searching for %q...", m.query))
	case m.err != nil:
		return errorStyle.Render("Error: " + m.err.Error())
	case m.notice != "":
		return dimStyle.Render(m.notice)
	default:
		return m.renderMarkdown(index.Markdown(m.query, m.hits))
	}
}

func (m searchModel) View(width, height int) string {
	if !m.initialized {
		return ""
	}

	status := "ready"
	if m.searching {
		status = "searching..."
	} else if m.query != "" && m.err == nil {
		status = fmt.Sprintf("%d results", len(m.hits))
	}
	statusBar := statusBarStyle.
		Width(m.width).
		Render(fmt.Sprintf(" codescope • %s", status))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewport.View(),
		statusBar,
		m.input.View(),
	)
}

// Close releases the store.
func (m searchModel) Close() error {
	if m.st == nil {
		return nil
	}
	return m.st.Close()
}
