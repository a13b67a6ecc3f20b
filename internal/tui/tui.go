// Package tui is the interactive terminal front end: it checks the index,
// builds it with live progress, and runs searches.
package tui

import (
	"context"
	"io"
	"log/slog"

	"codescope/internal/chunker"
	"codescope/internal/index"
	"codescope/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

// ViewState represents which screen is active.
type ViewState int

const (
	ViewWelcome ViewState = iota
	ViewSetup
	ViewIndexing
	ViewSearch
)

// programRef is an indirect pointer to the tea.Program so background goroutines
// can send messages. It must be set after tea.NewProgram returns but before Run.
type programRef struct {
	p *tea.Program
}

// Config holds configuration passed from the CLI layer.
type Config struct {
	Root   string
	DBPath string
	// Model is the embedding model; the setup screen may change it.
	Model string
	// OllamaURL enables the embedding model picker when set.
	OllamaURL string
	Results   int
	Registry  *chunker.Registry
	Indexer   index.Config
	// OpenStore opens the index database with an embedder for model.
	OpenStore func(ctx context.Context, model string) (*store.SQLiteStore, error)

	// program is set internally so background goroutines can send messages.
	program *programRef
}

// Model is the top-level Bubble Tea model.
type Model struct {
	state  ViewState
	config Config
	width  int
	height int

	welcome  welcomeModel
	setup    setupModel
	indexing indexingModel
	search   searchModel
	err      error
}

// New creates a new TUI model with the given config.
func New(cfg Config) Model {
	return Model{
		state:  ViewWelcome,
		config: cfg,
	}
}

func (m Model) Init() tea.Cmd {
	return checkIndex(m.config)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.state == ViewSearch {
			var c tea.Cmd
			m.search, c = m.search.Update(msg)
			return m, c
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.state != ViewSearch {
				return m, tea.Quit
			}
		}

	case reindexMsg:
		m.search.Close()
		m.search = searchModel{}
		return m, m.startIndexing()
	}

	var cmd tea.Cmd

	switch m.state {
	case ViewWelcome:
		m.welcome, cmd = m.welcome.Update(msg)
		if cmd != nil {
			return m, cmd
		}
		keyMsg, ok := msg.(tea.KeyMsg)
		if !ok || !m.welcome.ready {
			return m, nil
		}
		switch {
		case keyMsg.Type == tea.KeyEnter && m.welcome.status == indexReady:
			return m, m.transitionToSearch()
		case keyMsg.Type == tea.KeyEnter || keyMsg.String() == "i":
			if m.config.OllamaURL != "" {
				m.state = ViewSetup
				m.setup = setupModel{}
				return m, fetchModels(m.config.OllamaURL)
			}
			return m, m.startIndexing()
		}

	case ViewSetup:
		m.setup, cmd = m.setup.Update(msg, m.config)
		if cmd != nil {
			return m, cmd
		}
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter && m.setup.canConfirm() {
			if sel := m.setup.selected(); sel != "" {
				m.config.Model = sel
			}
			return m, m.startIndexing()
		}

	case ViewIndexing:
		m.indexing, cmd = m.indexing.Update(msg)
		if cmd != nil {
			return m, cmd
		}
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter && m.indexing.searchable() {
			return m, m.transitionToSearch()
		}

	case ViewSearch:
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) startIndexing() tea.Cmd {
	m.state = ViewIndexing
	m.indexing = newIndexingModel()
	return tea.Batch(m.indexing.spinner.Tick, runIndex(m.config))
}

func (m *Model) transitionToSearch() tea.Cmd {
	st, err := m.config.OpenStore(context.Background(), m.config.Model)
	if err != nil {
		m.err = err
		return nil
	}

	searcher := index.NewSearcher(index.New(st, index.WithRetry(m.config.Indexer.Retry)))
	m.search = newSearchModel(st, searcher, m.config.Results)
	m.search.initViewport(m.width, m.height)
	m.state = ViewSearch

	return nil
}

func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}

	switch m.state {
	case ViewWelcome:
		return m.welcome.View(m.width, m.height)
	case ViewSetup:
		return m.setup.View(m.width, m.height)
	case ViewIndexing:
		return m.indexing.View(m.width, m.height)
	case ViewSearch:
		return m.search.View(m.width, m.height)
	}
	return ""
}

// Run starts the TUI program. Logging is silenced while it runs because
// the alternate screen owns the terminal.
func Run(cfg Config) error {
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer slog.SetDefault(prev)

	ref := &programRef{}
	cfg.program = ref
	p := tea.NewProgram(New(cfg), tea.WithAltScreen())
	ref.p = p
	final, err := p.Run()
	if m, ok := final.(Model); ok {
		m.search.Close()
	}
	return err
}
