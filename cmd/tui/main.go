package main

import (
	"context"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/boqrecon/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/boqrecon/internal/config"
	"github.com/MrJamesThe3rd/boqrecon/internal/database"
	"github.com/MrJamesThe3rd/boqrecon/internal/export"
	"github.com/MrJamesThe3rd/boqrecon/internal/importer"
	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation"
	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation/store"
)

type model struct {
	svc           *reconciliation.Service
	importService *importer.Service
	exporter      *export.Service
	userID        string

	currentView View

	runsView    view.RunsModel
	matchesView view.MatchesModel
	importView  view.ImportModel
}

type View int

const (
	ViewMenu    View = 0
	ViewRuns    View = 1
	ViewMatches View = 2
	ViewImport  View = 3
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(context.Background(), cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	svc := reconciliation.NewService(store.New(db))

	return model{
		svc:           svc,
		importService: importer.NewService(),
		exporter:      export.NewService(svc),
		userID:        cfg.TUI.UserID,
		currentView:   ViewMenu,
		runsView:      view.NewRunsModel(svc, cfg.TUI.UserID),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewRuns
				m.runsView = view.NewRunsModel(m.svc, m.userID)

				return m, m.runsView.Init()
			}
		}
	case view.OpenMatchesMsg:
		m.currentView = ViewMatches
		m.matchesView = view.NewMatchesModel(m.svc, m.exporter, msg.RunID, msg.Name)

		return m, m.matchesView.Init()
	case view.OpenImportMsg:
		m.currentView = ViewImport
		m.importView = view.NewImportModel(m.svc, m.importService, msg.RunID, msg.Name)

		return m, m.importView.Init()
	case view.BackMsg:
		// Run-scoped screens return to the runs list.
		if m.currentView == ViewMatches || m.currentView == ViewImport {
			m.currentView = ViewRuns
			return m, m.runsView.Init()
		}

		m.currentView = ViewMenu

		return m, nil
	}

	switch m.currentView {
	case ViewRuns:
		var newModel tea.Model
		newModel, cmd = m.runsView.Update(msg)
		m.runsView = newModel.(view.RunsModel)
	case ViewMatches:
		var newModel tea.Model
		newModel, cmd = m.matchesView.Update(msg)
		m.matchesView = newModel.(view.MatchesModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"BOQ Reconciliation\n\n" +
				"1. Reconciliation Runs\n\n" +
				"q. Quit",
		)
	case ViewRuns:
		return m.runsView.View()
	case ViewMatches:
		return m.matchesView.View()
	case ViewImport:
		return m.importView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
