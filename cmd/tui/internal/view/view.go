package view

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

// View is the interface that all TUI screens implement.
type View interface {
	tea.Model
	Title() string
	ShortHelp() string
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// OpenMatchesMsg asks the root model to show the matches of a run.
type OpenMatchesMsg struct {
	RunID uuid.UUID
	Name  string
}

// OpenImportMsg asks the root model to import an invoice file into a run.
type OpenImportMsg struct {
	RunID uuid.UUID
	Name  string
}
