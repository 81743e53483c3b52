package view

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation"
)

const matchTimeout = 5 * time.Minute

type runsState int

const (
	runsStateBrowse runsState = iota
	runsStateConfirmDelete
	runsStateMatchOptions
)

type RunsModel struct {
	svc    *reconciliation.Service
	userID string

	state runsState
	table table.Model
	runs  []*reconciliation.Run
	form  *huh.Form

	loading bool
	err     error
	status  string
}

func NewRunsModel(svc *reconciliation.Service, userID string) RunsModel {
	columns := []table.Column{
		{Title: "Created", Width: 12},
		{Title: "Name", Width: 30},
		{Title: "Status", Width: 11},
		{Title: "Items", Width: 6},
		{Title: "Matched", Width: 8},
		{Title: "Unmatched", Width: 10},
		{Title: "Qty Var", Width: 12},
		{Title: "Carbon Var kg", Width: 14},
		{Title: "Cost Var", Width: 12},
	}

	return RunsModel{
		svc:     svc,
		userID:  userID,
		table:   newTable(columns),
		loading: true,
	}
}

func (m RunsModel) Title() string { return "Reconciliation Runs" }

func (m RunsModel) ShortHelp() string {
	if m.state != runsStateBrowse {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | Enter: matches | m: run matching | i: import invoice | d: delete | r: refresh"
}

func (m RunsModel) Init() tea.Cmd {
	return m.loadRunsCmd()
}

func (m RunsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadRunsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.runs = msg.runs
		m.refreshTable()

		return m, nil

	case runActionMsg:
		m.status = msg.status
		if msg.err != nil {
			m.status = errorf("Error: %v", msg.err)
		}

		return m, m.loadRunsCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case runsStateConfirmDelete, runsStateMatchOptions:
		return m.updateForm(msg)
	}

	return m.updateBrowse(msg)
}

func (m RunsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadRunsCmd()
		case "enter":
			if run := m.selected(); run != nil {
				return m, func() tea.Msg { return OpenMatchesMsg{RunID: run.ID, Name: run.Name} }
			}

			return m, nil
		case "i":
			if run := m.selected(); run != nil {
				return m, func() tea.Msg { return OpenImportMsg{RunID: run.ID, Name: run.Name} }
			}

			return m, nil
		case "m":
			return m.openForm(runsStateMatchOptions)
		case "d":
			return m.openForm(runsStateConfirmDelete)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m RunsModel) openForm(state runsState) (tea.Model, tea.Cmd) {
	run := m.selected()
	if run == nil {
		return m, nil
	}

	switch state {
	case runsStateConfirmDelete:
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Key("confirm").
					Title(fmt.Sprintf("Delete %q?", run.Name)).
					Description("Estimate snapshots, invoice items and matches are removed too.").
					Affirmative("Delete").
					Negative("Cancel"),
			),
		).WithWidth(50).WithShowHelp(false)
	case runsStateMatchOptions:
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Key("confirm").
					Title(fmt.Sprintf("Run matching for %q", run.Name)).
					Description("Keep manual overrides from the previous pass?").
					Affirmative("Keep").
					Negative("Discard").
					Value(new(true)),
			),
		).WithWidth(50).WithShowHelp(false)
	}

	m.state = state
	m.table.Blur()

	return m, m.form.Init()
}

func (m RunsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m.closeForm(), nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	run := m.selected()
	state := m.state
	confirmed := m.form.GetBool("confirm")
	m = m.closeForm()

	if run == nil {
		return m, nil
	}

	switch state {
	case runsStateConfirmDelete:
		if !confirmed {
			return m, nil
		}

		return m, m.deleteCmd(run)
	case runsStateMatchOptions:
		m.status = fmt.Sprintf("Matching %s...", run.Name)
		return m, m.matchCmd(run, confirmed)
	}

	return m, nil
}

func (m RunsModel) closeForm() RunsModel {
	m.state = runsStateBrowse
	m.form = nil
	m.table.Focus()

	return m
}

func (m RunsModel) selected() *reconciliation.Run {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.runs) {
		return nil
	}

	return m.runs[idx]
}

func (m RunsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading runs...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render("Runs for "+activeStyle(m.userID)),
		tableView,
	)

	if m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(54).
			Render(m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *RunsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.runs))
	for _, r := range m.runs {
		rows = append(rows, table.Row{
			FormatDate(r.CreatedAt),
			r.Name,
			string(r.Status),
			strconv.Itoa(r.TotalInvoiceItems),
			strconv.Itoa(r.MatchedItems),
			strconv.Itoa(r.UnmatchedItems),
			FormatDecimal(r.TotalVarianceQuantity),
			FormatDecimal(r.TotalVarianceCarbonKg),
			FormatCents(r.TotalVarianceCostCents),
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadRunsMsg struct {
	runs []*reconciliation.Run
	err  error
}

type runActionMsg struct {
	status string
	err    error
}

func (m RunsModel) loadRunsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		runs, err := m.svc.ListRuns(ctx, m.userID)

		return loadRunsMsg{runs: runs, err: err}
	}
}

func (m RunsModel) deleteCmd(run *reconciliation.Run) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if err := m.svc.DeleteRun(ctx, run.ID); err != nil {
			return runActionMsg{err: err}
		}

		return runActionMsg{status: fmt.Sprintf("Deleted %s.", run.Name)}
	}
}

func (m RunsModel) matchCmd(run *reconciliation.Run, preserve bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), matchTimeout)
		defer cancel()

		summary, err := m.svc.RunMatching(ctx, run.ID, reconciliation.RunOptions{PreserveOverrides: preserve})
		if err != nil {
			return runActionMsg{err: err}
		}

		return runActionMsg{status: fmt.Sprintf("%s: %d matched, %d unmatched.", run.Name, summary.MatchedCount, summary.UnmatchedCount)}
	}
}
