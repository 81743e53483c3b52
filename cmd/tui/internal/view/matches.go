package view

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/boqrecon/internal/export"
	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation"
)

type MatchesModel struct {
	svc      *reconciliation.Service
	exporter *export.Service
	runID    uuid.UUID
	runName  string

	table     table.Model
	matches   []*reconciliation.Match
	invoices  map[uuid.UUID]*reconciliation.InvoiceItem
	estimates []*reconciliation.EstimateItem
	form      *huh.Form

	loading bool
	err     error
	status  string
}

func NewMatchesModel(svc *reconciliation.Service, exporter *export.Service, runID uuid.UUID, runName string) MatchesModel {
	columns := []table.Column{
		{Title: "Line", Width: 5},
		{Title: "Invoice Item", Width: 32},
		{Title: "Estimate Item", Width: 26},
		{Title: "Type", Width: 9},
		{Title: "Score", Width: 5},
		{Title: "Qty Var", Width: 10},
		{Title: "Var %", Width: 8},
		{Title: "Carbon Var", Width: 11},
		{Title: "Cost Var", Width: 11},
		{Title: "Override", Width: 8},
	}

	return MatchesModel{
		svc:      svc,
		exporter: exporter,
		runID:    runID,
		runName:  runName,
		table:    newTable(columns),
		loading:  true,
	}
}

func (m MatchesModel) Title() string { return "Matches" }

func (m MatchesModel) ShortHelp() string {
	if m.form != nil {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | o: override | x: export CSV | r: refresh"
}

func (m MatchesModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m MatchesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadMatchesMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.matches = msg.matches
		m.estimates = msg.estimates
		m.invoices = make(map[uuid.UUID]*reconciliation.InvoiceItem, len(msg.invoices))

		for _, it := range msg.invoices {
			m.invoices[it.ID] = it
		}

		m.refreshTable()

		return m, nil

	case overrideMsg:
		m.status = "Override saved."
		if msg.err != nil {
			m.status = errorf("Error: %v", msg.err)
		}

		return m, m.loadCmd()

	case exportMsg:
		m.status = fmt.Sprintf("Report written to %s", msg.path)
		if msg.err != nil {
			m.status = errorf("Error: %v", msg.err)
		}

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	if m.form != nil {
		return m.updateForm(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "o":
			return m.openOverride()
		case "x":
			m.status = "Exporting..."
			return m, m.exportCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m MatchesModel) openOverride() (tea.Model, tea.Cmd) {
	match := m.selected()
	if match == nil || len(m.estimates) == 0 {
		return m, nil
	}

	options := make([]huh.Option[string], 0, len(m.estimates))
	for _, est := range m.estimates {
		label := fmt.Sprintf("%s (%s %s)", est.Name, FormatDecimal(est.Quantity), est.Unit)
		options = append(options, huh.NewOption(label, est.ID.String()))
	}

	current := ""
	if match.EstimateItemID != nil {
		current = match.EstimateItemID.String()
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("estimate").
				Title("Estimate item").
				Options(options...).
				Value(&current),

			huh.NewInput().
				Key("reason").
				Title("Reason").
				Placeholder("why this pairing is correct"),
		),
	).WithWidth(50).WithShowHelp(false)

	m.table.Blur()

	return m, m.form.Init()
}

func (m MatchesModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	match := m.selected()
	estimateID, err := uuid.Parse(m.form.GetString("estimate"))
	reason := m.form.GetString("reason")

	m.form = nil
	m.table.Focus()

	if match == nil || err != nil {
		return m, nil
	}

	return m, m.overrideCmd(match.ID, estimateID, reason)
}

func (m MatchesModel) selected() *reconciliation.Match {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.matches) {
		return nil
	}

	return m.matches[idx]
}

func (m MatchesModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading matches...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	header := "Matches for " + activeStyle(m.runName)
	if len(m.matches) == 0 {
		header += " (none yet, run matching from the runs list)"
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.form != nil {
		original := ""
		if match := m.selected(); match != nil {
			if it := m.invoices[match.InvoiceItemID]; it != nil {
				original = it.RawDescription
			}
		}

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(54).
			Render(fmt.Sprintf("Override Match\n\nInvoice: %s\n\n%s", original, m.form.View()))

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *MatchesModel) refreshTable() {
	names := make(map[uuid.UUID]string, len(m.estimates))
	for _, est := range m.estimates {
		names[est.ID] = est.Name
	}

	rows := make([]table.Row, 0, len(m.matches))
	for _, match := range m.matches {
		line, desc := "", ""
		if it := m.invoices[match.InvoiceItemID]; it != nil {
			line = strconv.Itoa(it.LineNumber)
			desc = it.RawDescription
		}

		estimate := "-"
		if match.EstimateItemID != nil {
			estimate = names[*match.EstimateItemID]
		}

		override := ""
		if match.IsOverride {
			override = "yes"
		}

		rows = append(rows, table.Row{
			line,
			desc,
			estimate,
			string(match.MatchType),
			match.Score.StringFixed(1),
			FormatNullDecimal(match.QuantityVariance),
			FormatNullDecimal(match.QuantityVariancePct),
			FormatNullDecimal(match.CarbonVarianceKg),
			FormatOptionalCents(match.CostVarianceCents),
			override,
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadMatchesMsg struct {
	matches   []*reconciliation.Match
	invoices  []*reconciliation.InvoiceItem
	estimates []*reconciliation.EstimateItem
	err       error
}

type overrideMsg struct {
	err error
}

func (m MatchesModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		matches, err := m.svc.ListMatches(ctx, m.runID)
		if err != nil {
			return loadMatchesMsg{err: err}
		}

		invoices, err := m.svc.ListInvoiceItems(ctx, m.runID)
		if err != nil {
			return loadMatchesMsg{err: err}
		}

		estimates, err := m.svc.ListEstimateItems(ctx, m.runID)
		if err != nil {
			return loadMatchesMsg{err: err}
		}

		return loadMatchesMsg{matches: matches, invoices: invoices, estimates: estimates}
	}
}

func (m MatchesModel) overrideCmd(matchID, estimateID uuid.UUID, reason string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		_, err := m.svc.OverrideMatch(ctx, m.runID, matchID, reconciliation.OverrideParams{
			EstimateItemID: estimateID,
			Reason:         reason,
		})

		return overrideMsg{err: err}
	}
}

type exportMsg struct {
	path string
	err  error
}

// exportCmd writes the variance report into the working directory.
func (m MatchesModel) exportCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		run, err := m.svc.GetRun(ctx, m.runID)
		if err != nil {
			return exportMsg{err: err}
		}

		dir, err := os.Getwd()
		if err != nil {
			return exportMsg{err: err}
		}

		path, err := m.exporter.WriteFile(ctx, run, dir)

		return exportMsg{path: path, err: err}
	}
}
