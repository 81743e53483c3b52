package view

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/boqrecon/internal/variance"
)

const dbTimeout = 5 * time.Second

// FormatCents formats an amount stored as cents into a human-readable string.
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// FormatOptionalCents renders nil as a dash.
func FormatOptionalCents(cents *int64) string {
	if cents == nil {
		return "-"
	}

	return FormatCents(*cents)
}

func FormatDecimal(d decimal.Decimal) string {
	return variance.Round2(d).String()
}

// FormatNullDecimal renders values that could not be computed as a dash.
func FormatNullDecimal(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}

	return FormatDecimal(d.Decimal)
}

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}

func newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func fmtStatus(s string, err bool) string {
	color := lipgloss.Color("46")
	if err {
		color = lipgloss.Color("196")
	}

	return lipgloss.NewStyle().Foreground(color).Render(s)
}

func errorf(format string, args ...any) string {
	return fmtStatus(fmt.Sprintf(format, args...), true)
}
