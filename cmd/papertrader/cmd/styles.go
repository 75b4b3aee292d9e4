package cmd

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

var printer = message.NewPrinter(language.English)

// money renders d as "$1,234.56" or "-$1,234.56".
func money(d decimal.Decimal) string {
	s := printer.Sprintf("%.2f", d.Abs().Round(2).InexactFloat64())
	if d.Round(2).IsNegative() {
		return "-$" + s
	}
	return "$" + s
}

// signedMoney always shows the sign, for profit and loss.
func signedMoney(d decimal.Decimal) string {
	if d.Round(2).IsPositive() {
		return "+" + money(d)
	}
	return money(d)
}

func percent(d decimal.Decimal) string {
	s := d.StringFixed(2) + "%"
	if d.Round(2).IsPositive() {
		return "+" + s
	}
	return s
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}
