package cli

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/custodia-labs/healthlens/internal/core/domain"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	statusStyle = map[domain.RangeStatus]lipgloss.Style{
		domain.RangeLow:     cellStyle.Foreground(lipgloss.Color("33")).Bold(true),
		domain.RangeNormal:  cellStyle.Foreground(lipgloss.Color("34")),
		domain.RangeHigh:    cellStyle.Foreground(lipgloss.Color("160")).Bold(true),
		domain.RangeUnknown: cellStyle.Faint(true),
	}
)

// newTable returns a bordered table. statusCol, when >= 0, is the column
// whose cells are coloured by range status.
func newTable(headers []string, rows [][]string, statusCol int) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(faintStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == statusCol && row >= 0 && row < len(rows) {
				if s, ok := statusStyle[domain.RangeStatus(rows[row][col])]; ok {
					return s
				}
			}
			return cellStyle
		})
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatRange(r domain.NormalRange) string {
	return formatValue(r.Low) + " - " + formatValue(r.High)
}

// parameterRows lists all lab parameters of d with their normal range and
// status. Missing values show as "-".
func parameterRows(d *domain.ParsedData) [][]string {
	params := domain.AllLabParameters()
	rows := make([][]string, 0, len(params))
	for _, p := range params {
		value, status := "-", domain.RangeUnknown
		if v := d.Value(p); v != nil {
			value = formatValue(*v)
			status = p.NormalRange().Classify(*v)
		}
		rows = append(rows, []string{p.Label(), value, p.Unit(), formatRange(p.NormalRange()), string(status)})
	}
	return rows
}
