package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ocrdrop/internal/processor"
)

type SummaryRow struct {
	Label string
	Value string
}

// BatchRows is the end-of-run table of a batch.
func BatchRows(s processor.Summary, profile string) []SummaryRow {
	return []SummaryRow{
		{Label: "Profile", Value: profile},
		{Label: "Images found", Value: fmt.Sprintf("%d", s.Total)},
		{Label: "Images processed", Value: fmt.Sprintf("%d", s.Processed)},
		{Label: "Text extracted", Value: fmt.Sprintf("%d", s.Succeeded)},
		{Label: "No text found", Value: fmt.Sprintf("%d", s.Empty)},
		{Label: "Errors", Value: fmt.Sprintf("%d", s.Errors)},
	}
}

func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		labelWidth = max(labelWidth, lipgloss.Width(row.Label))
		valueWidth = max(valueWidth, lipgloss.Width(row.Value))
	}

	hline := dimStyle.Render(strings.Repeat("-", labelWidth+valueWidth+3))
	lines := []string{hline}

	for _, row := range rows {
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		line := fmt.Sprintf("%s | %s", labelStyle.Render(label), valueStyle.Render(value))
		lines = append(lines, line)
	}

	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

var (
	valueStyle = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
)
