package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Aman-CERP/indexwrap/internal/output"
)

// colorDarkGray draws panel borders and pending items.
const colorDarkGray = "238"

// Styles holds the TUI styles.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
	Active  lipgloss.Style
	Label   lipgloss.Style
	Panel   lipgloss.Style
}

// GetStyles returns colored styles, or unstyled ones when noColor is set.
func GetStyles(noColor bool) Styles {
	panel := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	if noColor {
		plain := lipgloss.NewStyle()
		return Styles{
			Header: plain, Success: plain, Warning: plain, Error: plain,
			Dim: plain, Active: plain, Label: plain, Panel: panel,
		}
	}
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(output.ColorLime)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(output.ColorLime)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(output.ColorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(output.ColorRed)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorDarkGray)),
		Active:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(output.ColorLime)),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color(output.ColorGray)),
		Panel:   panel.BorderForeground(lipgloss.Color(colorDarkGray)),
	}
}
