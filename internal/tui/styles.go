package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette. Amber marks attack traffic, teal marks healthy sensor state.
var (
	Amber = lipgloss.Color("214")
	Teal  = lipgloss.Color("37")
	Muted = lipgloss.Color("244")
	Alert = lipgloss.Color("160")
	Ok    = lipgloss.Color("42")
	Ink   = lipgloss.Color("230")
)

var (
	HeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Ink).
		Background(Amber).
		Padding(0, 1)

	SectionStyle = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), true, false, false, false).
		BorderForeground(Muted).
		PaddingLeft(1)

	SectionTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Amber)

	LabelStyle = lipgloss.NewStyle().
		Foreground(Muted).
		Width(12)

	ValueStyle = lipgloss.NewStyle().
		Foreground(Teal)

	SuccessStyle = lipgloss.NewStyle().Foreground(Ok)
	WarningStyle = lipgloss.NewStyle().Foreground(Amber)
	ErrorStyle   = lipgloss.NewStyle().Foreground(Alert).Bold(true)

	DimStyle = lipgloss.NewStyle().Foreground(Muted)

	HelpStyle = DimStyle.Copy().MarginTop(1)

	LoadingStyle = lipgloss.NewStyle().
		Foreground(Amber).
		Padding(1, 2)

	barStyle = lipgloss.NewStyle().Foreground(Amber)
)

// RenderStatus renders a state word in green when ok and red otherwise.
func RenderStatus(ok bool, okText, failText string) string {
	if ok {
		return SuccessStyle.Render("● " + okText)
	}
	return ErrorStyle.Render("○ " + failText)
}

// RenderBar renders value as a bar scaled against max.
func RenderBar(value, max int, width int) string {
	return barStyle.Render(bar(value, max, width))
}

func bar(value, max, width int) string {
	if max <= 0 || value < 0 {
		value, max = 0, 1
	}

	filled := value * width / max
	if filled > width {
		filled = width
	}

	return strings.Repeat("▮", filled) + strings.Repeat("·", width-filled)
}
