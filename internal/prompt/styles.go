package prompt

import "github.com/charmbracelet/lipgloss"

var (
	colorCyan     = lipgloss.Color("#00FFFF")
	colorGreen    = lipgloss.Color("#00FF00")
	colorDarkGray = lipgloss.Color("8")

	questionStyle = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	labelStyle    = lipgloss.NewStyle().Bold(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	answerStyle   = lipgloss.NewStyle().Foreground(colorCyan)
	hintStyle     = lipgloss.NewStyle().Foreground(colorDarkGray)
)
