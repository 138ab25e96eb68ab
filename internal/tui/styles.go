package tui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor = lipgloss.Color("#7D56F4")
	accentColor  = lipgloss.Color("#04B575")
	warnColor    = lipgloss.Color("#FFD866")
	mutedColor   = lipgloss.Color("#626262")
	errorColor   = lipgloss.Color("#FF5F87")
	infoColor    = lipgloss.Color("#5FD7FF")

	borderStyle   = lipgloss.NewStyle().Foreground(primaryColor)
	titleStyle    = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(warnColor).Bold(true)
	dirStyle      = lipgloss.NewStyle().Foreground(accentColor)
	messageStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	messageBorder = lipgloss.NewStyle().Foreground(infoColor)

	slideshowBar = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(warnColor).
			Foreground(warnColor).
			Bold(true).
			Align(lipgloss.Center)

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(errorColor).
			Foreground(warnColor).
			Padding(0, 1).
			Align(lipgloss.Center)

	dialogTitleStyle = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
)
