package ui

import "github.com/charmbracelet/lipgloss"

// Styles groups every lipgloss style the session screen uses.
type Styles struct {
	Title   lipgloss.Style
	Topic   lipgloss.Style
	Label   lipgloss.Style
	Clock   lipgloss.Style
	Break   lipgloss.Style
	Paused  lipgloss.Style
	Message lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
	Status  lipgloss.Style
	Help    lipgloss.Style
}

// DefaultStyles returns the default theme.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Underline(true).
			MarginBottom(1),
		Topic: lipgloss.NewStyle().
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Clock:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		Break:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		Paused:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13")),
		Message: lipgloss.NewStyle().Bold(true).MarginTop(1).MarginBottom(1),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Status:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1),
		Help:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}
