package progress

import "github.com/charmbracelet/lipgloss"

// Styles groups the console styles used for operator-facing messages
type Styles struct {
	Indicator lipgloss.Style
	Info      lipgloss.Style
	Warning   lipgloss.Style
	Update    lipgloss.Style
	Advisory  lipgloss.Style
	Prompt    lipgloss.Style
}

// DefaultStyles returns the coloured styles. Colour is dropped automatically
// when the output is not a terminal.
func DefaultStyles() Styles {
	return Styles{
		Indicator: lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		Info:      lipgloss.NewStyle(),
		Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Update:    lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true),
		Advisory:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Prompt:    lipgloss.NewStyle().Bold(true),
	}
}

// PlainStyles renders text unchanged
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Indicator: plain,
		Info:      plain,
		Warning:   plain,
		Update:    plain,
		Advisory:  plain,
		Prompt:    plain,
	}
}
