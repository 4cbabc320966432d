package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/davidpaquet/search-sessions/internal/model"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#10B981")
	accentColor    = lipgloss.Color("#38BDF8")
	mutedColor     = lipgloss.Color("#6B7280")
	errorColor     = lipgloss.Color("#EF4444")
	matchColor     = lipgloss.Color("#FBBF24")
	bgColor        = lipgloss.Color("#1F2937")
	selectedBg     = lipgloss.Color("#374151")

	// Text styles
	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	infoStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	mutedTextStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	highlightStyle = lipgloss.NewStyle().
			Foreground(matchColor).
			Bold(true)

	userRoleStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	assistantRoleStyle = lipgloss.NewStyle().
				Foreground(secondaryColor).
				Bold(true)

	// List styles
	resultListStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(1).
			MarginTop(1).
			MarginRight(1)

	resultItemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	selectedItemStyle = lipgloss.NewStyle().
				Background(selectedBg).
				Foreground(primaryColor).
				PaddingLeft(2)

	// Details pane
	detailsStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(1).
			MarginTop(1)

	// Status bar
	statusBarStyle = lipgloss.NewStyle().
			Background(bgColor).
			Padding(0, 1)

	keyHelpStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)

// roleStyle picks the label style for a message author.
func roleStyle(role model.Role) lipgloss.Style {
	switch role {
	case model.RoleUser:
		return userRoleStyle
	case model.RoleAssistant:
		return assistantRoleStyle
	default:
		return mutedTextStyle
	}
}
