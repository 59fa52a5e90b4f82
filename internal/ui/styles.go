package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorWarning   = lipgloss.Color("214") // Orange
	colorDanger    = lipgloss.Color("196") // Red
)

// Header style for the top bar.
var Header = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// TabActive style for the selected view tab.
var TabActive = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// TabInactive style for unselected view tabs.
var TabInactive = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 1)

// SelectedRow style for the highlighted row.
var SelectedRow = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// NormalRow style for unselected rows.
var NormalRow = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// StatusPublished style for the published badge.
var StatusPublished = lipgloss.NewStyle().
	Foreground(colorSuccess)

// StatusProcessing style for the processing overlay badge.
var StatusProcessing = lipgloss.NewStyle().
	Foreground(colorHighlight)

// StatusPending style for the pending_review badge.
var StatusPending = lipgloss.NewStyle().
	Foreground(colorWarning)

// StatusErr style for the error badge.
var StatusErr = lipgloss.NewStyle().
	Foreground(colorDanger)

// ProgressDetail style for the counter summary under a progress line.
var ProgressDetail = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(0, 3)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(colorDanger).
	Bold(true).
	Padding(0, 1)

// SourceTag style for chat citation sources.
var SourceTag = lipgloss.NewStyle().
	Foreground(colorPrimary).
	Background(lipgloss.Color("236")).
	Padding(0, 1).
	MarginRight(1)

// ChatUser style for user messages.
var ChatUser = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

// ChatAssistant style for assistant messages.
var ChatAssistant = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255"))

// HelpStyle for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)
