// Package ui provides UI styling and output functions for the CLI.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/aki/nexus/internal/core/queue"
	"github.com/aki/nexus/internal/core/relay"
)

// Adaptive colors keep the archive states readable on light and dark terminals.
var (
	colorDelivered = lipgloss.AdaptiveColor{Light: "#00875F", Dark: "#5FD787"}
	colorFailed    = lipgloss.AdaptiveColor{Light: "#D70000", Dark: "#FF5F5F"}
	colorDegraded  = lipgloss.AdaptiveColor{Light: "#AF5F00", Dark: "#FFAF00"}
	colorControl   = lipgloss.AdaptiveColor{Light: "#005FAF", Dark: "#5FAFFF"}
	colorMuted     = lipgloss.AdaptiveColor{Light: "#767676", Dark: "#8A8A8A"}
)

var (
	// SuccessStyle marks delivered tasks and success messages
	SuccessStyle = lipgloss.NewStyle().Foreground(colorDelivered)

	// ErrorStyle marks tasks archived under error
	ErrorStyle = lipgloss.NewStyle().Foreground(colorFailed)

	// WarningStyle marks degraded results such as a capture timeout
	WarningStyle = lipgloss.NewStyle().Foreground(colorDegraded)

	// InfoStyle marks control tasks and informational messages
	InfoStyle = lipgloss.NewStyle().Foreground(colorControl)

	// DimStyle is for placeholders
	DimStyle = lipgloss.NewStyle().Foreground(colorMuted)

	// TaskStyle renders the task name column
	TaskStyle = lipgloss.NewStyle().Bold(true)
)

var (
	InboxIcon   = "📥"
	ArchiveIcon = "🗄"
	AddressIcon = "📇"
	SuccessIcon = "✅"
	ErrorIcon   = "❌"
	InfoIcon    = "ⓘ"
	WarningIcon = "⚠️"
)

// StatusStyle returns the style for an archive subdirectory.
func StatusStyle(status queue.Status) lipgloss.Style {
	switch status {
	case queue.StatusOK:
		return SuccessStyle
	case queue.StatusError:
		return ErrorStyle
	case queue.StatusShutdown:
		return InfoStyle
	}
	return DimStyle
}

// RenderOutcome labels a processed task. Failures carry their note.
func RenderOutcome(r relay.Result) string {
	switch {
	case r.Shutdown:
		return InfoStyle.Render("Shutdown")
	case r.Kind.Failed():
		return ErrorStyle.Render(r.Kind.String() + " (" + r.Note + ")")
	case r.Kind == relay.KindCaptureTimeout:
		return WarningStyle.Render(r.Kind.String())
	}
	return SuccessStyle.Render(r.Kind.String())
}
