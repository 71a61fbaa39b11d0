package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Adaptive colors pick the Light or Dark value from the terminal background.
var (
	accent  = lipgloss.AdaptiveColor{Light: "#5A3FD0", Dark: "#7D56F4"}
	success = lipgloss.AdaptiveColor{Light: "#02875A", Dark: "#04B575"}
	failure = lipgloss.AdaptiveColor{Light: "#C70000", Dark: "#FF4D4D"}
	caution = lipgloss.AdaptiveColor{Light: "#B36B00", Dark: "#FFA500"}
	muted   = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#626262"}
)

var styles = palette{
	title: lipgloss.NewStyle().Foreground(accent).Bold(true).MarginBottom(1),
	ok:    lipgloss.NewStyle().Foreground(success).Bold(true),
	err:   lipgloss.NewStyle().Foreground(failure).Bold(true),
	warn:  lipgloss.NewStyle().Foreground(caution),
	help:  lipgloss.NewStyle().Foreground(muted).Italic(true),
	url:   lipgloss.NewStyle().Foreground(accent).Underline(true),
}

// palette names the styles shared by every view.
type palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	url   lipgloss.Style // playlist links
}
