package tui

import "github.com/charmbracelet/lipgloss"

// Palette (xterm-256 codes)
const (
	colorDim    = lipgloss.Color("240")
	colorMuted  = lipgloss.Color("244")
	colorText   = lipgloss.Color("252")
	colorOK     = lipgloss.Color("46")
	colorFail   = lipgloss.Color("196")
	colorAccent = lipgloss.Color("86")
	colorWarn   = lipgloss.Color("214")
	colorUser   = lipgloss.Color("220")
)

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

var (
	taskNameStyle = fg(colorText)
	taskDimStyle  = fg(colorDim)
	messageStyle  = fg(colorMuted)
	errorStyle    = fg(colorFail)
	spinnerStyle  = fg(colorAccent)
	warnStyle     = fg(colorWarn)
	footerStyle   = fg(colorDim).MarginTop(1)
	userStyle     = fg(colorUser).Bold(true)

	statusIcons = map[TaskStatus]string{
		StatusPending:  fg(colorDim).Render("○"),
		StatusComplete: fg(colorOK).Render("✓"),
		StatusError:    fg(colorFail).Render("✗"),
		StatusSkipped:  fg(colorDim).Render("○"),
	}
)

// StatusIcon returns the glyph shown before a task. Running tasks show the
// current spinner frame.
func StatusIcon(status TaskStatus, spinnerFrame string) string {
	if status == StatusRunning {
		return spinnerStyle.Render(spinnerFrame)
	}
	if icon, ok := statusIcons[status]; ok {
		return icon
	}
	return statusIcons[StatusPending]
}
