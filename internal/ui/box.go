package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette shared with the fatih/color messages.
var (
	ColorPrimary = lipgloss.Color("#7C3AED")
	ColorSuccess = lipgloss.Color("#10B981")
	ColorWarning = lipgloss.Color("#F59E0B")
	ColorError   = lipgloss.Color("#EF4444")
	ColorMuted   = lipgloss.Color("#6B7280")
)

// SourceColors tints package sources in summaries.
var SourceColors = map[string]lipgloss.Color{
	"pacman":   lipgloss.Color("#1793D1"),
	"apt":      lipgloss.Color("#A80030"),
	"nala":     lipgloss.Color("#A80030"),
	"dnf":      lipgloss.Color("#294172"),
	"flatpak":  lipgloss.Color("#4A90D9"),
	"snap":     lipgloss.Color("#E95420"),
	"appimage": lipgloss.Color("#8CA1AF"),
}

// Level selects the border color of a Box.
type Level int

// Box levels.
const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) color() lipgloss.Color {
	switch l {
	case LevelSuccess:
		return ColorSuccess
	case LevelWarning:
		return ColorWarning
	case LevelError:
		return ColorError
	default:
		return ColorPrimary
	}
}

// Box renders a titled, bordered block of lines. Without unicode it falls
// back to an ASCII border.
func Box(title string, level Level, lines ...string) string {
	border := lipgloss.RoundedBorder()
	if !UseUnicode {
		border = lipgloss.Border{
			Top: "-", Bottom: "-", Left: "|", Right: "|",
			TopLeft: "+", TopRight: "+", BottomLeft: "+", BottomRight: "+",
		}
	}

	style := lipgloss.NewStyle().
		Border(border).
		Padding(0, 1)
	titleStyle := lipgloss.NewStyle().Bold(true)
	if UseColors {
		style = style.BorderForeground(level.color())
		titleStyle = titleStyle.Foreground(level.color())
	}

	body := titleStyle.Render(title)
	if len(lines) > 0 {
		body += "\n" + strings.Join(lines, "\n")
	}
	return style.Render(body)
}

// PrintBox writes a Box to Out.
func PrintBox(title string, level Level, lines ...string) {
	Println("%s", Box(title, level, lines...))
}

// SourceLabel renders a package source in its tint.
func SourceLabel(source string) string {
	if !UseColors {
		return source
	}
	c, ok := SourceColors[source]
	if !ok {
		c = ColorMuted
	}
	return lipgloss.NewStyle().Foreground(c).Bold(true).Render(source)
}
