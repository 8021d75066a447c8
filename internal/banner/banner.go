// Package banner renders the optional heading and message shown before a
// client session starts.
package banner

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const None = "None"

// Banner headings.
const (
	Warning = "WARNING !"
	Info    = "INFO :"
)

var kinds = []string{None, Warning, Info}

var colours = map[string]lipgloss.Color{
	"Red":     lipgloss.Color("#EF4444"),
	"Green":   lipgloss.Color("#10B981"),
	"Yellow":  lipgloss.Color("#F59E0B"),
	"Blue":    lipgloss.Color("#3B82F6"),
	"Magenta": lipgloss.Color("#D946EF"),
	"Cyan":    lipgloss.Color("#06B6D4"),
}

var colourOrder = []string{None, "Red", "Green", "Yellow", "Blue", "Magenta", "Cyan"}

// Kinds lists the accepted banner ids.
func Kinds() []string { return append([]string(nil), kinds...) }

// Colours lists the accepted colour ids.
func Colours() []string { return append([]string(nil), colourOrder...) }

func ValidKind(s string) bool {
	for _, k := range kinds {
		if k == s {
			return true
		}
	}
	return false
}

func ValidColour(s string) bool {
	if s == None {
		return true
	}
	_, ok := colours[s]
	return ok
}

// Render returns the banner block, or "" when there is nothing to show.
// Empty kind or colour ids are treated as None.
func Render(kind, message, colour string) string {
	message = strings.TrimSpace(message)
	if (kind == "" || kind == None) && message == "" {
		return ""
	}

	style := lipgloss.NewStyle()
	if c, ok := colours[colour]; ok {
		style = style.Foreground(c)
	}

	var parts []string
	if kind != "" && kind != None {
		heading := style.Bold(true).
			Border(lipgloss.DoubleBorder()).
			Padding(0, 2).
			Render(kind)
		parts = append(parts, heading)
	}
	if message != "" {
		parts = append(parts, style.Render(message))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
