package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/scribe/internal/preferences"
)

var (
	lightPalette = NewPalette("#5A3FD6", "#0A7A4B", "#C62828", "#B26A00", "#6B6B6B")
	darkPalette  = NewPalette("#7D56F4", "#04B575", "#FF5F5F", "#FFA500", "#8A8A8A")
)

// PaletteFor returns the stylesheet for a resolved color scheme.
func PaletteFor(s preferences.Scheme) *Palette {
	if s == preferences.SchemeDark {
		return darkPalette
	}
	return lightPalette
}

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title     lipgloss.Style
	ok        lipgloss.Style
	err       lipgloss.Style
	warn      lipgloss.Style
	help      lipgloss.Style
	user      lipgloss.Style
	assistant lipgloss.Style
	box       lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:     NewBold(t).MarginBottom(1),
		ok:        NewBold(s),
		err:       NewBold(e),
		warn:      NewStyle(w),
		help:      NewEm(h),
		user:      NewBold(t),
		assistant: NewBold(s),
		box:       lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(t)).Padding(0, 1),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
