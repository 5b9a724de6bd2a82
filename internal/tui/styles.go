// Package tui renders the dashboard in a terminal: the same views, controls
// and tables as the web page, driven by a view.Controller.
package tui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette follows the web page: Plotly paper blue and header grey.
var (
	LightBackground = lipgloss.Color("#ffffff")
	LightForeground = lipgloss.Color("#2a3f5f")
	LightPrimary    = lipgloss.Color("#636efa")
	LightMuted      = lipgloss.Color("#8c9bb5")
	LightBorder     = lipgloss.Color("#dfe6f0")

	DarkBackground = lipgloss.Color("#111111")
	DarkForeground = lipgloss.Color("#f2f5fa")
	DarkPrimary    = lipgloss.Color("#00cc96")
	DarkMuted      = lipgloss.Color("#506784")
	DarkBorder     = lipgloss.Color("#283442")

	Destructive = lipgloss.Color("#ef553b")
)

// Theme holds the current color scheme.
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme.
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Muted:      LightMuted,
		Border:     LightBorder,
	}
}

// DarkTheme returns the dark mode theme.
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		IsDark:     true,
	}
}

// DetectTheme picks dark mode from COLORFGBG or GAPDASH_DARK_MODE=1.
func DetectTheme() Theme {
	if parts := strings.Split(os.Getenv("COLORFGBG"), ";"); len(parts) == 2 {
		// 0-6 and 8 are dark ANSI backgrounds
		if bg, err := strconv.Atoi(parts[1]); err == nil && ((bg >= 0 && bg <= 6) || bg == 8) {
			return DarkTheme()
		}
	}
	if os.Getenv("GAPDASH_DARK_MODE") == "1" {
		return DarkTheme()
	}
	return LightTheme()
}

// Styles holds the styled components.
type Styles struct {
	Theme Theme

	Header   lipgloss.Style
	Footer   lipgloss.Style
	Title    lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style
	Error    lipgloss.Style
	Active   lipgloss.Style
	Inactive lipgloss.Style
	Bar      lipgloss.Style
}

// NewStyles creates a Styles instance for theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,
		Header: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),
		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 2),
		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			MarginBottom(1),
		Body:  lipgloss.NewStyle().Foreground(theme.Foreground),
		Muted: lipgloss.NewStyle().Foreground(theme.Muted),
		Bold:  lipgloss.NewStyle().Foreground(theme.Foreground).Bold(true),
		Error: lipgloss.NewStyle().Foreground(Destructive).Bold(true),
		Active: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(theme.Primary).
			Padding(0, 1),
		Inactive: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1),
		Bar: lipgloss.NewStyle().Foreground(theme.Primary),
	}
}

// DefaultStyles uses the detected theme.
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}
