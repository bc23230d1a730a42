package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Adaptive colors based on terminal background
var (
	ColorPrimary lipgloss.Color
	ColorAccent  lipgloss.Color

	ColorSuccess lipgloss.Color
	ColorWarning lipgloss.Color
	ColorError   lipgloss.Color

	ColorText      lipgloss.Color
	ColorTextMuted lipgloss.Color
	ColorBorder    lipgloss.Color
)

func initializeColors() {
	// Environment variable override
	if os.Getenv("GLAMOUR_STYLE") == "light" {
		setLightThemeColors()
		return
	}
	if os.Getenv("GLAMOUR_STYLE") == "dark" {
		setDarkThemeColors()
		return
	}

	if lipgloss.HasDarkBackground() {
		setDarkThemeColors()
	} else {
		setLightThemeColors()
	}
}

func setDarkThemeColors() {
	ColorPrimary = lipgloss.Color("205")
	ColorAccent = lipgloss.Color("214")

	ColorSuccess = lipgloss.Color("10")
	ColorWarning = lipgloss.Color("11")
	ColorError = lipgloss.Color("9")

	ColorText = lipgloss.Color("252")
	ColorTextMuted = lipgloss.Color("244")
	ColorBorder = lipgloss.Color("238")
}

func setLightThemeColors() {
	ColorPrimary = lipgloss.Color("125")
	ColorAccent = lipgloss.Color("130")

	ColorSuccess = lipgloss.Color("22")
	ColorWarning = lipgloss.Color("136")
	ColorError = lipgloss.Color("160")

	ColorText = lipgloss.Color("232")
	ColorTextMuted = lipgloss.Color("240")
	ColorBorder = lipgloss.Color("248")
}

// Component styles, built after color initialization
var (
	StyleTitle    lipgloss.Style
	StyleHelp     lipgloss.Style
	StyleLabel    lipgloss.Style
	StyleRequired lipgloss.Style
	StyleSuccess  lipgloss.Style
	StyleError    lipgloss.Style
	StyleWarning  lipgloss.Style
	StyleBox      lipgloss.Style
)

func initializeStyles() {
	StyleTitle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		MarginBottom(1)

	StyleHelp = lipgloss.NewStyle().
		Foreground(ColorTextMuted)

	StyleLabel = lipgloss.NewStyle().
		Foreground(ColorText).
		Bold(true)

	StyleRequired = lipgloss.NewStyle().
		Foreground(ColorError)

	StyleSuccess = lipgloss.NewStyle().
		Foreground(ColorSuccess)

	StyleError = lipgloss.NewStyle().
		Foreground(ColorError)

	StyleWarning = lipgloss.NewStyle().
		Foreground(ColorWarning)

	StyleBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1)
}

func init() {
	initializeColors()
	initializeStyles()
}
