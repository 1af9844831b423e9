package tui

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha.
const (
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorBlue     lipgloss.Color = "#89b4fa"
	colorLavender lipgloss.Color = "#b4befe"

	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay0 lipgloss.Color = "#6c7086"
	colorSurface2 lipgloss.Color = "#585b70"
	colorSurface0 lipgloss.Color = "#313244"
	colorMantle   lipgloss.Color = "#181825"
)

const (
	colorAccent   = colorBlue
	colorFocus    = colorLavender
	colorSuccess  = colorGreen
	colorError    = colorRed
	colorWarning  = colorPeach
	colorMuted    = colorSubtext0
	colorDisabled = colorOverlay0
	colorBorder   = colorSurface2
)

var (
	appStyle = lipgloss.NewStyle().Foreground(colorText)

	headerAppStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	headerBarStyle = lipgloss.NewStyle().
			Background(colorMantle).
			Foreground(colorText)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)
	focusPanelStyle = panelStyle.BorderForeground(colorFocus)
	panelTitleStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)

	labelStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	valueStyle    = lipgloss.NewStyle().Foreground(colorText)
	staleStyle    = lipgloss.NewStyle().Foreground(colorWarning)
	disabledStyle = lipgloss.NewStyle().Foreground(colorDisabled)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Background(colorSurface0)
	statusErrBarStyle = lipgloss.NewStyle().
				Foreground(colorError).
				Background(colorSurface0)
	statusBusyBarStyle = lipgloss.NewStyle().
				Foreground(colorAccent).
				Background(colorSurface0)
	footerStyle = lipgloss.NewStyle().
			Background(colorMantle)
)
