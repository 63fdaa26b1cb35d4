package modal

import "github.com/charmbracelet/lipgloss"

var (
	errorColor  = lipgloss.Color("#FF5555")
	accentColor = lipgloss.Color("205")
	mutedColor  = lipgloss.Color("240")

	titleStyle = lipgloss.NewStyle().Bold(true)
	hintStyle  = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)
	bodyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

func borderStyle(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(c).
		Padding(1, 2)
}

func placeCenter(width, height int, s string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, s)
}

// box renders content in a centered rounded border
func box(width, height int, border lipgloss.Color, content string) string {
	modalWidth := 56
	if width < modalWidth+4 {
		modalWidth = width - 4
	}
	if modalWidth < 20 {
		modalWidth = 20
	}
	style := borderStyle(border).Width(modalWidth - 4)
	return placeCenter(width, height, style.Render(content))
}
