package ui

import "github.com/charmbracelet/lipgloss"

var (
	PrimaryColor   = lipgloss.Color("205")
	SecondaryColor = lipgloss.Color("81")
	SuccessColor   = lipgloss.Color("42")
	ErrorColor     = lipgloss.Color("#FF5555")
	MutedColor     = lipgloss.Color("240")
)

// Styles groups the lipgloss styles used by the views
var Styles = struct {
	Header        lipgloss.Style
	Pane          lipgloss.Style
	PaneTitle     lipgloss.Style
	Channel       lipgloss.Style
	ActiveChannel lipgloss.Style
	AdminMarker   lipgloss.Style
	Author        lipgloss.Style
	OwnAuthor     lipgloss.Style
	Timestamp     lipgloss.Style
	Body          lipgloss.Style
	Attachment    lipgloss.Style
	Member        lipgloss.Style
	StatusOK      lipgloss.Style
	StatusError   lipgloss.Style
	Muted         lipgloss.Style
}{
	Header: lipgloss.NewStyle().Bold(true).Foreground(PrimaryColor),
	Pane: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Padding(0, 1),
	PaneTitle:     lipgloss.NewStyle().Bold(true).Foreground(SecondaryColor),
	Channel:       lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
	ActiveChannel: lipgloss.NewStyle().Bold(true).Foreground(PrimaryColor),
	AdminMarker:   lipgloss.NewStyle().Foreground(ErrorColor),
	Author:        lipgloss.NewStyle().Foreground(SecondaryColor),
	OwnAuthor:     lipgloss.NewStyle().Bold(true).Foreground(SuccessColor),
	Timestamp:     lipgloss.NewStyle().Foreground(MutedColor),
	Body:          lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
	Attachment:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	Member:        lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
	StatusOK:      lipgloss.NewStyle().Foreground(SuccessColor),
	StatusError:   lipgloss.NewStyle().Foreground(ErrorColor),
	Muted:         lipgloss.NewStyle().Foreground(MutedColor),
}
