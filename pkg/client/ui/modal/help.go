package modal

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpEntry is one line of the help screen
type HelpEntry struct {
	Usage string
	Help  string
}

// HelpModal lists the available commands
type HelpModal struct {
	entries []HelpEntry
}

func NewHelpModal(entries []HelpEntry) *HelpModal {
	return &HelpModal{entries: entries}
}

func (m *HelpModal) Type() ModalType {
	return ModalHelp
}

func (m *HelpModal) HandleKey(msg tea.KeyMsg) (bool, Modal, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "q", "?":
		return true, nil, nil
	}
	return true, m, nil
}

func (m *HelpModal) Render(width, height int) string {
	usageWidth := 0
	for _, e := range m.entries {
		if w := lipgloss.Width(e.Usage); w > usageWidth {
			usageWidth = w
		}
	}
	usageStyle := lipgloss.NewStyle().Foreground(accentColor).Width(usageWidth + 2)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Commands"))
	b.WriteString("\n\n")
	for _, e := range m.entries {
		b.WriteString(usageStyle.Render(e.Usage))
		b.WriteString(bodyStyle.Render(e.Help))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("Press Esc to close"))
	return box(width, height, accentColor, b.String())
}

func (m *HelpModal) IsBlockingInput() bool {
	return true
}
