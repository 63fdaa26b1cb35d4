package modal

import (
	tea "github.com/charmbracelet/bubbletea"
)

// ConfirmModal asks a yes/no question before a destructive action
type ConfirmModal struct {
	prompt    string
	onConfirm func() tea.Cmd
}

func NewConfirmModal(prompt string, onConfirm func() tea.Cmd) *ConfirmModal {
	return &ConfirmModal{prompt: prompt, onConfirm: onConfirm}
}

func (m *ConfirmModal) Type() ModalType {
	return ModalConfirm
}

// HandleKey runs the action on y and closes on n or esc
func (m *ConfirmModal) HandleKey(msg tea.KeyMsg) (bool, Modal, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		return true, nil, m.onConfirm()
	case "n", "N", "esc":
		return true, nil, nil
	}
	return true, m, nil
}

func (m *ConfirmModal) Render(width, height int) string {
	content := titleStyle.Foreground(accentColor).Render("Confirm") + "\n\n" +
		bodyStyle.Render(m.prompt) + "\n\n" +
		hintStyle.Render("[y] yes   [n] no")
	return box(width, height, accentColor, content)
}

func (m *ConfirmModal) IsBlockingInput() bool {
	return true
}
