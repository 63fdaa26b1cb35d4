package modal

import (
	tea "github.com/charmbracelet/bubbletea"
)

// ErrorModal displays an error message that must be acknowledged
type ErrorModal struct {
	title   string
	message string
	onClose func() tea.Cmd
}

// NewErrorModal creates a new error modal. onClose may be nil.
func NewErrorModal(title, message string, onClose func() tea.Cmd) *ErrorModal {
	return &ErrorModal{
		title:   title,
		message: message,
		onClose: onClose,
	}
}

func (m *ErrorModal) Type() ModalType {
	return ModalError
}

// HandleKey closes the modal on enter, esc or space
func (m *ErrorModal) HandleKey(msg tea.KeyMsg) (bool, Modal, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc", " ":
		var cmd tea.Cmd
		if m.onClose != nil {
			cmd = m.onClose()
		}
		return true, nil, cmd
	}
	return true, m, nil
}

func (m *ErrorModal) Render(width, height int) string {
	content := titleStyle.Foreground(errorColor).Render(m.title) + "\n\n" +
		bodyStyle.Render(m.message) + "\n\n" +
		hintStyle.Render("Press Enter or Esc to dismiss")
	return box(width, height, errorColor, content)
}

func (m *ErrorModal) IsBlockingInput() bool {
	return true
}
