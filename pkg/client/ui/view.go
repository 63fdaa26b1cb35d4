package ui

import (
	"fmt"
	"strings"

	"github.com/aeolun/yacs/pkg/client"
	"github.com/aeolun/yacs/pkg/protocol"
	"github.com/charmbracelet/lipgloss"
)

// View renders the current view
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if top := m.modalStack.Top(); top != nil {
		return top.Render(m.width, m.height)
	}

	paneHeight := m.chatViewport.Height
	channels := Styles.Pane.Width(channelPaneWidth).Height(paneHeight).Render(m.renderChannels())
	chat := Styles.Pane.Width(m.chatViewport.Width).Height(paneHeight).Render(m.chatViewport.View())
	members := Styles.Pane.Width(memberPaneWidth).Height(paneHeight).Render(m.renderMembers())

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		lipgloss.JoinHorizontal(lipgloss.Top, channels, chat, members),
		m.renderAttachments(),
		m.renderStatus(),
		m.input.View(),
	)
}

func (m Model) renderHeader() string {
	var state string
	switch {
	case m.reconnecting:
		state = Styles.StatusError.Render("reconnecting...")
	case m.connection == client.StateDisconnected:
		state = Styles.StatusError.Render("disconnected")
	default:
		state = Styles.StatusOK.Render("connected")
	}

	title := "yacs"
	if m.self != "" {
		title += " - " + m.self
	}
	if name := m.channelName(m.activeChannel); name != "" {
		title += " #" + name
	}

	parts := []string{Styles.Header.Render(title), state}
	if m.muted {
		parts = append(parts, Styles.Muted.Render("[muted]"))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderChannels() string {
	lines := []string{Styles.PaneTitle.Render("Channels")}
	for _, ch := range m.channels {
		line := fmt.Sprintf("  %s", ch.Name)
		style := Styles.Channel
		if ch.ID == m.activeChannel {
			line = fmt.Sprintf("> %s", ch.Name)
			style = Styles.ActiveChannel
		}
		line = style.Render(truncate(line, channelPaneWidth-2))
		if ch.IsAdmin {
			line += Styles.AdminMarker.Render(" *")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderMembers() string {
	lines := []string{Styles.PaneTitle.Render(fmt.Sprintf("Online (%d)", len(m.members)))}
	for _, nick := range m.members {
		style := Styles.Member
		if nick == m.self {
			style = Styles.OwnAuthor
		}
		lines = append(lines, style.Render(truncate(nick, memberPaneWidth)))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderAttachments() string {
	if len(m.attachments) == 0 {
		return ""
	}
	names := make([]string, len(m.attachments))
	for i, a := range m.attachments {
		names[i] = a.Name
	}
	return Styles.Attachment.Render("Attached: " + strings.Join(names, ", "))
}

func (m Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusError {
		return Styles.StatusError.Render(m.status)
	}
	return Styles.StatusOK.Render(m.status)
}

// buildChatMessages renders the loaded history with date separators
func (m Model) buildChatMessages() string {
	if len(m.messages) == 0 {
		if m.activeChannel == 0 {
			return Styles.Muted.Render("No channel selected")
		}
		return Styles.Muted.Render("No messages yet")
	}

	var lines []string
	if m.loadingMore {
		lines = append(lines, Styles.Muted.Render("Loading older messages..."))
	}

	prevDate := ""
	for _, msg := range m.messages {
		t := msg.Time()
		if !t.IsZero() {
			date := t.Local().Format("2006-01-02")
			if date != prevDate {
				lines = append(lines, Styles.Muted.Render("─── "+t.Local().Format("Monday, January 2, 2006")+" ───"))
				prevDate = date
			}
		}
		lines = append(lines, m.formatChatMessage(msg))
	}
	return strings.Join(lines, "\n")
}

// formatChatMessage formats a single message as: [time] nick body
func (m Model) formatChatMessage(msg protocol.Message) string {
	timestamp := "--:--"
	if t := msg.Time(); !t.IsZero() {
		timestamp = t.Local().Format("15:04")
	}

	authorStyle := Styles.Author
	if msg.Author == m.self {
		authorStyle = Styles.OwnAuthor
	}
	prefix := Styles.Timestamp.Render("["+timestamp+"]") + " " + authorStyle.Render(msg.Author) + " "

	contentWidth := m.chatViewport.Width - lipgloss.Width(prefix) - 2
	if contentWidth < 10 {
		contentWidth = 10
	}
	body := Styles.Body.Width(contentWidth).Render(msg.Body)
	indent := strings.Repeat(" ", lipgloss.Width(prefix))
	body = strings.ReplaceAll(body, "\n", "\n"+indent)

	result := prefix + body
	if n := len(msg.Attachments); n > 0 {
		result += "\n" + indent + m.formatAttachments(msg)
	}
	return result
}

func (m Model) formatAttachments(msg protocol.Message) string {
	refs, resolved := m.files[msg.ID]
	if !resolved {
		label := "attachment"
		if len(msg.Attachments) > 1 {
			label = "attachments"
		}
		return Styles.Attachment.Render(fmt.Sprintf("[%d %s, /files %d]", len(msg.Attachments), label, msg.ID))
	}
	parts := make([]string, len(refs))
	for i, ref := range refs {
		parts[i] = fmt.Sprintf("[%s %s]", ref.Kind(), ref.Filename)
	}
	return Styles.Attachment.Render(strings.Join(parts, " "))
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 1 || len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
