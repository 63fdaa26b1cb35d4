package ui

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aeolun/yacs/pkg/client"
	"github.com/aeolun/yacs/pkg/client/ui/modal"
	"github.com/aeolun/yacs/pkg/protocol"
	tea "github.com/charmbracelet/bubbletea"
)

// actionResultMsg reports the outcome of a controller call run as a command
type actionResultMsg struct {
	Action string
	Err    error
}

// filesResolvedMsg carries the attachment metadata of one message
type filesResolvedMsg struct {
	MessageID uint64
	Refs      []protocol.AttachmentRef
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case DeltaMsg:
		m.applyDelta(msg.Delta)
		return m, nil

	case actionResultMsg:
		return m.handleActionResult(msg)

	case filesResolvedMsg:
		m.files[msg.MessageID] = msg.Refs
		if len(msg.Refs) == 0 {
			m.setStatus(fmt.Sprintf("Message %d has no readable attachments", msg.MessageID), true)
		}
		m.refreshChat()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) resize() {
	chatWidth := m.width - channelPaneWidth - memberPaneWidth - 6
	if chatWidth < 20 {
		chatWidth = 20
	}
	// header, status, attachments, input and pane borders
	chatHeight := m.height - 7
	if chatHeight < 3 {
		chatHeight = 3
	}
	m.chatViewport.Width = chatWidth
	m.chatViewport.Height = chatHeight
	m.input.Width = m.width - 4
	m.refreshChat()
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if top := m.modalStack.Top(); top != nil {
		handled, next, cmd := top.HandleKey(msg)
		if handled {
			if next != top {
				m.modalStack.Replace(next)
			}
			return m, cmd
		}
		if top.IsBlockingInput() {
			return m, nil
		}
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "enter":
		line := m.input.Value()
		if line == "" {
			return m, nil
		}
		cmd, err := ParseInput(line)
		if err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		if cmd.Kind != CommandSend {
			// Sent messages are cleared by the session once they are queued
			m.input.Reset()
		}
		return m.execute(cmd)

	case "ctrl+n", "ctrl+p":
		step := 1
		if msg.String() == "ctrl+p" {
			step = -1
		}
		if id, ok := m.neighbourChannel(step); ok {
			return m.execute(Command{Kind: CommandJoin, ID: id})
		}
		return m, nil

	case "?":
		if m.input.Value() == "" {
			return m.execute(Command{Kind: CommandHelp})
		}

	case "pgup", "up":
		var cmd tea.Cmd
		m.chatViewport, cmd = m.chatViewport.Update(msg)
		m.follow = false
		if msg.String() == "pgup" && m.chatViewport.AtTop() {
			return m.execute(Command{Kind: CommandMore})
		}
		return m, cmd

	case "pgdown", "down":
		var cmd tea.Cmd
		m.chatViewport, cmd = m.chatViewport.Update(msg)
		m.follow = m.chatViewport.AtBottom()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleActionResult(msg actionResultMsg) (tea.Model, tea.Cmd) {
	if msg.Action == "load more" {
		m.loadingMore = false
	}
	if msg.Err == nil {
		return m, nil
	}
	m.logf("%s: %v", msg.Action, msg.Err)

	switch {
	case msg.Action == "connect":
		m.modalStack.Push(modal.NewErrorModal("Connection failed", msg.Err.Error(), func() tea.Cmd {
			return tea.Quit
		}))
	case errors.Is(msg.Err, client.ErrStaleResponse):
		// superseded by a newer selection
	case errors.Is(msg.Err, client.ErrLoadInFlight):
	case errors.Is(msg.Err, client.ErrEmptyMessage):
		m.setStatus("Nothing to send", true)
	case errors.Is(msg.Err, client.ErrNotConnected):
		m.setStatus("Not connected", true)
	case errors.Is(msg.Err, client.ErrNoChannel):
		m.setStatus("No channel selected", true)
	default:
		m.setStatus(fmt.Sprintf("%s failed: %v", msg.Action, msg.Err), true)
	}
	return m, nil
}

func (m *Model) setStatus(text string, isError bool) {
	m.status = text
	m.statusError = isError
}

// applyDelta folds one session delta into the view state
func (m *Model) applyDelta(d client.Delta) {
	switch d := d.(type) {
	case client.ConnectionChanged:
		m.connection = d.State
		m.reconnecting = d.Reconnecting

	case client.ChannelsReplaced:
		m.channels = d.Channels
		if d.Active != 0 {
			m.activeChannel = d.Active
		}

	case client.ChannelSelected:
		m.activeChannel = d.Current
		m.messages = nil
		m.members = nil
		m.files = make(map[uint64][]protocol.AttachmentRef)
		m.loadingMore = false
		m.follow = true

	case client.MessagesReset:
		if d.ChannelID == m.activeChannel || d.ChannelID == 0 {
			m.messages = nil
		}

	case client.MessagesPrepended:
		if d.ChannelID != m.activeChannel {
			return
		}
		m.messages = append(append([]protocol.Message(nil), d.Messages...), m.messages...)
		m.loadingMore = false

	case client.MessageAppended:
		if d.ChannelID != m.activeChannel {
			return
		}
		m.messages = append(m.messages, d.Message)

	case client.RosterReplaced:
		if d.ChannelID != m.activeChannel {
			return
		}
		m.members = append([]string(nil), d.Members...)
		sort.Strings(m.members)

	case client.MemberJoined:
		if d.ChannelID != m.activeChannel {
			return
		}
		i := sort.SearchStrings(m.members, d.Nick)
		if i < len(m.members) && m.members[i] == d.Nick {
			return
		}
		m.members = append(m.members, "")
		copy(m.members[i+1:], m.members[i:])
		m.members[i] = d.Nick

	case client.MemberLeft:
		for i, nick := range m.members {
			if nick == d.Nick {
				m.members = append(m.members[:i], m.members[i+1:]...)
				break
			}
		}

	case client.AttachmentStaged:
		for i := range m.attachments {
			if m.attachments[i].Name == d.Name {
				m.attachments[i].ResourceID = d.ResourceID
				return
			}
		}
		m.attachments = append(m.attachments, client.PendingAttachment{Name: d.Name, ResourceID: d.ResourceID})

	case client.AttachmentRemoved:
		for i := range m.attachments {
			if m.attachments[i].Name == d.Name {
				m.attachments = append(m.attachments[:i], m.attachments[i+1:]...)
				break
			}
		}

	case client.EditorCleared:
		m.input.Reset()

	case client.MuteChanged:
		m.muted = d.Muted
		if d.Muted {
			m.setStatus("Alerts muted", false)
		} else {
			m.setStatus("Alerts on", false)
		}

	case client.Notice:
		if d.OK {
			m.setStatus(d.Action+": done", false)
		} else {
			m.setStatus(d.Action+": failed", true)
		}
	}
	m.refreshChat()
}

// refreshChat re-renders the message list into the viewport
func (m *Model) refreshChat() {
	m.chatViewport.SetContent(m.buildChatMessages())
	if m.follow {
		m.chatViewport.GotoBottom()
	}
}
