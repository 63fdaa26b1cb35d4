package ui

import (
	"context"
	"log"

	"github.com/aeolun/yacs/pkg/client"
	"github.com/aeolun/yacs/pkg/client/ui/modal"
	"github.com/aeolun/yacs/pkg/protocol"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	channelPaneWidth = 22
	memberPaneWidth  = 18
)

// Model is the terminal view of one session. It only changes in response to
// deltas and local input; the controller owns the session state.
type Model struct {
	ctrl   Controller
	ctx    context.Context
	logger *log.Logger
	self   string

	// Connection
	connection   client.SessionState
	reconnecting bool
	muted        bool

	// Channel view
	channels      []protocol.Channel
	activeChannel uint64
	messages      []protocol.Message
	members       []string
	attachments   []client.PendingAttachment
	files         map[uint64][]protocol.AttachmentRef // message id -> resolved attachments
	loadingMore   bool

	// Status line
	status      string
	statusError bool

	// UI state
	width        int
	height       int
	input        textinput.Model
	chatViewport viewport.Model
	follow       bool // keep the view pinned to the newest message
	modalStack   modal.ModalStack
}

// NewModel creates the application model. Commands run with ctx.
func NewModel(ctx context.Context, ctrl Controller, logger *log.Logger) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message, /help for commands"
	ti.Prompt = "> "
	ti.CharLimit = 0
	ti.Focus()

	snap := ctrl.Snapshot()
	return Model{
		ctrl:         ctrl,
		ctx:          ctx,
		logger:       logger,
		self:         snap.Identity.Nick,
		connection:   snap.State,
		muted:        snap.Muted,
		files:        make(map[uint64][]protocol.AttachmentRef),
		input:        ti,
		chatViewport: viewport.New(0, 0),
		follow:       true,
	}
}

func (m Model) logf(format string, args ...interface{}) {
	if m.logger != nil {
		m.logger.Printf(format, args...)
	}
}

// Init connects the session
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.connect())
}

func (m Model) connect() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return actionResultMsg{Action: "connect", Err: ctrl.Connect(ctx)}
	}
}

func (m Model) channelName(id uint64) string {
	for _, ch := range m.channels {
		if ch.ID == id {
			return ch.Name
		}
	}
	return ""
}

func (m Model) findMessage(id uint64) (protocol.Message, bool) {
	for _, msg := range m.messages {
		if msg.ID == id {
			return msg, true
		}
	}
	return protocol.Message{}, false
}

// neighbourChannel returns the channel step positions away from the active one
func (m Model) neighbourChannel(step int) (uint64, bool) {
	if len(m.channels) == 0 {
		return 0, false
	}
	idx := -1
	for i, ch := range m.channels {
		if ch.ID == m.activeChannel {
			idx = i
			break
		}
	}
	if idx < 0 {
		return m.channels[0].ID, true
	}
	next := (idx + step + len(m.channels)) % len(m.channels)
	if next == idx {
		return 0, false
	}
	return m.channels[next].ID, true
}
