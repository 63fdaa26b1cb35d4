package client

import "github.com/aeolun/yacs/pkg/protocol"

// Delta is a state change the session hands to its Renderer. Concrete types
// below are the only implementations.
type Delta interface {
	delta()
}

// ConnectionChanged reports the connection state. Reconnecting is set while
// the transport is re-dialing after an unexpected drop.
type ConnectionChanged struct {
	State        SessionState
	Reconnecting bool
}

// ChannelsReplaced carries the full directory after a refresh. Active is the
// channel that should carry the selection marker (0 for none).
type ChannelsReplaced struct {
	Channels []protocol.Channel
	Active   uint64
}

// ChannelSelected moves the selection marker.
type ChannelSelected struct {
	Previous uint64
	Current  uint64
}

// MessagesReset clears the message view.
type MessagesReset struct {
	ChannelID uint64
}

// MessagesPrepended inserts an older page (ascending) above the loaded history.
type MessagesPrepended struct {
	ChannelID uint64
	Messages  []protocol.Message
}

// MessageAppended adds a live delivery at the bottom.
type MessageAppended struct {
	ChannelID uint64
	Message   protocol.Message
}

// RosterReplaced carries the full member list of the active channel.
type RosterReplaced struct {
	ChannelID uint64
	Members   []string
}

type MemberJoined struct {
	ChannelID uint64
	Nick      string
}

type MemberLeft struct {
	ChannelID uint64
	Nick      string
}

// AttachmentStaged reports a new or overwritten pending attachment.
type AttachmentStaged struct {
	Name       string
	ResourceID string
	Replaced   bool
}

type AttachmentRemoved struct {
	Name string
}

// EditorCleared tells the renderer to empty the compose box.
type EditorCleared struct{}

type MuteChanged struct {
	Muted bool
}

// Notice is the binary outcome of a mutating action.
type Notice struct {
	Action string
	OK     bool
}

func (ConnectionChanged) delta() {}
func (ChannelsReplaced) delta()  {}
func (ChannelSelected) delta()   {}
func (MessagesReset) delta()     {}
func (MessagesPrepended) delta() {}
func (MessageAppended) delta()   {}
func (RosterReplaced) delta()    {}
func (MemberJoined) delta()      {}
func (MemberLeft) delta()        {}
func (AttachmentStaged) delta()  {}
func (AttachmentRemoved) delta() {}
func (EditorCleared) delta()     {}
func (MuteChanged) delta()       {}
func (Notice) delta()            {}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(Delta)

func (f RendererFunc) Apply(d Delta) { f(d) }

type nopRenderer struct{}

func (nopRenderer) Apply(Delta) {}

type nopNotifier struct{}

func (nopNotifier) Notify(protocol.Message) {}
