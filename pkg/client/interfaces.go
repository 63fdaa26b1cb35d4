package client

import (
	"context"
	"io"

	"github.com/aeolun/yacs/pkg/protocol"
)

// Handler receives a server-pushed envelope. Handlers run on the connection's
// read goroutine, in arrival order.
type Handler func(env *protocol.Envelope)

// ConnectionInterface defines the persistent push/emit connection.
// This allows for mocking in tests while the real Connection implements all these methods
type ConnectionInterface interface {
	// Connection management
	Connect(ctx context.Context, id Identity) error
	Disconnect()
	Close()
	IsConnected() bool

	// Handlers are invoked in registration order for each event
	On(event string, h Handler)

	// Fire-and-forget emits; ErrNotConnected when the transport is down
	Emit(event string, payload interface{}) error
	EmitWithID(event, id string, payload interface{}) error
}

// APIInterface defines the request/response endpoints of the server.
type APIInterface interface {
	ListChannels(ctx context.Context) ([]protocol.Channel, error)
	CreateChannel(ctx context.Context, name string) error
	DeleteChannel(ctx context.Context, id uint64) error
	RenameChannel(ctx context.Context, id uint64, name string) error
	ToggleChannelPrivilege(ctx context.Context, id uint64) error
	KickUser(ctx context.Context, nick string) error
	DeleteResource(ctx context.Context, id string) error
	DeleteMessage(ctx context.Context, id uint64) error

	// Messages returns a page newest-first
	Messages(ctx context.Context, channelID uint64, count, offset int) ([]protocol.Message, error)
	Members(ctx context.Context, channelID uint64) ([]string, error)
	ResourceMeta(ctx context.Context, id string) (protocol.ResourceMeta, error)

	// Uploads
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
	SubmitUpload(ctx context.Context, id string) error
	RecallUpload(ctx context.Context, id string) error
}

// StateInterface defines the interface for client state persistence
// This allows for mocking in tests while the real State implements all these methods
type StateInterface interface {
	// Configuration
	GetConfig(key string) (string, error)
	SetConfig(key, value string) error

	// Nickname management
	GetLastNickname() string
	SetLastNickname(nickname string) error

	// Session preferences
	GetLastChannel() uint64
	SetLastChannel(channelID uint64) error
	GetMuted() bool
	SetMuted(muted bool) error

	// State directory
	GetStateDir() string

	// Close the state
	Close() error
}

// Renderer consumes the deltas produced by the session.
type Renderer interface {
	Apply(d Delta)
}

// Notifier alerts the user to a new message.
type Notifier interface {
	Notify(msg protocol.Message)
}
