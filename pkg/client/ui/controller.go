package ui

import (
	"context"

	"github.com/aeolun/yacs/pkg/client"
	"github.com/aeolun/yacs/pkg/protocol"
)

// Controller is the part of the session controller the UI drives.
type Controller interface {
	Connect(ctx context.Context) error
	SelectChannel(ctx context.Context, id uint64) error
	LoadMore(ctx context.Context) error
	RefreshChannels(ctx context.Context) error
	Send(ctx context.Context, body string) error
	Upload(ctx context.Context, path string) error
	CancelAttachment(ctx context.Context, name string) error
	ToggleMute() bool
	ResolveAttachments(ctx context.Context, msg protocol.Message) []protocol.AttachmentRef

	CreateChannel(ctx context.Context, name string) error
	DeleteChannel(ctx context.Context, id uint64) error
	RenameChannel(ctx context.Context, id uint64, name string) error
	ToggleChannelPrivilege(ctx context.Context, id uint64) error
	KickUser(ctx context.Context, nick string) error
	DeleteResource(ctx context.Context, id string) error
	DeleteMessage(ctx context.Context, id uint64) error

	Snapshot() client.Session
}

var _ Controller = (*client.SessionController)(nil)
