package client

import (
	"context"

	"github.com/aeolun/yacs/pkg/protocol"
)

// Administrative actions. Each reports a binary Notice; the server decides
// whether the caller is allowed. Successful channel mutations announce
// updating_channel so other sessions refresh their directories.

func (c *SessionController) CreateChannel(ctx context.Context, name string) error {
	return c.channelMutation("create channel", c.api.CreateChannel(ctx, name))
}

func (c *SessionController) DeleteChannel(ctx context.Context, id uint64) error {
	return c.channelMutation("delete channel", c.api.DeleteChannel(ctx, id))
}

func (c *SessionController) RenameChannel(ctx context.Context, id uint64, name string) error {
	return c.channelMutation("rename channel", c.api.RenameChannel(ctx, id, name))
}

func (c *SessionController) ToggleChannelPrivilege(ctx context.Context, id uint64) error {
	return c.channelMutation("toggle channel privilege", c.api.ToggleChannelPrivilege(ctx, id))
}

func (c *SessionController) KickUser(ctx context.Context, nick string) error {
	return c.adminAction("kick user", c.api.KickUser(ctx, nick))
}

func (c *SessionController) DeleteResource(ctx context.Context, id string) error {
	return c.adminAction("delete resource", c.api.DeleteResource(ctx, id))
}

func (c *SessionController) DeleteMessage(ctx context.Context, id uint64) error {
	return c.adminAction("delete message", c.api.DeleteMessage(ctx, id))
}

func (c *SessionController) adminAction(action string, err error) error {
	if err != nil {
		c.logf("%s failed: %v", action, err)
	}
	c.renderer.Apply(Notice{Action: action, OK: err == nil})
	return err
}

func (c *SessionController) channelMutation(action string, err error) error {
	if err := c.adminAction(action, err); err != nil {
		return err
	}
	if err := c.conn.Emit(protocol.EventUpdatingChannel, nil); err != nil {
		c.logf("Announcing channel update failed: %v", err)
	}
	return nil
}
