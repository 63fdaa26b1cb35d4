package client

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/aeolun/yacs/pkg/protocol"
)

// ChannelDirectory is a full-replace cache of the server's channel list.
type ChannelDirectory struct {
	api      APIInterface
	renderer Renderer
	active   func() uint64
	logger   *log.Logger

	mu       sync.Mutex
	channels []protocol.Channel
	issued   uint64
	applied  uint64
}

// NewChannelDirectory creates a directory. active reports the channel that
// should carry the selection marker after a refresh; it may be nil.
func NewChannelDirectory(api APIInterface, renderer Renderer, active func() uint64) *ChannelDirectory {
	if renderer == nil {
		renderer = nopRenderer{}
	}
	if active == nil {
		active = func() uint64 { return 0 }
	}
	return &ChannelDirectory{api: api, renderer: renderer, active: active}
}

func (d *ChannelDirectory) SetLogger(logger *log.Logger) { d.logger = logger }

func (d *ChannelDirectory) logf(format string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Printf(format, args...)
	}
}

// Refresh fetches the full list and replaces the cache. When refreshes
// overlap, a response older than one already applied is dropped.
func (d *ChannelDirectory) Refresh(ctx context.Context) error {
	d.mu.Lock()
	d.issued++
	seq := d.issued
	d.mu.Unlock()

	chans, err := d.api.ListChannels(ctx)
	if err != nil {
		d.logf("Channel refresh failed: %v", err)
		return fmt.Errorf("refresh channels: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if seq < d.applied {
		d.logf("Discarding channel list %d, %d already applied", seq, d.applied)
		return nil
	}
	d.applied = seq
	d.channels = append([]protocol.Channel(nil), chans...)
	d.renderer.Apply(ChannelsReplaced{
		Channels: append([]protocol.Channel(nil), chans...),
		Active:   d.active(),
	})
	return nil
}

// Channels returns a copy of the cached list
func (d *ChannelDirectory) Channels() []protocol.Channel {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]protocol.Channel(nil), d.channels...)
}

// Lookup finds a cached channel by id
func (d *ChannelDirectory) Lookup(id uint64) (protocol.Channel, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, ch := range d.channels {
		if ch.ID == id {
			return ch, true
		}
	}
	return protocol.Channel{}, false
}
