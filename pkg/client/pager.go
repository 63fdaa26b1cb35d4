package client

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/aeolun/yacs/pkg/protocol"
)

// RequestTag identifies the channel activation a request was issued for.
// Generation increases on every switch, so re-selecting the same channel
// still invalidates older requests.
type RequestTag struct {
	ChannelID  uint64
	Generation uint64
}

// MessagePager holds the loaded history of the active channel, ascending by id.
type MessagePager struct {
	api      APIInterface
	renderer Renderer
	metrics  *Metrics
	logger   *log.Logger

	mu       sync.Mutex
	tag      RequestTag
	messages []protocol.Message
	ids      map[uint64]struct{}
	loading  bool
}

func NewMessagePager(api APIInterface, renderer Renderer) *MessagePager {
	if renderer == nil {
		renderer = nopRenderer{}
	}
	return &MessagePager{
		api:      api,
		renderer: renderer,
		ids:      make(map[uint64]struct{}),
	}
}

func (p *MessagePager) SetLogger(logger *log.Logger) { p.logger = logger }
func (p *MessagePager) SetMetrics(m *Metrics)       { p.metrics = m }

func (p *MessagePager) logf(format string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Printf(format, args...)
	}
}

// Reset discards all loaded messages and binds the pager to a new activation.
// Responses to requests issued under the previous tag are dropped.
func (p *MessagePager) Reset(tag RequestTag) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tag = tag
	p.messages = nil
	p.ids = make(map[uint64]struct{})
	p.loading = false
	p.renderer.Apply(MessagesReset{ChannelID: tag.ChannelID})
}

// LoadMore fetches the next older page and inserts it before the earliest held
// message. It returns how many messages were added.
func (p *MessagePager) LoadMore(ctx context.Context, count int) (int, error) {
	if count <= 0 {
		return 0, fmt.Errorf("page size must be positive, got %d", count)
	}

	p.mu.Lock()
	tag := p.tag
	if tag.ChannelID == 0 {
		p.mu.Unlock()
		return 0, ErrNoChannel
	}
	if p.loading {
		p.mu.Unlock()
		return 0, ErrLoadInFlight
	}
	offset := len(p.messages)
	p.loading = true
	p.mu.Unlock()

	page, err := p.api.Messages(ctx, tag.ChannelID, count, offset)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tag != tag {
		p.metrics.RecordStaleResponse("messages")
		p.logf("Discarding message page for channel %d (generation %d)", tag.ChannelID, tag.Generation)
		return 0, ErrStaleResponse
	}
	p.loading = false

	if err != nil {
		p.logf("Loading messages for channel %d at offset %d failed: %v", tag.ChannelID, offset, err)
		return 0, fmt.Errorf("load messages: %w", err)
	}

	older := p.olderThanHeld(page)
	if len(older) == 0 {
		return 0, nil
	}
	for _, m := range older {
		p.ids[m.ID] = struct{}{}
	}
	p.messages = append(older, p.messages...)
	p.renderer.Apply(MessagesPrepended{ChannelID: tag.ChannelID, Messages: append([]protocol.Message(nil), older...)})
	return len(older), nil
}

// olderThanHeld sorts a page ascending and keeps only messages that belong
// before the earliest held one.
func (p *MessagePager) olderThanHeld(page []protocol.Message) []protocol.Message {
	out := make([]protocol.Message, 0, len(page))
	seen := make(map[uint64]struct{}, len(page))
	for _, m := range page {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		if _, held := p.ids[m.ID]; held {
			continue
		}
		if len(p.messages) > 0 && m.ID >= p.messages[0].ID {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AppendLive adds a pushed delivery at the end of the history. Deliveries for
// another channel and duplicates are ignored.
func (p *MessagePager) AppendLive(msg protocol.Message) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tag.ChannelID == 0 {
		return false
	}
	if msg.ChannelID != 0 && msg.ChannelID != p.tag.ChannelID {
		p.logf("Ignoring delivery for channel %d while %d is active", msg.ChannelID, p.tag.ChannelID)
		return false
	}
	if _, dup := p.ids[msg.ID]; dup {
		return false
	}
	p.ids[msg.ID] = struct{}{}
	p.messages = append(p.messages, msg)
	p.renderer.Apply(MessageAppended{ChannelID: p.tag.ChannelID, Message: msg})
	return true
}

// Messages returns a copy of the loaded history
func (p *MessagePager) Messages() []protocol.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]protocol.Message(nil), p.messages...)
}

// Len returns how many messages are held
func (p *MessagePager) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}

// Loading reports whether a page request is in flight for the current tag
func (p *MessagePager) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}
