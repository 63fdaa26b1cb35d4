package client

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// PresenceTracker keeps the roster of the active channel. The roster is keyed
// by nick and scoped to exactly one channel.
type PresenceTracker struct {
	api      APIInterface
	renderer Renderer
	self     string
	metrics  *Metrics
	logger   *log.Logger

	mu      sync.Mutex
	tag     RequestTag
	members []string

	// pushes seen while a Load for tag is in flight, replayed onto its result
	loads  int
	replay []memberEvent
}

type memberEvent struct {
	nick   string
	joined bool
}

// NewPresenceTracker creates a tracker that ignores membership events about self.
func NewPresenceTracker(api APIInterface, renderer Renderer, self string) *PresenceTracker {
	if renderer == nil {
		renderer = nopRenderer{}
	}
	return &PresenceTracker{api: api, renderer: renderer, self: self}
}

func (p *PresenceTracker) SetLogger(logger *log.Logger) { p.logger = logger }
func (p *PresenceTracker) SetMetrics(m *Metrics)       { p.metrics = m }

func (p *PresenceTracker) logf(format string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Printf(format, args...)
	}
}

// Reset empties the roster and binds it to a new activation.
func (p *PresenceTracker) Reset(tag RequestTag) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tag = tag
	p.members = nil
	p.loads = 0
	p.replay = nil
	p.renderer.Apply(RosterReplaced{ChannelID: tag.ChannelID})
}

// Load replaces the roster with a fresh fetch for the bound channel. Joins
// and leaves pushed while the fetch is in flight are applied on top of it.
func (p *PresenceTracker) Load(ctx context.Context) error {
	p.mu.Lock()
	tag := p.tag
	if tag.ChannelID != 0 {
		p.loads++
	}
	p.mu.Unlock()

	if tag.ChannelID == 0 {
		return ErrNoChannel
	}

	nicks, err := p.api.Members(ctx, tag.ChannelID)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tag != tag {
		p.metrics.RecordStaleResponse("members")
		p.logf("Discarding roster for channel %d (generation %d)", tag.ChannelID, tag.Generation)
		return ErrStaleResponse
	}
	replay := p.replay
	p.loads--
	if p.loads == 0 {
		p.replay = nil
	}
	if err != nil {
		p.logf("Loading roster for channel %d failed: %v", tag.ChannelID, err)
		return fmt.Errorf("load members: %w", err)
	}

	seen := make(map[string]struct{}, len(nicks))
	members := make([]string, 0, len(nicks))
	for _, n := range nicks {
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		members = append(members, n)
	}
	for _, ev := range replay {
		i := indexOf(members, ev.nick)
		switch {
		case ev.joined && i < 0:
			members = append(members, ev.nick)
		case !ev.joined && i >= 0:
			members = append(members[:i], members[i+1:]...)
		}
	}
	p.members = members
	p.renderer.Apply(RosterReplaced{ChannelID: tag.ChannelID, Members: append([]string(nil), members...)})
	return nil
}

// Joined adds a nick to the roster. Joins for self or for a nick already
// present change nothing.
func (p *PresenceTracker) Joined(nick string) bool {
	if nick == "" || nick == p.self {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tag.ChannelID == 0 {
		return false
	}
	p.record(nick, true)
	if indexOf(p.members, nick) >= 0 {
		return false
	}
	p.members = append(p.members, nick)
	p.renderer.Apply(MemberJoined{ChannelID: p.tag.ChannelID, Nick: nick})
	return true
}

// Left removes a nick from the roster.
func (p *PresenceTracker) Left(nick string) bool {
	if nick == "" || nick == p.self {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.record(nick, false)
	i := indexOf(p.members, nick)
	if i < 0 {
		return false
	}
	p.members = append(p.members[:i], p.members[i+1:]...)
	p.renderer.Apply(MemberLeft{ChannelID: p.tag.ChannelID, Nick: nick})
	return true
}

func (p *PresenceTracker) record(nick string, joined bool) {
	if p.loads > 0 {
		p.replay = append(p.replay, memberEvent{nick: nick, joined: joined})
	}
}

func indexOf(members []string, nick string) int {
	for i, m := range members {
		if m == nick {
			return i
		}
	}
	return -1
}

// Members returns a copy of the roster
func (p *PresenceTracker) Members() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.members...)
}

// ChannelID returns the channel the roster is bound to
func (p *PresenceTracker) ChannelID() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tag.ChannelID
}
