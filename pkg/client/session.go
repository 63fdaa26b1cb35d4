package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aeolun/yacs/pkg/protocol"
)

// SessionState is the controller's connection lifecycle state.
type SessionState int

const (
	StateDisconnected SessionState = iota
	StateConnected
	StateChannelActive
)

func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateChannelActive:
		return "channel-active"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// Session is the state owned by the SessionController.
type Session struct {
	Identity      Identity
	State         SessionState
	ActiveChannel uint64
	Muted         bool
	// Reconnecting is set between a transport drop and the next connect.
	Reconnecting bool

	generation uint64
}

// Options configures a SessionController.
type Options struct {
	Identity       Identity
	IdleTimeout    time.Duration
	PageSize       int
	DefaultChannel uint64

	Renderer Renderer
	Notifier Notifier
	State    StateInterface
	Metrics  *Metrics
	Logger   *log.Logger
}

const (
	DefaultIdleTimeout = 5000 * time.Millisecond
	DefaultPageSize    = 30
)

// SessionController drives channel selection, history, presence and
// attachments for one session over one connection.
type SessionController struct {
	conn      ConnectionInterface
	api       APIInterface
	renderer  Renderer
	notifier  Notifier
	state     StateInterface
	metrics   *Metrics
	logger    *log.Logger
	pageSize  int
	defaultCh uint64

	directory *ChannelDirectory
	pager     *MessagePager
	presence  *PresenceTracker
	stager    *AttachmentStager
	heartbeat *HeartbeatMonitor
	pending   *PendingTracker

	mu   sync.Mutex
	sess Session

	registerOnce sync.Once

	// Lifetime of the controller; cancelled by Close
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSessionController wires the session components to a connection and API.
func NewSessionController(conn ConnectionInterface, api APIInterface, opts Options) (*SessionController, error) {
	if err := opts.Identity.Validate(); err != nil {
		return nil, fmt.Errorf("invalid identity: %w", err)
	}
	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Renderer == nil {
		opts.Renderer = nopRenderer{}
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.State == nil {
		opts.State = NewMockState()
	}

	hb, err := NewHeartbeatMonitor(conn, opts.Identity, opts.IdleTimeout)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &SessionController{
		conn:      conn,
		api:       api,
		renderer:  opts.Renderer,
		notifier:  opts.Notifier,
		state:     opts.State,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		pageSize:  opts.PageSize,
		defaultCh: opts.DefaultChannel,
		heartbeat: hb,
		pending:   NewPendingTracker(DefaultPendingLimit),
		sess: Session{
			Identity: opts.Identity,
			Muted:    opts.State.GetMuted(),
		},
		ctx:    ctx,
		cancel: cancel,
	}

	c.directory = NewChannelDirectory(api, opts.Renderer, c.ActiveChannel)
	c.pager = NewMessagePager(api, opts.Renderer)
	c.presence = NewPresenceTracker(api, opts.Renderer, opts.Identity.Nick)
	c.stager = NewAttachmentStager(api, opts.Renderer)

	c.directory.SetLogger(opts.Logger)
	c.pager.SetLogger(opts.Logger)
	c.pager.SetMetrics(opts.Metrics)
	c.presence.SetLogger(opts.Logger)
	c.presence.SetMetrics(opts.Metrics)
	c.stager.SetLogger(opts.Logger)
	hb.SetLogger(opts.Logger)
	hb.SetMetrics(opts.Metrics)

	return c, nil
}

func (c *SessionController) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

func (c *SessionController) registerHandlers() {
	c.conn.On(protocol.EventConnect, func(*protocol.Envelope) { c.onConnect() })
	c.conn.On(protocol.EventDisconnect, func(*protocol.Envelope) { c.onDrop() })
	c.conn.On(protocol.EventChannelUpdated, func(*protocol.Envelope) {
		c.directory.Refresh(c.ctx)
	})
	c.conn.On(protocol.EventMessageDeliver, c.onDeliver)
	c.conn.On(protocol.EventMemberJoined, func(env *protocol.Envelope) {
		var p protocol.MemberPayload
		if c.decode(env, &p) {
			c.presence.Joined(p.Target)
		}
	})
	c.conn.On(protocol.EventMemberLeft, func(env *protocol.Envelope) {
		var p protocol.MemberPayload
		if c.decode(env, &p) {
			c.presence.Left(p.Target)
		}
	})
	c.conn.On(protocol.EventAck, func(env *protocol.Envelope) {
		id := env.ID
		if id == "" {
			var p protocol.AckPayload
			if !c.decode(env, &p) {
				return
			}
			id = p.ID
		}
		if !c.pending.Confirm(id) {
			c.logf("Ack for unknown emit %s", id)
		}
	})
}

// decode validates a push payload; invalid pushes are logged and dropped.
func (c *SessionController) decode(env *protocol.Envelope, p protocol.Payload) bool {
	if err := env.Decode(p); err != nil {
		c.metrics.RecordInvalidPush(env.Event)
		c.logf("Dropping push: %v", err)
		return false
	}
	return true
}

// Connect opens the session's connection. The directory refresh and default
// channel selection run when the transport reports the handshake.
func (c *SessionController) Connect(ctx context.Context) error {
	c.registerOnce.Do(c.registerHandlers)

	c.mu.Lock()
	if c.sess.State != StateDisconnected {
		c.mu.Unlock()
		return errors.New("already connected")
	}
	id := c.sess.Identity
	c.mu.Unlock()

	if err := c.conn.Connect(ctx, id); err != nil {
		c.logf("Connect failed: %v", err)
		return fmt.Errorf("connect: %w", err)
	}
	if err := c.state.SetLastNickname(id.Nick); err != nil {
		c.logf("Saving nickname failed: %v", err)
	}
	return nil
}

func (c *SessionController) onConnect() {
	c.mu.Lock()
	// Disconnect may have closed the socket after it dispatched connect
	if !c.conn.IsConnected() {
		c.mu.Unlock()
		c.logf("Ignoring connect event for a closed connection")
		return
	}
	resume := c.sess.ActiveChannel
	wasReconnecting := c.sess.Reconnecting
	c.sess.State = StateConnected
	if resume != 0 {
		c.sess.State = StateChannelActive
	}
	c.sess.Reconnecting = false
	state := c.sess.State
	c.heartbeat.Start(c.ctx)
	c.mu.Unlock()

	c.logf("Connected (resume channel %d, reconnect %v)", resume, wasReconnecting)
	c.renderer.Apply(ConnectionChanged{State: state})

	c.directory.Refresh(c.ctx)

	target := resume
	if target == 0 {
		target = c.defaultChannel()
	}
	if target == 0 {
		c.logf("No channel to select")
		return
	}
	if err := c.SelectChannel(c.ctx, target); err != nil {
		c.logf("Selecting channel %d failed: %v", target, err)
	}
}

// defaultChannel picks the channel to open after connecting: the last
// channel used if it still exists, then the configured default, then the
// first listed channel. With an empty directory the configured default is
// tried blindly.
func (c *SessionController) defaultChannel() uint64 {
	chans := c.directory.Channels()
	if len(chans) == 0 {
		return c.defaultCh
	}
	for _, id := range []uint64{c.state.GetLastChannel(), c.defaultCh} {
		if id == 0 {
			continue
		}
		if _, ok := c.directory.Lookup(id); ok {
			return id
		}
	}
	return chans[0].ID
}

func (c *SessionController) onDrop() {
	c.mu.Lock()
	if c.sess.State == StateDisconnected {
		c.mu.Unlock()
		return
	}
	c.sess.Reconnecting = true
	state := c.sess.State
	c.mu.Unlock()

	c.logf("Connection lost, waiting for reconnect")
	c.renderer.Apply(ConnectionChanged{State: state, Reconnecting: true})
}

func (c *SessionController) onDeliver(env *protocol.Envelope) {
	var msg protocol.Message
	if !c.decode(env, &msg) {
		return
	}
	if !c.pager.AppendLive(msg) {
		return
	}

	c.mu.Lock()
	muted := c.sess.Muted
	self := c.sess.Identity.Nick
	c.mu.Unlock()

	if !muted && msg.Author != self {
		c.notifier.Notify(msg)
	}
}

// SelectChannel makes id the active channel: the marker moves, the server is
// told (best effort), and history and roster are reset and reloaded. The
// steps are not transactional; a failed load leaves the view empty.
func (c *SessionController) SelectChannel(ctx context.Context, id uint64) error {
	if id == 0 {
		return fmt.Errorf("select channel: %w", ErrNoChannel)
	}

	c.mu.Lock()
	if c.sess.State == StateDisconnected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	prev := c.sess.ActiveChannel
	c.sess.ActiveChannel = id
	c.sess.State = StateChannelActive
	c.sess.generation++
	tag := RequestTag{ChannelID: id, Generation: c.sess.generation}
	ident := c.sess.Identity
	c.mu.Unlock()

	c.renderer.Apply(ChannelSelected{Previous: prev, Current: id})
	c.pager.Reset(tag)
	c.presence.Reset(tag)

	payload := &protocol.SwitchChannelPayload{To: id, Nick: ident.Nick, Token: ident.Token}
	c.emitTracked(protocol.EventSwitchChannel, payload)

	if err := c.state.SetLastChannel(id); err != nil {
		c.logf("Saving last channel failed: %v", err)
	}

	_, pageErr := c.pager.LoadMore(ctx, c.pageSize)
	if !c.current(tag) {
		return pageErr
	}
	presenceErr := c.presence.Load(ctx)
	return errors.Join(pageErr, presenceErr)
}

// current reports whether tag still names the active channel activation.
func (c *SessionController) current(tag RequestTag) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.ActiveChannel == tag.ChannelID && c.sess.generation == tag.Generation
}

// emitTracked sends a correlated emit and remembers it until acked.
func (c *SessionController) emitTracked(event string, payload interface{}) error {
	pid := c.pending.Track(event, payload)
	if err := c.conn.EmitWithID(event, pid, payload); err != nil {
		c.pending.Take(pid)
		c.logf("Emit %s failed: %v", event, err)
		return err
	}
	return nil
}

// LoadMore fetches the next older page of the active channel.
func (c *SessionController) LoadMore(ctx context.Context) error {
	_, err := c.pager.LoadMore(ctx, c.pageSize)
	return err
}

// RefreshChannels re-fetches the channel directory.
func (c *SessionController) RefreshChannels(ctx context.Context) error {
	return c.directory.Refresh(ctx)
}

// Send finalizes staged attachments and posts a message to the active
// channel. The editor is cleared once the emit is queued.
func (c *SessionController) Send(ctx context.Context, body string) error {
	if strings.TrimSpace(body) == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	state := c.sess.State
	ident := c.sess.Identity
	c.mu.Unlock()

	switch {
	case state == StateDisconnected || !c.conn.IsConnected():
		c.renderer.Apply(Notice{Action: "send", OK: false})
		return ErrNotConnected
	case state != StateChannelActive:
		c.renderer.Apply(Notice{Action: "send", OK: false})
		return ErrNoChannel
	}

	ids := c.stager.Finalize(ctx)
	payload := &protocol.MessageSendPayload{
		Author:      ident.Nick,
		Token:       ident.Token,
		Body:        body,
		Attachments: ids,
	}
	if err := c.emitTracked(protocol.EventMessageSend, payload); err != nil {
		c.renderer.Apply(Notice{Action: "send", OK: false})
		return fmt.Errorf("send: %w", err)
	}
	c.renderer.Apply(EditorCleared{})
	c.renderer.Apply(Notice{Action: "send", OK: true})
	return nil
}

// Upload sends a local file and stages it under its base name.
func (c *SessionController) Upload(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		c.renderer.Apply(Notice{Action: "upload", OK: false})
		return fmt.Errorf("upload: %w", err)
	}
	defer f.Close()

	name := filepath.Base(path)
	id, err := c.api.Upload(ctx, name, f)
	if err != nil {
		c.renderer.Apply(Notice{Action: "upload", OK: false})
		return err
	}
	c.stager.Stage(name, id)
	c.renderer.Apply(Notice{Action: "upload", OK: true})
	return nil
}

// StageAttachment records an already uploaded resource under name.
func (c *SessionController) StageAttachment(name, resourceID string) {
	c.stager.Stage(name, resourceID)
}

// CancelAttachment recalls a staged upload.
func (c *SessionController) CancelAttachment(ctx context.Context, name string) error {
	err := c.stager.Cancel(ctx, name)
	c.renderer.Apply(Notice{Action: "cancel attachment", OK: err == nil})
	return err
}

// ToggleMute flips the new-message alert and persists the choice.
func (c *SessionController) ToggleMute() bool {
	c.mu.Lock()
	c.sess.Muted = !c.sess.Muted
	muted := c.sess.Muted
	c.mu.Unlock()

	if err := c.state.SetMuted(muted); err != nil {
		c.logf("Saving mute flag failed: %v", err)
	}
	c.renderer.Apply(MuteChanged{Muted: muted})
	return muted
}

// ResolveAttachments fetches the metadata of a message's attachments.
// Attachments whose metadata cannot be fetched are skipped.
func (c *SessionController) ResolveAttachments(ctx context.Context, msg protocol.Message) []protocol.AttachmentRef {
	refs := make([]protocol.AttachmentRef, 0, len(msg.Attachments))
	for _, id := range msg.Attachments {
		meta, err := c.api.ResourceMeta(ctx, id)
		if err != nil {
			c.logf("Resolving attachment %s of message %d failed: %v", id, msg.ID, err)
			continue
		}
		refs = append(refs, protocol.AttachmentRef{ResourceID: id, Mime: meta.Mime, Filename: meta.Filename})
	}
	return refs
}

// Unconfirmed lists correlated emits the server has not acked.
func (c *SessionController) Unconfirmed() []PendingEmit {
	return c.pending.Unconfirmed()
}

// Resend re-emits an unconfirmed emit under its original id. It is never
// called automatically.
func (c *SessionController) Resend(id string) error {
	p, ok := c.pending.Take(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPending, id)
	}
	err := c.conn.EmitWithID(p.Event, p.ID, p.Payload)
	p.SentAt = time.Now()
	c.pending.Restore(p)
	if err != nil {
		return fmt.Errorf("resend %s: %w", p.Event, err)
	}
	return nil
}

// Disconnect closes the connection and discards channel-scoped state.
// Staged attachments are kept.
func (c *SessionController) Disconnect() {
	c.conn.Disconnect()

	c.mu.Lock()
	prev := c.sess.ActiveChannel
	c.sess.State = StateDisconnected
	c.sess.ActiveChannel = 0
	c.sess.Reconnecting = false
	c.sess.generation++
	c.mu.Unlock()

	// must follow the state change; onConnect starts it under c.mu
	c.heartbeat.Stop()

	c.pager.Reset(RequestTag{})
	c.presence.Reset(RequestTag{})
	if prev != 0 {
		c.renderer.Apply(ChannelSelected{Previous: prev})
	}
	c.renderer.Apply(ConnectionChanged{State: StateDisconnected})
}

// Close tears the session down permanently.
func (c *SessionController) Close() {
	c.Disconnect()
	c.cancel()
	c.conn.Close()
}

// Snapshot returns a copy of the session state
func (c *SessionController) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

// ActiveChannel returns the active channel id, 0 for none
func (c *SessionController) ActiveChannel() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.ActiveChannel
}

func (c *SessionController) Channels() []protocol.Channel          { return c.directory.Channels() }
func (c *SessionController) Messages() []protocol.Message          { return c.pager.Messages() }
func (c *SessionController) Members() []string                     { return c.presence.Members() }
func (c *SessionController) PendingAttachments() []PendingAttachment { return c.stager.Pending() }
