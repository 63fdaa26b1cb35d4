package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/aeolun/yacs/pkg/protocol"
)

var errFake = errors.New("fake failure")

type messagesCall struct {
	ChannelID uint64
	Count     int
	Offset    int
}

// FakeAPI is an in-memory APIInterface. History is stored ascending and
// served newest first like the real server.
type FakeAPI struct {
	mu sync.Mutex

	channels []protocol.Channel
	history  map[uint64][]protocol.Message
	members  map[uint64][]string
	meta     map[string]protocol.ResourceMeta

	// gates block Messages/Members for a channel until closed
	gates       map[uint64]chan struct{}
	memberGates map[uint64]chan struct{}

	failChannels  bool
	failMessages  map[uint64]bool
	failMembers   map[uint64]bool
	failSubmit    map[string]bool
	failRecall    map[string]bool
	failMutations bool

	MessageCalls []messagesCall
	memberCalls  int
	Submitted    []string
	Recalled     []string
	Mutations    []string
	nextUpload   int
}

func NewFakeAPI() *FakeAPI {
	return &FakeAPI{
		history:      make(map[uint64][]protocol.Message),
		members:      make(map[uint64][]string),
		meta:         make(map[string]protocol.ResourceMeta),
		gates:        make(map[uint64]chan struct{}),
		memberGates:  make(map[uint64]chan struct{}),
		failMessages: make(map[uint64]bool),
		failMembers:  make(map[uint64]bool),
		failSubmit:   make(map[string]bool),
		failRecall:   make(map[string]bool),
	}
}

func (f *FakeAPI) SetChannels(chans ...protocol.Channel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels = chans
}

// SetHistory stores n messages for a channel with ids first..first+n-1.
func (f *FakeAPI) SetHistory(channelID uint64, first uint64, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := make([]protocol.Message, n)
	for i := range msgs {
		id := first + uint64(i)
		msgs[i] = protocol.Message{ID: id, Author: "bob", Body: fmt.Sprintf("message %d", id)}
	}
	f.history[channelID] = msgs
}

func (f *FakeAPI) AddMessage(channelID uint64, m protocol.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history[channelID] = append(f.history[channelID], m)
}

func (f *FakeAPI) SetMembers(channelID uint64, nicks ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[channelID] = nicks
}

func (f *FakeAPI) SetMeta(id string, meta protocol.ResourceMeta) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meta[id] = meta
}

// Gate makes requests for channelID block until the returned func is called.
func (f *FakeAPI) Gate(channelID uint64) (release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[channelID] = ch
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// GateMembers blocks only Members for channelID until release is called.
func (f *FakeAPI) GateMembers(channelID uint64) (release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.memberGates[channelID] = ch
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (f *FakeAPI) wait(ctx context.Context, channelID uint64) error {
	f.mu.Lock()
	gate := f.gates[channelID]
	f.mu.Unlock()
	return waitGate(ctx, gate)
}

func waitGate(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *FakeAPI) FailSubmit(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSubmit[id] = true
}

func (f *FakeAPI) FailRecall(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failRecall[id] = true
}

func (f *FakeAPI) FailMessages(ch uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failMessages[ch] = true
}

func (f *FakeAPI) FailMembers(ch uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failMembers[ch] = true
}

func (f *FakeAPI) FailChannels(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failChannels = fail
}

func (f *FakeAPI) FailMutations(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failMutations = fail
}

func (f *FakeAPI) Calls() []messagesCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]messagesCall(nil), f.MessageCalls...)
}

func (f *FakeAPI) MemberCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.memberCalls
}

func (f *FakeAPI) ListChannels(ctx context.Context) ([]protocol.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failChannels {
		return nil, errFake
	}
	return append([]protocol.Channel(nil), f.channels...), nil
}

func (f *FakeAPI) mutation(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMutations {
		return &StatusError{Op: name, Code: 403}
	}
	f.Mutations = append(f.Mutations, name)
	return nil
}

func (f *FakeAPI) CreateChannel(ctx context.Context, name string) error {
	return f.mutation("create " + name)
}

func (f *FakeAPI) DeleteChannel(ctx context.Context, id uint64) error {
	return f.mutation(fmt.Sprintf("delete %d", id))
}

func (f *FakeAPI) RenameChannel(ctx context.Context, id uint64, name string) error {
	return f.mutation(fmt.Sprintf("rename %d %s", id, name))
}

func (f *FakeAPI) ToggleChannelPrivilege(ctx context.Context, id uint64) error {
	return f.mutation(fmt.Sprintf("toggle %d", id))
}

func (f *FakeAPI) KickUser(ctx context.Context, nick string) error {
	return f.mutation("kick " + nick)
}

func (f *FakeAPI) DeleteResource(ctx context.Context, id string) error {
	return f.mutation("rmres " + id)
}

func (f *FakeAPI) DeleteMessage(ctx context.Context, id uint64) error {
	return f.mutation(fmt.Sprintf("rmmsg %d", id))
}

func (f *FakeAPI) Messages(ctx context.Context, channelID uint64, count, offset int) ([]protocol.Message, error) {
	f.mu.Lock()
	f.MessageCalls = append(f.MessageCalls, messagesCall{ChannelID: channelID, Count: count, Offset: offset})
	f.mu.Unlock()

	if err := f.wait(ctx, channelID); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMessages[channelID] {
		return nil, errFake
	}

	newest := append([]protocol.Message(nil), f.history[channelID]...)
	sort.Slice(newest, func(i, j int) bool { return newest[i].ID > newest[j].ID })
	if offset >= len(newest) {
		return []protocol.Message{}, nil
	}
	end := offset + count
	if end > len(newest) {
		end = len(newest)
	}
	return newest[offset:end], nil
}

func (f *FakeAPI) Members(ctx context.Context, channelID uint64) ([]string, error) {
	f.mu.Lock()
	f.memberCalls++
	f.mu.Unlock()

	if err := f.wait(ctx, channelID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	gate := f.memberGates[channelID]
	f.mu.Unlock()
	if err := waitGate(ctx, gate); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMembers[channelID] {
		return nil, errFake
	}
	return append([]string(nil), f.members[channelID]...), nil
}

func (f *FakeAPI) ResourceMeta(ctx context.Context, id string) (protocol.ResourceMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	meta, ok := f.meta[id]
	if !ok {
		return protocol.ResourceMeta{}, &StatusError{Op: "resource meta", Code: 404}
	}
	return meta, nil
}

func (f *FakeAPI) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextUpload++
	return fmt.Sprintf("up-%d", f.nextUpload), nil
}

func (f *FakeAPI) SubmitUpload(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSubmit[id] {
		return errFake
	}
	f.Submitted = append(f.Submitted, id)
	return nil
}

func (f *FakeAPI) RecallUpload(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRecall[id] {
		return errFake
	}
	f.Recalled = append(f.Recalled, id)
	return nil
}

var _ APIInterface = (*FakeAPI)(nil)

// recorder is a Renderer that keeps every delta it receives.
type recorder struct {
	mu     sync.Mutex
	deltas []Delta
}

func (r *recorder) Apply(d Delta) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deltas = append(r.deltas, d)
}

func (r *recorder) all() []Delta {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Delta(nil), r.deltas...)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deltas = nil
}

// notices returns the Notice deltas in order
func (r *recorder) notices() []Notice {
	var out []Notice
	for _, d := range r.all() {
		if n, ok := d.(Notice); ok {
			out = append(out, n)
		}
	}
	return out
}

type countingNotifier struct {
	mu   sync.Mutex
	msgs []protocol.Message
}

func (n *countingNotifier) Notify(msg protocol.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.msgs)
}
