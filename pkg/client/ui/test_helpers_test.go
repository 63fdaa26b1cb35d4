package ui

import (
	"context"
	"io"
	"log"
	"strconv"
	"sync"

	"github.com/aeolun/yacs/pkg/client"
	"github.com/aeolun/yacs/pkg/protocol"
	tea "github.com/charmbracelet/bubbletea"
)

// fakeController records the calls the UI makes
type fakeController struct {
	mu    sync.Mutex
	calls []string
	err   error
	muted bool
	refs  []protocol.AttachmentRef
}

func (f *fakeController) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeController) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeController) Connect(ctx context.Context) error { return f.record("connect") }
func (f *fakeController) SelectChannel(ctx context.Context, id uint64) error {
	return f.record("join " + itoa(id))
}
func (f *fakeController) LoadMore(ctx context.Context) error        { return f.record("more") }
func (f *fakeController) RefreshChannels(ctx context.Context) error { return f.record("refresh") }
func (f *fakeController) Send(ctx context.Context, body string) error {
	return f.record("send " + body)
}
func (f *fakeController) Upload(ctx context.Context, path string) error {
	return f.record("upload " + path)
}
func (f *fakeController) CancelAttachment(ctx context.Context, name string) error {
	return f.record("drop " + name)
}
func (f *fakeController) ToggleMute() bool {
	f.record("mute")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.muted = !f.muted
	return f.muted
}
func (f *fakeController) ResolveAttachments(ctx context.Context, msg protocol.Message) []protocol.AttachmentRef {
	f.record("files " + itoa(msg.ID))
	return f.refs
}
func (f *fakeController) CreateChannel(ctx context.Context, name string) error {
	return f.record("mkchan " + name)
}
func (f *fakeController) DeleteChannel(ctx context.Context, id uint64) error {
	return f.record("rmchan " + itoa(id))
}
func (f *fakeController) RenameChannel(ctx context.Context, id uint64, name string) error {
	return f.record("renchan " + itoa(id) + " " + name)
}
func (f *fakeController) ToggleChannelPrivilege(ctx context.Context, id uint64) error {
	return f.record("privchan " + itoa(id))
}
func (f *fakeController) KickUser(ctx context.Context, nick string) error {
	return f.record("kick " + nick)
}
func (f *fakeController) DeleteResource(ctx context.Context, id string) error {
	return f.record("rmres " + id)
}
func (f *fakeController) DeleteMessage(ctx context.Context, id uint64) error {
	return f.record("rmmsg " + itoa(id))
}
func (f *fakeController) Snapshot() client.Session {
	return client.Session{Identity: client.Identity{Nick: "alice", Token: "tok"}}
}

var _ Controller = (*fakeController)(nil)

func itoa(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// NewTestModel creates a sized Model backed by a fake controller
func NewTestModel() (Model, *fakeController) {
	ctrl := &fakeController{}
	m := NewModel(context.Background(), ctrl, log.New(io.Discard, "", 0))
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(Model), ctrl
}

// apply feeds deltas through Update
func apply(m Model, deltas ...client.Delta) Model {
	for _, d := range deltas {
		updated, _ := m.Update(DeltaMsg{Delta: d})
		m = updated.(Model)
	}
	return m
}

// typeLine sets the input and presses enter, running the resulting command
func typeLine(m Model, line string) (Model, tea.Msg) {
	m.input.SetValue(line)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	if cmd == nil {
		return m, nil
	}
	return m, cmd()
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func testMessage(id uint64, author, body string) protocol.Message {
	return protocol.Message{ID: id, Author: author, Datetime: "2024-03-01 12:30:00", Body: body}
}
