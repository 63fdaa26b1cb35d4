package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aeolun/yacs/pkg/protocol"
)

// MockConnection is a test implementation of ConnectionInterface. Pushes are
// dispatched synchronously on the caller's goroutine.
type MockConnection struct {
	mu sync.RWMutex

	// State
	connected  bool
	identity   Identity
	connectErr error
	emitErr    error

	handlers map[string][]Handler

	// Emitted envelopes for verification
	Emitted []*protocol.Envelope
}

// NewMockConnection creates a new mock connection
func NewMockConnection() *MockConnection {
	return &MockConnection{
		handlers: make(map[string][]Handler),
		Emitted:  make([]*protocol.Envelope, 0),
	}
}

// Connect simulates a successful handshake and dispatches the connect event
func (m *MockConnection) Connect(ctx context.Context, id Identity) error {
	m.mu.Lock()
	if m.connectErr != nil {
		err := m.connectErr
		m.mu.Unlock()
		return err
	}
	if m.connected {
		m.mu.Unlock()
		return fmt.Errorf("already connected")
	}
	m.connected = true
	m.identity = id
	m.mu.Unlock()

	m.dispatch(&protocol.Envelope{Event: protocol.EventConnect})
	return nil
}

// Disconnect simulates a local disconnect (no event is dispatched)
func (m *MockConnection) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
}

// Close closes the mock connection
func (m *MockConnection) Close() {
	m.Disconnect()
}

// IsConnected returns connection status
func (m *MockConnection) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// On registers a handler
func (m *MockConnection) On(event string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = append(m.handlers[event], h)
}

// Emit records an emit
func (m *MockConnection) Emit(event string, payload interface{}) error {
	return m.EmitWithID(event, "", payload)
}

// EmitWithID records an emit with a correlation id
func (m *MockConnection) EmitWithID(event, id string, payload interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return ErrNotConnected
	}
	if m.emitErr != nil {
		return m.emitErr
	}
	env, err := protocol.NewEnvelope(event, id, payload)
	if err != nil {
		return err
	}
	m.Emitted = append(m.Emitted, env)
	return nil
}

func (m *MockConnection) dispatch(env *protocol.Envelope) {
	m.mu.RLock()
	hs := append([]Handler(nil), m.handlers[env.Event]...)
	m.mu.RUnlock()
	for _, h := range hs {
		h(env)
	}
}

// Test helpers

// Push simulates a server push with the given payload
func (m *MockConnection) Push(event string, payload interface{}) {
	env, err := protocol.NewEnvelope(event, "", payload)
	if err != nil {
		panic(err)
	}
	m.dispatch(env)
}

// PushRaw simulates a server push with a raw JSON body
func (m *MockConnection) PushRaw(event, data string) {
	m.dispatch(&protocol.Envelope{Event: event, Data: json.RawMessage(data)})
}

// Drop simulates an unexpected transport loss
func (m *MockConnection) Drop() {
	m.mu.Lock()
	m.connected = false
	m.mu.Unlock()
	m.dispatch(&protocol.Envelope{Event: protocol.EventDisconnect})
}

// Reconnect simulates the transport re-establishing the socket after Drop
func (m *MockConnection) Reconnect() {
	m.mu.Lock()
	m.connected = true
	m.mu.Unlock()
	m.dispatch(&protocol.Envelope{Event: protocol.EventConnect})
}

// SetConnectError sets an error to return from Connect()
func (m *MockConnection) SetConnectError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectErr = err
}

// SetEmitError sets an error to return from Emit()
func (m *MockConnection) SetEmitError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emitErr = err
}

// Identity returns the identity passed to Connect
func (m *MockConnection) Identity() Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.identity
}

// EmittedEvents returns the emitted envelopes with the given event name
func (m *MockConnection) EmittedEvents(event string) []*protocol.Envelope {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*protocol.Envelope
	for _, env := range m.Emitted {
		if env.Event == event {
			out = append(out, env)
		}
	}
	return out
}

// ClearEmitted clears the recorded emits
func (m *MockConnection) ClearEmitted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Emitted = m.Emitted[:0]
}

// Verify that MockConnection implements ConnectionInterface
var _ ConnectionInterface = (*MockConnection)(nil)
