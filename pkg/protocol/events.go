// Package protocol defines the wire contract between a YACS client and server:
// the JSON envelopes exchanged over the websocket and the bodies of the
// request/response endpoints.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Server-pushed events
const (
	EventConnect        = "connect"         // handshake accepted (surfaced locally by the transport)
	EventDisconnect     = "disconnect"      // transport dropped (surfaced locally by the transport)
	EventChannelUpdated = "channel_updated" // channel set changed, broadcast to every session
	EventMessageDeliver = "msg_deliver"     // message delivered to the session's channel
	EventMemberLeft     = "leaving"         // scoped to a channel, carries the subject nick
	EventMemberJoined   = "joining"         // scoped to a channel, carries the subject nick
	EventAck            = "ack"             // echoes the envelope id of a correlated emit
)

// Client-emitted events
const (
	EventHeartbeat       = "heartbeat"
	EventSwitchChannel   = "sw_channel"
	EventMessageSend     = "msg_send"
	EventUpdatingChannel = "updating_channel"
)

var (
	ErrMissingEvent   = errors.New("envelope has no event name")
	ErrInvalidPayload = errors.New("invalid payload")
)

// Envelope wraps every websocket message with its event name.
// ID is set by the client on emits whose delivery it wants confirmed; a server
// that supports correlation echoes it back in an "ack" envelope.
type Envelope struct {
	Event string          `json:"event"`
	ID    string          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Payload is implemented by every typed envelope body.
type Payload interface {
	Validate() error
}

// NewEnvelope creates an envelope with the given event, correlation id and data.
func NewEnvelope(event, id string, data interface{}) (*Envelope, error) {
	if event == "" {
		return nil, ErrMissingEvent
	}
	env := &Envelope{Event: event, ID: id}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", event, err)
		}
		env.Data = raw
	}
	return env, nil
}

// ParseEnvelope parses a websocket message into an envelope.
func ParseEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	if env.Event == "" {
		return nil, ErrMissingEvent
	}
	return &env, nil
}

// Decode unmarshals the envelope body into p and validates it.
func (e *Envelope) Decode(p Payload) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%w: %s has no data", ErrInvalidPayload, e.Event)
	}
	if err := json.Unmarshal(e.Data, p); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, e.Event, err)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, e.Event, err)
	}
	return nil
}

// HeartbeatPayload is emitted periodically to keep the session from being evicted.
type HeartbeatPayload struct {
	Nick  string `json:"nick"`
	Token string `json:"token"`
}

func (p *HeartbeatPayload) Validate() error {
	if p.Nick == "" || p.Token == "" {
		return errors.New("heartbeat requires nick and token")
	}
	return nil
}

// SwitchChannelPayload tells the server which channel the session moved to.
type SwitchChannelPayload struct {
	To    uint64 `json:"to"`
	Nick  string `json:"nick"`
	Token string `json:"token"`
}

func (p *SwitchChannelPayload) Validate() error {
	if p.To == 0 {
		return errors.New("switch target must be a channel id")
	}
	if p.Nick == "" || p.Token == "" {
		return errors.New("switch requires nick and token")
	}
	return nil
}

// MessageSendPayload posts a message to the session's current channel.
type MessageSendPayload struct {
	Author      string   `json:"author"`
	Token       string   `json:"token"`
	Body        string   `json:"body"`
	Attachments []string `json:"attachments"`
}

func (p *MessageSendPayload) Validate() error {
	if p.Author == "" || p.Token == "" {
		return errors.New("message requires author and token")
	}
	if p.Body == "" {
		return errors.New("message body is empty")
	}
	return nil
}

// MemberPayload is the body of the joining and leaving pushes.
type MemberPayload struct {
	Target string `json:"target"`
}

func (p *MemberPayload) Validate() error {
	if p.Target == "" {
		return errors.New("member event has no target")
	}
	return nil
}

// EmptyPayload is used for events that carry no body.
type EmptyPayload struct{}

func (EmptyPayload) Validate() error { return nil }
