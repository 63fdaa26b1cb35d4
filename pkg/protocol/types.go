package protocol

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DatetimeLayout is the server's message timestamp format (UTC).
const DatetimeLayout = "2006-01-02 15:04:05"

// Message is a chat message as delivered by msg_deliver or a history page.
type Message struct {
	ID          uint64   `json:"id"`
	ChannelID   uint64   `json:"channel_id,omitempty"`
	Author      string   `json:"author"`
	Datetime    string   `json:"datetime"`
	Body        string   `json:"body"`
	Attachments []string `json:"attachments"`
}

func (m *Message) Validate() error {
	if m.ID == 0 {
		return errors.New("message id must be non-zero")
	}
	if m.Author == "" {
		return fmt.Errorf("message %d has no author", m.ID)
	}
	for _, a := range m.Attachments {
		if a == "" {
			return fmt.Errorf("message %d has an empty attachment id", m.ID)
		}
	}
	return nil
}

// Time parses Datetime. A zero time is returned when the server sent an
// unparseable value.
func (m *Message) Time() time.Time {
	t, err := time.ParseInLocation(DatetimeLayout, m.Datetime, time.UTC)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, m.Datetime); err != nil {
			return time.Time{}
		}
	}
	return t
}

// Channel is one entry of the channel directory.
type Channel struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
}

func (c *Channel) Validate() error {
	if c.ID == 0 {
		return errors.New("channel id must be non-zero")
	}
	if c.Name == "" {
		return fmt.Errorf("channel %d has no name", c.ID)
	}
	return nil
}

// ResourceMeta is the metadata of an uploaded file.
type ResourceMeta struct {
	Filename string `json:"filename"`
	Mime     string `json:"mime"`
}

func (r *ResourceMeta) Validate() error {
	if r.Filename == "" {
		return errors.New("resource has no filename")
	}
	return nil
}

// UploadResponse is returned by the upload endpoint.
type UploadResponse struct {
	UUID string `json:"uuid"`
}

func (u *UploadResponse) Validate() error {
	if u.UUID == "" {
		return errors.New("upload response has no uuid")
	}
	return nil
}

// AckPayload confirms a correlated emit.
type AckPayload struct {
	ID string `json:"id"`
}

func (a *AckPayload) Validate() error {
	if a.ID == "" {
		return errors.New("ack has no id")
	}
	return nil
}

// AttachmentKind selects how an attachment is rendered.
type AttachmentKind string

const (
	KindImage AttachmentKind = "image"
	KindVideo AttachmentKind = "video"
	KindFile  AttachmentKind = "file"
)

// AttachmentRef is a message attachment resolved through its resource metadata.
type AttachmentRef struct {
	ResourceID string
	Mime       string
	Filename   string
}

// Kind classifies the attachment by its mime type prefix.
func (a AttachmentRef) Kind() AttachmentKind {
	switch {
	case strings.HasPrefix(a.Mime, "image/"):
		return KindImage
	case strings.HasPrefix(a.Mime, "video/"):
		return KindVideo
	default:
		return KindFile
	}
}
