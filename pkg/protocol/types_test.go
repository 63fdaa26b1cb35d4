package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestMessageTime(t *testing.T) {
	m := Message{Datetime: "2024-05-06 07:08:09"}
	assert.Equal(t, time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC), m.Time())

	m.Datetime = "2024-05-06T07:08:09Z"
	assert.Equal(t, time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC), m.Time().UTC())

	m.Datetime = "yesterday"
	assert.True(t, m.Time().IsZero())
}

func TestMessageValidate(t *testing.T) {
	assert.NoError(t, (&Message{ID: 1, Author: "a"}).Validate())
	assert.Error(t, (&Message{Author: "a"}).Validate())
	assert.Error(t, (&Message{ID: 1}).Validate())
	assert.Error(t, (&Message{ID: 1, Author: "a", Attachments: []string{"u1", ""}}).Validate())
}

func TestChannelDecode(t *testing.T) {
	var chans []Channel
	require.NoError(t, json.Unmarshal([]byte(`[{"id":1,"name":"general","is_admin":false},{"id":2,"name":"ops","is_admin":true}]`), &chans))
	require.Len(t, chans, 2)
	assert.Equal(t, Channel{ID: 1, Name: "general"}, chans[0])
	assert.True(t, chans[1].IsAdmin)

	for i := range chans {
		assert.NoError(t, chans[i].Validate())
	}
	assert.Error(t, (&Channel{ID: 3}).Validate())
	assert.Error(t, (&Channel{Name: "x"}).Validate())
}

func TestResourceAndUploadValidate(t *testing.T) {
	assert.NoError(t, (&ResourceMeta{Filename: "a.png", Mime: "image/png"}).Validate())
	assert.Error(t, (&ResourceMeta{Mime: "image/png"}).Validate())
	assert.NoError(t, (&UploadResponse{UUID: "u1"}).Validate())
	assert.Error(t, (&UploadResponse{}).Validate())
}

func TestAttachmentKind(t *testing.T) {
	tests := []struct {
		mime string
		want AttachmentKind
	}{
		{"image/png", KindImage},
		{"image/gif", KindImage},
		{"video/mp4", KindVideo},
		{"application/pdf", KindFile},
		{"text/plain", KindFile},
		{"", KindFile},
		{"imagery/x", KindFile},
	}
	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			assert.Equal(t, tt.want, AttachmentRef{Mime: tt.mime}.Kind())
		})
	}
}

// TestMessageEnvelopeRoundTrip checks that any valid message survives being
// wrapped in a msg_deliver envelope and decoded back.
func TestMessageEnvelopeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		msg := Message{
			ID:          rapid.Uint64Min(1).Draw(t, "id"),
			Author:      rapid.StringN(1, 32, -1).Draw(t, "author"),
			Datetime:    "2024-01-01 00:00:00",
			Body:        rapid.String().Draw(t, "body"),
			Attachments: rapid.SliceOfN(rapid.StringN(1, 36, -1), 0, 4).Draw(t, "attachments"),
		}

		env, err := NewEnvelope(EventMessageDeliver, "", &msg)
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		raw, err := json.Marshal(env)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		parsed, err := ParseEnvelope(raw)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}

		var got Message
		if err := parsed.Decode(&got); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if got.ID != msg.ID || got.Author != msg.Author || got.Body != msg.Body {
			t.Fatalf("mismatch: got %+v want %+v", got, msg)
		}
		if len(got.Attachments) != len(msg.Attachments) {
			t.Fatalf("attachments: got %v want %v", got.Attachments, msg.Attachments)
		}
	})
}
