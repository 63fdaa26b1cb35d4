package client

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

// Identity is the nick and opaque token a session authenticates with.
type Identity struct {
	Nick  string
	Token string
}

// Validate checks the identity can be encoded into a credential.
// A nick containing ':' would be ambiguous in the Basic form.
func (id Identity) Validate() error {
	if id.Nick == "" {
		return errors.New("nick is required")
	}
	if id.Token == "" {
		return errors.New("token is required")
	}
	if strings.ContainsAny(id.Nick, ": \t\r\n") {
		return errors.New("nick must not contain ':' or whitespace")
	}
	return nil
}

// Credential returns the Authorization header value for this identity.
func (id Identity) Credential() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(id.Nick+":"+id.Token))
}

// Header returns a header set carrying the credential, for the websocket handshake.
func (id Identity) Header() http.Header {
	h := http.Header{}
	h.Set("Authorization", id.Credential())
	return h
}

// ParseCredential decodes an Authorization header value produced by Credential.
func ParseCredential(value string) (Identity, bool) {
	const prefix = "Basic "
	if !strings.HasPrefix(value, prefix) {
		return Identity{}, false
	}
	raw, err := base64.StdEncoding.DecodeString(value[len(prefix):])
	if err != nil {
		return Identity{}, false
	}
	nick, token, ok := strings.Cut(string(raw), ":")
	if !ok || nick == "" || token == "" {
		return Identity{}, false
	}
	return Identity{Nick: nick, Token: token}, true
}
