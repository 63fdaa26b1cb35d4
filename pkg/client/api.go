package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aeolun/yacs/pkg/protocol"
)

// API is the request/response side of the server, bound to one identity.
type API struct {
	base    *url.URL
	id      Identity
	http    *http.Client
	metrics *Metrics
	logger  *log.Logger
}

// NewAPI creates an API client for the given HTTP base URL.
func NewAPI(baseURL string, id Identity, timeout time.Duration) (*API, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q: missing host", baseURL)
	}
	return &API{
		base: u,
		id:   id,
		http: &http.Client{Timeout: timeout},
	}, nil
}

// SetLogger sets a logger for request tracing
func (a *API) SetLogger(logger *log.Logger) {
	a.logger = logger
}

// SetMetrics attaches metrics to the API client
func (a *API) SetMetrics(m *Metrics) {
	a.metrics = m
}

func (a *API) logf(format string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Printf(format, args...)
	}
}

func (a *API) endpoint(path string, query url.Values) string {
	u := *a.base
	u.Path = a.base.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do performs one request and decodes a JSON body into out when out is non-nil.
func (a *API) do(ctx context.Context, op, method, target, contentType string, body io.Reader, out interface{}) (err error) {
	start := time.Now()
	defer func() {
		a.metrics.RecordRequest(op, err, time.Since(start))
		if err != nil {
			a.logf("%s %s failed: %v", method, target, err)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", a.id.Credential())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{Op: op, Code: resp.StatusCode}
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// ListChannels fetches the full channel directory.
func (a *API) ListChannels(ctx context.Context) ([]protocol.Channel, error) {
	var chans []protocol.Channel
	if err := a.do(ctx, "channels", http.MethodGet, a.endpoint("/channels", nil), "", nil, &chans); err != nil {
		return nil, err
	}
	for i := range chans {
		if err := chans[i].Validate(); err != nil {
			return nil, fmt.Errorf("channels: %w: %v", protocol.ErrInvalidPayload, err)
		}
	}
	return chans, nil
}

func (a *API) CreateChannel(ctx context.Context, name string) error {
	body, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return err
	}
	return a.do(ctx, "create channel", http.MethodPost, a.endpoint("/channel", nil), "application/json", bytes.NewReader(body), nil)
}

func (a *API) DeleteChannel(ctx context.Context, id uint64) error {
	q := url.Values{"id": {strconv.FormatUint(id, 10)}}
	return a.do(ctx, "delete channel", http.MethodDelete, a.endpoint("/channel", q), "", nil, nil)
}

// RenameChannel uses the server's non-standard UPDATE verb.
func (a *API) RenameChannel(ctx context.Context, id uint64, name string) error {
	q := url.Values{"id": {strconv.FormatUint(id, 10)}, "name": {name}}
	return a.do(ctx, "rename channel", "UPDATE", a.endpoint("/channel", q), "", nil, nil)
}

func (a *API) ToggleChannelPrivilege(ctx context.Context, id uint64) error {
	q := url.Values{"sw_priv": {strconv.FormatUint(id, 10)}}
	return a.do(ctx, "toggle channel privilege", "UPDATE", a.endpoint("/channel", q), "", nil, nil)
}

func (a *API) KickUser(ctx context.Context, nick string) error {
	return a.do(ctx, "kick user", http.MethodDelete, a.endpoint("/online/"+url.PathEscape(nick), nil), "", nil, nil)
}

func (a *API) DeleteResource(ctx context.Context, id string) error {
	return a.do(ctx, "delete resource", http.MethodDelete, a.endpoint("/resource/"+url.PathEscape(id), nil), "", nil, nil)
}

func (a *API) DeleteMessage(ctx context.Context, id uint64) error {
	return a.do(ctx, "delete message", http.MethodDelete, a.endpoint("/message/"+strconv.FormatUint(id, 10), nil), "", nil, nil)
}

// Messages fetches one page of history, newest first.
func (a *API) Messages(ctx context.Context, channelID uint64, count, offset int) ([]protocol.Message, error) {
	q := url.Values{"count": {strconv.Itoa(count)}, "offset": {strconv.Itoa(offset)}}
	var msgs []protocol.Message
	if err := a.do(ctx, "messages", http.MethodGet, a.endpoint("/messages/"+strconv.FormatUint(channelID, 10), q), "", nil, &msgs); err != nil {
		return nil, err
	}
	for i := range msgs {
		if err := msgs[i].Validate(); err != nil {
			return nil, fmt.Errorf("messages: %w: %v", protocol.ErrInvalidPayload, err)
		}
	}
	return msgs, nil
}

// Members fetches the nicks currently present in a channel.
func (a *API) Members(ctx context.Context, channelID uint64) ([]string, error) {
	var nicks []string
	if err := a.do(ctx, "members", http.MethodGet, a.endpoint("/members/"+strconv.FormatUint(channelID, 10), nil), "", nil, &nicks); err != nil {
		return nil, err
	}
	return nicks, nil
}

func (a *API) ResourceMeta(ctx context.Context, id string) (protocol.ResourceMeta, error) {
	var meta protocol.ResourceMeta
	if err := a.do(ctx, "resource meta", http.MethodGet, a.endpoint("/resource_meta/"+url.PathEscape(id), nil), "", nil, &meta); err != nil {
		return protocol.ResourceMeta{}, err
	}
	if err := meta.Validate(); err != nil {
		return protocol.ResourceMeta{}, fmt.Errorf("resource meta: %w: %v", protocol.ErrInvalidPayload, err)
	}
	return meta, nil
}

// Upload posts a file as the multipart field "file" and returns its resource id.
func (a *API) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("upload: read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}

	var resp protocol.UploadResponse
	if err := a.do(ctx, "upload", http.MethodPost, a.endpoint("/index_upload", nil), mw.FormDataContentType(), &buf, &resp); err != nil {
		return "", err
	}
	if err := resp.Validate(); err != nil {
		return "", fmt.Errorf("upload: %w: %v", protocol.ErrInvalidPayload, err)
	}
	return resp.UUID, nil
}

// SubmitUpload commits a staged upload so it can be referenced by a message.
func (a *API) SubmitUpload(ctx context.Context, id string) error {
	return a.do(ctx, "submit upload", http.MethodGet, a.endpoint("/submit_upload", url.Values{"submit": {id}}), "", nil, nil)
}

// RecallUpload withdraws a staged upload.
func (a *API) RecallUpload(ctx context.Context, id string) error {
	return a.do(ctx, "recall upload", http.MethodGet, a.endpoint("/submit_upload", url.Values{"recall": {id}}), "", nil, nil)
}

var _ APIInterface = (*API)(nil)
