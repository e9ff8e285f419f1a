package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"formcoach/internal/pose"
)

// HTTPID identifies the remote pose server backend.
const HTTPID = "http"

// HTTPDoer executes HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPOptions configures an HTTP backend.
type HTTPOptions struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Client  HTTPDoer
}

// HTTP posts frames to a remote pose server.
//
// The server exposes GET /healthz and POST /estimate; the latter accepts a
// frameRequest and answers with an Output.
type HTTP struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
}

// NewHTTP constructs the backend. A nil client gets one with opts.Timeout.
func NewHTTP(opts HTTPOptions) *HTTP {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTP{
		baseURL: strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		apiKey:  strings.TrimSpace(opts.APIKey),
		client:  client,
	}
}

func (h *HTTP) ID() string { return HTTPID }

func (h *HTTP) DisplayName() string { return "Remote pose server" }

// Probe checks the health endpoint.
func (h *HTTP) Probe(ctx context.Context) error {
	if h.baseURL == "" {
		return fmt.Errorf("pose server url not configured")
	}
	req, err := h.newRequest(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("pose server health: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("pose server health returned %d", resp.StatusCode)
	}
	return nil
}

// Initialize verifies the server is reachable.
func (h *HTTP) Initialize(ctx context.Context, _ Config) error {
	return h.Probe(ctx)
}

// frameRequest is the wire form of a frame shared by the HTTP and
// subprocess backends.
type frameRequest struct {
	ID     uint64 `json:"id"`
	Seq    uint64 `json:"seq"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format,omitempty"`
	Data   string `json:"data,omitempty"`
}

func newFrameRequest(id uint64, frame pose.Frame) frameRequest {
	w, h := frame.Dimensions()
	req := frameRequest{
		ID:     id,
		Seq:    frame.Seq,
		Width:  w,
		Height: h,
		Format: frame.Format,
	}
	if len(frame.Data) > 0 {
		req.Data = base64.StdEncoding.EncodeToString(frame.Data)
	}
	return req
}

// Estimate posts one frame and decodes the server's Output.
func (h *HTTP) Estimate(ctx context.Context, frame pose.Frame) (Output, error) {
	payload, err := json.Marshal(newFrameRequest(frame.Seq, frame))
	if err != nil {
		return Output{}, fmt.Errorf("encode frame: %w", err)
	}
	req, err := h.newRequest(ctx, http.MethodPost, "/estimate", bytes.NewReader(payload))
	if err != nil {
		return Output{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return Output{}, fmt.Errorf("pose server request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Output{}, fmt.Errorf("pose server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out Output
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Output{}, fmt.Errorf("decode pose server response: %w", err)
	}
	if out.Layout == "" {
		out.Layout = LayoutCOCO17
	}
	return out, nil
}

func (h *HTTP) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build pose server request: %w", err)
	}
	req.Header.Set("User-Agent", "formcoach/0.1.0")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}
	return req, nil
}

// Close is a no-op; the backend holds no connections of its own.
func (h *HTTP) Close() error { return nil }
