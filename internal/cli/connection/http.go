package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vibesync/vibebridge/internal/server/httpserver"
	"github.com/vibesync/vibebridge/internal/server/httpserver/handler"
	"github.com/vibesync/vibebridge/pkg/signature"
)

// ErrProofMismatch is returned when the bridge answers a handshake with a
// proof that does not match the challenge.
var ErrProofMismatch = errors.New("handshake proof mismatch")

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithGeneration sends X-Vibe-Generation on every request.
func WithGeneration(gen int64) Option {
	return func(c *HTTPClient) {
		c.generation = gen
		c.hasGeneration = true
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *HTTPClient) {
		if now != nil {
			c.now = now
		}
	}
}

// HTTPClient provides signed HTTP communication with the bridge.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	now     func() time.Time

	mu            sync.Mutex
	token         string
	generation    int64
	hasGeneration bool
}

// NewHTTPClient creates a client for server authenticating with tok.
func NewHTTPClient(server, tok string, opts ...Option) *HTTPClient {
	baseURL := strings.TrimRight(server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	c := &HTTPClient{
		baseURL: baseURL,
		token:   tok,
		now:     time.Now,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends a signed request. body is sent verbatim and is part of the
// signature.
func (c *HTTPClient) Do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.mu.Lock()
	tok, gen, hasGen := c.token, c.generation, c.hasGeneration
	c.mu.Unlock()

	ts := strconv.FormatInt(c.now().Unix(), 10)
	req.Header.Set(httpserver.HeaderToken, tok)
	req.Header.Set(httpserver.HeaderTimestamp, ts)
	req.Header.Set(httpserver.HeaderSignature, signature.Sign(tok, ts, method, path, body))
	if hasGen {
		req.Header.Set(httpserver.HeaderGeneration, strconv.FormatInt(gen, 10))
	}
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "vibebridge-cli/1.0")

	return c.client.Do(req)
}

// Get performs a signed GET request.
func (c *HTTPClient) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post performs a signed POST request. body may be []byte, json.RawMessage
// or any value that marshals to JSON.
func (c *HTTPClient) Post(ctx context.Context, path string, body any) (*http.Response, error) {
	var data []byte
	switch b := body.(type) {
	case nil:
	case []byte:
		data = b
	case json.RawMessage:
		data = b
	default:
		var err error
		if data, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
	}
	return c.Do(ctx, http.MethodPost, path, data)
}

// Health queries /health. No credentials are needed.
func (c *HTTPClient) Health(ctx context.Context) (*handler.HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	var out handler.HealthResponse
	if err := ParseResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Handshake advances the bridge session. A non-empty newToken rotates the
// token. When challenge is set the returned proof is verified against the
// token in effect after the handshake. On success the client adopts the
// new token and generation.
func (c *HTTPClient) Handshake(ctx context.Context, newToken, challenge string) (*handler.HandshakeResponse, error) {
	resp, err := c.Post(ctx, "/handshake", struct {
		NewToken  string `json:"new_token,omitempty"`
		Challenge string `json:"challenge,omitempty"`
	}{newToken, challenge})
	if err != nil {
		return nil, err
	}
	var ack handler.HandshakeResponse
	if err := ParseResponse(resp, &ack); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	effective := c.token
	if newToken != "" {
		effective = newToken
	}
	if challenge != "" && !signature.VerifyProof(effective, challenge, ack.Response) {
		return nil, ErrProofMismatch
	}

	c.token = effective
	c.generation = ack.Generation
	c.hasGeneration = true
	return &ack, nil
}

// Token returns the token the client currently signs with.
func (c *HTTPClient) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Generation returns the generation sent with requests and whether one is set.
func (c *HTTPClient) Generation() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation, c.hasGeneration
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// APIError is a rejection returned by the bridge.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details string

	// Set for generation drift.
	Engine   *int64
	Received *int64
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Engine != nil && e.Received != nil {
		msg += fmt.Sprintf(" (bridge at generation %d, sent %d)", *e.Engine, *e.Received)
	}
	return msg
}

// ParseResponse decodes a JSON response into target, or returns an
// *APIError for a 4xx/5xx status.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		var body handler.ErrorResponse
		if err := json.Unmarshal(raw, &body); err != nil || body.Code == "" {
			return &APIError{Status: resp.StatusCode, Code: resp.Header.Get("X-Error-Code"), Message: strings.TrimSpace(string(raw))}
		}
		return &APIError{
			Status:   resp.StatusCode,
			Code:     body.Code,
			Message:  body.Error,
			Details:  body.Details,
			Engine:   body.Engine,
			Received: body.Received,
		}
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}
