package connection

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vibesync/vibebridge/internal/core/domain"
	"github.com/vibesync/vibebridge/internal/core/queue"
	"github.com/vibesync/vibebridge/internal/core/service"
	"github.com/vibesync/vibebridge/internal/host"
	"github.com/vibesync/vibebridge/internal/server/httpserver"
	"github.com/vibesync/vibebridge/internal/server/httpserver/handler"
)

const bootstrap = "vbst_client_bootstrap"

func newBridgeServer(t *testing.T) (*httptest.Server, *queue.Queue, *domain.Session) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	session := domain.NewSession(bootstrap)
	q := queue.New(queue.WithLogger(log))

	h := handler.New(handler.Config{
		Session:       session,
		Handshake:     service.NewHandshakeService(session),
		Queue:         q,
		Host:          host.NewSimulated(log),
		Logger:        log,
		EngineVersion: "test-engine",
	})
	srv := httptest.NewServer(httpserver.NewRouter(&httpserver.RouterConfig{
		Authenticator: service.NewAuthenticator(session),
		Handler:       h,
		Logger:        log,
		MaxBodyBytes:  1 << 20,
	}))
	t.Cleanup(srv.Close)
	return srv, q, session
}

func TestNewHTTPClient_BaseURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"127.0.0.1:8085", "http://127.0.0.1:8085"},
		{"http://localhost:8085/", "http://localhost:8085"},
		{"https://bridge.local", "https://bridge.local"},
	}
	for _, tt := range tests {
		if got := NewHTTPClient(tt.in, "").BaseURL(); got != tt.want {
			t.Errorf("BaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHTTPClient_HandshakeAndSend(t *testing.T) {
	srv, q, session := newBridgeServer(t)
	c := NewHTTPClient(srv.URL, bootstrap)
	ctx := context.Background()

	ack, err := c.Handshake(ctx, "vbst_rotated", "nonce-1")
	if err != nil {
		t.Fatalf("Handshake() error = %v", err)
	}
	if ack.Generation != 1 || ack.EngineVersion != "test-engine" {
		t.Errorf("ack = %+v", ack)
	}
	if c.Token() != "vbst_rotated" {
		t.Errorf("Token() = %q", c.Token())
	}
	if gen, ok := c.Generation(); !ok || gen != 1 {
		t.Errorf("Generation() = %d, %v", gen, ok)
	}
	if session.Snapshot().Token != "vbst_rotated" {
		t.Error("bridge did not rotate")
	}

	resp, err := c.Post(ctx, "/transform/set", json.RawMessage(`{"id":"cube"}`))
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	var out handler.StatusResponse
	if err := ParseResponse(resp, &out); err != nil {
		t.Fatalf("ParseResponse() error = %v", err)
	}
	if resp.StatusCode != http.StatusAccepted || out.Status != "queued" {
		t.Errorf("status = %d, body = %+v", resp.StatusCode, out)
	}
	if q.Len() != 1 {
		t.Errorf("queue length = %d, want 1", q.Len())
	}

	resp, err = c.Get(ctx, "/state/get")
	if err != nil {
		t.Fatal(err)
	}
	var state handler.HashResponse
	if err := ParseResponse(resp, &state); err != nil || state.Hash == "" {
		t.Errorf("state/get = %+v, %v", state, err)
	}
}

func TestHTTPClient_Health(t *testing.T) {
	srv, _, _ := newBridgeServer(t)
	h, err := NewHTTPClient(srv.URL, "").Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if h.Status != "ok" || h.Generation != 0 {
		t.Errorf("health = %+v", h)
	}
}

func TestHTTPClient_Rejections(t *testing.T) {
	srv, _, session := newBridgeServer(t)
	ctx := context.Background()

	t.Run("wrong token", func(t *testing.T) {
		resp, err := NewHTTPClient(srv.URL, "nope").Post(ctx, "/commit", nil)
		if err != nil {
			t.Fatal(err)
		}
		var apiErr *APIError
		if err := ParseResponse(resp, nil); !errors.As(err, &apiErr) || apiErr.Code != "VB-AUTH-4010" || apiErr.Status != 401 {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("stale generation", func(t *testing.T) {
		session.Advance("")
		resp, err := NewHTTPClient(srv.URL, bootstrap, WithGeneration(0)).Post(ctx, "/commit", nil)
		if err != nil {
			t.Fatal(err)
		}
		var apiErr *APIError
		err = ParseResponse(resp, nil)
		if !errors.As(err, &apiErr) || apiErr.Status != http.StatusConflict {
			t.Fatalf("error = %v", err)
		}
		if apiErr.Engine == nil || *apiErr.Engine != 1 || *apiErr.Received != 0 {
			t.Errorf("drift = %+v", apiErr)
		}
	})
}

func TestHTTPClient_ProofMismatch(t *testing.T) {
	tests := []struct {
		name  string
		proof string
	}{
		{"garbage", "deadbeef"},
		{"legacy echo", "VIBE_HASH_abc"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(handler.HandshakeResponse{Status: "OK", Generation: 1, Response: tt.proof})
			}))
			defer srv.Close()

			c := NewHTTPClient(srv.URL, bootstrap)
			if _, err := c.Handshake(context.Background(), "vbst_next", "abc"); !errors.Is(err, ErrProofMismatch) {
				t.Fatalf("Handshake() error = %v, want ErrProofMismatch", err)
			}
			if c.Token() != bootstrap {
				t.Error("client adopted the token despite a bad proof")
			}
			if _, ok := c.Generation(); ok {
				t.Error("client adopted the generation despite a bad proof")
			}
		})
	}
}
