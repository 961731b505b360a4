package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/vibesync/vibebridge/internal/core/domain"
	"github.com/vibesync/vibebridge/internal/core/queue"
	"github.com/vibesync/vibebridge/internal/core/service"
	"github.com/vibesync/vibebridge/internal/host"
	"github.com/vibesync/vibebridge/internal/server/httpserver/handler"
	"github.com/vibesync/vibebridge/pkg/signature"
)

const bootstrap = "vbst_bootstrap_for_tests"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingSink captures commands drained from the queue.
type recordingSink struct {
	mu   sync.Mutex
	seen []domain.Command
}

func (r *recordingSink) Execute(_ context.Context, cmd domain.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, cmd)
	return nil
}

func (r *recordingSink) commands() []domain.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Command(nil), r.seen...)
}

type bridge struct {
	session *domain.Session
	queue   *queue.Queue
	host    *host.Simulated
	clock   *fixedClock
	router  http.Handler
}

func newBridge(t *testing.T) *bridge {
	t.Helper()
	b := &bridge{
		session: domain.NewSession(bootstrap),
		queue:   queue.New(queue.WithLogger(quietLogger())),
		host:    host.NewSimulated(quietLogger()),
		clock:   &fixedClock{now: time.Unix(1_700_000_000, 0)},
	}
	h := handler.New(handler.Config{
		Session:       b.session,
		Handshake:     service.NewHandshakeService(b.session),
		Queue:         b.queue,
		Host:          b.host,
		Logger:        quietLogger(),
		EngineVersion: "vibebridge-headless/test",
		Capabilities:  []string{"transform", "locking"},
		Now:           b.clock.Now,
	})
	b.router = NewRouter(&RouterConfig{
		Authenticator: service.NewAuthenticator(b.session, service.WithClock(b.clock.Now)),
		Handler:       h,
		Logger:        quietLogger(),
		MaxBodyBytes:  1 << 10,
	})
	return b
}

type call struct {
	method     string
	path       string
	body       string
	token      string
	timestamp  string // "" means now
	generation string
	sign       bool
}

func (b *bridge) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	if c.method == "" {
		c.method = http.MethodPost
	}
	ts := c.timestamp
	if ts == "" {
		ts = strconv.FormatInt(b.clock.Now().Unix(), 10)
	}

	req := httptest.NewRequest(c.method, c.path, bytes.NewBufferString(c.body))
	if c.token != "" {
		req.Header.Set(HeaderToken, c.token)
	}
	req.Header.Set(HeaderTimestamp, ts)
	if c.generation != "" {
		req.Header.Set(HeaderGeneration, c.generation)
	}
	if c.sign {
		req.Header.Set(HeaderSignature, signature.Sign(c.token, ts, c.method, c.path, []byte(c.body)))
	}

	rec := httptest.NewRecorder()
	b.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	body := decode[handler.ErrorResponse](t, rec)
	if body.Code != code {
		t.Errorf("code = %q, want %q", body.Code, code)
	}
	if got := rec.Header().Get("X-Error-Code"); got != code {
		t.Errorf("X-Error-Code = %q, want %q", got, code)
	}
}

func TestBridge_UnlistedPathsForbidden(t *testing.T) {
	b := newBridge(t)

	for _, path := range []string{"/", "/admin", "/health/", "/HEALTH", "/transform", "/transform/set/x", "/../health"} {
		t.Run(path, func(t *testing.T) {
			rec := b.do(t, call{path: path, body: `{}`, token: bootstrap, sign: true})
			assertError(t, rec, http.StatusForbidden, domain.ErrPathRejected.Code)
			if decode[handler.ErrorResponse](t, rec).Error != "Forbidden Path" {
				t.Errorf("error message = %s", rec.Body.String())
			}
		})
	}
}

func TestBridge_WrongTokenUnauthorized(t *testing.T) {
	b := newBridge(t)

	for _, ep := range domain.Endpoints() {
		if !ep.RequiresAuth() {
			continue
		}
		for _, tok := range []string{"", "wrong", bootstrap + "x"} {
			t.Run(fmt.Sprintf("%s/%q", ep, tok), func(t *testing.T) {
				rec := b.do(t, call{path: ep.Path(), body: `{}`, token: tok, sign: tok != ""})
				assertError(t, rec, http.StatusUnauthorized, domain.ErrUnauthorized.Code)
			})
		}
	}
	if b.session.Generation() != 0 {
		t.Error("rejected handshakes must not advance the session")
	}
}

func TestBridge_ReplayWindow(t *testing.T) {
	b := newBridge(t)
	now := b.clock.Now().Unix()

	tests := []struct {
		offset int64
		ok     bool
	}{
		{-6, false},
		{6, false},
		{-4, true},
		{4, true},
		{0, true},
	}
	for _, tt := range tests {
		t.Run(strconv.FormatInt(tt.offset, 10), func(t *testing.T) {
			rec := b.do(t, call{
				path:      "/transform/set",
				body:      `{"x":1}`,
				token:     bootstrap,
				timestamp: strconv.FormatInt(now+tt.offset, 10),
				sign:      true,
			})
			if tt.ok {
				if rec.Code != http.StatusAccepted {
					t.Fatalf("status = %d, want 202 (body %s)", rec.Code, rec.Body.String())
				}
				return
			}
			assertError(t, rec, http.StatusForbidden, domain.ErrRequestExpired.Code)
		})
	}
}

func TestBridge_MissingTimestamp(t *testing.T) {
	b := newBridge(t)
	req := httptest.NewRequest(http.MethodPost, "/commit", nil)
	req.Header.Set(HeaderToken, bootstrap)
	rec := httptest.NewRecorder()
	b.router.ServeHTTP(rec, req)

	assertError(t, rec, http.StatusBadRequest, domain.ErrMissingTimestamp.Code)
}

func TestBridge_GenerationMonotonic(t *testing.T) {
	b := newBridge(t)
	const n = 5

	tok := bootstrap
	for i := 1; i <= n; i++ {
		next := fmt.Sprintf("vbst_rotated_%d", i)
		rec := b.do(t, call{path: "/handshake", body: fmt.Sprintf(`{"new_token":%q}`, next), token: tok})
		if rec.Code != http.StatusOK {
			t.Fatalf("handshake %d: status = %d (body %s)", i, rec.Code, rec.Body.String())
		}
		if got := decode[handler.HandshakeResponse](t, rec).Generation; got != int64(i) {
			t.Fatalf("handshake %d: generation = %d", i, got)
		}
		tok = next
	}

	for gen := 0; gen < n; gen++ {
		rec := b.do(t, call{
			path:       "/state/get",
			token:      tok,
			generation: strconv.Itoa(gen),
			sign:       true,
		})
		assertError(t, rec, http.StatusConflict, domain.ErrGenerationDrift.Code)
		body := decode[handler.ErrorResponse](t, rec)
		if body.Engine == nil || *body.Engine != n || body.Received == nil || *body.Received != int64(gen) {
			t.Errorf("drift body = %s", rec.Body.String())
		}
	}

	rec := b.do(t, call{path: "/state/get", token: tok, generation: strconv.Itoa(n), sign: true})
	if rec.Code != http.StatusOK {
		t.Fatalf("current generation: status = %d (body %s)", rec.Code, rec.Body.String())
	}
}

func TestBridge_ConcurrentHandshakes(t *testing.T) {
	b := newBridge(t)
	const n = 20

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// No rotation, so every handshake authenticates with the bootstrap token.
			rec := b.do(t, call{path: "/handshake", token: bootstrap})
			if rec.Code != http.StatusOK {
				t.Errorf("status = %d (body %s)", rec.Code, rec.Body.String())
			}
		}()
	}
	wg.Wait()

	snap := b.session.Snapshot()
	if snap.Generation != n {
		t.Errorf("generation = %d, want %d", snap.Generation, n)
	}
	if snap.Token != bootstrap {
		t.Errorf("token changed without rotation")
	}
}

func TestBridge_SignatureBinding(t *testing.T) {
	b := newBridge(t)
	ts := strconv.FormatInt(b.clock.Now().Unix(), 10)
	sig := signature.Sign(bootstrap, ts, http.MethodPost, "/transform/set", []byte(`{"x":1}`))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		ts     string
	}{
		{"body", http.MethodPost, "/transform/set", `{"x":2}`, ts},
		{"method", http.MethodPut, "/transform/set", `{"x":1}`, ts},
		{"path", http.MethodPost, "/camera/set", `{"x":1}`, ts},
		{"timestamp", http.MethodPost, "/transform/set", `{"x":1}`, strconv.FormatInt(b.clock.Now().Unix()+1, 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			req.Header.Set(HeaderToken, bootstrap)
			req.Header.Set(HeaderTimestamp, tt.ts)
			req.Header.Set(HeaderSignature, sig)
			rec := httptest.NewRecorder()
			b.router.ServeHTTP(rec, req)

			assertError(t, rec, http.StatusForbidden, domain.ErrInvalidSignature.Code)
		})
	}
	if b.queue.Len() != 0 {
		t.Errorf("queue length = %d, want 0", b.queue.Len())
	}
}

func TestBridge_ConcurrentEnqueue(t *testing.T) {
	b := newBridge(t)
	const producers, perProducer = 8, 25

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				rec := b.do(t, call{
					path:  "/object/mutate",
					body:  fmt.Sprintf(`{"p":%d,"i":%d}`, p, i),
					token: bootstrap,
					sign:  true,
				})
				if rec.Code != http.StatusAccepted {
					t.Errorf("status = %d", rec.Code)
				}
			}
		}(p)
	}
	wg.Wait()

	sink := &recordingSink{}
	res := b.queue.DrainAndExecute(context.Background(), sink)
	if res.Executed != producers*perProducer || res.Failed != 0 {
		t.Fatalf("drain = %+v", res)
	}

	seen := make(map[string]bool)
	next := make(map[int]int)
	for _, cmd := range sink.commands() {
		if seen[cmd.ID] {
			t.Fatalf("duplicate command %s", cmd.ID)
		}
		seen[cmd.ID] = true

		var payload struct{ P, I int }
		if err := json.Unmarshal(cmd.Payload, &payload); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if payload.I != next[payload.P] {
			t.Fatalf("producer %d: got %d, want %d", payload.P, payload.I, next[payload.P])
		}
		next[payload.P]++
	}
}

func TestBridge_HandshakeThenQueueThenReplay(t *testing.T) {
	b := newBridge(t)

	// Handshake with rotation and challenge.
	rec := b.do(t, call{path: "/handshake", body: `{"new_token":"T1","challenge":"abc"}`, token: bootstrap})
	if rec.Code != http.StatusOK {
		t.Fatalf("handshake status = %d (body %s)", rec.Code, rec.Body.String())
	}
	hs := decode[handler.HandshakeResponse](t, rec)
	if hs.Status != "OK" || hs.Generation != 1 {
		t.Fatalf("handshake = %+v", hs)
	}
	if !signature.VerifyProof("T1", "abc", hs.Response) {
		t.Errorf("proof %q does not verify for challenge abc", hs.Response)
	}
	if hs.EngineVersion != "vibebridge-headless/test" || len(hs.Capabilities) != 2 {
		t.Errorf("handshake metadata = %+v", hs)
	}

	// Signed mutation with the rotated token.
	payload := `{"id":"cube","pos":[1,2,3]}`
	mutation := call{path: "/transform/set", body: payload, token: "T1", generation: "1", sign: true}
	rec = b.do(t, mutation)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("mutation status = %d (body %s)", rec.Code, rec.Body.String())
	}
	if got := decode[handler.StatusResponse](t, rec); got.Status != "queued" || got.CommandID == "" {
		t.Errorf("mutation body = %+v", got)
	}

	sink := &recordingSink{}
	b.queue.DrainAndExecute(context.Background(), sink)
	cmds := sink.commands()
	if len(cmds) != 1 {
		t.Fatalf("sink saw %d commands, want 1", len(cmds))
	}
	if cmds[0].Path() != "/transform/set" || string(cmds[0].Payload) != payload {
		t.Errorf("command = %s %s", cmds[0].Path(), cmds[0].Payload)
	}

	// The same request replayed ten seconds later.
	mutation.timestamp = strconv.FormatInt(b.clock.Now().Unix(), 10)
	b.clock.Advance(10 * time.Second)
	rec = b.do(t, mutation)
	assertError(t, rec, http.StatusForbidden, domain.ErrRequestExpired.Code)
	if decode[handler.ErrorResponse](t, rec).Error != "Request Expired" {
		t.Errorf("error body = %s", rec.Body.String())
	}
	if b.queue.Len() != 0 {
		t.Error("replayed request must not be enqueued")
	}
}

func TestBridge_HealthWithoutHeaders(t *testing.T) {
	b := newBridge(t)

	for _, busy := range []bool{false, true} {
		b.host.SetBusy(busy)
		rec := httptest.NewRecorder()
		b.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		got := decode[handler.HealthResponse](t, rec)
		want := "ok"
		if busy {
			want = "busy"
		}
		if got.Status != want || got.Generation != 0 {
			t.Errorf("health = %+v, want status %s", got, want)
		}
	}

	b.session.Advance("")
	rec := httptest.NewRecorder()
	b.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if got := decode[handler.HealthResponse](t, rec); got.Generation != 1 {
		t.Errorf("generation = %d, want 1", got.Generation)
	}
}

func TestBridge_InlineEndpoints(t *testing.T) {
	b := newBridge(t)
	sign := func(path, body string) call {
		return call{path: path, body: body, token: bootstrap, sign: true}
	}

	rec := b.do(t, sign("/metrics", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if m := decode[handler.MetricsResponse](t, rec); m.Memory == 0 {
		t.Errorf("metrics = %+v", m)
	}

	hash := b.host.StateHash()
	rec = b.do(t, sign("/validate", ""))
	if v := decode[handler.HashResponse](t, rec); v.Status != "OK" || v.Hash != hash {
		t.Errorf("validate = %+v, want hash %s", v, hash)
	}
	rec = b.do(t, sign("/state/get", ""))
	if v := decode[handler.HashResponse](t, rec); v.Hash != hash {
		t.Errorf("state/get = %+v", v)
	}
	rec = b.do(t, sign("/commit", ""))
	if v := decode[handler.HashResponse](t, rec); v.Status != "committed" || v.Hash != hash {
		t.Errorf("commit = %+v", v)
	}
	rec = b.do(t, sign("/rollback", ""))
	if v := decode[handler.HashResponse](t, rec); v.Status != "rolled_back" || v.Hash != hash {
		t.Errorf("rollback = %+v", v)
	}

	rec = b.do(t, sign("/object/lock", `{"locked":true}`))
	if v := decode[handler.StatusResponse](t, rec); rec.Code != http.StatusOK || v.Status != "ok" {
		t.Errorf("object/lock = %d %+v", rec.Code, v)
	}
	rec = b.do(t, sign("/object/lock", `{"locked":`))
	assertError(t, rec, http.StatusBadRequest, domain.ErrMalformedRequest.Code)

	rec = b.do(t, sign("/panic", ""))
	if v := decode[handler.StatusResponse](t, rec); rec.Code != http.StatusOK || v.Status != "locked" {
		t.Errorf("panic = %d %+v", rec.Code, v)
	}

	// Lock and panic are applied on the host tick.
	if got := b.queue.Len(); got != 2 {
		t.Fatalf("queue length = %d, want 2", got)
	}
	b.queue.DrainAndExecute(context.Background(), host.NewDispatcher(b.host.Table()))
	if !b.host.Paused() || len(b.host.LockEvents()) != 1 {
		t.Errorf("paused = %v, locks = %d", b.host.Paused(), len(b.host.LockEvents()))
	}
}

func TestBridge_MalformedHandshakeLeavesSession(t *testing.T) {
	b := newBridge(t)

	rec := b.do(t, call{path: "/handshake", body: `{"new_token":`, token: bootstrap})
	assertError(t, rec, http.StatusBadRequest, domain.ErrInvalidHandshake.Code)

	snap := b.session.Snapshot()
	if snap.Generation != 0 || snap.Token != bootstrap {
		t.Errorf("session = %+v", snap)
	}
}

func TestBridge_BodyTooLarge(t *testing.T) {
	b := newBridge(t)
	body := string(bytes.Repeat([]byte("a"), 2<<10))

	rec := b.do(t, call{path: "/transform/set", body: body, token: bootstrap, sign: true})
	assertError(t, rec, http.StatusBadRequest, domain.ErrBodyTooLarge.Code)
	if b.queue.Len() != 0 {
		t.Error("oversized body must not be enqueued")
	}
}
