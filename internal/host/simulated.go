package host

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vibesync/vibebridge/internal/core/domain"
	"github.com/vibesync/vibebridge/pkg/token"
)

// LockEvent records one applied object lock or release.
type LockEvent struct {
	CommandID string
	Locked    bool
	At        time.Time
}

// lockPayload is the /object/lock body.
type lockPayload struct {
	Locked bool `json:"locked"`
}

// ParseLock decodes an /object/lock payload. An empty body means unlocked.
func ParseLock(payload []byte) (bool, error) {
	var p lockPayload
	if len(bytes.TrimSpace(payload)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return false, err
	}
	return p.Locked, nil
}

// sceneState is the part of the host that mutations change.
type sceneState struct {
	applied map[domain.Endpoint]int
	last    map[domain.Endpoint][]byte
}

func newSceneState() sceneState {
	return sceneState{
		applied: make(map[domain.Endpoint]int),
		last:    make(map[domain.Endpoint][]byte),
	}
}

func (s sceneState) clone() sceneState {
	c := newSceneState()
	for ep, n := range s.applied {
		c.applied[ep] = n
	}
	for ep, b := range s.last {
		c.last[ep] = b
	}
	return c
}

// Simulated is a headless host. Handlers from Table run on the frame loop;
// the read accessors are safe to call from request goroutines.
type Simulated struct {
	logger *slog.Logger

	mu         sync.Mutex
	paused     bool
	locks      []LockEvent
	scene      sceneState
	checkpoint sceneState

	busy atomic.Bool
}

// NewSimulated creates an idle, unpaused host.
func NewSimulated(logger *slog.Logger) *Simulated {
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulated{
		logger:     logger,
		scene:      newSceneState(),
		checkpoint: newSceneState(),
	}
}

// Table returns the dispatch table for every queued endpoint.
func (h *Simulated) Table() map[domain.Endpoint]Handler {
	return map[domain.Endpoint]Handler{
		domain.EndpointObjectLock:     h.applyLock,
		domain.EndpointPanic:          h.pause,
		domain.EndpointTransformSet:   h.applyMutation,
		domain.EndpointMaterialUpdate: h.applyMutation,
		domain.EndpointObjectMutate:   h.applyMutation,
		domain.EndpointSelectionSet:   h.applyMutation,
		domain.EndpointCameraSet:      h.applyMutation,
		domain.EndpointCameraGet:      h.readCamera,
	}
}

func (h *Simulated) applyLock(_ context.Context, cmd domain.Command) error {
	locked, err := ParseLock(cmd.Payload)
	if err != nil {
		return fmt.Errorf("decode lock payload: %w", err)
	}

	h.mu.Lock()
	h.locks = append(h.locks, LockEvent{CommandID: cmd.ID, Locked: locked, At: time.Now()})
	h.mu.Unlock()

	if locked {
		h.logger.Info("object lock applied", "command_id", cmd.ID)
	} else {
		h.logger.Info("object lock released", "command_id", cmd.ID)
	}
	return nil
}

func (h *Simulated) pause(_ context.Context, cmd domain.Command) error {
	h.mu.Lock()
	h.paused = true
	h.mu.Unlock()

	h.logger.Error("host paused by orchestrator", "command_id", cmd.ID)
	return nil
}

func (h *Simulated) applyMutation(_ context.Context, cmd domain.Command) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.paused {
		return domain.ErrHostPaused.WithDetails(cmd.Path())
	}
	h.scene.applied[cmd.Endpoint]++
	h.scene.last[cmd.Endpoint] = append([]byte(nil), cmd.Payload...)
	return nil
}

func (h *Simulated) readCamera(_ context.Context, cmd domain.Command) error {
	h.mu.Lock()
	cam := h.scene.last[domain.EndpointCameraSet]
	h.mu.Unlock()

	h.logger.Info("camera state", "command_id", cmd.ID, "camera", string(cam))
	return nil
}

// Paused reports whether a panic command has been applied.
func (h *Simulated) Paused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paused
}

// LockEvents returns a copy of the lock log, oldest first.
func (h *Simulated) LockEvents() []LockEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]LockEvent(nil), h.locks...)
}

// Applied returns how many commands for ep have been applied.
func (h *Simulated) Applied(ep domain.Endpoint) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.scene.applied[ep]
}

// SetBusy marks the host busy while the frame loop drains.
func (h *Simulated) SetBusy(busy bool) {
	h.busy.Store(busy)
}

// Busy reports whether the host is currently applying commands.
func (h *Simulated) Busy() bool {
	return h.busy.Load()
}

// MemoryBytes returns the current heap allocation.
func (h *Simulated) MemoryBytes() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc
}

// StateHash returns a hash of the applied scene state. Equal states always
// produce equal hashes.
func (h *Simulated) StateHash() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return hashScene(h.scene, h.paused)
}

// Commit records the current scene as the rollback point and returns its hash.
func (h *Simulated) Commit() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkpoint = h.scene.clone()
	return hashScene(h.scene, h.paused)
}

// Rollback restores the last committed scene and returns its hash.
// Before any commit this is the empty scene.
func (h *Simulated) Rollback() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scene = h.checkpoint.clone()
	return hashScene(h.scene, h.paused)
}

func hashScene(s sceneState, paused bool) string {
	eps := make([]domain.Endpoint, 0, len(s.applied))
	for ep := range s.applied {
		eps = append(eps, ep)
	}
	sort.Slice(eps, func(i, j int) bool { return eps[i] < eps[j] })

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "paused=%t\n", paused)
	for _, ep := range eps {
		fmt.Fprintf(&buf, "%s=%d:%s\n", ep.Path(), s.applied[ep], hex.EncodeToString(s.last[ep]))
	}
	return token.HashBytes(buf.Bytes())
}
