package domain

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// CommandIDPrefix is the prefix for command IDs.
const CommandIDPrefix = "cmd-"

// Command is one unit of host work produced by the listener and consumed
// exactly once by the host tick.
type Command struct {
	// ID is a unique, time-ordered identifier (cmd-{ulid_lowercase}).
	ID string

	// Endpoint is the gate-resolved endpoint the command was received on.
	Endpoint Endpoint

	// Payload is the raw request body, unmodified.
	Payload []byte

	// EnqueuedAt is when the listener accepted the command.
	EnqueuedAt time.Time
}

// NewCommand creates a command for endpoint with the given payload.
func NewCommand(ep Endpoint, payload []byte, now time.Time) Command {
	return Command{
		ID:         GenerateCommandID(now),
		Endpoint:   ep,
		Payload:    payload,
		EnqueuedAt: now,
	}
}

// Path returns the wire path the command was received on.
func (c Command) Path() string {
	return c.Endpoint.Path()
}

// GenerateCommandID returns a new command ID stamped with now.
func GenerateCommandID(now time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(now), entropy)
	if err != nil {
		id = ulid.Make()
	}
	return CommandIDPrefix + strings.ToLower(id.String())
}
