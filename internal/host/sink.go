package host

import (
	"context"

	"github.com/vibesync/vibebridge/internal/core/domain"
)

// Handler applies one command to host state.
type Handler func(ctx context.Context, cmd domain.Command) error

// Dispatcher routes commands through a fixed table keyed by endpoint.
// The table is copied at construction and never changes afterwards.
type Dispatcher struct {
	table map[domain.Endpoint]Handler
}

// NewDispatcher creates a Dispatcher over a copy of table.
func NewDispatcher(table map[domain.Endpoint]Handler) *Dispatcher {
	t := make(map[domain.Endpoint]Handler, len(table))
	for ep, h := range table {
		if h != nil {
			t[ep] = h
		}
	}
	return &Dispatcher{table: t}
}

// Handles reports whether ep has a dispatch entry.
func (d *Dispatcher) Handles(ep domain.Endpoint) bool {
	_, ok := d.table[ep]
	return ok
}

// Execute implements queue.Executor.
func (d *Dispatcher) Execute(ctx context.Context, cmd domain.Command) error {
	h, ok := d.table[cmd.Endpoint]
	if !ok {
		return domain.ErrUnknownCommand.WithDetails(cmd.Endpoint.String())
	}
	return h(ctx, cmd)
}
