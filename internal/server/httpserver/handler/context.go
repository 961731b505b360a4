package handler

import (
	"context"

	"github.com/vibesync/vibebridge/internal/core/domain"
)

// Request is the authenticated request state handed to endpoint handlers.
type Request struct {
	Endpoint domain.Endpoint
	Body     []byte
	Session  domain.SessionSnapshot
}

type requestKey struct{}

// WithRequest attaches req to ctx.
func WithRequest(ctx context.Context, req *Request) context.Context {
	return context.WithValue(ctx, requestKey{}, req)
}

// RequestFromContext returns the request attached by WithRequest.
func RequestFromContext(ctx context.Context) (*Request, bool) {
	req, ok := ctx.Value(requestKey{}).(*Request)
	return req, ok && req != nil
}
