package domain

import "sort"

// Endpoint identifies one whitelisted bridge path.
//
// The gate converts a raw request path into an Endpoint exactly once;
// everything downstream switches on the Endpoint rather than on strings.
type Endpoint int

// Known endpoints. EndpointUnknown is never produced by the gate for an
// accepted path.
const (
	EndpointUnknown Endpoint = iota
	EndpointHealth
	EndpointHandshake
	EndpointMetrics
	EndpointObjectLock
	EndpointPanic
	EndpointValidate
	EndpointStateGet
	EndpointCommit
	EndpointRollback
	EndpointTransformSet
	EndpointMaterialUpdate
	EndpointObjectMutate
	EndpointSelectionSet
	EndpointCameraSet
	EndpointCameraGet
)

// Handling describes how the listener answers an endpoint.
type Handling int

const (
	// HandlingInline endpoints are answered synchronously by the listener.
	HandlingInline Handling = iota
	// HandlingQueued endpoints are enqueued as a Command and answered 202.
	HandlingQueued
)

var endpointPaths = map[Endpoint]string{
	EndpointHealth:         "/health",
	EndpointHandshake:      "/handshake",
	EndpointMetrics:        "/metrics",
	EndpointObjectLock:     "/object/lock",
	EndpointPanic:          "/panic",
	EndpointValidate:       "/validate",
	EndpointStateGet:       "/state/get",
	EndpointCommit:         "/commit",
	EndpointRollback:       "/rollback",
	EndpointTransformSet:   "/transform/set",
	EndpointMaterialUpdate: "/material/update",
	EndpointObjectMutate:   "/object/mutate",
	EndpointSelectionSet:   "/selection/set",
	EndpointCameraSet:      "/camera/set",
	EndpointCameraGet:      "/camera/get",
}

var pathEndpoints = func() map[string]Endpoint {
	m := make(map[string]Endpoint, len(endpointPaths))
	for ep, path := range endpointPaths {
		m[path] = ep
	}
	return m
}()

// LookupEndpoint is the path gate: it maps an absolute request path to its
// Endpoint. ok is false for any path outside the whitelist. Matching is
// exact; no normalization is applied.
func LookupEndpoint(path string) (ep Endpoint, ok bool) {
	ep, ok = pathEndpoints[path]
	return ep, ok
}

// Endpoints returns all whitelisted endpoints in declaration order.
func Endpoints() []Endpoint {
	eps := make([]Endpoint, 0, len(endpointPaths))
	for ep := range endpointPaths {
		eps = append(eps, ep)
	}
	sort.Slice(eps, func(i, j int) bool { return eps[i] < eps[j] })
	return eps
}

// Path returns the wire path of the endpoint, or "" for EndpointUnknown.
func (e Endpoint) Path() string {
	return endpointPaths[e]
}

// String implements fmt.Stringer.
func (e Endpoint) String() string {
	if p, ok := endpointPaths[e]; ok {
		return p
	}
	return "unknown"
}

// Handling reports whether the endpoint is answered inline or queued.
func (e Endpoint) Handling() Handling {
	switch e {
	case EndpointHealth, EndpointHandshake, EndpointMetrics, EndpointObjectLock,
		EndpointPanic, EndpointValidate, EndpointStateGet, EndpointCommit, EndpointRollback:
		return HandlingInline
	default:
		return HandlingQueued
	}
}

// RequiresAuth reports whether the authenticator runs for the endpoint.
// Only /health is open.
func (e Endpoint) RequiresAuth() bool {
	return e != EndpointHealth
}

// IsHandshake reports whether handshake-specific auth rules apply.
func (e Endpoint) IsHandshake() bool {
	return e == EndpointHandshake
}
