// Package httpserver is the bridge transport: a loopback HTTP listener,
// its middleware chain and the router that ties them to the endpoint
// handlers.
//
// Middleware order, outermost first:
//
//	RequestID -> Audit -> Recover -> Serialize -> Gate -> RateLimit -> Authenticate -> handler
//
// Gate rejects unlisted paths before anything reads the body. Authenticate
// reads the body at most once, after the header checks pass.
package httpserver
