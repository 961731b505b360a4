// Package handler implements the bridge endpoints.
//
// Requests reach a Handler only after the gate and authenticator
// middleware have run; they attach a *Request to the context carrying the
// resolved endpoint, the already-read body and the session snapshot.
// Inline endpoints answer directly. Every other whitelisted endpoint is
// turned into a domain.Command, enqueued, and acknowledged with 202.
//
// Response structs in types.go define the wire format. Field names are
// part of the protocol and must not change.
package handler
