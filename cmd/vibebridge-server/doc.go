// Package main provides the entry point for vibebridge-server.
//
// vibebridge-server runs a headless host behind the loopback bridge: it
// loads configuration, starts the frame loop and the listener, and shuts
// both down on SIGINT or SIGTERM.
package main
