// Package main provides the entry point for vibebridge-cli.
//
// The CLI is the orchestrator side of the bridge protocol. It signs
// requests with the session token and can run the handshake:
//
//	vibebridge-cli health
//	vibebridge-cli -t $TOKEN handshake --rotate -o json
//	vibebridge-cli -t $TOKEN -g 1 send -d '{"id":"cube"}' /transform/set
package main
