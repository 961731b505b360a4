// Package queue provides the command queue that bridges the network
// listener and the host's single-threaded update tick.
//
// Producers call Enqueue from any goroutine; it never blocks on I/O and
// never drops an accepted command. The host calls DrainAndExecute from its
// tick and nowhere else. Each command is popped under the lock and executed
// outside it, so a slow command never blocks producers.
//
// A failing or panicking command is logged and counted, and draining
// continues with the next command: the requester was already answered
// 202 Accepted, so there is nobody to report the failure to.
package queue
