// Package shutdown coordinates graceful process termination.
//
// Hooks registered with OnShutdown run once, newest first, when SIGINT or
// SIGTERM arrives, when the Wait context ends, or when Shutdown is called
// directly. All hooks share one timeout context. Registering the listener
// stop after the frame loop means the listener stops first and the final
// queue drain runs after it.
package shutdown
