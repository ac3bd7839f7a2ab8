// Package network implements the per-connection Quill protocol engine
// and the TCP transport around it.
//
// # Engine
//
// The core type is EventHandler: a single-owner state machine that
// receives one Event at a time and returns at most one outgoing frame
// per event, or a terminal error that ends the connection. Events are
// local ping ticks, frames received from the socket, application
// internal events, completed delegated computations, and close
// requests.
//
// Business frames (Request, Response, Push, Error) are delegated to a
// pluggable Handler. A handler may answer immediately, or return a
// Pending computation that the engine runs on its own goroutine; the
// eventual result re-enters the engine through the connection's event
// stream as a ResponseComplete event. Completion order is unordered
// with respect to arrival order; the sequence id correlates each
// response to its request.
//
// Engine state (keepalive flag, id sequence) is mutated only by the
// connection's single run loop, never by delegated goroutines, so no
// locking is needed around it.
//
// # Transport
//
// Connection owns the socket: a read goroutine decodes inbound frames
// into events, and the run loop multiplexes those with a keepalive
// ticker, writing whatever frame the engine returns. When the engine
// fails, the loop makes a best-effort attempt to send a GoAway with a
// matching close code and tears the connection down.
//
// Server and Client wrap Connection with the accept/dial sides of the
// handshake. Reconnection, TLS and load balancing are deliberately out
// of scope; owners that need them layer them above this package.
package network
