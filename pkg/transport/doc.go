// Package transport defines the socket contract consumed by the typed stream
// adapter and small helpers shared by its implementations (wsock, gorilla,
// mem).
//
// Key concepts:
// - Frame: one text or binary WebSocket message
// - Binding: a single live connection exposing Send/Receive and its close status
// - Dialer: eagerly opens a Binding for an endpoint
// - CloseCode/State: the connection lifecycle Open -> Closing -> Closed(code)
package transport
