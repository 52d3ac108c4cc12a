// ABOUTME: Package server implements the WebSocket event protocol and HTTP surface
// ABOUTME: Frames arrive as JSON events, get dispatched through a per-connection state machine

// Package server hosts the real-time notes protocol.
//
// Clients connect over a single WebSocket and exchange JSON frames. A
// connection starts unauthenticated; a successful login event attaches a
// session token to the connection, and subsequent events (createNote,
// saveNote, getNotes) are authorized against that token. Channel
// operations (#subscribe, #unsubscribe, #publish) are handled per
// connection and fan out through the channel package.
package server
