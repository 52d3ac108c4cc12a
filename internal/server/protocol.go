// ABOUTME: Wire protocol frames and the tagged fault type for event responses
// ABOUTME: Every request frame gets exactly one reply; faults carry a kind and message

package server

import "encoding/json"

// Event names accepted over the wire. Names prefixed with '#' are
// transport-level operations; the rest are application events.
const (
	EventLogin       = "login"
	EventCreateNote  = "createNote"
	EventSaveNote    = "saveNote"
	EventGetNotes    = "getNotes"
	EventSubscribe   = "#subscribe"
	EventUnsubscribe = "#unsubscribe"
	EventPublish     = "#publish"
)

// Frame is a client request: an event name, an optional call ID for
// request/response pairing, and an event-specific payload.
type Frame struct {
	Event  string          `json:"event"`
	CallID int64           `json:"cid,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Reply answers a Frame that carried a call ID. Exactly one Reply is sent
// per such Frame, on every path.
type Reply struct {
	CallID int64       `json:"rid"`
	Error  string      `json:"error,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

// Push is a server-initiated frame delivering a channel publish to a
// subscriber.
type Push struct {
	Event string      `json:"event"`
	Data  PushPayload `json:"data"`
}

// PushPayload carries the channel name and the published payload.
type PushPayload struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// loginRequest is the payload of a login frame.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// saveNoteRequest is the payload of a saveNote frame. Only the note ID and
// the new contents are read; anything else a client sends is dropped here
// rather than reaching the store.
type saveNoteRequest struct {
	ID       string `json:"id"`
	Contents string `json:"contents"`
}

// channelRequest is the payload of #subscribe and #unsubscribe frames.
type channelRequest struct {
	Channel string `json:"channel"`
}

// publishRequest is the payload of a #publish frame.
type publishRequest struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// FaultKind classifies event failures so callers branch on kind, never on
// message content.
type FaultKind int

const (
	// FaultAuth covers bad credentials and identity-requiring events on an
	// unauthenticated connection. Always surfaced as a short generic
	// message, never detailed.
	FaultAuth FaultKind = iota

	// FaultAuthz covers disallowed channel operations. The message names
	// the channel: that reveals topology, not secrets.
	FaultAuthz

	// FaultStore covers store connectivity problems and rejected writes.
	FaultStore

	// FaultProtocol covers malformed or out-of-order event payloads.
	FaultProtocol
)

// Canonical client-facing failure messages.
const (
	msgLoginFailed      = "Login failed"
	msgNotAuthenticated = "Not authenticated"
)

// Fault is a tagged event failure: a kind for branching and a
// human-readable message for the client.
type Fault struct {
	Kind    FaultKind
	Message string
}

func (f *Fault) Error() string {
	return f.Message
}

func authFault(msg string) *Fault {
	return &Fault{Kind: FaultAuth, Message: msg}
}

func authzFault(msg string) *Fault {
	return &Fault{Kind: FaultAuthz, Message: msg}
}

func storeFault(err error) *Fault {
	return &Fault{Kind: FaultStore, Message: err.Error()}
}

func protocolFault(msg string) *Fault {
	return &Fault{Kind: FaultProtocol, Message: msg}
}
