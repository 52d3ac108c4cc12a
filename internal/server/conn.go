// ABOUTME: Represents a single client WebSocket connection and its event loop
// ABOUTME: Reads frames sequentially, routes them, and pumps replies and pushes back out

package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/prashcr/cheatsheet-server/internal/channel"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024

	// Outbound frames buffered per connection.
	sendBufferSize = 256
)

// Conn is one live client connection. Frames from the client are handled
// sequentially, so two events from the same connection are always
// processed in the order received; separate connections are fully
// independent.
type Conn struct {
	ID string

	ws          *websocket.Conn
	handler     *Handler
	gate        *channel.Gate
	broadcaster *channel.Broadcaster

	send   chan []byte
	ctx    context.Context
	cancel context.CancelFunc

	subMu sync.Mutex
	subs  map[string]string // channel name -> subscription ID

	logger *slog.Logger
}

// newConn wraps an upgraded WebSocket connection.
func newConn(ws *websocket.Conn, handler *Handler, gate *channel.Gate, broadcaster *channel.Broadcaster, logger *slog.Logger) *Conn {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.New().String()
	return &Conn{
		ID:          id,
		ws:          ws,
		handler:     handler,
		gate:        gate,
		broadcaster: broadcaster,
		send:        make(chan []byte, sendBufferSize),
		ctx:         ctx,
		cancel:      cancel,
		subs:        make(map[string]string),
		logger:      logger.With("conn_id", id),
	}
}

// readLoop pumps frames from the WebSocket connection through the event
// handler. It owns connection teardown: when the read side ends, the
// session is revoked, subscriptions are released via context cancellation,
// and the socket is closed.
func (c *Conn) readLoop() {
	defer func() {
		c.cancel()
		c.handler.HandleDisconnect(c.ID)
		c.ws.Close()
		c.logger.Debug("connection closed")
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("read error", "error", err)
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			// No call ID to answer: nothing to acknowledge, nothing fatal.
			c.logger.Warn("discarding malformed frame", "error", err)
			continue
		}

		c.handleFrame(&frame)
	}
}

// handleFrame routes one frame and sends exactly one reply if the frame
// carried a call ID.
func (c *Conn) handleFrame(frame *Frame) {
	switch frame.Event {
	case EventSubscribe:
		c.reply(frame.CallID, nil, c.handleSubscribe(frame.Data))
	case EventUnsubscribe:
		c.reply(frame.CallID, nil, c.handleUnsubscribe(frame.Data))
	case EventPublish:
		c.reply(frame.CallID, nil, c.handlePublish(frame.Data))
	default:
		result, fault := c.handler.Dispatch(c.ctx, c.ID, frame)
		c.reply(frame.CallID, result, fault)
	}
}

// handleSubscribe registers this connection on a channel, subject to the
// topology gate. Subscribing twice to the same channel is a no-op.
func (c *Conn) handleSubscribe(data json.RawMessage) *Fault {
	var req channelRequest
	if err := json.Unmarshal(data, &req); err != nil || req.Channel == "" {
		return protocolFault("subscribe requires a channel name")
	}

	if err := c.gate.CheckSubscribe(req.Channel); err != nil {
		return authzFault(err.Error())
	}

	c.subMu.Lock()
	defer c.subMu.Unlock()

	if _, exists := c.subs[req.Channel]; exists {
		return nil
	}

	ch, subID := c.broadcaster.Subscribe(c.ctx, req.Channel)
	c.subs[req.Channel] = subID
	go c.forward(req.Channel, ch)

	c.logger.Debug("subscribed", "channel", req.Channel)
	return nil
}

// handleUnsubscribe removes this connection from a channel.
func (c *Conn) handleUnsubscribe(data json.RawMessage) *Fault {
	var req channelRequest
	if err := json.Unmarshal(data, &req); err != nil || req.Channel == "" {
		return protocolFault("unsubscribe requires a channel name")
	}

	c.subMu.Lock()
	defer c.subMu.Unlock()

	if subID, exists := c.subs[req.Channel]; exists {
		c.broadcaster.Unsubscribe(req.Channel, subID)
		delete(c.subs, req.Channel)
	}
	return nil
}

// handlePublish fans a payload out to the channel's subscribers. Publish
// is unrestricted at this layer; identity checks on publish-causing
// application events happen in the Handler instead.
func (c *Conn) handlePublish(data json.RawMessage) *Fault {
	var req publishRequest
	if err := json.Unmarshal(data, &req); err != nil || req.Channel == "" {
		return protocolFault("publish requires a channel name")
	}

	if err := c.gate.CheckPublish(req.Channel); err != nil {
		return authzFault(err.Error())
	}

	c.broadcaster.Publish(req.Channel, req.Data, "")
	return nil
}

// forward relays broadcast payloads for one subscription to the client.
// Ends when the broadcaster closes the subscription channel (unsubscribe,
// disconnect, or broadcaster shutdown).
func (c *Conn) forward(channelName string, ch <-chan json.RawMessage) {
	for payload := range ch {
		push := Push{
			Event: EventPublish,
			Data:  PushPayload{Channel: channelName, Data: payload},
		}
		b, err := json.Marshal(push)
		if err != nil {
			c.logger.Error("marshaling push", "channel", channelName, "error", err)
			continue
		}
		c.enqueue(b)
	}
}

// reply sends the response for a frame that carried a call ID. Frames
// without a call ID are fire-and-forget and get no acknowledgement.
func (c *Conn) reply(callID int64, result interface{}, fault *Fault) {
	if callID == 0 {
		return
	}

	r := Reply{CallID: callID}
	if fault != nil {
		r.Error = fault.Message
	} else {
		r.Data = result
	}

	b, err := json.Marshal(r)
	if err != nil {
		c.logger.Error("marshaling reply", "error", err)
		b, _ = json.Marshal(Reply{CallID: callID, Error: "internal error"})
	}
	c.enqueue(b)
}

// enqueue hands a frame to the write pump. If the connection is gone the
// frame is discarded: an undeliverable response is dropped rather than
// blocking the handler.
func (c *Conn) enqueue(b []byte) {
	select {
	case c.send <- b:
	case <-c.ctx.Done():
	}
}

// writePump pumps outbound frames to the WebSocket connection and keeps
// the connection alive with periodic pings.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.cancel()
		c.ws.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case b := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
				c.logger.Debug("write error", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
