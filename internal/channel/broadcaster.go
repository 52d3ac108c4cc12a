// ABOUTME: In-memory fan-out pub/sub for real-time channels
// ABOUTME: Delivers published payloads to every subscriber of a channel name

package channel

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// subscriberBufferSize is the channel buffer for each subscriber.
const subscriberBufferSize = 64

// Broadcaster provides in-memory pub/sub over named channels. Subscribers
// register for a channel name and receive every payload published to it.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]chan json.RawMessage // channel -> subID -> ch
	logger      *slog.Logger
}

// NewBroadcaster creates a broadcaster. Pass nil logger for default.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subscribers: make(map[string]map[string]chan json.RawMessage),
		logger:      logger.With("component", "broadcaster"),
	}
}

// Subscribe registers a subscriber for payloads on the given channel name.
// Returns a receive channel and a subscription ID for later unsubscription.
// The subscription is automatically cleaned up when ctx is cancelled.
func (b *Broadcaster) Subscribe(ctx context.Context, channel string) (<-chan json.RawMessage, string) {
	subID := uuid.New().String()
	ch := make(chan json.RawMessage, subscriberBufferSize)

	b.mu.Lock()
	if _, ok := b.subscribers[channel]; !ok {
		b.subscribers[channel] = make(map[string]chan json.RawMessage)
	}
	b.subscribers[channel][subID] = ch
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "channel", channel, "sub_id", subID)

	// Auto-cleanup on context cancellation
	go func() {
		<-ctx.Done()
		b.Unsubscribe(channel, subID)
	}()

	return ch, subID
}

// Publish sends a payload to all subscribers of the channel.
// If excludeSubID is non-empty, that subscriber is skipped (used to avoid
// echoing a publish back to its originator).
// Non-blocking: payloads are dropped for subscribers whose channels are full.
func (b *Broadcaster) Publish(channel string, payload json.RawMessage, excludeSubID string) {
	b.mu.RLock()
	subs, ok := b.subscribers[channel]
	if !ok || len(subs) == 0 {
		b.mu.RUnlock()
		return
	}

	// Copy subscriber channels under read lock to avoid holding lock during sends
	targets := make([]chan json.RawMessage, 0, len(subs))
	for id, ch := range subs {
		if excludeSubID != "" && id == excludeSubID {
			continue
		}
		targets = append(targets, ch)
	}
	b.mu.RUnlock()

	for _, ch := range targets {
		select {
		case ch <- payload:
			// Sent
		default:
			// Subscriber channel full, drop the payload for this subscriber
			b.logger.Debug("dropped payload for slow subscriber", "channel", channel)
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(channel, subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subscribers[channel]
	if !ok {
		return
	}

	ch, exists := subs[subID]
	if !exists {
		return
	}

	delete(subs, subID)
	close(ch)

	// Clean up empty channel entries
	if len(subs) == 0 {
		delete(b.subscribers, channel)
	}

	b.logger.Debug("subscriber removed", "channel", channel, "sub_id", subID)
}

// Close shuts down the broadcaster and closes all subscriber channels.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for name, subs := range b.subscribers {
		for subID, ch := range subs {
			close(ch)
			delete(subs, subID)
		}
		delete(b.subscribers, name)
	}

	b.logger.Debug("broadcaster closed")
}
