// Package channel implements the real-time channel layer: a topology gate
// and an in-memory fan-out broadcaster.
//
// Gate enforces which channels exist for fan-out versus which are internal
// event names: channels in the publish-only set reject every subscription
// attempt (with an error naming the channel), regardless of who asks.
// Publishing is unrestricted at this layer; identity-based restrictions on
// publish-causing actions live at the event layer instead.
//
// Broadcaster is the delivery mechanism for subscribable channels:
// non-blocking fan-out with a fixed per-subscriber buffer, dropping
// payloads for slow subscribers rather than stalling the publisher.
package channel
