// ABOUTME: Channel authorization gate enforcing publish-only topology
// ABOUTME: Rejects subscriptions to publish-only channels, names the channel in the error

package channel

import "fmt"

// SubscribeDeniedError reports a subscription attempt against a
// publish-only channel. The channel name is included deliberately: it
// reveals topology, not secrets, and makes client debugging possible.
type SubscribeDeniedError struct {
	Channel string
}

func (e *SubscribeDeniedError) Error() string {
	return fmt.Sprintf("channel %q is publish-only and cannot be subscribed to", e.Channel)
}

// Gate intercepts transport-level subscribe and publish attempts.
//
// The gate shapes channel topology only. It knows nothing about sessions
// or identity; who may trigger a publish-causing action is enforced at the
// event layer against the session whitelist.
type Gate struct {
	publishOnly map[string]bool
}

// NewGate creates a gate with the given publish-only channel set.
func NewGate(publishOnly []string) *Gate {
	set := make(map[string]bool, len(publishOnly))
	for _, c := range publishOnly {
		set[c] = true
	}
	return &Gate{publishOnly: set}
}

// CheckSubscribe returns a SubscribeDeniedError if the channel is
// publish-only. All other channels are subscribable unconditionally.
func (g *Gate) CheckSubscribe(channel string) error {
	if g.publishOnly[channel] {
		return &SubscribeDeniedError{Channel: channel}
	}
	return nil
}

// CheckPublish always allows. Publishing is unrestricted at this layer.
func (g *Gate) CheckPublish(channel string) error {
	return nil
}
