// ABOUTME: Tests for Broadcaster fan-out pub/sub system
// ABOUTME: Covers subscribe, publish, unsubscribe, context cancellation, concurrency

package channel

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBroadcaster_SingleSubscriberReceivesPayload(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ch, _ := b.Subscribe(t.Context(), "updates")

	b.Publish("updates", json.RawMessage(`{"n":1}`), "")

	select {
	case received := <-ch:
		assert.JSONEq(t, `{"n":1}`, string(received))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for payload")
	}
}

func TestBroadcaster_MultipleSubscribersReceiveSamePayload(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ctx := t.Context()
	ch1, _ := b.Subscribe(ctx, "updates")
	ch2, _ := b.Subscribe(ctx, "updates")
	ch3, _ := b.Subscribe(ctx, "updates")

	b.Publish("updates", json.RawMessage(`"x"`), "")

	for i, ch := range []<-chan json.RawMessage{ch1, ch2, ch3} {
		select {
		case received := <-ch:
			assert.Equal(t, `"x"`, string(received), "subscriber %d got wrong payload", i)
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d timed out", i)
		}
	}
}

func TestBroadcaster_ChannelsAreIsolated(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ctx := t.Context()
	ch1, _ := b.Subscribe(ctx, "updates")
	ch2, _ := b.Subscribe(ctx, "other")

	b.Publish("updates", json.RawMessage(`1`), "")

	select {
	case <-ch1:
	case <-time.After(time.Second):
		t.Fatal("subscriber for updates timed out")
	}

	select {
	case <-ch2:
		t.Fatal("subscriber for other channel should not receive the payload")
	case <-time.After(100 * time.Millisecond):
		// Expected: no payload
	}
}

func TestBroadcaster_ExcludeSubIDSkipsOriginator(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ctx := t.Context()
	ch1, subID1 := b.Subscribe(ctx, "updates")
	ch2, _ := b.Subscribe(ctx, "updates")

	b.Publish("updates", json.RawMessage(`1`), subID1)

	select {
	case <-ch2:
	case <-time.After(time.Second):
		t.Fatal("non-excluded subscriber timed out")
	}

	select {
	case <-ch1:
		t.Fatal("excluded subscriber should not receive the payload")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ch, subID := b.Subscribe(t.Context(), "updates")
	b.Unsubscribe("updates", subID)

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed after unsubscribe")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after unsubscribe")
	}

	// Publishing after unsubscribe must not panic
	b.Publish("updates", json.RawMessage(`1`), "")
}

func TestBroadcaster_ContextCancellationCleansUp(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := b.Subscribe(ctx, "updates")
	cancel()

	// Channel should eventually be closed by the cleanup goroutine
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should close after context cancellation")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after context cancellation")
	}
}

func TestBroadcaster_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	// Never drained: fills up after subscriberBufferSize payloads
	b.Subscribe(t.Context(), "updates")

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBufferSize*2; i++ {
			b.Publish("updates", json.RawMessage(`1`), "")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestBroadcaster_ConcurrentPublishAndSubscribe(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			b.Subscribe(ctx, "updates")
		}()
		go func() {
			defer wg.Done()
			b.Publish("updates", json.RawMessage(`1`), "")
		}()
	}
	wg.Wait()
}
