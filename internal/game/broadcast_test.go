package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turnEvent(turn int) GameEvent {
	return GameEvent{Event: EventTurnUpdate, SessionID: "s", Turn: turn}
}

func TestBroadcasterReplayThenLive(t *testing.T) {
	b := NewBroadcaster()
	replay := []GameEvent{turnEvent(1), turnEvent(2)}

	sub := b.Subscribe(replay)
	b.Publish(turnEvent(3))
	b.CloseAll()

	var turns []int
	for ev := range sub.Events() {
		turns = append(turns, ev.Turn)
	}
	assert.Equal(t, []int{1, 2, 3}, turns)
}

func TestBroadcasterPublishNeverBlocks(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe(nil)

	// Far more events than the subscriber's queue can hold; Publish must
	// return regardless.
	for i := 1; i <= streamBufferSize*3; i++ {
		b.Publish(turnEvent(i))
	}
	b.CloseAll()

	count := 0
	for range sub.Events() {
		count++
	}
	assert.LessOrEqual(t, count, streamBufferSize+1)
}

func TestBroadcasterDropsOldestThenDisconnects(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe(nil)

	// Fill the queue exactly.
	for i := 1; i <= streamBufferSize; i++ {
		b.Publish(turnEvent(i))
	}
	// First overflow: the oldest queued event is sacrificed for the new one.
	b.Publish(turnEvent(streamBufferSize + 1))
	// Second consecutive overflow: the subscriber is cut loose.
	b.Publish(turnEvent(streamBufferSize + 2))

	var turns []int
	for ev := range sub.Events() {
		turns = append(turns, ev.Turn)
	}
	require.Len(t, turns, streamBufferSize)
	assert.Equal(t, 2, turns[0], "event 1 was dropped to make room")
	assert.Equal(t, streamBufferSize+1, turns[len(turns)-1])

	// The disconnected subscriber no longer counts as attached.
	b.mu.Lock()
	attached := len(b.subs)
	b.mu.Unlock()
	assert.Zero(t, attached)
}

func TestBroadcasterRecoversAfterDrain(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe(nil)

	for i := 1; i <= streamBufferSize+1; i++ { // one overflow, lagged
		b.Publish(turnEvent(i))
	}
	// Drain a little, then publish again: the lag flag resets on a
	// successful delivery and the subscriber stays attached.
	<-sub.Events()
	b.Publish(turnEvent(streamBufferSize + 2))
	b.Publish(turnEvent(streamBufferSize + 3)) // overflows again, but not consecutively

	b.mu.Lock()
	attached := len(b.subs)
	b.mu.Unlock()
	assert.Equal(t, 1, attached)
}

func TestBroadcasterSubscribeAfterClose(t *testing.T) {
	b := NewBroadcaster()
	b.CloseAll()

	replay := []GameEvent{turnEvent(1), turnEvent(2), turnEvent(3)}
	sub := b.Subscribe(replay)

	var turns []int
	for ev := range sub.Events() {
		turns = append(turns, ev.Turn)
	}
	assert.Equal(t, []int{1, 2, 3}, turns, "a closed broadcaster still replays history")
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe(nil)
	sub.Close()
	sub.Close()
	b.Publish(turnEvent(1)) // must not panic on the closed channel
	b.CloseAll()
}

func TestBroadcasterManySubscribersSeeAllEvents(t *testing.T) {
	b := NewBroadcaster()
	subs := make([]*Subscription, 5)
	for i := range subs {
		subs[i] = b.Subscribe(nil)
	}
	for i := 1; i <= 10; i++ {
		b.Publish(turnEvent(i))
	}
	b.CloseAll()

	for i, sub := range subs {
		var turns []int
		for ev := range sub.Events() {
			turns = append(turns, ev.Turn)
		}
		assert.Len(t, turns, 10, fmt.Sprintf("subscriber %d", i))
	}
}
