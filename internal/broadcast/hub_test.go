package broadcast

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func waitForEvent(t *testing.T, sub *Subscriber) Event {
	t.Helper()
	select {
	case evt, ok := <-sub.Events():
		require.True(t, ok, "subscriber channel closed")
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHubDeliversInOrder(t *testing.T) {
	hub := startHub(t)
	sub := hub.Subscribe(8)
	time.Sleep(50 * time.Millisecond) // let the registration land

	hub.Publish(Event{Type: EventBettingClosed, Data: BettingClosed{Period: 1}})
	hub.Publish(Event{Type: EventGameResult, Data: GameResult{Period: 1}})
	hub.Publish(Event{Type: EventNewPeriod, Data: NewPeriod{Period: 2}})

	assert.Equal(t, EventBettingClosed, waitForEvent(t, sub).Type)
	assert.Equal(t, EventGameResult, waitForEvent(t, sub).Type)
	assert.Equal(t, EventNewPeriod, waitForEvent(t, sub).Type)
}

func TestHubFansOutToAllSubscribers(t *testing.T) {
	hub := startHub(t)
	a := hub.Subscribe(8)
	b := hub.Subscribe(8)
	time.Sleep(50 * time.Millisecond)

	hub.Publish(Event{Type: EventPriceUpdate})

	assert.Equal(t, EventPriceUpdate, waitForEvent(t, a).Type)
	assert.Equal(t, EventPriceUpdate, waitForEvent(t, b).Type)
}

func TestSlowSubscriberDropsOldest(t *testing.T) {
	hub := startHub(t)
	slow := hub.Subscribe(1)
	fast := hub.Subscribe(8)
	time.Sleep(50 * time.Millisecond)

	hub.Publish(Event{Type: EventBettingClosed, Data: BettingClosed{Period: 1}})
	hub.Publish(Event{Type: EventBettingClosed, Data: BettingClosed{Period: 2}})
	hub.Publish(Event{Type: EventBettingClosed, Data: BettingClosed{Period: 3}})

	// the fast subscriber sees everything
	for want := int64(1); want <= 3; want++ {
		evt := waitForEvent(t, fast)
		assert.Equal(t, BettingClosed{Period: want}, evt.Data)
	}

	// the slow one keeps only the newest event
	assert.Eventually(t, func() bool {
		select {
		case evt := <-slow.Events():
			return evt.Data == BettingClosed{Period: 3}
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	hub := startHub(t)
	sub := hub.Subscribe(8)
	time.Sleep(50 * time.Millisecond)

	hub.Unsubscribe(sub)

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-sub.Events():
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPublishNeverBlocks(t *testing.T) {
	// no Run goroutine: the queue fills and further publishes are dropped
	hub := NewHub(zerolog.Nop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Publish(Event{Type: EventPriceUpdate})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full queue")
	}
}
