package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscribers(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	sub1 := broker.Subscribe()
	sub2 := broker.Subscribe()
	require.Equal(t, 2, broker.SubscriberCount())

	broker.Emit(EventRoomCreated, "room general created", map[string]string{"room_id": "general"})

	for _, sub := range []Subscriber{sub1, sub2} {
		select {
		case event := <-sub:
			assert.Equal(t, EventRoomCreated, event.Type)
			assert.NotEmpty(t, event.ID)
			assert.False(t, event.Timestamp.IsZero())
			assert.Equal(t, "general", event.Metadata["room_id"])
		case <-time.After(2 * time.Second):
			t.Fatal("subscriber never received the event")
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	broker.Unsubscribe(sub)
	assert.Equal(t, 0, broker.SubscriberCount())

	_, open := <-sub
	assert.False(t, open, "unsubscribed channel must be closed")
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	// Never drained; its buffer fills and further events are dropped
	broker.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			broker.Emit(EventUserConnected, "", nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publishing blocked on a slow subscriber")
	}
}
