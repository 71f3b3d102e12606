package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventHub_PublishSubscribe(t *testing.T) {
	hub := NewEventHub()

	ch := hub.Subscribe(100)
	hub.Publish(100, Message{Type: "PAYMENT_CONFIRMED"})
	hub.Publish(999, Message{Type: "PAYMENT_CONFIRMED"})

	msg := <-ch
	assert.Equal(t, "PAYMENT_CONFIRMED", msg.Type)
	assert.Empty(t, ch)

	hub.Unsubscribe(100, ch)
	_, open := <-ch
	assert.False(t, open)

	// Publishing to a user with no subscribers must not panic.
	hub.Publish(100, Message{Type: "GENERATION_COMPLETED"})
}

func TestEventHub_SlowSubscriberDropsMessages(t *testing.T) {
	hub := NewEventHub()
	ch := hub.Subscribe(100)

	// Channel buffer is 16; the extras are dropped, not blocked on.
	for i := 0; i < 50; i++ {
		hub.Publish(100, Message{Type: "GENERATION_PROGRESS"})
	}

	assert.Len(t, ch, 16)
}
