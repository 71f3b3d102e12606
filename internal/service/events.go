package service

import (
	"sync"
)

type Message struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// EventHub fans payment and generation events out to connected websocket
// clients, keyed by telegram id. Slow subscribers drop messages instead of
// blocking the publisher.
type EventHub struct {
	mu   sync.RWMutex
	subs map[int64][]chan Message
}

func NewEventHub() *EventHub {
	return &EventHub{
		subs: make(map[int64][]chan Message),
	}
}

func (h *EventHub) Subscribe(userID int64) chan Message {
	ch := make(chan Message, 16)

	h.mu.Lock()
	h.subs[userID] = append(h.subs[userID], ch)
	h.mu.Unlock()

	return ch
}

func (h *EventHub) Unsubscribe(userID int64, ch chan Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	channels := h.subs[userID]
	for i, c := range channels {
		if c == ch {
			h.subs[userID] = append(channels[:i], channels[i+1:]...)
			close(c)
			break
		}
	}
	if len(h.subs[userID]) == 0 {
		delete(h.subs, userID)
	}
}

func (h *EventHub) Publish(userID int64, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs[userID] {
		select {
		case ch <- msg:
		default:
		}
	}
}
