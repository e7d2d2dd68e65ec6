package events

import (
	"context"
	"sync"
)

const subscriberBuffer = 32

// Bus is an in-process Publisher with per-companion subscriptions.
// Sends never block: a subscriber whose buffer is full misses the event.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]chan Event
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]chan Event)}
}

// Subscribe registers for events on one companion. An empty ID receives
// events for every companion. cancel closes the channel and is safe to call
// more than once.
func (b *Bus) Subscribe(companionID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.subs[companionID] == nil {
		b.subs[companionID] = make(map[int]chan Event)
	}
	b.subs[companionID][id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[companionID], id)
			if len(b.subs[companionID]) == 0 {
				delete(b.subs, companionID)
			}
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers ev to matching subscribers.
func (b *Bus) Publish(_ context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	deliver := func(subs map[int]chan Event) {
		for _, ch := range subs {
			select {
			case ch <- ev:
			default:
			}
		}
	}
	deliver(b.subs[ev.CompanionID])
	if ev.CompanionID != "" {
		deliver(b.subs[""])
	}
	return nil
}

// Subscribers returns the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, subs := range b.subs {
		n += len(subs)
	}
	return n
}
