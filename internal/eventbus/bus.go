// Package eventbus fans notifications out to subscriber channels.
// Publishing never blocks: a subscriber that does not keep up loses events.
package eventbus

import (
	"sync"

	"github.com/rs/zerolog/log"
)

type Bus[T any] struct {
	module string

	mu     sync.RWMutex
	subs   map[int]chan T
	nextID int
	closed bool
}

func New[T any](module string) *Bus[T] {
	return &Bus[T]{
		module: module,
		subs:   make(map[int]chan T),
	}
}

// Subscribe returns a channel receiving every event published from now on and
// a cancel func. The channel is closed on cancel or when the bus closes.
func (b *Bus[T]) Subscribe(buffer int) (<-chan T, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan T, buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.unsubscribe(id) })
	}
}

func (b *Bus[T]) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish delivers ev to all subscribers that have room for it.
func (b *Bus[T]) Publish(ev T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			log.Warn().Str("module", b.module).Int("subscriber", id).Msg("subscriber is slow, event dropped")
		}
	}
}

// Close closes every subscriber channel. Publishing afterwards is a no-op.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

func (b *Bus[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
