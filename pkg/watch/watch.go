// Package watch fans values out to subscribers in publish order.
//
// Every subscriber owns an unbounded queue drained by its own goroutine, so Publish never
// blocks on a slow reader and no value is dropped or reordered. A subscription ends when its
// context is cancelled or Close is called; its channel is closed afterwards.
package watch

import (
	"context"
	"sync"
)

type Subscription[T any] struct {
	C <-chan T

	cancel context.CancelFunc
	done   <-chan struct{}
}

// Close stops delivery and waits until C is closed.
func (s *Subscription[T]) Close() {
	s.cancel()
	<-s.done
}

// Done is closed once C is closed.
func (s *Subscription[T]) Done() <-chan struct{} { return s.done }

type Hub[T any] struct {
	mu   sync.Mutex
	subs map[*mailbox[T]]struct{}
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{subs: make(map[*mailbox[T]]struct{})}
}

// Subscribe registers a subscriber whose queue starts with initial.
func (h *Hub[T]) Subscribe(ctx context.Context, initial ...T) *Subscription[T] {
	ctx, cancel := context.WithCancel(ctx)

	m := &mailbox[T]{
		queue: append([]T(nil), initial...),
		wake:  make(chan struct{}, 1),
		out:   make(chan T),
		done:  make(chan struct{}),
	}

	h.mu.Lock()
	if h.subs == nil {
		h.subs = make(map[*mailbox[T]]struct{})
	}
	h.subs[m] = struct{}{}
	h.mu.Unlock()

	go func() {
		defer close(m.done)
		defer h.remove(m)
		m.pump(ctx)
	}()

	return &Subscription[T]{C: m.out, cancel: cancel, done: m.done}
}

func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for m := range h.subs {
		m.push(v)
	}
}

// Len reports the number of live subscribers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub[T]) remove(m *mailbox[T]) {
	h.mu.Lock()
	delete(h.subs, m)
	h.mu.Unlock()
}

type mailbox[T any] struct {
	mu    sync.Mutex
	queue []T
	wake  chan struct{}
	out   chan T
	done  chan struct{}
}

func (m *mailbox[T]) push(v T) {
	m.mu.Lock()
	m.queue = append(m.queue, v)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *mailbox[T]) pop() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	if len(m.queue) == 0 {
		return zero, false
	}
	v := m.queue[0]
	m.queue[0] = zero
	m.queue = m.queue[1:]
	return v, true
}

func (m *mailbox[T]) pump(ctx context.Context) {
	defer close(m.out)

	for {
		v, ok := m.pop()
		if !ok {
			select {
			case <-m.wake:
				continue
			case <-ctx.Done():
				return
			}
		}

		select {
		case m.out <- v:
		case <-ctx.Done():
			return
		}
	}
}
