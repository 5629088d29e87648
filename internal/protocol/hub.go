package protocol

import (
	"sync"
	"sync/atomic"

	"github.com/fenilsonani/imapclient/internal/respparser"
)

// UntaggedHub fans a single stream of untagged responses out to every
// subscriber (the IDLE controller, watch pollers, and any caller that
// wants a raw feed), dropping an update for a subscriber whose channel
// is full rather than blocking the dispatch loop on a slow reader.
type UntaggedHub struct {
	mu             sync.RWMutex
	clients        map[chan respparser.Untagged]*subscriberState
	closed         atomic.Bool
	droppedUpdates int64
}

type subscriberState struct {
	ch     chan respparser.Untagged
	closed atomic.Bool
}

// NewUntaggedHub returns a ready-to-use hub.
func NewUntaggedHub() *UntaggedHub {
	return &UntaggedHub{
		clients: make(map[chan respparser.Untagged]*subscriberState),
	}
}

// Notify delivers u to every current subscriber.
func (h *UntaggedHub) Notify(u respparser.Untagged) {
	if h.closed.Load() {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch, state := range h.clients {
		if state.closed.Load() {
			continue
		}
		select {
		case ch <- u:
		default:
			atomic.AddInt64(&h.droppedUpdates, 1)
		}
	}
}

// Subscribe registers a new receiver. The channel is buffered so a
// burst of untagged data (e.g. a large EXISTS/FETCH run during IDLE)
// does not immediately overflow into drops.
func (h *UntaggedHub) Subscribe() chan respparser.Untagged {
	if h.closed.Load() {
		ch := make(chan respparser.Untagged)
		close(ch)
		return ch
	}

	ch := make(chan respparser.Untagged, 256)
	state := &subscriberState{ch: ch}

	h.mu.Lock()
	h.clients[ch] = state
	h.mu.Unlock()

	return ch
}

// Unsubscribe removes and closes a receiver previously returned by
// Subscribe.
func (h *UntaggedHub) Unsubscribe(ch chan respparser.Untagged) {
	h.mu.Lock()
	state, exists := h.clients[ch]
	if exists {
		delete(h.clients, ch)
		state.closed.Store(true)
	}
	h.mu.Unlock()

	if exists {
		close(ch)
	}
}

// Close tears down every subscriber. The hub is unusable afterward.
func (h *UntaggedHub) Close() {
	if !h.closed.CompareAndSwap(false, true) {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch, state := range h.clients {
		state.closed.Store(true)
		delete(h.clients, ch)
		close(ch)
	}
}

// DroppedCount reports how many notifications were dropped for full
// subscriber channels, for diagnostics.
func (h *UntaggedHub) DroppedCount() int64 {
	return atomic.LoadInt64(&h.droppedUpdates)
}
