package core

import (
	"sync"

	"contentledger/core/events"
	"contentledger/core/types"
)

const eventTailCapacity = 256

// eventTail retains the most recent ledger events for the RPC surface. It
// implements events.Emitter.
type eventTail struct {
	mu      sync.Mutex
	entries []*types.Event
}

func newEventTail() *eventTail {
	return &eventTail{entries: make([]*types.Event, 0, eventTailCapacity)}
}

func (t *eventTail) Emit(evt events.Event) {
	payload, ok := evt.(interface{ Event() *types.Event })
	if !ok {
		return
	}
	raw := payload.Event()
	if raw == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.entries) == eventTailCapacity {
		copy(t.entries, t.entries[1:])
		t.entries = t.entries[:eventTailCapacity-1]
	}
	t.entries = append(t.entries, raw.Clone())
}

// Tail returns up to limit most recent events, newest last.
func (t *eventTail) Tail(limit int) []*types.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	if limit <= 0 || limit > len(t.entries) {
		limit = len(t.entries)
	}
	out := make([]*types.Event, 0, limit)
	for _, evt := range t.entries[len(t.entries)-limit:] {
		out = append(out, evt.Clone())
	}
	return out
}
