package client

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultPendingLimit bounds how many unconfirmed emits are remembered.
const DefaultPendingLimit = 256

// PendingEmit is a correlated emit that has not been acknowledged yet.
type PendingEmit struct {
	ID      string
	Event   string
	Payload interface{}
	SentAt  time.Time
}

// PendingTracker remembers correlated emits until the server acks them.
// Servers that never ack simply leave entries here until they age out.
type PendingTracker struct {
	mu    sync.Mutex
	limit int
	order []string
	items map[string]PendingEmit
}

func NewPendingTracker(limit int) *PendingTracker {
	if limit <= 0 {
		limit = DefaultPendingLimit
	}
	return &PendingTracker{limit: limit, items: make(map[string]PendingEmit)}
}

// Track records an emit under a fresh correlation id and returns the id.
func (t *PendingTracker) Track(event string, payload interface{}) string {
	p := PendingEmit{ID: uuid.NewString(), Event: event, Payload: payload, SentAt: time.Now()}
	t.Restore(p)
	return p.ID
}

// Restore records an emit under its existing id, e.g. after a failed resend.
func (t *PendingTracker) Restore(p PendingEmit) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.items[p.ID]; !exists {
		t.order = append(t.order, p.ID)
	}
	t.items[p.ID] = p

	for len(t.order) > t.limit {
		oldest := t.order[0]
		t.order = t.order[1:]
		delete(t.items, oldest)
	}
}

// Confirm drops an acked emit. It reports whether the id was known.
func (t *PendingTracker) Confirm(id string) bool {
	_, ok := t.Take(id)
	return ok
}

// Take removes and returns an unconfirmed emit.
func (t *PendingTracker) Take(id string) (PendingEmit, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.items[id]
	if !ok {
		return PendingEmit{}, false
	}
	delete(t.items, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return p, true
}

// Unconfirmed lists pending emits, oldest first
func (t *PendingTracker) Unconfirmed() []PendingEmit {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]PendingEmit, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.items[id])
	}
	return out
}
