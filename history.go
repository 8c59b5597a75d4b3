package appshell

import "sync"

// transitionHistory is a bounded ring of TransitionEvents. When full, the
// oldest entry is overwritten. Safe for concurrent use.
type transitionHistory struct {
	mu    sync.Mutex
	ring  []TransitionEvent
	next  int
	count int
}

func newTransitionHistory(capacity int) *transitionHistory {
	if capacity <= 0 {
		capacity = defaultHistoryCapacity
	}
	return &transitionHistory{ring: make([]TransitionEvent, capacity)}
}

const defaultHistoryCapacity = 256

func (h *transitionHistory) append(ev TransitionEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ring[h.next] = ev
	h.next = (h.next + 1) % len(h.ring)
	if h.count < len(h.ring) {
		h.count++
	}
}

// snapshot returns the retained events oldest first.
func (h *transitionHistory) snapshot() []TransitionEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]TransitionEvent, 0, h.count)
	start := h.next - h.count
	if start < 0 {
		start += len(h.ring)
	}
	for i := 0; i < h.count; i++ {
		out = append(out, h.ring[(start+i)%len(h.ring)])
	}
	return out
}
