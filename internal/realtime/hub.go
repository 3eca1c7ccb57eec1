package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/IGabriel/ai-knowledge-bench/internal/platform/logger"
)

// StatusEvent is one document lifecycle transition, published by the
// ingestion pipeline and streamed to SSE subscribers.
type StatusEvent struct {
	DocumentID     uuid.UUID `json:"document_id"`
	ChunkProfileID uuid.UUID `json:"chunk_profile_id,omitempty"`
	Status         string    `json:"status"`
	Stage          string    `json:"stage,omitempty"`
	Error          string    `json:"error,omitempty"`
	At             time.Time `json:"at"`
}

// StatusHub fans StatusEvents out to subscriber channels. Slow subscribers
// drop events rather than blocking the publisher.
type StatusHub struct {
	log *logger.Logger

	mu   sync.RWMutex
	subs map[int]chan StatusEvent
	next int
}

func NewStatusHub(baseLog *logger.Logger) *StatusHub {
	return &StatusHub{
		log:  baseLog.With("component", "StatusHub"),
		subs: make(map[int]chan StatusEvent),
	}
}

func (h *StatusHub) Subscribe() (<-chan StatusEvent, func()) {
	ch := make(chan StatusEvent, 32)
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if existing, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(existing)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *StatusHub) Broadcast(ev StatusEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.log.Debug("Dropping status event for slow subscriber", "subscriber", id)
		}
	}
}
