// Package events delivers task lifecycle events to their owner: an in-process
// hub feeding server-sent event streams, and an optional MQTT publisher.
package events

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/biosecret/go-tasks/models"
	"github.com/biosecret/go-tasks/tasks"
)

const sessionBuffer = 16

type session struct {
	ownerID int64
	events  chan models.TaskEvent
}

// Hub fans task events out to the SSE sessions of the event's owner only.
type Hub struct {
	mu       sync.Mutex
	sessions []*session
	logger   *slog.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{logger: logger}
}

// Subscribe registers a session for ownerID. The returned cancel func must be
// called once the stream ends.
func (h *Hub) Subscribe(ownerID int64) (<-chan models.TaskEvent, func()) {
	s := &session{ownerID: ownerID, events: make(chan models.TaskEvent, sessionBuffer)}

	h.mu.Lock()
	h.sessions = append(h.sessions, s)
	h.mu.Unlock()

	var once sync.Once
	return s.events, func() {
		once.Do(func() { h.removeSession(s) })
	}
}

func (h *Hub) removeSession(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	idx := slices.Index(h.sessions, s)
	if idx != -1 {
		h.sessions[idx] = nil
		h.sessions = slices.Delete(h.sessions, idx, idx+1)
	}
}

// Publish delivers ev to every session of ev.OwnerID. A slow reader loses the
// event instead of stalling the request that produced it.
func (h *Hub) Publish(ctx context.Context, ev models.TaskEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.sessions {
		if s.ownerID != ev.OwnerID {
			continue
		}
		select {
		case s.events <- ev:
		default:
			h.logger.WarnContext(ctx, "dropping task event for slow stream", "owner_id", ev.OwnerID, "type", ev.Type)
		}
	}
}

// Len reports the number of open sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Fanout forwards each event to every publisher in order.
type Fanout []tasks.Publisher

// Publish implements tasks.Publisher.
func (f Fanout) Publish(ctx context.Context, ev models.TaskEvent) {
	for _, p := range f {
		if p != nil {
			p.Publish(ctx, ev)
		}
	}
}
