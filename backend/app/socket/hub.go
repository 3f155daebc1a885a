package socket

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Publisher forwards a wake-up for a device to other backend instances.
type Publisher interface {
	Publish(ctx context.Context, deviceID string) error
}

type waiter struct {
	ch chan struct{}
}

// Hub tracks agents blocked in a long-poll claim and wakes them when work
// is enqueued for their device. A wake-up is a hint; the caller still claims
// from the database.
type Hub struct {
	mu     sync.Mutex
	byID   map[string]map[*waiter]struct{}
	pub    Publisher
	logger zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{byID: make(map[string]map[*waiter]struct{}), logger: logger}
}

// SetPublisher attaches the cross-instance fan-out. Nil detaches it.
func (h *Hub) SetPublisher(p Publisher) {
	h.mu.Lock()
	h.pub = p
	h.mu.Unlock()
}

// Subscribe registers a waiter for deviceID. The returned channel receives
// at most one pending signal at a time; cancel must be called when done.
func (h *Hub) Subscribe(deviceID string) (<-chan struct{}, func()) {
	w := &waiter{ch: make(chan struct{}, 1)}
	h.mu.Lock()
	set, ok := h.byID[deviceID]
	if !ok {
		set = make(map[*waiter]struct{})
		h.byID[deviceID] = set
	}
	set[w] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.byID[deviceID]; ok {
				delete(set, w)
				if len(set) == 0 {
					delete(h.byID, deviceID)
				}
			}
			h.mu.Unlock()
		})
	}
	return w.ch, cancel
}

// Signal wakes every local waiter of deviceID without blocking.
func (h *Hub) Signal(deviceID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for w := range h.byID[deviceID] {
		select {
		case w.ch <- struct{}{}:
		default:
		}
		n++
	}
	return n
}

// Notify wakes local waiters and, when a publisher is attached, the waiters
// of every other instance. Publish failures are logged and swallowed.
func (h *Hub) Notify(ctx context.Context, deviceID string) {
	n := h.Signal(deviceID)
	h.mu.Lock()
	pub := h.pub
	h.mu.Unlock()
	if pub != nil {
		if err := pub.Publish(ctx, deviceID); err != nil {
			h.logger.Warn().Err(err).Str("device", deviceID).Msg("hub publish failed")
		}
	}
	h.logger.Debug().Str("device", deviceID).Int("local_waiters", n).Msg("hub notify")
}

// Waiting reports how many long-polls are parked on deviceID.
func (h *Hub) Waiting(deviceID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.byID[deviceID])
}
