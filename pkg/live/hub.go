package live

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	EventCheckIn  = "checkin"
	EventCheckOut = "checkout"

	subscriberBuffer = 32
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
)

// Event is pushed to every screen watching the event's target.
type Event struct {
	Type     string `json:"type"`
	TargetID string `json:"targetId"`
	Data     any    `json:"data"`
}

type subscriber struct {
	ch chan Event
}

// Hub fans check-in events out to websocket subscribers per target.
// The zero value is not usable; create one with NewHub.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*subscriber]struct{}
	logger *slog.Logger

	upgrader websocket.Upgrader
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]map[*subscriber]struct{}),
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Subscribe registers interest in a target. The returned cancel func must
// be called once the caller stops reading.
func (h *Hub) Subscribe(targetID string) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, subscriberBuffer)}

	h.mu.Lock()
	if h.subs[targetID] == nil {
		h.subs[targetID] = make(map[*subscriber]struct{})
	}
	h.subs[targetID][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[targetID], sub)
			if len(h.subs[targetID]) == 0 {
				delete(h.subs, targetID)
			}
			h.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish never blocks: a subscriber with a full buffer misses the event.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs[e.TargetID] {
		select {
		case sub.ch <- e:
		default:
			h.logger.Warn("live subscriber lagging, event dropped", "target", e.TargetID, "type", e.Type)
		}
	}
}

func (h *Hub) Subscribers(targetID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[targetID])
}

// ServeWS upgrades the request and streams the target's events until the
// client disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, targetID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	events, cancel := h.Subscribe(targetID)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case e := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(e); err != nil {
				h.logger.Debug("websocket write", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
