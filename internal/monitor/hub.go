package monitor

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/san-kum/robosim/internal/logging"
)

const (
	writeWait       = 2 * time.Second
	subscriberQueue = 32
)

// Event is one message on the /api/events stream.
type Event struct {
	Type   string  `json:"type"`
	Paused bool    `json:"paused"`
	Sim    float64 `json:"sim"`
	Real   float64 `json:"real"`
	Pause  float64 `json:"pause"`
	Steps  uint64  `json:"steps"`
}

type subscriber struct {
	conn  *websocket.Conn
	queue chan []byte
}

// hub fans events out to websocket subscribers. Publish never blocks: a
// subscriber whose queue is full misses the event.
type hub struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
	log  logging.Logger
}

func newHub(log logging.Logger) *hub {
	return &hub{subs: make(map[*subscriber]struct{}), log: log}
}

func (h *hub) add(conn *websocket.Conn) *subscriber {
	s := &subscriber{conn: conn, queue: make(chan []byte, subscriberQueue)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	go h.writeLoop(s)
	return s
}

func (h *hub) remove(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	close(s.queue)
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *hub) publish(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		h.log.Warn("encode event failed", "error", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		select {
		case s.queue <- data:
		default:
		}
	}
}

func (h *hub) writeLoop(s *subscriber) {
	defer s.conn.Close()
	for data := range s.queue {
		if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			h.remove(s)
			return
		}
		if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Debug("event subscriber dropped", "error", err)
			h.remove(s)
			return
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		delete(h.subs, s)
		close(s.queue)
	}
}
