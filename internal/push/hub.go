package push

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/metrics"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 5 * time.Second
	sendBuffer   = 16
)

type subscriber struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.send) })
}

// Hub fans push events out to every connected websocket.
type Hub struct {
	upgrader websocket.Upgrader
	metrics  *metrics.Metrics

	mu      sync.Mutex
	clients map[string]*subscriber
	closed  bool
}

// NewHub creates an empty hub.
func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		metrics: m,
		clients: make(map[string]*subscriber),
	}
}

// ServeHTTP upgrades the request and streams events until the peer leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("Hub", "upgrade failed: %v", err)
		return
	}

	sub := &subscriber{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.add(sub) {
		conn.Close()
		return
	}
	logger.Info("Hub", "subscriber %s connected (%s)", sub.id, r.RemoteAddr)

	go h.writeLoop(sub)

	// reads only detect close; subscribers never send
	conn.SetReadLimit(4096)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(sub.id)
	logger.Info("Hub", "subscriber %s disconnected", sub.id)
}

func (h *Hub) writeLoop(sub *subscriber) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		sub.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.send:
			sub.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				sub.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("Hub", "write to %s failed: %v", sub.id, err)
				return
			}
		case <-ticker.C:
			if err := sub.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

func (h *Hub) add(sub *subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[sub.id] = sub
	if h.metrics != nil {
		h.metrics.PushSubscribers.Store(uint64(len(h.clients)))
	}
	return true
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.clients[id]; ok {
		delete(h.clients, id)
		sub.close()
	}
	if h.metrics != nil {
		h.metrics.PushSubscribers.Store(uint64(len(h.clients)))
	}
}

// Broadcast encodes one event and queues it for every subscriber. Slow
// subscribers drop the message instead of blocking the publisher.
func (h *Hub) Broadcast(event string, data interface{}) error {
	msg, err := Encode(event, data)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.clients {
		select {
		case sub.send <- msg:
		default:
			if h.metrics != nil {
				h.metrics.BroadcastDropped.Add(1)
			}
		}
	}
	return nil
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, sub := range h.clients {
		sub.close()
		delete(h.clients, id)
	}
}
