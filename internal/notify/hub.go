package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Hub broadcasts events to connected websocket clients. A client whose
// write fails is removed; the others keep receiving.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	// send serializes broadcasts so each connection has one writer.
	send sync.Mutex

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  logger.Named("ws"),
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// ServeWS upgrades the request and keeps the connection registered until
// the client goes away. It blocks for the lifetime of the connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	h.add(conn)
	defer h.remove(conn)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go h.ping(conn, done)
	defer close(done)

	// Clients only listen; reading drives pong handling and close detection.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

func (h *Hub) ping(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			// WriteControl may run concurrently with WriteMessage
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			if err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
	h.logger.Debug("client connected", zap.String("remote", conn.RemoteAddr().String()), zap.Int("clients", len(h.clients)))
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; !ok {
		return
	}
	delete(h.clients, conn)
	_ = conn.Close()
	h.logger.Debug("client disconnected", zap.Int("clients", len(h.clients)))
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) snapshot() []*websocket.Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	return conns
}

// Notify implements Notifier. Writes happen outside the client registry
// lock, so a slow client delays the broadcast but not connects or Len.
func (h *Hub) Notify(_ context.Context, e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		h.logger.Error("marshal event", zap.Error(err))
		return
	}

	h.send.Lock()
	defer h.send.Unlock()
	for _, conn := range h.snapshot() {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug("dropping client", zap.Error(err))
			h.remove(conn)
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		delete(h.clients, conn)
	}
}
