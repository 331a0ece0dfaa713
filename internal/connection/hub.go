package connection

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/ledger-dashboard/internal/model"
)

// Snapshotter returns the current market update. Implemented by market.Board.
type Snapshotter interface {
	Latest() (model.MarketUpdate, bool)
}

// UpdateSource yields updates until closed. Implemented by router.RingBuffer.
type UpdateSource interface {
	Receive() (model.MarketUpdate, bool)
}

// HubObserver records subscriber activity. Implemented by metrics.Metrics.
type HubObserver interface {
	SetStreamClients(n int)
	StreamClientDropped()
}

type nopHubObserver struct{}

func (nopHubObserver) SetStreamClients(int) {}
func (nopHubObserver) StreamClientDropped() {}

// Hub pushes market updates to WebSocket subscribers.
type Hub struct {
	cfg      HubConfig
	board    Snapshotter
	upgrader websocket.Upgrader
	observer HubObserver
	logger   *slog.Logger

	mu      sync.RWMutex
	clients map[*hubClient]struct{}
	closed  bool
}

// hubClient is one subscriber. send is closed exactly once, by the hub.
type hubClient struct {
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
	remote    string
}

// NewHub creates a new Hub.
func NewHub(cfg HubConfig, board Snapshotter, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultHubConfig()
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.PongWait <= cfg.PingInterval {
		cfg.PongWait = 2 * cfg.PingInterval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.SendQueue < 1 {
		cfg.SendQueue = def.SendQueue
	}
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = def.ReadLimit
	}

	return &Hub{
		cfg:   cfg,
		board: board,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Dashboard frontends are served from other origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		observer: nopHubObserver{},
		logger:   logger,
		clients:  make(map[*hubClient]struct{}),
	}
}

// SetObserver attaches a subscriber observer. Call before serving.
func (h *Hub) SetObserver(o HubObserver) {
	if o != nil {
		h.observer = o
	}
}

// ServeHTTP upgrades the request and registers the subscriber.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &hubClient{
		conn:   conn,
		send:   make(chan []byte, h.cfg.SendQueue),
		remote: r.RemoteAddr,
	}

	if err := h.register(c); err != nil {
		h.logger.Debug("stream subscriber rejected", "remote", c.remote, "error", err)
		conn.Close()
		return
	}

	go h.writePump(c)
	go h.readPump(c)
}

// Run broadcasts every update from src until src is closed, then
// disconnects all subscribers.
func (h *Hub) Run(src UpdateSource) {
	for {
		u, ok := src.Receive()
		if !ok {
			h.Close()
			return
		}
		h.Broadcast(u)
	}
}

// Broadcast sends u to every subscriber. A subscriber whose queue is full
// is disconnected.
func (h *Hub) Broadcast(u model.MarketUpdate) {
	data, err := h.encode(u, true)
	if err != nil {
		h.logger.Error("encode update", "error", err)
		return
	}

	h.mu.RLock()
	var slow []*hubClient
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("stream subscriber too slow, disconnecting", "remote", c.remote)
		h.observer.StreamClientDropped()
		h.unregister(c)
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*hubClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.unregister(c)
	}
}

func (h *Hub) encode(u model.MarketUpdate, polled bool) ([]byte, error) {
	return json.Marshal(NewMarketMessage(u, polled, h.cfg.QuoteUnit))
}

// register queues the current record and adds c. Both happen under the lock
// so no broadcast falls between the snapshot and the first queued update.
func (h *Hub) register(c *hubClient) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrAlreadyClosed
	}

	latest, polled := h.board.Latest()
	data, err := h.encode(latest, polled)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	c.send <- data

	h.clients[c] = struct{}{}
	h.observer.SetStreamClients(len(h.clients))
	h.logger.Debug("stream subscriber connected", "remote", c.remote, "clients", len(h.clients))
	return nil
}

// unregister removes c and closes its send queue, which ends writePump.
func (h *Hub) unregister(c *hubClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.observer.SetStreamClients(n)
		h.logger.Debug("stream subscriber disconnected", "remote", c.remote, "clients", n)
	}
	c.closeOnce.Do(func() { close(c.send) })
}

// writePump is the only writer on c.conn.
func (h *Hub) writePump(c *hubClient) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Debug("stream write failed", "remote", c.remote, "error", err)
				h.unregister(c)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.logger.Debug("stream ping failed", "remote", c.remote, "error", err)
				h.unregister(c)
				return
			}
		}
	}
}

// readPump discards inbound frames and detects disconnects.
func (h *Hub) readPump(c *hubClient) {
	defer h.unregister(c)

	c.conn.SetReadLimit(h.cfg.ReadLimit)
	c.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("stream read failed", "remote", c.remote, "error", err)
			}
			return
		}
	}
}
