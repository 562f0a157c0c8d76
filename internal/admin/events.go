// ABOUTME: WebSocket stream of flash events for console pages.
// ABOUTME: A hub fans each flash write out to the clients watching that resource.

package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/2389/reco/internal/console"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4 * 1024
	sendBuffer     = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// checkOrigin accepts same-origin pages and pages served from a loopback host
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	switch strings.ToLower(u.Hostname()) {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

type eventClient struct {
	resource  string
	conn      *websocket.Conn
	send      chan []byte
	ctx       context.Context
	cancel    context.CancelFunc
	closeConn sync.Once
}

// Hub is a console.Notifier that broadcasts flash events to websocket clients
type Hub struct {
	mu      sync.RWMutex
	clients map[*eventClient]struct{}
	log     *zap.SugaredLogger
}

func NewHub(log *zap.SugaredLogger) *Hub {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Hub{clients: make(map[*eventClient]struct{}), log: log.Named("events")}
}

// Notify sends the event to every client watching its resource. Slow
// clients miss events rather than block the action.
func (h *Hub) Notify(e console.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		h.log.Warnw("failed to encode flash event", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.resource != e.Resource {
			continue
		}
		select {
		case c.send <- payload:
		default:
			h.log.Debugw("dropped flash event for slow client", "resource", e.Resource)
		}
	}
}

// Clients returns how many clients are connected for resource
func (h *Hub) Clients(resource string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		if c.resource == resource {
			n++
		}
	}
	return n
}

// Serve upgrades the request and streams resource's flash events until the client leaves
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, resource string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("websocket upgrade failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &eventClient{
		resource: resource,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		ctx:      ctx,
		cancel:   cancel,
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) remove(c *eventClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// readPump only watches for close and pong frames; clients never send events
func (h *Hub) readPump(c *eventClient) {
	defer func() {
		h.remove(c)
		c.cancel()
		c.closeConn.Do(func() {
			c.conn.Close()
		})
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Debugw("websocket closed", "error", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *eventClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConn.Do(func() {
			c.conn.Close()
		})
	}()

	for {
		select {
		case message := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.log.Debugw("failed to write flash event", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}
