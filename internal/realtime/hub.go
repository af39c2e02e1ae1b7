package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Event is what connected admin and storefront clients receive when the catalog changes.
type Event struct {
	Type      string    `json:"type"`
	ProductID string    `json:"product_id"`
	At        time.Time `json:"at"`
}

// Hub fans catalog events out to every connected websocket client.
type Hub struct {
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	// closed when Run returns
	done chan struct{}

	mu  sync.RWMutex
	log *slog.Logger
}

func NewHub(l *slog.Logger) *Hub {
	if l == nil {
		l = slog.Default()
	}
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		log:        l,
	}
}

// Run is the hub loop. It returns when ctx is done, closing every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, c := range h.clients {
				close(c.send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.ID] = c
			h.mu.Unlock()
			h.log.Debug("ws_client_connected", slog.String("client_id", c.ID))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c.ID]; ok {
				delete(h.clients, c.ID)
				close(c.send)
			}
			h.mu.Unlock()
			h.log.Debug("ws_client_disconnected", slog.String("client_id", c.ID))

		case msg := <-h.broadcast:
			h.mu.Lock()
			for id, c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// slow consumer
					close(c.send)
					delete(h.clients, id)
					h.log.Warn("ws_client_dropped", slog.String("client_id", id))
				}
			}
			h.mu.Unlock()
		}
	}
}

// Notify broadcasts a catalog event. It never blocks the caller: when the
// broadcast buffer is full the event is dropped and logged.
func (h *Hub) Notify(ctx context.Context, eventType, productID string) {
	msg, err := json.Marshal(Event{Type: eventType, ProductID: productID, At: time.Now().UTC()})
	if err != nil {
		h.log.ErrorContext(ctx, "ws_event_marshal_failed", slog.Any("err", err))
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		h.log.WarnContext(ctx, "ws_event_dropped",
			slog.String("type", eventType),
			slog.String("product_id", productID),
		)
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
