package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"go-calendar/internal/event"
)

// Hub relays calendar events from the bus to every connected client. All
// client bookkeeping happens on the Run goroutine.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	bus        event.Bus
}

func NewHub(bus event.Bus) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		bus:        bus,
	}
}

// Run blocks until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	events, unsubscribe := h.bus.Subscribe()
	defer unsubscribe()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			h.greet(client)
			slog.Debug("stream client connected", "user_id", client.userID, "clients", len(h.clients))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}
		case e, ok := <-events:
			if !ok {
				return
			}
			message, err := json.Marshal(e)
			if err != nil {
				slog.Error("failed to marshal event", "type", e.Type, "error", err)
				continue
			}
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					slog.Warn("dropping slow stream client", "user_id", client.userID)
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) greet(client *Client) {
	message, err := json.Marshal(event.Event{
		ID:        uuid.NewString(),
		Type:      event.TypeStreamReady,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return
	}
	client.send <- message
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
}
