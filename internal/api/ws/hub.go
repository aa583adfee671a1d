// Package ws bridges tracking events to websocket subscribers.
package ws

import (
	"encoding/json"
	"log"
	"sync"

	"locagent/internal/core/model"
)

// Hub maintains the set of connected clients and broadcasts events.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer; drop it rather than block the hub.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast publishes one event to all connected clients. Never blocks the
// caller; with no hub goroutine or a full buffer the event is dropped.
func (h *Hub) Broadcast(event model.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws: event marshal failed: %v", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
	}
}
