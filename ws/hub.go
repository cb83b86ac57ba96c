// Package ws bridges the debug session to UI clients over websockets.
// The hub fans session events out to every connected client and funnels
// client requests back through a single callback.
package ws

import (
	"context"

	"github.com/sirupsen/logrus"
)

type Hub struct {
	connections map[*Connection]bool

	broadcast  chan []byte
	register   chan *Connection
	unregister chan *Connection
}

func NewHub() *Hub {
	return &Hub{
		connections: make(map[*Connection]bool),
		broadcast:   make(chan []byte, 64),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
	}
}

// Run owns the connection set; nothing else touches it.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for conn := range h.connections {
				conn.close()
			}
			return
		case conn := <-h.register:
			h.connections[conn] = true
			logrus.Infof("ws client connected, total = %d", len(h.connections))
		case conn := <-h.unregister:
			if h.connections[conn] {
				delete(h.connections, conn)
				conn.close()
			}
		case message := <-h.broadcast:
			for conn := range h.connections {
				select {
				case conn.send <- message:
				default:
					// slow client, drop it rather than block the session
					delete(h.connections, conn)
					conn.close()
				}
			}
		}
	}
}

// Broadcast queues a message for every client.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		logrus.Warn("ws broadcast queue full, dropping message")
	}
}
