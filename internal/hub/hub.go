// internal/hub/hub.go
package hub

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/arixstoo/Junction/internal/model"
)

// Hub maintains the set of active clients and broadcasts messages.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			log.Printf("websocket client registered: %s", client.conn.RemoteAddr())
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("websocket client unregistered: %s", client.conn.RemoteAddr())
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client is blocked or gone, drop it.
					log.Printf("websocket client %s send buffer full, removing", client.conn.RemoteAddr())
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Connections reports the number of registered clients; feeds the dashboard
// overview payload and the connection gauge.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Envelope wraps a payload in the wire format every realtime frame uses.
func Envelope(msgType string, data interface{}) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"type":      msgType,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// BroadcastSensorData pushes a reading to every connected client.
func (h *Hub) BroadcastSensorData(reading model.SensorReading) {
	messageBytes, err := Envelope(model.MessageSensorData, reading)
	if err != nil {
		log.Printf("error marshalling sensor data for broadcast: %v", err)
		return
	}
	h.broadcast <- messageBytes
}

// BroadcastAlert pushes an alert to every connected client.
func (h *Hub) BroadcastAlert(alert interface{}) {
	messageBytes, err := Envelope(model.MessageAlert, alert)
	if err != nil {
		log.Printf("error marshalling alert for broadcast: %v", err)
		return
	}
	h.broadcast <- messageBytes
}
