// internal/hub/client.go
package hub

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arixstoo/Junction/internal/model"
)

const (
	writeWait      = 10 * time.Second    // Time allowed to write a message to the peer.
	pongWait       = 60 * time.Second    // Time allowed to read the next pong message from the peer.
	pingPeriod     = (pongWait * 9) / 10 // Send pings to peer with this period. Must be less than pongWait.
	maxMessageSize = 512                 // Maximum message size allowed from peer.
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewClient wraps an upgraded connection and registers it with the hub.
func NewClient(h *Hub, conn *websocket.Conn) *Client {
	c := &Client{hub: h, conn: conn, send: make(chan []byte, 256)}
	h.register <- c
	return c
}

// Send queues a message for this client only, dropping it if the client's
// buffer is full.
func (c *Client) Send(message []byte) {
	select {
	case c.send <- message:
	default:
		log.Printf("websocket client %s send buffer full, dropping message", c.conn.RemoteAddr())
	}
}

// ReadPump pumps inbound frames off the connection. Dashboard clients send
// application-level pings ({"type":"ping"}) which are answered with a pong
// frame; everything else is logged and ignored.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
		log.Printf("websocket readPump finished for %s", c.conn.RemoteAddr())
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket read error: %v", err)
			}
			break
		}

		var msg model.WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("ignoring malformed frame from %s: %v", c.conn.RemoteAddr(), err)
			continue
		}
		if msg.Type == model.MessagePing {
			pong, err := Envelope(model.MessagePong, nil)
			if err == nil {
				c.Send(pong)
			}
			continue
		}
		log.Printf("unexpected inbound frame type %q from %s", msg.Type, c.conn.RemoteAddr())
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		log.Printf("websocket writePump finished for %s", c.conn.RemoteAddr())
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("websocket write error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("websocket ping error: %v", err)
				return
			}
		}
	}
}
