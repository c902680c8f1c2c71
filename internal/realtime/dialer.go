// internal/realtime/dialer.go
package realtime

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the subset of a websocket connection the channel drives. Satisfied
// by *websocket.Conn; tests substitute a scripted fake.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Dialer opens websocket connections. The production implementation wraps
// gorilla's dialer; tests inject fakes to drive the state machine without
// real sockets.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

type gorillaDialer struct {
	d *websocket.Dialer
}

func (g gorillaDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, _, err := g.d.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// DefaultDialer dials with gorilla's default settings.
func DefaultDialer() Dialer {
	return gorillaDialer{d: websocket.DefaultDialer}
}
