package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeConn scripts inbound frames and records outbound writes. Closing the
// frames channel makes ReadMessage return readErr.
type fakeConn struct {
	frames  chan []byte
	readErr error

	mu      sync.Mutex
	written [][]byte
	closed  bool
}

func newFakeConn(readErr error) *fakeConn {
	return &fakeConn{frames: make(chan []byte, 64), readErr: readErr}
}

func (f *fakeConn) push(frame string) { f.frames <- []byte(frame) }

func (f *fakeConn) drop() { close(f.frames) }

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	data, ok := <-f.frames
	if !ok {
		return 0, nil, f.readErr
	}
	return websocket.TextMessage, data, nil
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, data)
	return nil
}

func (f *fakeConn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.written)
}

// fakeDialer hands out scripted results; once the script runs out every dial
// fails.
type fakeDialer struct {
	mu     sync.Mutex
	script []*fakeConn // nil entry means a failed dial
	dials  int
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if len(d.script) == 0 {
		return nil, errors.New("dial refused")
	}
	next := d.script[0]
	d.script = d.script[1:]
	if next == nil {
		return nil, errors.New("dial refused")
	}
	return next, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func testChannel(d Dialer, opts ...Option) *Channel {
	base := []Option{
		WithDialer(d),
		WithRetryDelay(5 * time.Millisecond),
		WithReconnectWait(0),
		WithPingInterval(time.Hour),
	}
	return NewChannel("ws://test/mvp/ws", append(base, opts...)...)
}

func TestConnectDeliversSensorData(t *testing.T) {
	conn := newFakeConn(nil)
	ch := testChannel(&fakeDialer{script: []*fakeConn{conn}})
	defer ch.Disconnect()

	ch.Connect()
	waitFor(t, "connected state", func() bool { return ch.State() == StateConnected })

	conn.push(`{"type":"sensor_data","data":{"pond_id":"1","temperature":24.5},"timestamp":"2025-01-01T00:00:00Z"}`)
	conn.push(`{"type":"sensor_data","data":{"pond_id":"1","temperature":25.1},"timestamp":"2025-01-01T00:00:10Z"}`)

	waitFor(t, "second reading", func() bool {
		r := ch.LatestReading()
		return r != nil && r.Temperature == 25.1
	})

	if msg := ch.LastMessage(); msg == nil || msg.Type != "sensor_data" {
		t.Fatalf("unexpected last message: %+v", msg)
	}
}

func TestAlertBufferNewestFirstAndBounded(t *testing.T) {
	conn := newFakeConn(nil)
	ch := testChannel(&fakeDialer{script: []*fakeConn{conn}})
	defer ch.Disconnect()

	ch.Connect()
	waitFor(t, "connected state", func() bool { return ch.State() == StateConnected })

	for i := 0; i < 55; i++ {
		conn.push(fmt.Sprintf(`{"type":"alert","data":{"id":"a-%d","severity":"critical"}}`, i))
	}

	waitFor(t, "alert buffer to fill", func() bool { return len(ch.Alerts()) == 50 })

	alerts := ch.Alerts()
	if alerts[0].ID != "a-54" {
		t.Fatalf("expected newest alert first, got %q", alerts[0].ID)
	}
	if alerts[49].ID != "a-5" {
		t.Fatalf("expected oldest surviving alert a-5, got %q", alerts[49].ID)
	}
}

func TestDialFailureRetriesThenGivesUp(t *testing.T) {
	d := &fakeDialer{} // every dial fails
	ch := testChannel(d, WithMaxRetries(2))

	ch.Connect()
	waitFor(t, "disconnected after exhausting retries", func() bool {
		return ch.State() == StateDisconnected && d.dialCount() == 3
	})

	time.Sleep(30 * time.Millisecond)
	if n := d.dialCount(); n != 3 {
		t.Fatalf("expected no dials beyond the retry budget, got %d", n)
	}
}

func TestAbnormalCloseReconnects(t *testing.T) {
	first := newFakeConn(&websocket.CloseError{Code: websocket.CloseAbnormalClosure})
	second := newFakeConn(nil)
	d := &fakeDialer{script: []*fakeConn{first, second}}
	ch := testChannel(d)
	defer ch.Disconnect()

	ch.Connect()
	waitFor(t, "first connection", func() bool { return ch.State() == StateConnected })

	first.drop()
	waitFor(t, "reconnection", func() bool {
		return d.dialCount() == 2 && ch.State() == StateConnected
	})
}

func TestNormalCloseDoesNotReconnect(t *testing.T) {
	conn := newFakeConn(&websocket.CloseError{Code: websocket.CloseNormalClosure})
	d := &fakeDialer{script: []*fakeConn{conn}}
	ch := testChannel(d)

	ch.Connect()
	waitFor(t, "connected state", func() bool { return ch.State() == StateConnected })

	conn.drop()
	waitFor(t, "disconnected state", func() bool { return ch.State() == StateDisconnected })

	time.Sleep(30 * time.Millisecond)
	if n := d.dialCount(); n != 1 {
		t.Fatalf("server-initiated close must not redial, got %d dials", n)
	}
}

func TestDisconnectCancelsPendingRetry(t *testing.T) {
	d := &fakeDialer{}
	ch := testChannel(d, WithRetryDelay(50*time.Millisecond))

	ch.Connect()
	waitFor(t, "error state", func() bool { return ch.State() == StateError })

	ch.Disconnect()
	time.Sleep(100 * time.Millisecond)

	if n := d.dialCount(); n != 1 {
		t.Fatalf("disconnect must cancel the retry timer, got %d dials", n)
	}
	if s := ch.State(); s != StateDisconnected {
		t.Fatalf("expected disconnected, got %s", s)
	}
}

func TestReconnectResetsRetryBudget(t *testing.T) {
	d := &fakeDialer{}
	ch := testChannel(d, WithMaxRetries(1))

	ch.Connect()
	waitFor(t, "retries exhausted", func() bool {
		return ch.State() == StateDisconnected && d.dialCount() == 2
	})

	conn := newFakeConn(nil)
	d.mu.Lock()
	d.script = []*fakeConn{conn}
	d.mu.Unlock()

	ch.Reconnect()
	defer ch.Disconnect()
	waitFor(t, "manual reconnect", func() bool { return ch.State() == StateConnected })
}

func TestConnectWhileConnectedIsNoOp(t *testing.T) {
	conn := newFakeConn(nil)
	d := &fakeDialer{script: []*fakeConn{conn}}
	ch := testChannel(d)
	defer ch.Disconnect()

	ch.Connect()
	waitFor(t, "connected state", func() bool { return ch.State() == StateConnected })

	ch.Connect()
	time.Sleep(20 * time.Millisecond)
	if n := d.dialCount(); n != 1 {
		t.Fatalf("connect while connected must not redial, got %d dials", n)
	}
}

func TestUnknownMessageTypeIgnored(t *testing.T) {
	conn := newFakeConn(nil)
	ch := testChannel(&fakeDialer{script: []*fakeConn{conn}})
	defer ch.Disconnect()

	ch.Connect()
	waitFor(t, "connected state", func() bool { return ch.State() == StateConnected })

	conn.push(`{"type":"weather_report","data":{}}`)
	waitFor(t, "frame to land", func() bool {
		m := ch.LastMessage()
		return m != nil && m.Type == "weather_report"
	})

	if ch.LatestReading() != nil {
		t.Fatalf("unknown type must not populate the reading")
	}
	if len(ch.Alerts()) != 0 {
		t.Fatalf("unknown type must not populate alerts")
	}
}

func TestPingLoopSendsKeepAlive(t *testing.T) {
	conn := newFakeConn(nil)
	ch := testChannel(&fakeDialer{script: []*fakeConn{conn}},
		WithPingInterval(5*time.Millisecond))
	defer ch.Disconnect()

	ch.Connect()
	waitFor(t, "keep-alive pings", func() bool { return conn.writeCount() >= 2 })

	conn.mu.Lock()
	defer conn.mu.Unlock()
	var msg map[string]string
	if err := json.Unmarshal(conn.written[0], &msg); err != nil {
		t.Fatalf("ping frame is not JSON: %v", err)
	}
	if msg["type"] != "ping" {
		t.Fatalf("expected ping frame, got %q", msg["type"])
	}
}
