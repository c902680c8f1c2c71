package hub

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/arixstoo/Junction/internal/model"
)

func TestEnvelopeShape(t *testing.T) {
	frame, err := Envelope(model.MessageSensorData, model.SensorReading{PondID: "1", Temperature: 24.5})
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}

	var msg model.WSMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		t.Fatalf("frame is not valid JSON: %v", err)
	}
	if msg.Type != model.MessageSensorData {
		t.Fatalf("unexpected type %q", msg.Type)
	}
	if _, err := time.Parse(time.RFC3339, msg.Timestamp); err != nil {
		t.Fatalf("timestamp %q is not RFC3339: %v", msg.Timestamp, err)
	}

	var reading model.SensorReading
	if err := json.Unmarshal(msg.Data, &reading); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if reading.PondID != "1" || reading.Temperature != 24.5 {
		t.Fatalf("unexpected payload: %+v", reading)
	}
}

func TestConnectionsStartsAtZero(t *testing.T) {
	h := NewHub()
	if n := h.Connections(); n != 0 {
		t.Fatalf("fresh hub must report zero connections, got %d", n)
	}
}
