package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/hspi-sdk/hspi-go/pkg/wire"
)

func decodeRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("parse log output %q: %v", buf.String(), err)
	}
	return rec
}

func TestSlogAdapterMessage(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	adapter.Log(Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-1",
		Direction:    DirectionIn,
		Layer:        LayerWire,
		PluginID:     "demo",
		Message:      ResponseEvent(&wire.Response{MessageID: 4, Status: wire.StatusOutOfRange}, 2*time.Millisecond),
	})

	rec := decodeRecord(t, &buf)
	want := map[string]any{
		"msg":       "protocol",
		"conn_id":   "conn-1",
		"plugin":    "demo",
		"layer":     "WIRE",
		"msg_type":  "RESPONSE",
		"status":    "OUT_OF_RANGE",
		"direction": "IN",
	}
	for k, v := range want {
		if rec[k] != v {
			t.Errorf("%s = %v, want %v", k, rec[k], v)
		}
	}
}

func TestSlogAdapterStateAndError(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	adapter.Log(Event{StateChange: &StateChangeEvent{Entity: StateEntityFeature, OldState: "STAGED", NewState: "CREATED"}})
	rec := decodeRecord(t, &buf)
	if rec["entity"] != "FEATURE" || rec["new_state"] != "CREATED" {
		t.Errorf("state attrs: %v", rec)
	}

	buf.Reset()
	code := 3
	adapter.Log(Event{Category: CategoryError, Error: &ErrorEventData{Layer: LayerTransport, Message: "eof", Code: &code}})
	rec = decodeRecord(t, &buf)
	if rec["error_msg"] != "eof" || rec["error_code"] != float64(3) {
		t.Errorf("error attrs: %v", rec)
	}
}

func TestSlogAdapterBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	adapter.Log(Event{ConnectionID: "quiet"})
	if buf.Len() != 0 {
		t.Errorf("debug event written at info level: %s", buf.String())
	}
}
