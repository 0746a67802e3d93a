package log

import (
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hspi-sdk/hspi-go/pkg/wire"
)

func captureEvents(t *testing.T, events ...Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "session"+FileExt)
	fl, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	for _, ev := range events {
		fl.Log(ev)
	}
	if fl.Written() != len(events) {
		t.Errorf("written = %d, want %d", fl.Written(), len(events))
	}
	if err := fl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}

func readAll(t *testing.T, path string, filter Filter) []Event {
	t.Helper()
	r, err := NewFilteredReader(path, filter)
	if err != nil {
		t.Fatalf("NewFilteredReader: %v", err)
	}
	defer r.Close()

	var out []Event
	for {
		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		out = append(out, ev)
	}
}

func sessionEvents() []Event {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	req := RequestEvent(&wire.Request{MessageID: 1, Operation: wire.OpUpdate, Ref: 40})
	resp := ResponseEvent(&wire.Response{MessageID: 1, Ref: 40}, time.Millisecond)
	return []Event{
		{Timestamp: base, ConnectionID: "a", Layer: LayerEntity, Category: CategoryState,
			StateChange: &StateChangeEvent{Entity: StateEntityConnection, NewState: "CONNECTED"}},
		{Timestamp: base.Add(time.Second), ConnectionID: "a", Direction: DirectionOut, Layer: LayerTransport,
			Frame: &FrameEvent{Size: 12, Data: []byte{1, 2}}},
		{Timestamp: base.Add(2 * time.Second), ConnectionID: "a", Direction: DirectionOut, Layer: LayerWire, Message: req},
		{Timestamp: base.Add(3 * time.Second), ConnectionID: "b", Direction: DirectionIn, Layer: LayerWire, Message: resp,
			PluginID: "other"},
	}
}

func TestFileLoggerReaderRoundTrip(t *testing.T) {
	path := captureEvents(t, sessionEvents()...)
	events := readAll(t, path, Filter{})
	if len(events) != 4 {
		t.Fatalf("read %d events, want 4", len(events))
	}
	if events[1].Frame == nil || events[1].Frame.Size != 12 {
		t.Errorf("frame payload lost: %+v", events[1])
	}
	if events[2].Message == nil || events[2].Message.Ref != 40 {
		t.Errorf("message payload lost: %+v", events[2])
	}
}

func TestReaderFilters(t *testing.T) {
	path := captureEvents(t, sessionEvents()...)
	wireLayer := LayerWire
	in := DirectionIn
	start := time.Date(2026, 1, 2, 3, 4, 6, 0, time.UTC)
	end := time.Date(2026, 1, 2, 3, 4, 8, 0, time.UTC)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"connection", Filter{ConnectionID: "a"}, 3},
		{"plugin", Filter{PluginID: "other"}, 1},
		{"layer", Filter{Layer: &wireLayer}, 2},
		{"direction", Filter{Direction: &in}, 2},
		{"ref", Filter{Ref: 40}, 2},
		{"time window", Filter{TimeStart: &start, TimeEnd: &end}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(readAll(t, path, tt.filter)); got != tt.want {
				t.Errorf("got %d events, want %d", got, tt.want)
			}
		})
	}
}

func TestFileLoggerConcurrentAndClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c"+FileExt)
	fl, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fl.Log(Event{Timestamp: time.Now(), ConnectionID: string(rune('a' + i))})
		}()
	}
	wg.Wait()

	if err := fl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := fl.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	fl.Log(Event{ConnectionID: "late"})

	if got := len(readAll(t, path, Filter{})); got != 8 {
		t.Errorf("read %d events, want 8", got)
	}
}
