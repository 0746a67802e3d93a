package log

import (
	"sync"
	"testing"
)

type recordingLogger struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingLogger) Log(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func TestMultiLoggerFansOut(t *testing.T) {
	a, b := &recordingLogger{}, &recordingLogger{}
	m := NewMultiLogger(a, nil, b)
	m.Log(Event{ConnectionID: "x"})
	m.Log(Event{ConnectionID: "y"})

	for i, r := range []*recordingLogger{a, b} {
		if len(r.events) != 2 || r.events[1].ConnectionID != "y" {
			t.Errorf("logger %d got %+v", i, r.events)
		}
	}
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("nil logger should become NoopLogger")
	}
	r := &recordingLogger{}
	if OrNoop(r) != Logger(r) {
		t.Error("non-nil logger should be returned as is")
	}
	NoopLogger{}.Log(Event{})
}
