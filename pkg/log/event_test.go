package log

import (
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/hspi-sdk/hspi-go/pkg/wire"
)

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{DirectionIn.String(), "IN"},
		{DirectionOut.String(), "OUT"},
		{Direction(9).String(), "UNKNOWN"},
		{LayerTransport.String(), "TRANSPORT"},
		{LayerWire.String(), "WIRE"},
		{LayerEntity.String(), "ENTITY"},
		{CategoryMessage.String(), "MESSAGE"},
		{CategoryState.String(), "STATE"},
		{CategoryError.String(), "ERROR"},
		{RolePlugin.String(), "PLUGIN"},
		{RoleController.String(), "CONTROLLER"},
		{MessageTypeRequest.String(), "REQUEST"},
		{MessageTypeResponse.String(), "RESPONSE"},
		{StateEntityConnection.String(), "CONNECTION"},
		{StateEntityDevice.String(), "DEVICE"},
		{StateEntityFeature.String(), "FEATURE"},
		{StateEntity(9).String(), "UNKNOWN"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestRequestEvent(t *testing.T) {
	req := &wire.Request{
		MessageID: 7,
		Operation: wire.OpCreateDevice,
		Changes: wire.RawChanges{
			6: cbor.RawMessage{0x60},
			2: cbor.RawMessage{0x60},
		},
		Features: []wire.RawChanges{{}, {}},
	}
	ev := RequestEvent(req)
	if ev.Type != MessageTypeRequest || ev.MessageID != 7 {
		t.Fatalf("unexpected header: %+v", ev)
	}
	if ev.Operation == nil || *ev.Operation != wire.OpCreateDevice {
		t.Errorf("operation = %v", ev.Operation)
	}
	if len(ev.Properties) != 2 || ev.Properties[0] != 2 || ev.Properties[1] != 6 {
		t.Errorf("properties = %v, want [2 6]", ev.Properties)
	}
	if ev.FeatureCount != 2 {
		t.Errorf("feature count = %d", ev.FeatureCount)
	}
}

func TestResponseEvent(t *testing.T) {
	ev := ResponseEvent(&wire.Response{MessageID: 7, Status: wire.StatusOverlap}, 0)
	if ev.ProcessingTime != nil {
		t.Error("zero elapsed should not be recorded")
	}
	if ev.Status == nil || *ev.Status != wire.StatusOverlap {
		t.Errorf("status = %v", ev.Status)
	}

	ev = ResponseEvent(&wire.Response{MessageID: 8, Ref: 12}, 3*time.Millisecond)
	if ev.ProcessingTime == nil || *ev.ProcessingTime != 3*time.Millisecond {
		t.Errorf("processing time = %v", ev.ProcessingTime)
	}
	if ev.Ref != 12 {
		t.Errorf("ref = %d", ev.Ref)
	}
}

func TestEventCBORRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	code := int(wire.StatusNotFound)
	in := Event{
		Timestamp:    ts,
		ConnectionID: "c-1",
		Direction:    DirectionOut,
		Layer:        LayerWire,
		Category:     CategoryError,
		LocalRole:    RoleController,
		PluginID:     "demo",
		Error:        &ErrorEventData{Layer: LayerWire, Message: "no such ref", Code: &code, Context: "update"},
	}

	data, err := EncodeEvent(in)
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}
	out, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}
	if !out.Timestamp.Equal(ts) {
		t.Errorf("timestamp lost precision: %v", out.Timestamp)
	}
	if out.PluginID != "demo" || out.LocalRole != RoleController {
		t.Errorf("identity fields: %+v", out)
	}
	if out.Error == nil || out.Error.Code == nil || *out.Error.Code != code {
		t.Errorf("error payload: %+v", out.Error)
	}
}
