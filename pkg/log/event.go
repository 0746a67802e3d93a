package log

import (
	"maps"
	"slices"
	"time"

	"github.com/hspi-sdk/hspi-go/pkg/wire"
)

// Event is one captured controller-protocol event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies the plugin-controller link (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	Direction Direction `cbor:"3,keyasint"`
	Layer     Layer     `cbor:"4,keyasint"`
	Category  Category  `cbor:"5,keyasint"`

	// LocalRole tells whether the plugin or the controller side logged the event.
	LocalRole Role `cbor:"6,keyasint,omitempty"`

	// RemoteAddr is the peer address (IP:port), empty for in-process pipes.
	RemoteAddr string `cbor:"7,keyasint,omitempty"`

	// PluginID is the interface name of the plugin owning the link.
	PluginID string `cbor:"8,keyasint,omitempty"`

	// Exactly one of the payloads below is set.
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"`
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"`
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	DirectionIn  Direction = 0
	DirectionOut Direction = 1
)

func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerTransport is the framing layer (raw bytes).
	LayerTransport Layer = 0
	// LayerWire is the decoded request/response layer.
	LayerWire Layer = 1
	// LayerEntity is the device/feature layer above the wire.
	LayerEntity Layer = 2
)

func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerEntity:
		return "ENTITY"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	CategoryMessage Category = 0
	CategoryState   Category = 1
	CategoryError   Category = 2
)

func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Role is the local end of the link.
type Role uint8

const (
	RolePlugin     Role = 0
	RoleController Role = 1
)

func (r Role) String() string {
	switch r {
	case RolePlugin:
		return "PLUGIN"
	case RoleController:
		return "CONTROLLER"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw frame data at the transport layer.
type FrameEvent struct {
	// Size is the frame size in bytes (including length prefix).
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame bytes, possibly truncated.
	Data []byte `cbor:"2,keyasint,omitempty"`

	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MessageEvent captures a decoded request or response.
type MessageEvent struct {
	Type      MessageType `cbor:"1,keyasint"`
	MessageID uint32      `cbor:"2,keyasint"`

	// Requests only.
	Operation *wire.Operation `cbor:"3,keyasint,omitempty"`

	// Target of an update, or the ref assigned by a create.
	Ref int `cbor:"4,keyasint,omitempty"`

	// Property keys carried by the request's change map.
	Properties []uint8 `cbor:"5,keyasint,omitempty"`

	// FeatureCount is the number of features embedded in a device create.
	FeatureCount int `cbor:"6,keyasint,omitempty"`

	// Responses only.
	Status *wire.Status `cbor:"7,keyasint,omitempty"`

	// ProcessingTime is the round trip as seen by the requester (response only).
	ProcessingTime *time.Duration `cbor:"8,keyasint,omitempty"`
}

// MessageType distinguishes requests from responses.
type MessageType uint8

const (
	MessageTypeRequest  MessageType = 0
	MessageTypeResponse MessageType = 1
)

func (m MessageType) String() string {
	switch m {
	case MessageTypeRequest:
		return "REQUEST"
	case MessageTypeResponse:
		return "RESPONSE"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures link and entity lifecycle events.
type StateChangeEvent struct {
	Entity   StateEntity `cbor:"1,keyasint"`
	OldState string      `cbor:"2,keyasint,omitempty"`
	NewState string      `cbor:"3,keyasint"`
	Reason   string      `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what changed state.
type StateEntity uint8

const (
	// StateEntityConnection is the plugin-controller link.
	StateEntityConnection StateEntity = 0
	// StateEntityDevice is a device known to the controller.
	StateEntityDevice StateEntity = 1
	// StateEntityFeature is a feature known to the controller.
	StateEntityFeature StateEntity = 2
)

func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityDevice:
		return "DEVICE"
	case StateEntityFeature:
		return "FEATURE"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	Layer   Layer  `cbor:"1,keyasint"`
	Message string `cbor:"2,keyasint"`

	// Code is the wire status code, when one applies.
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}

// RequestEvent summarizes req as a wire-layer message event.
func RequestEvent(req *wire.Request) *MessageEvent {
	op := req.Operation
	var keys []uint8
	if len(req.Changes) > 0 {
		keys = slices.Sorted(maps.Keys(req.Changes))
	}
	return &MessageEvent{
		Type:         MessageTypeRequest,
		MessageID:    req.MessageID,
		Operation:    &op,
		Ref:          req.Ref,
		Properties:   keys,
		FeatureCount: len(req.Features),
	}
}

// ResponseEvent summarizes resp. elapsed is recorded when positive.
func ResponseEvent(resp *wire.Response, elapsed time.Duration) *MessageEvent {
	st := resp.Status
	ev := &MessageEvent{
		Type:      MessageTypeResponse,
		MessageID: resp.MessageID,
		Ref:       resp.Ref,
		Status:    &st,
	}
	if elapsed > 0 {
		ev.ProcessingTime = &elapsed
	}
	return ev
}
