package wire

import (
	"fmt"
)

// CBOR map keys for message encoding.
const (
	KeyMessageID  = 1
	KeyOpOrStatus = 2 // Operation (request) or Status (response)
	KeyRef        = 3
	KeyChanges    = 4 // Changes (request) or Message (response)
	KeyFeatures   = 5
)

// Request represents a message from plugin to controller.
//
// CBOR encoding:
//
//	{
//	  1: messageId,    // uint32
//	  2: operation,    // uint8: 1=CreateDevice, 2=CreateFeature, 3=Update
//	  3: ref,          // int: target of Update
//	  4: changes,      // map: property -> value
//	  5: features      // array of change maps (CreateDevice only)
//	}
type Request struct {
	MessageID uint32       `cbor:"1,keyasint"`
	Operation Operation    `cbor:"2,keyasint"`
	Ref       int          `cbor:"3,keyasint,omitempty"`
	Changes   RawChanges   `cbor:"4,keyasint,omitempty"`
	Features  []RawChanges `cbor:"5,keyasint,omitempty"`
}

// Validate checks if the request is valid.
func (r *Request) Validate() error {
	if r.MessageID == 0 {
		return fmt.Errorf("messageId 0 is reserved")
	}
	if !r.Operation.IsValid() {
		return fmt.Errorf("invalid operation: %d", r.Operation)
	}
	switch r.Operation {
	case OpUpdate:
		if r.Ref <= 0 {
			return fmt.Errorf("update needs a ref, got %d", r.Ref)
		}
		if len(r.Features) > 0 {
			return fmt.Errorf("update carries no features")
		}
	case OpCreateFeature:
		if r.Ref != 0 || len(r.Features) > 0 {
			return fmt.Errorf("create feature carries only changes")
		}
	case OpCreateDevice:
		if r.Ref != 0 {
			return fmt.Errorf("create device carries no ref")
		}
	}
	return nil
}

// Response represents a message from controller to plugin.
//
// CBOR encoding:
//
//	{
//	  1: messageId,    // uint32: matches request
//	  2: status,       // uint8: 0=success, or error code
//	  3: ref,          // int: assigned ref (create operations)
//	  4: message       // text: error detail
//	}
type Response struct {
	MessageID uint32 `cbor:"1,keyasint"`
	Status    Status `cbor:"2,keyasint"`
	Ref       int    `cbor:"3,keyasint,omitempty"`
	Message   string `cbor:"4,keyasint,omitempty"`
}

// IsSuccess returns true if the response indicates success.
func (r *Response) IsSuccess() bool {
	return r.Status.IsSuccess()
}

// Err returns the error carried by the response, or nil.
func (r *Response) Err() error {
	return r.Status.Err(r.Message)
}

// ErrorResponse builds the response reporting err for messageID.
func ErrorResponse(messageID uint32, err error) *Response {
	return &Response{
		MessageID: messageID,
		Status:    StatusFromError(err),
		Message:   err.Error(),
	}
}
