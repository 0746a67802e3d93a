package controller

import (
	"context"
	"errors"

	"github.com/hspi-sdk/hspi-go/pkg/factory"
	"github.com/hspi-sdk/hspi-go/pkg/model"
)

// Controller is the plugin's view of the home-automation controller.
// Errors carry the hserr sentinels so callers can use errors.Is.
type Controller interface {
	// CreateDevice creates a device and its embedded features, returning
	// the device ref.
	CreateDevice(ctx context.Context, data *factory.NewDeviceData) (int, error)

	// CreateFeature creates a feature under the device named by its
	// association, returning the feature ref.
	CreateFeature(ctx context.Context, data *factory.NewFeatureData) (int, error)

	// UpdateEntity applies changes to the device or feature ref.
	UpdateEntity(ctx context.Context, ref int, changes model.Changes) error
}

// FrameConn carries one message per frame. *transport.Conn and
// *transport.Framer implement it.
type FrameConn interface {
	ReadFrame() ([]byte, error)
	WriteFrame(data []byte) error
}

// Entity is the part of a device or feature Push needs.
type Entity interface {
	Ref() int
	HasChanges() bool
	Changes() model.Changes
	AcceptChanges()
}

// ErrNoRef is returned by Push for an entity the controller has not
// assigned a ref yet.
var ErrNoRef = errors.New("entity has no ref")

// Push ships e's staged changes to c and accepts them once c has applied
// them. An entity without changes is not sent.
func Push(ctx context.Context, c Controller, e Entity) error {
	if !e.HasChanges() {
		return nil
	}
	if e.Ref() <= 0 {
		return ErrNoRef
	}
	if err := c.UpdateEntity(ctx, e.Ref(), e.Changes()); err != nil {
		return err
	}
	e.AcceptChanges()
	return nil
}
