// Package model implements the plugin-side view of controller entities.
//
// # Entities
//
// The controller tracks two kinds of entity:
//
//	Device (parent)
//	├── Feature (child)
//	├── Feature (child)
//	└── ...
//
// A Device groups related Features. A Feature is one controllable or
// observable aspect of a device, and owns two status indexes: controls the
// user can operate and graphics shown for the current value.
//
// # Ledger
//
// Every entity stores its properties twice:
//
//   - a committed record holding the state last agreed with the controller
//   - an overlay of staged changes keyed by Property
//
// Reads return the overlay value when present, otherwise the committed one.
// Writes land in the overlay and, unless the entity is staging-only, in the
// committed record as well. Changes returns the overlay, which is the literal
// payload sent to the controller; the ledger never commits it on its own.
//
// Entities built by a factory are staging-only: their committed record stays
// at defaults and everything set on them lives in the overlay.
//
// # Concurrency
//
// Entities are not safe for concurrent use. Callers that share one entity
// across goroutines must synchronize access themselves.
package model
