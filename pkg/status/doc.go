// Package status maps a feature's numeric value to what the controller
// shows for it.
//
// # Entries
//
// A feature carries two indexes of status entries:
//   - StatusControl: a widget (button, slider, list, ...) the user operates
//   - StatusGraphic: an image, optionally labelled, shown for the value
//
// Every entry is anchored to a Target, which is either a Point (one value,
// matched within PointTolerance) or a *ValueRange (an inclusive interval,
// matched with RangeEpsilon tolerance and able to render values as text).
//
// # Lookup
//
// Collection keeps entries ordered by anchor (the point value or range
// minimum) and never lets two entries overlap. A lookup takes the entry with
// the greatest anchor not above the value and then checks that the entry
// really contains it:
//
//	controls := status.NewControls()
//	_ = controls.Add(off)    // point 0
//	_ = controls.Add(dim)    // range [1,99]
//	c, err := controls.Lookup(42) // dim
//	_, err = controls.Lookup(100) // hserr.ErrNotFound
package status
