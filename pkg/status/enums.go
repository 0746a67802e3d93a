package status

import (
	"fmt"
	"strings"

	"github.com/hspi-sdk/hspi-go/pkg/hserr"
)

// ControlUse tags what a control does, so the controller and voice/scene
// integrations can operate a feature without knowing the plugin.
type ControlUse uint16

const (
	ControlUseNotSpecified ControlUse = iota
	ControlUseOn
	ControlUseOff
	ControlUseDim
	ControlUseOnAlternate
	ControlUsePlay
	ControlUsePause
	ControlUseStop
	ControlUseForward
	ControlUseRewind
	ControlUseRepeat
	ControlUseShuffle
	ControlUseHeatSetPoint
	ControlUseCoolSetPoint
	ControlUseThermModeOff
	ControlUseThermModeHeat
	ControlUseThermModeCool
	ControlUseThermModeAuto
	ControlUseDoorLock
	ControlUseDoorUnlock
	ControlUseThermFanAuto
	ControlUseThermFanOn
	ControlUseColorControl
	ControlUseDimFan
	ControlUseMotionActive
	ControlUseMotionInactive
	ControlUseContactActive
	ControlUseContactInactive
	ControlUseMute
	ControlUseUnmute
	ControlUseMuteToggle
	ControlUseNext
	ControlUsePrevious
	ControlUseVolume
)

var controlUseNames = []string{
	"not-specified", "on", "off", "dim", "on-alternate",
	"play", "pause", "stop", "forward", "rewind", "repeat", "shuffle",
	"heat-set-point", "cool-set-point",
	"therm-mode-off", "therm-mode-heat", "therm-mode-cool", "therm-mode-auto",
	"door-lock", "door-unlock", "therm-fan-auto", "therm-fan-on",
	"color-control", "dim-fan",
	"motion-active", "motion-inactive", "contact-active", "contact-inactive",
	"mute", "unmute", "mute-toggle", "next", "previous", "volume",
}

// IsValid reports whether u is a known control use.
func (u ControlUse) IsValid() bool {
	return int(u) < len(controlUseNames)
}

// String returns the control use name.
func (u ControlUse) String() string {
	if u.IsValid() {
		return controlUseNames[u]
	}
	return "unknown"
}

// ParseControlUse converts a name produced by String back to a ControlUse.
// Matching ignores case; "" maps to ControlUseNotSpecified.
func ParseControlUse(s string) (ControlUse, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ControlUseNotSpecified, nil
	}
	for i, name := range controlUseNames {
		if name == s {
			return ControlUse(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown control use %q", hserr.ErrInvalidArgument, s)
}

// ControlType selects the widget the controller renders for a control.
type ControlType uint8

const (
	ControlTypeButton ControlType = iota
	ControlTypeSlider
	ControlTypeTextInput
	ControlTypeNumberInput
	ControlTypeSelectList
	ControlTypeRadioList
	ControlTypeColorPicker
	ControlTypeStatusOnly
	ControlTypeValueDropDown
)

var controlTypeNames = []string{
	"button", "slider", "text", "number", "select", "radio", "color-picker", "status-only", "value-dropdown",
}

// IsValid reports whether t is a known control type.
func (t ControlType) IsValid() bool {
	return int(t) < len(controlTypeNames)
}

// String returns the control type name.
func (t ControlType) String() string {
	if t.IsValid() {
		return controlTypeNames[t]
	}
	return "unknown"
}

// ParseControlType converts a name produced by String back to a ControlType.
func ParseControlType(s string) (ControlType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range controlTypeNames {
		if name == s {
			return ControlType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown control type %q", hserr.ErrInvalidArgument, s)
}

// ControlLocation places a control on the controller's grid.
type ControlLocation struct {
	Row    int
	Column int
	Width  int
}

// DefaultLocation is the top-left single-cell position.
var DefaultLocation = ControlLocation{Row: 0, Column: 0, Width: 1}

// Validate checks row >= 0, column >= 0 and width >= 1.
func (l ControlLocation) Validate() error {
	switch {
	case l.Row < 0:
		return fmt.Errorf("%w: row %d", hserr.ErrOutOfRange, l.Row)
	case l.Column < 0:
		return fmt.Errorf("%w: column %d", hserr.ErrOutOfRange, l.Column)
	case l.Width < 1:
		return fmt.Errorf("%w: width %d", hserr.ErrOutOfRange, l.Width)
	}
	return nil
}
