package model

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/hspi-sdk/hspi-go/pkg/hserr"
)

// MiscFlag is a bitset of miscellaneous entity options.
type MiscFlag uint64

const (
	// MiscShowValues shows the value alongside the status text.
	MiscShowValues MiscFlag = 1 << iota

	// MiscNoLog suppresses value change logging on the controller.
	MiscNoLog

	// MiscHidden hides the entity from the default views.
	MiscHidden

	// MiscSetDoesNotChangeLastChange keeps LastChange when a value is set
	// to what it already was.
	MiscSetDoesNotChangeLastChange

	// MiscAutoVoiceCommand exposes the entity to voice assistants.
	MiscAutoVoiceCommand

	// MiscIncludeInPowerFail restores the value after a power failure.
	MiscIncludeInPowerFail

	// MiscNoStatusDisplay hides the status text.
	MiscNoStatusDisplay

	// MiscStatusOnly marks an entity that cannot be controlled.
	MiscStatusOnly
)

var miscFlagNames = []string{
	"show-values",
	"no-log",
	"hidden",
	"set-does-not-change-last-change",
	"auto-voice-command",
	"include-in-power-fail",
	"no-status-display",
	"status-only",
}

// Contains reports whether every bit of flag is set in m.
func (m MiscFlag) Contains(flag MiscFlag) bool {
	return m&flag == flag
}

// Len returns the number of set bits.
func (m MiscFlag) Len() int {
	return bits.OnesCount64(uint64(m))
}

// String lists the set flags separated by "|".
func (m MiscFlag) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	for i, name := range miscFlagNames {
		if m&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	if rest := m &^ (1<<len(miscFlagNames) - 1); rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint64(rest)))
	}
	return strings.Join(parts, "|")
}

// ParseMiscFlag converts a single flag name to its bit.
func ParseMiscFlag(s string) (MiscFlag, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range miscFlagNames {
		if name == s {
			return 1 << i, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown misc flag %q", hserr.ErrInvalidArgument, s)
}
