package model

import (
	"fmt"
	"strings"

	"github.com/hspi-sdk/hspi-go/pkg/hserr"
)

// Relationship is the role of an entity in the device hierarchy.
type Relationship uint8

const (
	// RelationshipNotSet is the default of a fresh entity.
	RelationshipNotSet Relationship = iota

	// RelationshipDevice marks a parent; its associations are features.
	RelationshipDevice

	// RelationshipFeature marks a child; its single association is the device.
	RelationshipFeature

	// RelationshipStandalone marks an entity without parent or children.
	RelationshipStandalone
)

var relationshipNames = []string{"NotSet", "Device", "Feature", "Standalone"}

// String returns the relationship name.
func (r Relationship) String() string {
	if int(r) < len(relationshipNames) {
		return relationshipNames[r]
	}
	return fmt.Sprintf("Relationship(%d)", uint8(r))
}

// IsValid reports whether r is a known relationship.
func (r Relationship) IsValid() bool {
	return int(r) < len(relationshipNames)
}

// ParseRelationship converts a name produced by String, ignoring case.
func ParseRelationship(s string) (Relationship, error) {
	for i, name := range relationshipNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return Relationship(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown relationship %q", hserr.ErrInvalidArgument, s)
}
