package index

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by every provider implementation.
var (
	// ErrNotFound is returned by a Catalog for unknown or stale ids.
	ErrNotFound = errors.New("index: not found")

	// ErrUnsupportedMode is returned when a mutation record carries a mode
	// other than Added, Changed or Removed.
	ErrUnsupportedMode = errors.New("index: unsupported update mode")

	// ErrUnsupportedValue is returned for property values a backend cannot key on.
	ErrUnsupportedValue = errors.New("index: unsupported property value")

	// ErrNotOnline is returned when an online accessor is requested for an
	// index that has not finished population.
	ErrNotOnline = errors.New("index: not online yet")

	// ErrReaderClosed is returned by a Reader used after Close.
	ErrReaderClosed = errors.New("index: reader closed")
)

// State is the lifecycle state of one index as reported to the host.
type State int32

const (
	// StatePopulating means the index is being built and cannot serve reads.
	StatePopulating State = iota
	// StateOnline means population completed and the index serves queries.
	StateOnline
	// StateFailed is reported by engines that track failed population.
	StateFailed
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StatePopulating:
		return "populating"
	case StateOnline:
		return "online"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// UpdateMode says how an entity's indexed property value changed.
type UpdateMode int

const (
	ModeAdded UpdateMode = iota + 1
	ModeChanged
	ModeRemoved
)

// String returns the lower-case mode name.
func (m UpdateMode) String() string {
	switch m {
	case ModeAdded:
		return "added"
	case ModeChanged:
		return "changed"
	case ModeRemoved:
		return "removed"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// MarshalText encodes the mode by name.
func (m UpdateMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name. Unknown names fail with ErrUnsupportedMode.
func (m *UpdateMode) UnmarshalText(text []byte) error {
	mode, err := ParseUpdateMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// ParseUpdateMode converts "added", "changed" or "removed" (any case) to an UpdateMode.
func ParseUpdateMode(s string) (UpdateMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "added":
		return ModeAdded, nil
	case "changed":
		return ModeChanged, nil
	case "removed":
		return ModeRemoved, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedMode, s)
	}
}

// MutationRecord describes one change to an entity's indexed property value.
// Before is set for Changed and Removed, After for Added and Changed.
type MutationRecord struct {
	EntityID int64      `json:"entity"`
	Before   any        `json:"before,omitempty"`
	After    any        `json:"after,omitempty"`
	Mode     UpdateMode `json:"mode"`
}

// Added builds an Added record.
func Added(entityID int64, after any) MutationRecord {
	return MutationRecord{EntityID: entityID, After: after, Mode: ModeAdded}
}

// Changed builds a Changed record.
func Changed(entityID int64, before, after any) MutationRecord {
	return MutationRecord{EntityID: entityID, Before: before, After: after, Mode: ModeChanged}
}

// Removed builds a Removed record.
func Removed(entityID int64, before any) MutationRecord {
	return MutationRecord{EntityID: entityID, Before: before, Mode: ModeRemoved}
}

// Descriptor identifies a provider implementation by key and version.
type Descriptor struct {
	Key     string
	Version string
}

// String returns "key-version".
func (d Descriptor) String() string {
	return d.Key + "-" + d.Version
}

// RuleKind distinguishes index rules from other schema rules in the catalog.
type RuleKind int

const (
	KindIndex RuleKind = iota + 1
	KindConstraint
)

// IndexDefinition is one schema index rule as stored in the host catalog.
// Label and property are stored as ids; names are resolved through the Catalog.
type IndexDefinition struct {
	ID            int64
	Kind          RuleKind
	LabelID       int64
	PropertyKeyID int64
}

// Entity is the host's handle for one entity, usable by legacy index stores.
type Entity struct {
	ID int64
}

// IdentityEntities is an EntityStore that accepts every id as-is.
type IdentityEntities struct{}

// Entity returns Entity{ID: id}.
func (IdentityEntities) Entity(_ context.Context, id int64) (Entity, error) {
	return Entity{ID: id}, nil
}
