/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: types.go
Description: Core enumerations and errors for the tabular index. Defines attribute
types and roles, value kinds (data-backed versus breakpoint), and the typed
malformed-row error returned while loading transactions.
*/

package data

import (
	"errors"
	"fmt"
	"strings"
)

// AttributeType represents the kind of values an attribute holds
type AttributeType int

const (
	Nominal AttributeType = iota
	Numeric
)

// String returns the configuration name of the attribute type
func (t AttributeType) String() string {
	switch t {
	case Numeric:
		return "numeric"
	case Nominal:
		return "nominal"
	default:
		return "unknown"
	}
}

// ParseAttributeType converts a configuration name into an AttributeType.
// Accepts "numeric", "numerical", "integer", "float" and "nominal", "string", "categorical".
func ParseAttributeType(s string) (AttributeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "numeric", "numerical", "integer", "float":
		return Numeric, nil
	case "nominal", "string", "categorical":
		return Nominal, nil
	default:
		return Nominal, fmt.Errorf("unsupported attribute type: %q", s)
	}
}

// ParseAttributeTypes converts a list of configuration names
func ParseAttributeTypes(names []string) ([]AttributeType, error) {
	types := make([]AttributeType, 0, len(names))
	for _, name := range names {
		t, err := ParseAttributeType(name)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

// Role marks how an attribute takes part in classification
type Role int

const (
	RolePredictor Role = iota
	RoleTarget
	RoleID
)

// String returns a readable role name
func (r Role) String() string {
	switch r {
	case RoleTarget:
		return "target"
	case RoleID:
		return "id"
	default:
		return "predictor"
	}
}

// ValueKind records where an attribute value came from.
// Breakpoint values are the only valid landing points for interval growth.
type ValueKind int

const (
	KindDataBacked ValueKind = iota
	KindBreakpoint
	KindDataBackedBreakpoint
)

// String returns a readable kind name
func (k ValueKind) String() string {
	switch k {
	case KindBreakpoint:
		return "breakpoint"
	case KindDataBackedBreakpoint:
		return "data-backed-breakpoint"
	default:
		return "data-backed"
	}
}

// IsBreakpoint reports whether values of this kind belong to the breakpoint index
func (k ValueKind) IsBreakpoint() bool {
	return k == KindBreakpoint || k == KindDataBackedBreakpoint
}

// merge combines an existing kind with a newly requested one
func (k ValueKind) merge(other ValueKind) ValueKind {
	if k == other {
		return k
	}
	return KindDataBackedBreakpoint
}

var (
	// ErrMalformedRow is returned when a row cannot be added to a table
	ErrMalformedRow = errors.New("malformed row")
	// ErrAttributeNotFound is returned when a named attribute does not exist
	ErrAttributeNotFound = errors.New("attribute not found")
	// ErrNoPredictor is returned when a table would have no predictor attribute
	ErrNoPredictor = errors.New("no predictor specified")
	// ErrTypeCountMismatch is returned when column and type lists differ in length
	ErrTypeCountMismatch = errors.New("number of attribute types does not match number of columns")
	// ErrInvalidColumn is returned for unusable column names
	ErrInvalidColumn = errors.New("invalid column name")
)

// MalformedRowError describes a row that could not be loaded
type MalformedRowError struct {
	Row    int
	Column string
	Value  string
	Reason string
}

// Error implements the error interface
func (e *MalformedRowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("malformed row %d: %s", e.Row, e.Reason)
	}
	return fmt.Sprintf("malformed row %d: column %q value %q: %s", e.Row, e.Column, e.Value, e.Reason)
}

// Unwrap lets errors.Is match ErrMalformedRow
func (e *MalformedRowError) Unwrap() error {
	return ErrMalformedRow
}
