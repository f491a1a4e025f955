/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: attribute.go
Description: Attributes and attribute values of the tabular index. Numeric attributes
keep an ordered index over their observed values plus a breakpoint sub-index used for
interval growth and annotation interpolation. Every (attribute, value) pair is unique.
*/

package data

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// AttributeValue is one distinct value of an attribute together with the
// live transactions holding it
type AttributeValue struct {
	attrID int
	raw    string
	num    float64
	kind   ValueKind
	tids   TxSet
	empty  bool
}

// AttributeID returns the ordinal id of the owning attribute
func (v *AttributeValue) AttributeID() int { return v.attrID }

// Raw returns the value as it first appeared
func (v *AttributeValue) Raw() string { return v.raw }

// Numeric returns the numeric value (NaN for nominal or missing values)
func (v *AttributeValue) Numeric() float64 { return v.num }

// Kind returns the provenance kind of the value
func (v *AttributeValue) Kind() ValueKind { return v.kind }

// IsMissing reports whether the value stands for an empty numeric cell
func (v *AttributeValue) IsMissing() bool { return v.empty }

// Support returns the number of live transactions holding this value
func (v *AttributeValue) Support() int { return len(v.tids) }

// Transactions returns the live transactions holding this value.
// The returned set must be treated as read-only.
func (v *AttributeValue) Transactions() TxSet { return v.tids }

// String returns the raw value
func (v *AttributeValue) String() string { return v.raw }

// Attribute is one column of the tabular index
type Attribute struct {
	id   int
	name string
	typ  AttributeType
	role Role

	nominal map[string]*AttributeValue
	numeric map[float64]*AttributeValue
	missing *AttributeValue

	ordered     []*AttributeValue // numeric values sorted ascending, missing excluded
	breakpoints []*AttributeValue // subset of ordered flagged as breakpoints
}

func newAttribute(id int, name string, typ AttributeType, role Role) *Attribute {
	return &Attribute{
		id:      id,
		name:    name,
		typ:     typ,
		role:    role,
		nominal: make(map[string]*AttributeValue),
		numeric: make(map[float64]*AttributeValue),
	}
}

// ID returns the ordinal id of the attribute
func (a *Attribute) ID() int { return a.id }

// Name returns the column name
func (a *Attribute) Name() string { return a.name }

// Type returns the attribute type
func (a *Attribute) Type() AttributeType { return a.typ }

// Role returns the attribute role
func (a *Attribute) Role() Role { return a.role }

// IsNumeric reports whether the attribute holds numeric values
func (a *Attribute) IsNumeric() bool { return a.typ == Numeric }

// String returns the attribute name
func (a *Attribute) String() string { return a.name }

// parseNumeric converts a raw cell into a number; the empty cell is missing
func parseNumeric(raw string) (float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return math.NaN(), nil
	}
	switch trimmed {
	case "Inf", "+Inf":
		return math.Inf(1), nil
	case "-Inf":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(trimmed, 64)
}

// Lookup returns the existing value for a raw cell
func (a *Attribute) Lookup(raw string) (*AttributeValue, bool) {
	if a.typ == Nominal {
		v, ok := a.nominal[raw]
		return v, ok
	}
	num, err := parseNumeric(raw)
	if err != nil {
		return nil, false
	}
	if math.IsNaN(num) {
		return a.missing, a.missing != nil
	}
	v, ok := a.numeric[num]
	return v, ok
}

// LookupNumeric returns the existing value for a number
func (a *Attribute) LookupNumeric(num float64) (*AttributeValue, bool) {
	v, ok := a.numeric[num]
	return v, ok
}

// RegisterBreakpoint returns the value for raw, creating it when absent,
// and flags it as a breakpoint
func (a *Attribute) RegisterBreakpoint(raw string) (*AttributeValue, error) {
	return a.ensureValue(raw, KindBreakpoint)
}

// ensureValue gets or creates the value for raw with the requested kind
func (a *Attribute) ensureValue(raw string, kind ValueKind) (*AttributeValue, error) {
	if a.typ == Nominal {
		if v, ok := a.nominal[raw]; ok {
			a.promote(v, kind)
			return v, nil
		}
		v := &AttributeValue{attrID: a.id, raw: raw, num: math.NaN(), kind: kind, tids: make(TxSet)}
		a.nominal[raw] = v
		return v, nil
	}

	num, err := parseNumeric(raw)
	if err != nil {
		return nil, fmt.Errorf("value %q is not numeric", raw)
	}
	if math.IsNaN(num) {
		if a.missing == nil {
			a.missing = &AttributeValue{attrID: a.id, raw: "", num: num, kind: KindDataBacked, tids: make(TxSet), empty: true}
		}
		return a.missing, nil
	}
	if v, ok := a.numeric[num]; ok {
		a.promote(v, kind)
		return v, nil
	}
	v := &AttributeValue{attrID: a.id, raw: strings.TrimSpace(raw), num: num, kind: kind, tids: make(TxSet)}
	a.numeric[num] = v
	a.ordered = insertSorted(a.ordered, v)
	if kind.IsBreakpoint() {
		a.breakpoints = insertSorted(a.breakpoints, v)
	}
	return v, nil
}

// promote merges kinds and adds numeric values to the breakpoint index on first promotion
func (a *Attribute) promote(v *AttributeValue, kind ValueKind) {
	merged := v.kind.merge(kind)
	if merged == v.kind {
		return
	}
	wasBreakpoint := v.kind.IsBreakpoint()
	v.kind = merged
	if a.typ == Numeric && !wasBreakpoint && merged.IsBreakpoint() {
		a.breakpoints = insertSorted(a.breakpoints, v)
	}
}

func insertSorted(values []*AttributeValue, v *AttributeValue) []*AttributeValue {
	i := sort.Search(len(values), func(i int) bool { return values[i].num >= v.num })
	values = append(values, nil)
	copy(values[i+1:], values[i:])
	values[i] = v
	return values
}

func (a *Attribute) index(breakpointsOnly bool) []*AttributeValue {
	if breakpointsOnly {
		return a.breakpoints
	}
	return a.ordered
}

// AdjacentHigher returns the closest value strictly above v, or nil.
// Only numeric attributes have adjacency; missing values have no neighbours.
func (a *Attribute) AdjacentHigher(v *AttributeValue, breakpointsOnly bool) *AttributeValue {
	if a.typ != Numeric || v == nil || math.IsNaN(v.num) {
		return nil
	}
	idx := a.index(breakpointsOnly)
	i := sort.Search(len(idx), func(i int) bool { return idx[i].num > v.num })
	if i == len(idx) {
		return nil
	}
	return idx[i]
}

// AdjacentLower returns the closest value strictly below v, or nil
func (a *Attribute) AdjacentLower(v *AttributeValue, breakpointsOnly bool) *AttributeValue {
	if a.typ != Numeric || v == nil || math.IsNaN(v.num) {
		return nil
	}
	idx := a.index(breakpointsOnly)
	i := sort.Search(len(idx), func(i int) bool { return idx[i].num >= v.num })
	if i == 0 {
		return nil
	}
	return idx[i-1]
}

// ValuesInRange returns the numeric values between the bounds in ascending order
func (a *Attribute) ValuesInRange(from float64, fromInclusive bool, to float64, toInclusive bool) []*AttributeValue {
	if a.typ != Numeric {
		return nil
	}
	var out []*AttributeValue
	for _, v := range a.ordered {
		if v.num < from || (!fromInclusive && v.num == from) {
			continue
		}
		if v.num > to || (!toInclusive && v.num == to) {
			break
		}
		out = append(out, v)
	}
	return out
}

// Values returns every value of the attribute. Numeric values come in ascending
// order followed by the missing value, nominal values in lexical order.
func (a *Attribute) Values() []*AttributeValue {
	if a.typ == Numeric {
		out := make([]*AttributeValue, 0, len(a.ordered)+1)
		out = append(out, a.ordered...)
		if a.missing != nil {
			out = append(out, a.missing)
		}
		return out
	}
	keys := make([]string, 0, len(a.nominal))
	for k := range a.nominal {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*AttributeValue, 0, len(keys))
	for _, k := range keys {
		out = append(out, a.nominal[k])
	}
	return out
}

// Breakpoints returns the breakpoint index of a numeric attribute
func (a *Attribute) Breakpoints() []*AttributeValue {
	out := make([]*AttributeValue, len(a.breakpoints))
	copy(out, a.breakpoints)
	return out
}

// ValuesWithSupport counts values currently held by at least one live transaction
func (a *Attribute) ValuesWithSupport() int {
	n := 0
	for _, v := range a.Values() {
		if v.Support() > 0 {
			n++
		}
	}
	return n
}
