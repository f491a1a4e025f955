/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: literal.go
Description: Literals (multi-items) of a rule. A literal is one attribute's contribution
to an antecedent: a contiguous run of numeric values or an explicit set of nominal
values, each tagged with the search step that introduced it.
*/

package rule

import (
	"fmt"
	"strings"

	"github.com/kleascm/marc-classifier/pkg/data"
)

// Origin tags the search step that introduced a literal value
type Origin int

const (
	OriginCore Origin = iota
	OriginBreakpoint
	OriginExtendLow
	OriginExtendHigh
	OriginFuzzyBorder
	OriginTrimmed
	OriginNarrow
	OriginGreedy
	OriginConsequent
	OriginSyntheticConsequent
)

var originNames = map[Origin]string{
	OriginCore:                "core",
	OriginBreakpoint:          "breakpoint",
	OriginExtendLow:           "extended-low",
	OriginExtendHigh:          "extended-high",
	OriginFuzzyBorder:         "fuzzy-border",
	OriginTrimmed:             "trimmed",
	OriginNarrow:              "narrowed",
	OriginGreedy:              "greedy",
	OriginConsequent:          "consequent",
	OriginSyntheticConsequent: "synthetic-consequent",
}

// String returns the serialized name of the origin
func (o Origin) String() string {
	if name, ok := originNames[o]; ok {
		return name
	}
	return "unknown"
}

// ParseOrigin converts a serialized name back into an Origin
func ParseOrigin(s string) (Origin, error) {
	for o, name := range originNames {
		if name == s {
			return o, nil
		}
	}
	return OriginCore, fmt.Errorf("unknown value origin: %q", s)
}

// Literal is an attribute plus the values it admits
type Literal struct {
	attr    *data.Attribute
	values  []*data.AttributeValue
	origins []Origin
	last    Origin
}

// NewLiteral creates a literal. Missing origins default to core.
func NewLiteral(attr *data.Attribute, values []*data.AttributeValue, origins []Origin, last Origin) *Literal {
	vals := make([]*data.AttributeValue, len(values))
	copy(vals, values)
	orig := make([]Origin, len(values))
	for i := range orig {
		if i < len(origins) {
			orig[i] = origins[i]
		} else {
			orig[i] = OriginCore
		}
	}
	return &Literal{attr: attr, values: vals, origins: orig, last: last}
}

// NewIntervalLiteral creates a numeric literal holding every value of the
// attribute between the bounds
func NewIntervalLiteral(attr *data.Attribute, from float64, fromInclusive bool, to float64, toInclusive bool, origin Origin) *Literal {
	values := attr.ValuesInRange(from, fromInclusive, to, toInclusive)
	origins := make([]Origin, len(values))
	for i := range origins {
		origins[i] = origin
	}
	return &Literal{attr: attr, values: values, origins: origins, last: origin}
}

// Attribute returns the literal's attribute
func (l *Literal) Attribute() *data.Attribute { return l.attr }

// Values returns the admitted values
func (l *Literal) Values() []*data.AttributeValue {
	out := make([]*data.AttributeValue, len(l.values))
	copy(out, l.values)
	return out
}

// Origins returns the origin of each value, parallel to Values
func (l *Literal) Origins() []Origin {
	out := make([]Origin, len(l.origins))
	copy(out, l.origins)
	return out
}

// Len returns the number of admitted values
func (l *Literal) Len() int { return len(l.values) }

// LastModification returns the step that produced this literal
func (l *Literal) LastModification() Origin { return l.last }

// Contains reports whether the value is admitted
func (l *Literal) Contains(v *data.AttributeValue) bool {
	for _, own := range l.values {
		if own == v {
			return true
		}
	}
	return false
}

// OriginOf returns the origin of an admitted value
func (l *Literal) OriginOf(v *data.AttributeValue) (Origin, bool) {
	for i, own := range l.values {
		if own == v {
			return l.origins[i], true
		}
	}
	return OriginCore, false
}

// Support returns the union of the transactions holding any admitted value
func (l *Literal) Support() data.TxSet {
	out := make(data.TxSet)
	for _, v := range l.values {
		for id := range v.Transactions() {
			out.Add(id)
		}
	}
	return out
}

// Bounds returns the smallest and largest numeric value of the literal
func (l *Literal) Bounds() (lo, hi *data.AttributeValue) {
	for _, v := range l.values {
		if v.IsMissing() {
			continue
		}
		if lo == nil || v.Numeric() < lo.Numeric() {
			lo = v
		}
		if hi == nil || v.Numeric() > hi.Numeric() {
			hi = v
		}
	}
	return lo, hi
}

// CheckContiguous verifies that each numeric value's breakpoint successor is the
// next stored value
func (l *Literal) CheckContiguous() error {
	if !l.attr.IsNumeric() {
		return nil
	}
	var prev *data.AttributeValue
	for _, v := range l.values {
		if v.IsMissing() {
			continue
		}
		if prev != nil {
			if next := l.attr.AdjacentHigher(prev, true); next != v {
				return fmt.Errorf("%w: %s after %s in %s", ErrNonContiguous, v.Raw(), prev.Raw(), l)
			}
		}
		prev = v
	}
	return nil
}

// Extended grows a numeric literal by one breakpoint. ExtendLow prepends the next
// lower breakpoint, ExtendHigh appends the next higher one and FuzzyBorder does
// both. Nil is returned when no breakpoint is available in the requested direction.
func (l *Literal) Extended(direction Origin) *Literal {
	if !l.attr.IsNumeric() || len(l.values) == 0 {
		return nil
	}

	var lower, higher *data.AttributeValue
	switch direction {
	case OriginExtendLow:
		lower = l.attr.AdjacentLower(l.values[0], true)
	case OriginExtendHigh:
		higher = l.attr.AdjacentHigher(l.values[len(l.values)-1], true)
	case OriginFuzzyBorder:
		lower = l.attr.AdjacentLower(l.values[0], true)
		higher = l.attr.AdjacentHigher(l.values[len(l.values)-1], true)
	default:
		return nil
	}
	if lower == nil && higher == nil {
		return nil
	}

	values := make([]*data.AttributeValue, 0, len(l.values)+2)
	origins := make([]Origin, 0, len(l.values)+2)
	if lower != nil {
		values = append(values, lower)
		origins = append(origins, direction)
	}
	values = append(values, l.values...)
	origins = append(origins, l.origins...)
	if higher != nil {
		values = append(values, higher)
		origins = append(origins, direction)
	}
	return &Literal{attr: l.attr, values: values, origins: origins, last: direction}
}

// GreedyExtensions returns one literal per domain value of a nominal attribute
// not yet admitted, each adding that single value
func (l *Literal) GreedyExtensions() []*Literal {
	if l.attr.IsNumeric() {
		return nil
	}
	var out []*Literal
	for _, v := range l.attr.Values() {
		if l.Contains(v) {
			continue
		}
		values := append(l.Values(), v)
		origins := append(l.Origins(), OriginGreedy)
		out = append(out, &Literal{attr: l.attr, values: values, origins: origins, last: OriginGreedy})
	}
	return out
}

// Narrowed collapses the literal to a single admitted value, keeping its origin
func (l *Literal) Narrowed(v *data.AttributeValue) *Literal {
	origin, _ := l.OriginOf(v)
	return &Literal{attr: l.attr, values: []*data.AttributeValue{v}, origins: []Origin{origin}, last: OriginNarrow}
}

// ValueText renders the admitted values: an interval for numeric literals,
// a '|' separated list for nominal ones
func (l *Literal) ValueText() string {
	if l.attr.IsNumeric() {
		lo, hi := l.Bounds()
		if lo == nil {
			return "[]"
		}
		return fmt.Sprintf("[%s;%s]", lo.Raw(), hi.Raw())
	}
	parts := make([]string, 0, len(l.values))
	for _, v := range l.values {
		parts = append(parts, v.Raw())
	}
	return strings.Join(parts, "|")
}

// String renders the literal as attr=values
func (l *Literal) String() string {
	return l.attr.Name() + "=" + l.ValueText()
}
