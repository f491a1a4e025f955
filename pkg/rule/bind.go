/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: bind.go
Description: Table-independent literal descriptions and binding of rules onto another
table. Rules mined on training data are bound to test data before classification;
literal values are registered as breakpoints of the target table and numeric literals
admit every value of that table inside their interval.
*/

package rule

import (
	"errors"
	"fmt"
	"math"

	"github.com/kleascm/marc-classifier/pkg/data"
)

// ErrLiteralType is returned when a literal's kind differs from its attribute's type
var ErrLiteralType = errors.New("literal kind does not match attribute type")

// LiteralSpec describes a literal by attribute name and raw values
type LiteralSpec struct {
	Attribute     string
	Numeric       bool
	Values        []string // raw values, may be empty for numeric intervals
	Origins       []Origin // parallel to Values
	Last          Origin
	Low           float64
	LowInclusive  bool
	High          float64
	HighInclusive bool
}

// Spec describes the literal independently of its table
func (l *Literal) Spec() LiteralSpec {
	spec := LiteralSpec{
		Attribute: l.attr.Name(),
		Numeric:   l.attr.IsNumeric(),
		Origins:   l.Origins(),
		Last:      l.last,
	}
	for _, v := range l.values {
		spec.Values = append(spec.Values, v.Raw())
	}
	if spec.Numeric {
		spec.Low, spec.High = math.Inf(1), math.Inf(-1)
		if lo, hi := l.Bounds(); lo != nil {
			spec.Low, spec.High = lo.Numeric(), hi.Numeric()
		}
		spec.LowInclusive, spec.HighInclusive = true, true
	}
	return spec
}

// BindLiteral creates the literal described by spec over a table
func BindLiteral(table *data.Table, spec LiteralSpec) (*Literal, error) {
	attr, err := table.Attribute(spec.Attribute)
	if err != nil {
		return nil, err
	}
	if attr.IsNumeric() != spec.Numeric {
		return nil, fmt.Errorf("%w: %s is %s", ErrLiteralType, attr.Name(), attr.Type())
	}

	origins := make(map[*data.AttributeValue]Origin, len(spec.Values))
	var listed []*data.AttributeValue
	for i, raw := range spec.Values {
		v, err := attr.RegisterBreakpoint(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to bind %s=%s: %w", attr.Name(), raw, err)
		}
		if i < len(spec.Origins) {
			origins[v] = spec.Origins[i]
		}
		listed = append(listed, v)
	}

	if !attr.IsNumeric() {
		return NewLiteral(attr, listed, spec.Origins, spec.Last), nil
	}

	values := attr.ValuesInRange(spec.Low, spec.LowInclusive, spec.High, spec.HighInclusive)
	for _, v := range listed {
		if v.IsMissing() {
			values = append(values, v)
		}
	}
	valueOrigins := make([]Origin, len(values))
	for i, v := range values {
		valueOrigins[i] = origins[v]
	}
	return NewLiteral(attr, values, valueOrigins, spec.Last), nil
}

// BindConsequent creates the consequent for a class label over a table
func BindConsequent(table *data.Table, target, class string) (Consequent, error) {
	if table.Target().Name() != target {
		return Consequent{}, fmt.Errorf("%w: %s is not the target attribute", ErrInvalidConsequent, target)
	}
	v, err := table.Target().RegisterBreakpoint(class)
	if err != nil {
		return Consequent{}, err
	}
	return ConsequentFor(table.Target(), v), nil
}

// Bind returns the rule with every literal rebound to another table. Identity,
// quality, history and annotation are carried over.
func (r *Rule) Bind(table *data.Table) (*Rule, error) {
	literals := make([]*Literal, 0, r.antecedent.Len())
	for _, l := range r.antecedent.literals {
		bound, err := BindLiteral(table, l.Spec())
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", r.id, err)
		}
		literals = append(literals, bound)
	}
	ant, err := NewAntecedent(literals...)
	if err != nil {
		return nil, err
	}
	cons, err := BindConsequent(table, r.consequent.literal.attr.Name(), r.consequent.Class())
	if err != nil {
		return nil, fmt.Errorf("rule %d: %w", r.id, err)
	}
	out := *r
	out.antecedent = ant
	out.consequent = cons
	return &out, nil
}
