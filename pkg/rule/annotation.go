/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: annotation.go
Description: Per-value class probability tables attached to a rule. Each literal value
of the antecedent records the confidence of the rule narrowed to that value, for every
class of the target attribute.
*/

package rule

import (
	"math"
	"sort"

	"github.com/kleascm/marc-classifier/pkg/data"
)

// ValueAnnotation holds the class distribution of one literal value
type ValueAnnotation struct {
	Raw          string
	Numeric      float64
	Origin       Origin
	Distribution []float64 // parallel to Annotation.Classes
	Qualities    []Quality // narrow-rule quality per class
}

// LiteralAnnotation holds the annotated values of one literal.
// Numeric values are kept in ascending order.
type LiteralAnnotation struct {
	Attribute string
	Numeric   bool
	Values    []ValueAnnotation
}

// Annotation is the set of literal annotations of a rule, keyed by attribute name
type Annotation struct {
	Classes  []string
	Literals map[string]*LiteralAnnotation
}

// NewAnnotation creates an empty annotation over the class labels
func NewAnnotation(classes []string) *Annotation {
	return &Annotation{Classes: classes, Literals: make(map[string]*LiteralAnnotation)}
}

// Add registers a literal annotation, sorting numeric values
func (a *Annotation) Add(la *LiteralAnnotation) {
	if la.Numeric {
		sort.SliceStable(la.Values, func(i, j int) bool { return la.Values[i].Numeric < la.Values[j].Numeric })
	}
	a.Literals[la.Attribute] = la
}

// Literal returns the annotation of the literal over an attribute
func (a *Annotation) Literal(attribute string) (*LiteralAnnotation, bool) {
	if a == nil {
		return nil, false
	}
	la, ok := a.Literals[attribute]
	return la, ok
}

// Find returns the annotated entry for a transaction value
func (la *LiteralAnnotation) Find(v *data.AttributeValue) (*ValueAnnotation, bool) {
	if v == nil {
		return nil, false
	}
	for i := range la.Values {
		va := &la.Values[i]
		if la.Numeric && !v.IsMissing() {
			if va.Numeric == v.Numeric() {
				return va, true
			}
			continue
		}
		if va.Raw == v.Raw() {
			return va, true
		}
	}
	return nil, false
}

// Neighbours returns the closest annotated values strictly below and above x.
// Missing values are ignored.
func (la *LiteralAnnotation) Neighbours(x float64) (lower, higher *ValueAnnotation) {
	if !la.Numeric || math.IsNaN(x) {
		return nil, nil
	}
	for i := range la.Values {
		va := &la.Values[i]
		if math.IsNaN(va.Numeric) {
			continue
		}
		if va.Numeric < x {
			lower = va
		} else if va.Numeric > x && higher == nil {
			higher = va
		}
	}
	return lower, higher
}
