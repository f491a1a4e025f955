/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: rule.go
Description: Rule model. Antecedents are conjunctions of literals, consequents hold a
single class value, and quality is a contingency table computed from transaction-set
intersections against the live part of a table. Rules are immutable values: every
algorithm phase derives a new rule instead of changing an existing one.
*/

package rule

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/kleascm/marc-classifier/pkg/data"
)

var (
	// ErrInvalidConsequent is returned for consequents that do not hold exactly one target value
	ErrInvalidConsequent = errors.New("consequent must hold exactly one target value")
	// ErrDuplicateAttribute is returned when an antecedent mentions an attribute twice
	ErrDuplicateAttribute = errors.New("antecedent mentions an attribute more than once")
	// ErrNonContiguous is returned when a numeric literal skips a breakpoint
	ErrNonContiguous = errors.New("literal values are not contiguous")
)

// Antecedent is a conjunction of literals, at most one per attribute.
// The empty antecedent matches every transaction.
type Antecedent struct {
	literals []*Literal
}

// NewAntecedent creates an antecedent from literals
func NewAntecedent(literals ...*Literal) (Antecedent, error) {
	seen := make(map[int]bool, len(literals))
	for _, l := range literals {
		id := l.Attribute().ID()
		if seen[id] {
			return Antecedent{}, fmt.Errorf("%w: %s", ErrDuplicateAttribute, l.Attribute().Name())
		}
		seen[id] = true
	}
	out := make([]*Literal, len(literals))
	copy(out, literals)
	return Antecedent{literals: out}, nil
}

// Literals returns the literals in order
func (a Antecedent) Literals() []*Literal {
	out := make([]*Literal, len(a.literals))
	copy(out, a.literals)
	return out
}

// Len returns the number of literals
func (a Antecedent) Len() int { return len(a.literals) }

// IsEmpty reports whether this is the default-rule antecedent
func (a Antecedent) IsEmpty() bool { return len(a.literals) == 0 }

// Literal returns the literal over an attribute
func (a Antecedent) Literal(attrID int) (*Literal, bool) {
	for _, l := range a.literals {
		if l.Attribute().ID() == attrID {
			return l, true
		}
	}
	return nil, false
}

// Support intersects the literal supports. The second result is false for the
// empty antecedent, which has no computable intersection and matches everything.
func (a Antecedent) Support() (data.TxSet, bool) {
	if len(a.literals) == 0 {
		return nil, false
	}
	out := a.literals[0].Support()
	for _, l := range a.literals[1:] {
		if out.Len() == 0 {
			break
		}
		out = out.Intersect(l.Support())
	}
	return out, true
}

// Matches reports whether a transaction satisfies every literal
func (a Antecedent) Matches(tx *data.Transaction) bool {
	for _, l := range a.literals {
		if !l.Contains(tx.Value(l.Attribute().ID())) {
			return false
		}
	}
	return true
}

// Replace returns a copy with the literal over the same attribute swapped
func (a Antecedent) Replace(l *Literal) Antecedent {
	out := make([]*Literal, len(a.literals))
	for i, own := range a.literals {
		if own.Attribute().ID() == l.Attribute().ID() {
			out[i] = l
		} else {
			out[i] = own
		}
	}
	return Antecedent{literals: out}
}

// Without returns a copy lacking the literal at index i
func (a Antecedent) Without(i int) Antecedent {
	out := make([]*Literal, 0, len(a.literals)-1)
	out = append(out, a.literals[:i]...)
	out = append(out, a.literals[i+1:]...)
	return Antecedent{literals: out}
}

// String renders the antecedent as {a=[x;y],b=v}
func (a Antecedent) String() string {
	parts := make([]string, 0, len(a.literals))
	for _, l := range a.literals {
		parts = append(parts, l.String())
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Consequent is the class part of a rule
type Consequent struct {
	literal *Literal
}

// NewConsequent validates that the literal holds one target value
func NewConsequent(l *Literal) (Consequent, error) {
	if l == nil || l.Len() != 1 {
		return Consequent{}, ErrInvalidConsequent
	}
	if l.Attribute().Role() != data.RoleTarget {
		return Consequent{}, fmt.Errorf("%w: %s is not the target attribute", ErrInvalidConsequent, l.Attribute().Name())
	}
	return Consequent{literal: l}, nil
}

// ConsequentFor builds a synthetic consequent for a class value
func ConsequentFor(target *data.Attribute, class *data.AttributeValue) Consequent {
	l := NewLiteral(target, []*data.AttributeValue{class}, []Origin{OriginConsequent}, OriginSyntheticConsequent)
	return Consequent{literal: l}
}

// Literal returns the underlying literal
func (c Consequent) Literal() *Literal { return c.literal }

// Value returns the class value
func (c Consequent) Value() *data.AttributeValue { return c.literal.values[0] }

// Class returns the raw class label
func (c Consequent) Class() string { return c.Value().Raw() }

// Support returns the live transactions of the class
func (c Consequent) Support() data.TxSet { return c.Value().Transactions() }

// String renders the consequent as {class=value}
func (c Consequent) String() string {
	return "{" + c.literal.attr.Name() + "=" + c.Class() + "}"
}

// Quality is the contingency table of a rule: a antecedent and consequent,
// b antecedent without consequent, c consequent without antecedent, d neither
type Quality struct {
	A int `json:"a" yaml:"a"`
	B int `json:"b" yaml:"b"`
	C int `json:"c" yaml:"c"`
	D int `json:"d" yaml:"d"`
}

// Support returns the number of correctly covered transactions
func (q Quality) Support() int { return q.A }

// Errors returns the number of incorrectly covered transactions
func (q Quality) Errors() int { return q.B }

// Coverage returns the number of transactions matched by the antecedent
func (q Quality) Coverage() int { return q.A + q.B }

// Confidence returns a/(a+b), or 0 when nothing is covered
func (q Quality) Confidence() float64 {
	if q.A+q.B == 0 {
		return 0
	}
	return float64(q.A) / float64(q.A+q.B)
}

// QualityFromRelative converts relative support and confidence into counts
func QualityFromRelative(support, confidence float64, total int) Quality {
	a := int(math.Round(support * float64(total)))
	coverage := a
	if confidence > 0 {
		coverage = int(math.Round(float64(a) / confidence))
	}
	b := coverage - a
	if b < 0 {
		b = 0
	}
	d := total - coverage
	if d < 0 {
		d = 0
	}
	return Quality{A: a, B: b, D: d}
}

// ComputeQuality evaluates an antecedent and consequent against the live
// transactions of a table. The empty antecedent covers every live transaction.
func ComputeQuality(table *data.Table, ant Antecedent, cons Consequent) Quality {
	live := table.LiveCount()
	consSupport := cons.Support()

	var a, coverage int
	if antSupport, ok := ant.Support(); ok {
		coverage = antSupport.Len()
		a = antSupport.IntersectionSize(consSupport)
	} else {
		coverage = live
		a = consSupport.Len()
	}

	b := coverage - a
	c := consSupport.Len() - a
	return Quality{A: a, B: b, C: c, D: live - a - b - c}
}

// IDGen hands out generation ids. One generator is shared by all rules of a run.
type IDGen struct {
	next atomic.Int64
}

// NewIDGen creates a generator whose first id is start
func NewIDGen(start int) *IDGen {
	g := &IDGen{}
	g.next.Store(int64(start))
	return g
}

// Next returns a fresh generation id
func (g *IDGen) Next() int {
	return int(g.next.Add(1) - 1)
}

// Rule is an immutable classification rule
type Rule struct {
	id         int
	genID      int
	antecedent Antecedent
	consequent Consequent
	quality    Quality
	history    *History
	annotation *Annotation
}

// New creates a seed rule with an empty history
func New(id, genID int, ant Antecedent, cons Consequent, q Quality) *Rule {
	return &Rule{
		id:         id,
		genID:      genID,
		antecedent: ant,
		consequent: cons,
		quality:    q,
		history:    NewHistory(),
	}
}

// ID returns the seed identity shared by every refinement of the seed
func (r *Rule) ID() int { return r.id }

// GenID returns the generation id unique to this variant
func (r *Rule) GenID() int { return r.genID }

// Antecedent returns the condition part
func (r *Rule) Antecedent() Antecedent { return r.antecedent }

// Consequent returns the class part
func (r *Rule) Consequent() Consequent { return r.consequent }

// Quality returns the contingency table
func (r *Rule) Quality() Quality { return r.quality }

// Support returns the number of correctly covered transactions
func (r *Rule) Support() int { return r.quality.A }

// Confidence returns the rule confidence
func (r *Rule) Confidence() float64 { return r.quality.Confidence() }

// History returns the lineage log of the rule
func (r *Rule) History() *History { return r.history }

// Annotation returns the per-value class probability tables, or nil
func (r *Rule) Annotation() *Annotation { return r.annotation }

// IsDefault reports whether the rule has an empty antecedent
func (r *Rule) IsDefault() bool { return r.antecedent.IsEmpty() }

// Derive creates a refinement of this rule with its own copy of the history
func (r *Rule) Derive(genID int, ant Antecedent, q Quality) *Rule {
	return &Rule{
		id:         r.id,
		genID:      genID,
		antecedent: ant,
		consequent: r.consequent,
		quality:    q,
		history:    r.history.Copy(),
	}
}

// WithQuality returns a copy carrying a recomputed quality
func (r *Rule) WithQuality(q Quality) *Rule {
	out := *r
	out.quality = q
	out.history = r.history.Copy()
	return &out
}

// WithAnnotation returns a copy carrying an annotation
func (r *Rule) WithAnnotation(a *Annotation) *Rule {
	out := *r
	out.annotation = a
	return &out
}

// WithHistory returns a copy carrying the given history
func (r *Rule) WithHistory(h *History) *Rule {
	out := *r
	out.history = h
	return &out
}

// Recompute returns a copy whose quality reflects the current live transactions
func (r *Rule) Recompute(table *data.Table) *Rule {
	return r.WithQuality(ComputeQuality(table, r.antecedent, r.consequent))
}

// Snapshot renders the fields recorded in history entries
func (r *Rule) Snapshot() string {
	return fmt.Sprintf("RID=%d %s support=%d confidence=%.4f", r.id, r.antecedent, r.Support(), r.Confidence())
}

// String renders the rule as RID=1:{ant} => {cons},support,confidence
func (r *Rule) String() string {
	return fmt.Sprintf("RID=%d:%s => %s,%d,%.4f", r.id, r.antecedent, r.consequent, r.Support(), r.Confidence())
}
