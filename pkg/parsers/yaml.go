/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: yaml.go
Description: YAML serialization of final rule lists. Literals keep their values,
value origins and interval bounds; annotated rules also carry the per-value class
distributions. Reading binds the rules onto another table, typically test data.
*/

package parsers

import (
	"fmt"
	"io"
	"os"

	"github.com/kleascm/marc-classifier/pkg/data"
	"github.com/kleascm/marc-classifier/pkg/rule"
	"gopkg.in/yaml.v3"
)

// RuleFile is the document stored on disk
type RuleFile struct {
	RunID   string       `yaml:"run_id,omitempty"`
	Target  string       `yaml:"target"`
	Classes []string     `yaml:"classes,omitempty"`
	Rules   []RuleRecord `yaml:"rules"`
}

// RuleRecord is one serialized rule
type RuleRecord struct {
	ID         int                 `yaml:"id"`
	GenID      int                 `yaml:"erid"`
	Antecedent []LiteralRecord     `yaml:"antecedent,omitempty"`
	Class      string              `yaml:"class"`
	Quality    rule.Quality        `yaml:"quality"`
	History    []rule.HistoryEntry `yaml:"history,omitempty"`
}

// LiteralRecord is one serialized literal
type LiteralRecord struct {
	Attribute     string        `yaml:"attribute"`
	Numeric       bool          `yaml:"numeric,omitempty"`
	Low           float64       `yaml:"low,omitempty"`
	LowInclusive  bool          `yaml:"low_inclusive,omitempty"`
	High          float64       `yaml:"high,omitempty"`
	HighInclusive bool          `yaml:"high_inclusive,omitempty"`
	Last          string        `yaml:"last"`
	Values        []ValueRecord `yaml:"values"`
}

// ValueRecord is one literal value with its origin and optional distribution
type ValueRecord struct {
	Value        string         `yaml:"value"`
	Origin       string         `yaml:"origin"`
	Distribution []float64      `yaml:"distribution,flow,omitempty"`
	Qualities    []rule.Quality `yaml:"qualities,omitempty"`
}

// NewRuleFile converts a rule list into its document form
func NewRuleFile(runID, target string, rules []*rule.Rule) *RuleFile {
	doc := &RuleFile{RunID: runID, Target: target}
	for _, r := range rules {
		ann := r.Annotation()
		if ann != nil && doc.Classes == nil {
			doc.Classes = ann.Classes
		}
		rec := RuleRecord{
			ID:      r.ID(),
			GenID:   r.GenID(),
			Class:   r.Consequent().Class(),
			Quality: r.Quality(),
			History: r.History().Entries(),
		}
		for _, l := range r.Antecedent().Literals() {
			spec := l.Spec()
			lr := LiteralRecord{
				Attribute:     spec.Attribute,
				Numeric:       spec.Numeric,
				Low:           spec.Low,
				LowInclusive:  spec.LowInclusive,
				High:          spec.High,
				HighInclusive: spec.HighInclusive,
				Last:          spec.Last.String(),
			}
			la, annotated := ann.Literal(spec.Attribute)
			for i, raw := range spec.Values {
				vr := ValueRecord{Value: raw, Origin: spec.Origins[i].String()}
				if annotated {
					if va := findRaw(la, raw); va != nil {
						vr.Distribution = va.Distribution
						vr.Qualities = va.Qualities
					}
				}
				lr.Values = append(lr.Values, vr)
			}
			rec.Antecedent = append(rec.Antecedent, lr)
		}
		doc.Rules = append(doc.Rules, rec)
	}
	return doc
}

func findRaw(la *rule.LiteralAnnotation, raw string) *rule.ValueAnnotation {
	for i := range la.Values {
		if la.Values[i].Raw == raw {
			return &la.Values[i]
		}
	}
	return nil
}

// WriteRuleFile encodes rules as YAML
func WriteRuleFile(w io.Writer, doc *RuleFile) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}
	return enc.Close()
}

// SaveRuleFile writes rules to a YAML file
func SaveRuleFile(path string, doc *RuleFile) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create rule file: %w", err)
	}
	if err := WriteRuleFile(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadRuleFile decodes a YAML rule document
func ReadRuleFile(r io.Reader) (*RuleFile, error) {
	var doc RuleFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode rules: %w", err)
	}
	return &doc, nil
}

// LoadRuleFile reads a YAML rule file
func LoadRuleFile(path string) (*RuleFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rule file: %w", err)
	}
	defer f.Close()
	return ReadRuleFile(f)
}

// Bind creates the rules of the document over a table. Listed values become
// breakpoints of the table; numeric literals take every table value inside
// their bounds.
func (doc *RuleFile) Bind(table *data.Table) ([]*rule.Rule, error) {
	target := doc.Target
	if target == "" {
		target = table.Target().Name()
	}

	rules := make([]*rule.Rule, 0, len(doc.Rules))
	for _, rec := range doc.Rules {
		literals := make([]*rule.Literal, 0, len(rec.Antecedent))
		var ann *rule.Annotation
		for _, lr := range rec.Antecedent {
			spec, err := lr.spec()
			if err != nil {
				return nil, fmt.Errorf("rule %d: %w", rec.ID, err)
			}
			l, err := rule.BindLiteral(table, spec)
			if err != nil {
				return nil, fmt.Errorf("%w: rule %d: %v", ErrInvalidRule, rec.ID, err)
			}
			literals = append(literals, l)

			if la := lr.annotation(l.Attribute()); la != nil {
				if ann == nil {
					ann = rule.NewAnnotation(doc.Classes)
				}
				ann.Add(la)
			}
		}
		ant, err := rule.NewAntecedent(literals...)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %d: %v", ErrInvalidRule, rec.ID, err)
		}
		cons, err := rule.BindConsequent(table, target, rec.Class)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %d: %v", ErrInvalidRule, rec.ID, err)
		}

		r := rule.New(rec.ID, rec.GenID, ant, cons, rec.Quality).WithHistory(rule.HistoryFrom(rec.History))
		if ann != nil {
			r = r.WithAnnotation(ann)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func (lr LiteralRecord) spec() (rule.LiteralSpec, error) {
	last, err := rule.ParseOrigin(lr.Last)
	if err != nil {
		return rule.LiteralSpec{}, err
	}
	spec := rule.LiteralSpec{
		Attribute:     lr.Attribute,
		Numeric:       lr.Numeric,
		Last:          last,
		Low:           lr.Low,
		LowInclusive:  lr.LowInclusive,
		High:          lr.High,
		HighInclusive: lr.HighInclusive,
	}
	for _, v := range lr.Values {
		origin, err := rule.ParseOrigin(v.Origin)
		if err != nil {
			return rule.LiteralSpec{}, err
		}
		spec.Values = append(spec.Values, v.Value)
		spec.Origins = append(spec.Origins, origin)
	}
	return spec, nil
}

// annotation restores the value distributions of a literal, or nil when the
// literal was stored without them
func (lr LiteralRecord) annotation(attr *data.Attribute) *rule.LiteralAnnotation {
	la := &rule.LiteralAnnotation{Attribute: attr.Name(), Numeric: attr.IsNumeric()}
	for _, v := range lr.Values {
		if v.Distribution == nil {
			continue
		}
		origin, _ := rule.ParseOrigin(v.Origin)
		va := rule.ValueAnnotation{
			Raw:          v.Value,
			Origin:       origin,
			Distribution: v.Distribution,
			Qualities:    v.Qualities,
		}
		if value, ok := attr.Lookup(v.Value); ok {
			va.Numeric = value.Numeric()
		}
		la.Values = append(la.Values, va)
	}
	if len(la.Values) == 0 {
		return nil
	}
	return la
}
