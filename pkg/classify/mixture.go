/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: mixture.go
Description: Mixture classification. Every rule matching a transaction contributes the
class distribution annotated for the transaction's value of each of its literals;
numeric values without an exact entry are interpolated between the nearest annotated
neighbours. Distributions are averaged per attribute weighted by rule support, then
averaged across attributes.
*/

package classify

import (
	"math"

	"github.com/kleascm/marc-classifier/pkg/data"
	"github.com/kleascm/marc-classifier/pkg/rule"
	"github.com/sirupsen/logrus"
)

// Mixture classifies every live transaction without removing any
func (c *Classifier) Mixture(table *data.Table) []Result {
	live := table.LiveTransactions()
	results := make([]Result, 0, len(live))
	for _, tx := range live {
		results = append(results, c.mix(table, tx))
	}
	return results
}

func (c *Classifier) mix(table *data.Table, tx *data.Transaction) Result {
	var candidates []*rule.Rule
	for _, r := range c.rules {
		if r.Antecedent().Matches(tx) {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return c.result(table, tx, nil, MethodUncovered, nil, 0)
	}

	if len(candidates) > 1 {
		var core []*rule.Rule
		for _, r := range candidates {
			if !MatchesInFuzzyBorder(r, tx) {
				core = append(core, r)
			}
		}
		if len(core) > 0 && len(core) < len(candidates) {
			candidates = core
		}
	}

	if len(candidates) == 1 {
		r := candidates[0]
		return c.result(table, tx, r, MethodOneRule,
			[]Prediction{{Class: r.Consequent().Class(), Trust: r.Confidence()}}, 1)
	}

	classes, dist := Distribution(candidates, tx)
	if dist == nil {
		best := candidates[0]
		for _, r := range candidates[1:] {
			if r.Confidence() > best.Confidence() {
				best = r
			}
		}
		c.logger.WithFields(logrus.Fields{
			"tid": tx.ID(),
			"rid": best.ID(),
		}).Warn("No class distribution for transaction, using highest-confidence rule")
		return c.result(table, tx, best, MethodFallback,
			[]Prediction{{Class: best.Consequent().Class(), Trust: best.Confidence()}}, len(candidates))
	}

	return c.result(table, tx, candidates[0], MethodMixture, TopN(classes, dist, c.config.TopN), len(candidates))
}

// Distribution combines the annotated class distributions of the rules for a
// transaction. A nil distribution is returned when no rule contributes or every
// probability is zero.
func Distribution(rules []*rule.Rule, tx *data.Transaction) ([]string, []float64) {
	var classes []string
	type attrRef struct {
		id   int
		name string
	}
	var attrs []attrRef
	seen := make(map[string]bool)
	for _, r := range rules {
		if ann := r.Annotation(); ann != nil && classes == nil {
			classes = ann.Classes
		}
		for _, l := range r.Antecedent().Literals() {
			name := l.Attribute().Name()
			if !seen[name] {
				seen[name] = true
				attrs = append(attrs, attrRef{id: l.Attribute().ID(), name: name})
			}
		}
	}
	if len(classes) == 0 {
		return nil, nil
	}

	final := make([]float64, len(classes))
	contributing := 0
	for _, attr := range attrs {
		sum := make([]float64, len(classes))
		weight := 0.0
		for _, r := range rules {
			la, ok := r.Annotation().Literal(attr.name)
			if !ok {
				continue
			}
			d := lookup(la, tx.Value(attr.id))
			if d == nil || len(d) != len(classes) {
				continue
			}
			w := float64(r.Support())
			for k := range sum {
				sum[k] += d[k] * w
			}
			weight += w
		}
		if weight == 0 {
			continue
		}
		for k := range final {
			final[k] += sum[k] / weight
		}
		contributing++
	}
	if contributing == 0 {
		return classes, nil
	}

	total := 0.0
	for k := range final {
		final[k] /= float64(contributing)
		total += final[k]
	}
	if total == 0 {
		return classes, nil
	}
	return classes, final
}

// lookup returns the distribution for a value: the exact entry, or a linear
// interpolation between the annotated neighbours of a numeric value
func lookup(la *rule.LiteralAnnotation, v *data.AttributeValue) []float64 {
	if va, ok := la.Find(v); ok {
		return va.Distribution
	}
	if v == nil || !la.Numeric || v.IsMissing() {
		return nil
	}
	x := v.Numeric()
	lo, hi := la.Neighbours(x)
	switch {
	case lo != nil && hi != nil:
		wHigh := (x - lo.Numeric) / (hi.Numeric - lo.Numeric)
		if math.IsInf(hi.Numeric, 0) || math.IsInf(lo.Numeric, 0) || math.IsNaN(wHigh) {
			return nil
		}
		out := make([]float64, len(lo.Distribution))
		for k := range out {
			out[k] = lo.Distribution[k]*(1-wHigh) + hi.Distribution[k]*wHigh
		}
		return out
	case lo != nil:
		return lo.Distribution
	case hi != nil:
		return hi.Distribution
	}
	return nil
}

// MatchesInFuzzyBorder reports whether the transaction falls into a fuzzy border
// of one of the rule's literals, judged by the annotated origin of its value or of
// the annotated values around it
func MatchesInFuzzyBorder(r *rule.Rule, tx *data.Transaction) bool {
	for _, l := range r.Antecedent().Literals() {
		v := tx.Value(l.Attribute().ID())
		la, ok := r.Annotation().Literal(l.Attribute().Name())
		if !ok {
			if origin, found := l.OriginOf(v); found && origin == rule.OriginFuzzyBorder {
				return true
			}
			continue
		}
		if va, found := la.Find(v); found {
			if va.Origin == rule.OriginFuzzyBorder {
				return true
			}
			continue
		}
		if v == nil || !la.Numeric || v.IsMissing() {
			continue
		}
		lo, hi := la.Neighbours(v.Numeric())
		if (lo != nil && lo.Origin == rule.OriginFuzzyBorder) || (hi != nil && hi.Origin == rule.OriginFuzzyBorder) {
			return true
		}
	}
	return false
}
