/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: refine.go
Description: Rule refinements applied around the search: trimming numeric literals to
the values seen on correctly classified transactions, greedy removal of literals that
do not help confidence, and fuzzy border widening.
*/

package extend

import (
	"math"

	"github.com/kleascm/marc-classifier/pkg/rule"
	"github.com/sirupsen/logrus"
)

// Trim tightens every numeric literal to the range of values observed on the
// transactions the rule classifies correctly. The identical rule is returned when
// nothing changes, so trimming is idempotent.
func (e *Extender) Trim(r *rule.Rule) *rule.Rule {
	antSupport, ok := r.Antecedent().Support()
	if !ok {
		return r
	}
	correct := antSupport.Intersect(r.Consequent().Support())
	if correct.Len() == 0 {
		return r
	}

	ant := r.Antecedent()
	changed := false
	for _, l := range ant.Literals() {
		attr := l.Attribute()
		if !attr.IsNumeric() || l.Len() <= 1 {
			continue
		}

		lo, hi := math.Inf(1), math.Inf(-1)
		for id := range correct {
			v := e.table.Transaction(id).Value(attr.ID())
			if v == nil || v.IsMissing() {
				continue
			}
			lo = math.Min(lo, v.Numeric())
			hi = math.Max(hi, v.Numeric())
		}
		if lo > hi {
			continue
		}

		values := attr.ValuesInRange(lo, true, hi, true)
		if len(values) == l.Len() {
			continue
		}
		// retained values become core again
		ant = ant.Replace(rule.NewLiteral(attr, values, nil, rule.OriginTrimmed))
		changed = true
	}
	if !changed {
		return r
	}

	trimmed := r.Derive(e.ids.Next(), ant, rule.ComputeQuality(e.table, ant, r.Consequent()))
	trimmed.History().Add("trim", trimmed)
	e.logger.WithFields(logrus.Fields{"rid": r.ID(), "erid": trimmed.GenID()}).Debugf("Trimmed to %s", ant)
	return trimmed
}

// RemoveRedundantLiterals drops literals whose removal does not lower confidence,
// restarting the scan after every removal. The last literal is never removed.
func (e *Extender) RemoveRedundantLiterals(r *rule.Rule) *rule.Rule {
	if r.Support() == 0 {
		return r
	}

	current := r
	for current.Antecedent().Len() > 1 {
		removed := false
		for i := 0; i < current.Antecedent().Len(); i++ {
			ant := current.Antecedent().Without(i)
			q := rule.ComputeQuality(e.table, ant, current.Consequent())
			if q.Confidence() < current.Confidence() {
				continue
			}
			next := current.Derive(e.ids.Next(), ant, q)
			next.History().Add("remove-literal", next)
			e.logger.WithFields(logrus.Fields{
				"rid":     r.ID(),
				"erid":    next.GenID(),
				"dropped": current.Antecedent().Literals()[i].Attribute().Name(),
			}).Debug("Removed redundant literal")
			current = next
			removed = true
			break
		}
		if !removed {
			break
		}
	}
	return current
}

// AddFuzzyBorders widens each numeric literal by one breakpoint on both sides.
// The rule keeps its quality; the widened values are tagged as fuzzy borders.
func (e *Extender) AddFuzzyBorders(r *rule.Rule) *rule.Rule {
	ant := r.Antecedent()
	changed := false
	for _, l := range ant.Literals() {
		if !l.Attribute().IsNumeric() {
			continue
		}
		if fuzzy := l.Extended(rule.OriginFuzzyBorder); fuzzy != nil {
			ant = ant.Replace(fuzzy)
			changed = true
		}
	}
	if !changed {
		return r
	}
	fuzzy := r.Derive(e.ids.Next(), ant, r.Quality())
	fuzzy.History().Add("fuzzy-border", fuzzy)
	return fuzzy
}
