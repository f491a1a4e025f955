/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: redundancy.go
Description: Removal of rules that predict the default class and cannot be overridden.
A rule of the default class is redundant when no lower-ranked rule of another class
competes for its transactions: dropping it hands those transactions to rules of the
same class further down or to the default rule.
*/

package prune

import (
	"fmt"

	"github.com/kleascm/marc-classifier/pkg/rule"
	"github.com/sirupsen/logrus"
)

// RedundancyMode selects the redundant-rule test
type RedundancyMode int

const (
	RedundancyNone RedundancyMode = iota
	RedundancyTransaction
	RedundancyRange
)

// String returns the configuration name of the mode
func (m RedundancyMode) String() string {
	switch m {
	case RedundancyTransaction:
		return "transaction"
	case RedundancyRange:
		return "range"
	default:
		return "none"
	}
}

// ParseRedundancyMode converts a configuration name into a RedundancyMode
func ParseRedundancyMode(name string) (RedundancyMode, error) {
	switch name {
	case "", "none":
		return RedundancyNone, nil
	case "transaction", "transaction-based":
		return RedundancyTransaction, nil
	case "range", "range-based":
		return RedundancyRange, nil
	default:
		return RedundancyNone, fmt.Errorf("unknown redundancy removal mode: %q", name)
	}
}

// overlaps decides whether a lower-ranked rule competes with a candidate
type overlaps func(candidate, lower *rule.Rule) bool

// RemoveRedundant applies the selected test
func (p *Pruner) RemoveRedundant(mode RedundancyMode, rules []*rule.Rule) ([]*rule.Rule, error) {
	switch mode {
	case RedundancyTransaction:
		return p.RemoveRedundantTransactionBased(rules)
	case RedundancyRange:
		return p.RemoveRedundantRangeBased(rules)
	default:
		return rules, nil
	}
}

// RemoveRedundantTransactionBased removes default-class rules whose correctly
// classified transactions are matched by no lower-ranked rule of another class
func (p *Pruner) RemoveRedundantTransactionBased(rules []*rule.Rule) ([]*rule.Rule, error) {
	return p.removeRedundant(rules, "transaction", func(candidate, lower *rule.Rule) bool {
		own, ok := candidate.Antecedent().Support()
		if !ok {
			return true
		}
		correct := own.Intersect(candidate.Consequent().Support())
		other, ok := lower.Antecedent().Support()
		if !ok {
			return correct.Len() > 0
		}
		return other.Intersects(correct)
	})
}

// RemoveRedundantRangeBased removes default-class rules whose antecedent region is
// disjoint from every lower-ranked rule of another class. Two antecedents are
// disjoint when they share an attribute whose value sets do not intersect.
func (p *Pruner) RemoveRedundantRangeBased(rules []*rule.Rule) ([]*rule.Rule, error) {
	return p.removeRedundant(rules, "range", func(candidate, lower *rule.Rule) bool {
		return !disjoint(candidate.Antecedent(), lower.Antecedent())
	})
}

func disjoint(a, b rule.Antecedent) bool {
	for _, la := range a.Literals() {
		lb, ok := b.Literal(la.Attribute().ID())
		if !ok {
			continue
		}
		shared := false
		for _, v := range la.Values() {
			if lb.Contains(v) {
				shared = true
				break
			}
		}
		if !shared {
			return true
		}
	}
	return false
}

func (p *Pruner) removeRedundant(rules []*rule.Rule, mode string, competes overlaps) ([]*rule.Rule, error) {
	if err := checkDefaultLast(rules); err != nil {
		return nil, err
	}
	last := rules[len(rules)-1]
	defClass := last.Consequent().Class()
	body := rules[:len(rules)-1]

	out := make([]*rule.Rule, 0, len(rules))
	for i, r := range body {
		if r.Consequent().Class() != defClass {
			out = append(out, r)
			continue
		}
		redundant := true
		for _, lower := range body[i+1:] {
			if lower.Consequent().Class() == defClass {
				continue
			}
			if competes(r, lower) {
				redundant = false
				break
			}
		}
		if !redundant {
			out = append(out, r)
			continue
		}
		p.logger.WithFields(logrus.Fields{
			"rid":  r.ID(),
			"mode": mode,
		}).Debugf("Removed redundant rule %s", r)
	}

	p.logger.WithFields(logrus.Fields{
		"mode":    mode,
		"removed": len(body) - len(out),
	}).Info("Redundant rule removal complete")
	return append(out, last), nil
}

// checkDefaultLast requires exactly one empty-antecedent rule at the end of the list
func checkDefaultLast(rules []*rule.Rule) error {
	if len(rules) == 0 || !rules[len(rules)-1].IsDefault() {
		return ErrDefaultRulePosition
	}
	for i, r := range rules[:len(rules)-1] {
		if r.IsDefault() {
			return fmt.Errorf("%w: rule %d at position %d has an empty antecedent", ErrDefaultRulePosition, r.ID(), i)
		}
	}
	return nil
}
