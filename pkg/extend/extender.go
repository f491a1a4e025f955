/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: extender.go
Description: Hill-climbing generalization of seed rules. Each step generates the
neighbourhood of the accepted rule (one breakpoint more on either side of a numeric
literal, one domain value more for a nominal literal), ranks it, and either accepts a
candidate and restarts or enlarges a conditionally acceptable literal further in the
same direction. The search stops at the first local optimum.
*/

package extend

import (
	"fmt"
	"runtime"

	"github.com/kleascm/marc-classifier/pkg/data"
	"github.com/kleascm/marc-classifier/pkg/rule"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Extender refines rules against one table
type Extender struct {
	table  *data.Table
	config Config
	ids    *rule.IDGen
	logger *logrus.Logger
}

// NewExtender creates an extender. A nil logger uses the logrus standard logger.
func NewExtender(table *data.Table, config Config, ids *rule.IDGen, logger *logrus.Logger) *Extender {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Extender{table: table, config: config, ids: ids, logger: logger}
}

// Config returns the search thresholds
func (e *Extender) Config() Config { return e.config }

// IsExtendable reports whether the search can start from the rule. A literal
// whose values skip a breakpoint is a consistency error.
func (e *Extender) IsExtendable(r *rule.Rule) (bool, error) {
	if r.Antecedent().IsEmpty() {
		return false, nil
	}
	for _, l := range r.Antecedent().Literals() {
		if err := l.CheckContiguous(); err != nil {
			return false, fmt.Errorf("rule %d: %w", r.ID(), err)
		}
	}
	return true, nil
}

// candidate is a neighbour together with the literal that was grown
type candidate struct {
	rule    *rule.Rule
	literal *rule.Literal
}

// Extend runs the search from a seed and returns the local optimum.
// Rules that cannot be extended are returned unchanged.
func (e *Extender) Extend(seed *rule.Rule) (*rule.Rule, error) {
	ok, err := e.IsExtendable(seed)
	if err != nil {
		return nil, err
	}
	if !ok {
		return seed, nil
	}

	accepted := seed
	for steps := 0; ; steps++ {
		next := e.step(seed, accepted)
		if next == nil {
			e.logger.WithFields(logrus.Fields{
				"rid":        seed.ID(),
				"steps":      steps,
				"support":    accepted.Support(),
				"confidence": accepted.Confidence(),
			}).Debug("Extension converged")
			return accepted, nil
		}
		accepted = next
	}
}

// step scans one ranked neighbourhood and returns the newly accepted rule, or nil
func (e *Extender) step(seed, accepted *rule.Rule) *rule.Rule {
	candidates := e.neighbourhood(accepted)
	for _, c := range candidates {
		switch e.config.Judge(seed.Quality(), accepted.Quality(), c.rule.Quality()) {
		case Accept:
			c.rule.History().Add("extend", c.rule)
			e.logAccepted(c.rule, "extend")
			return c.rule
		case Conditional:
			if enlarged := e.enlarge(seed, accepted, c); enlarged != nil {
				enlarged.History().Add("enlarge", enlarged)
				e.logAccepted(enlarged, "enlarge")
				return enlarged
			}
		}
	}
	return nil
}

// enlarge keeps growing the candidate's literal in its last direction while the
// candidate stays inside the conditional band
func (e *Extender) enlarge(seed, accepted *rule.Rule, c candidate) *rule.Rule {
	current := c
	for {
		grown := current.literal.Extended(current.literal.LastModification())
		if grown == nil {
			return nil
		}
		ant := current.rule.Antecedent().Replace(grown)
		q := rule.ComputeQuality(e.table, ant, accepted.Consequent())
		next := candidate{rule: accepted.Derive(e.ids.Next(), ant, q), literal: grown}

		switch e.config.Judge(seed.Quality(), accepted.Quality(), q) {
		case Accept:
			return next.rule
		case Conditional:
			current = next
		default:
			return nil
		}
	}
}

// neighbourhood generates the ranked candidates of a rule. Numeric literals grow
// towards the higher then the lower breakpoint; nominal literals fan out over
// every value not yet admitted.
func (e *Extender) neighbourhood(r *rule.Rule) []candidate {
	var grown []*rule.Literal
	for _, l := range r.Antecedent().Literals() {
		if l.Attribute().IsNumeric() {
			if high := l.Extended(rule.OriginExtendHigh); high != nil {
				grown = append(grown, high)
			}
			if low := l.Extended(rule.OriginExtendLow); low != nil {
				grown = append(grown, low)
			}
			continue
		}
		if e.config.NumericOnly {
			continue
		}
		grown = append(grown, l.GreedyExtensions()...)
	}

	candidates := make([]candidate, len(grown))
	genIDs := make([]int, len(grown))
	for i := range grown {
		genIDs[i] = e.ids.Next()
	}

	// quality evaluation only reads membership sets
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, l := range grown {
		i, l := i, l
		g.Go(func() error {
			ant := r.Antecedent().Replace(l)
			q := rule.ComputeQuality(e.table, ant, r.Consequent())
			candidates[i] = candidate{rule: r.Derive(genIDs[i], ant, q), literal: l}
			return nil
		})
	}
	_ = g.Wait()

	sortCandidates(candidates)
	return candidates
}

func sortCandidates(candidates []candidate) {
	rules := make([]*rule.Rule, len(candidates))
	byGen := make(map[int]candidate, len(candidates))
	for i, c := range candidates {
		rules[i] = c.rule
		byGen[c.rule.GenID()] = c
	}
	rule.Sort(rules, rule.CBA)
	for i, r := range rules {
		candidates[i] = byGen[r.GenID()]
	}
}

func (e *Extender) logAccepted(r *rule.Rule, step string) {
	e.logger.WithFields(logrus.Fields{
		"rid":        r.ID(),
		"erid":       r.GenID(),
		"step":       step,
		"support":    r.Support(),
		"confidence": fmt.Sprintf("%.4f", r.Confidence()),
	}).Debugf("Accepted %s", r.Antecedent())
}
