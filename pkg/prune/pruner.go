/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: pruner.go
Description: Database-coverage pruning of a ranked rule list. Each kept rule hides the
transactions it covers; the cumulative error of the kept rules plus a default rule fit
to the remaining transactions decides where the list is cut. Global-optimum pruning
scans the whole list for the minimum, greedy pruning stops at the first rule that
does not lower the error, and data-coverage pruning only drops rules that cover
nothing. Every strategy restores the hidden transactions before returning.
*/

package prune

import (
	"errors"
	"fmt"

	"github.com/kleascm/marc-classifier/pkg/data"
	"github.com/kleascm/marc-classifier/pkg/rule"
	"github.com/sirupsen/logrus"
)

// ErrDefaultRulePosition is returned when a rule list does not end in exactly one default rule
var ErrDefaultRulePosition = errors.New("default rule must be the last rule of the list")

// Strategy selects the post-pruning algorithm
type Strategy int

const (
	None Strategy = iota
	GlobalOptimum
	Greedy
	DataCoverage
)

// String returns the configuration name of the strategy
func (s Strategy) String() string {
	switch s {
	case GlobalOptimum:
		return "global"
	case Greedy:
		return "greedy"
	case DataCoverage:
		return "data-coverage"
	default:
		return "none"
	}
}

// ParseStrategy converts a configuration name into a Strategy
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "", "none":
		return None, nil
	case "global", "global-optimum":
		return GlobalOptimum, nil
	case "greedy":
		return Greedy, nil
	case "data-coverage":
		return DataCoverage, nil
	default:
		return None, fmt.Errorf("unknown pruning strategy: %q", name)
	}
}

// Result is a pruned rule list ending in a default rule
type Result struct {
	Rules []*rule.Rule
	// Error is the cumulative error of the selected list on the pruning data
	Error int
	// Dropped counts non-default rules removed before or during the scan
	Dropped int
}

// Pruner prunes rule lists against one table
type Pruner struct {
	table  *data.Table
	ids    *rule.IDGen
	logger *logrus.Logger
}

// NewPruner creates a pruner. A nil logger uses the logrus standard logger.
func NewPruner(table *data.Table, ids *rule.IDGen, logger *logrus.Logger) *Pruner {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Pruner{table: table, ids: ids, logger: logger}
}

// Prune runs the selected strategy. None only appends a default rule.
func (p *Pruner) Prune(strategy Strategy, rules []*rule.Rule) Result {
	var res Result
	switch strategy {
	case GlobalOptimum:
		res = p.GlobalOptimum(rules)
	case Greedy:
		res = p.Greedy(rules)
	case DataCoverage:
		res = p.DataCoverage(rules)
	default:
		res = Result{Rules: append(withoutDefaults(rules), p.DefaultRule())}
	}
	p.logger.WithFields(logrus.Fields{
		"strategy": strategy.String(),
		"before":   len(rules),
		"after":    len(res.Rules),
		"error":    res.Error,
	}).Info("Pruning complete")
	return res
}

// Majority returns the most frequent live class and the number of live
// transactions of other classes. Ties go to the first class in value order.
func (p *Pruner) Majority() (*data.AttributeValue, int) {
	var best *data.AttributeValue
	for _, v := range p.table.Target().Values() {
		if best == nil || v.Support() > best.Support() {
			best = v
		}
	}
	if best == nil {
		return nil, p.table.LiveCount()
	}
	return best, p.table.LiveCount() - best.Support()
}

// DefaultRule fits an empty-antecedent rule to the live transactions
func (p *Pruner) DefaultRule() *rule.Rule {
	class, _ := p.Majority()
	return p.defaultFor(class)
}

func (p *Pruner) defaultFor(class *data.AttributeValue) *rule.Rule {
	cons := rule.ConsequentFor(p.table.Target(), class)
	id := p.ids.Next()
	r := rule.New(id, id, rule.Antecedent{}, cons, rule.ComputeQuality(p.table, rule.Antecedent{}, cons))
	r.History().Add("default", r)
	return r
}

// candidates drops rules that can never classify anything: empty antecedents
// and rules without true positives
func candidates(rules []*rule.Rule) []*rule.Rule {
	out := make([]*rule.Rule, 0, len(rules))
	for _, r := range rules {
		if r.IsDefault() || r.Support() == 0 {
			continue
		}
		out = append(out, r)
	}
	return out
}

func withoutDefaults(rules []*rule.Rule) []*rule.Rule {
	out := make([]*rule.Rule, 0, len(rules))
	for _, r := range rules {
		if !r.IsDefault() {
			out = append(out, r)
		}
	}
	return out
}

// cover recomputes a rule on the live data and hides everything its antecedent
// matches. Rules left without true positives are reported as not kept.
func (p *Pruner) cover(r *rule.Rule) (*rule.Rule, bool) {
	r = r.Recompute(p.table)
	if r.Support() == 0 {
		return r, false
	}
	covered, _ := r.Antecedent().Support()
	p.table.RemoveTransactions(covered, true)
	return r, true
}

// finish restores hidden transactions, recomputes qualities on the full data and
// appends a default rule for the class chosen at the cut
func (p *Pruner) finish(kept []*rule.Rule, class *data.AttributeValue) []*rule.Rule {
	p.table.UnhideAll()
	out := make([]*rule.Rule, 0, len(kept)+1)
	for _, r := range kept {
		out = append(out, r.Recompute(p.table))
	}
	return append(out, p.defaultFor(class))
}

// GlobalOptimum keeps the prefix of the list with the lowest cumulative error
func (p *Pruner) GlobalOptimum(rules []*rule.Rule) Result {
	list := candidates(rules)
	dropped := len(withoutDefaults(rules)) - len(list)

	bestClass, bestErr := p.Majority()
	bestLen := 0
	cumulative := 0
	kept := make([]*rule.Rule, 0, len(list))

	for _, r := range list {
		r, ok := p.cover(r)
		if !ok {
			dropped++
			continue
		}
		kept = append(kept, r)
		cumulative += r.Quality().Errors()

		class, defErr := p.Majority()
		if total := cumulative + defErr; total < bestErr {
			bestErr = total
			bestLen = len(kept)
			bestClass = class
		}
		p.logger.WithFields(logrus.Fields{
			"rid":        r.ID(),
			"cumulative": cumulative,
			"default":    defErr,
		}).Debug("Global pruning step")
	}

	dropped += len(kept) - bestLen
	return Result{Rules: p.finish(kept[:bestLen], bestClass), Error: bestErr, Dropped: dropped}
}

// Greedy stops at the first rule that does not lower the default rule error
func (p *Pruner) Greedy(rules []*rule.Rule) Result {
	list := candidates(rules)
	dropped := len(withoutDefaults(rules)) - len(list)

	class, defErr := p.Majority()
	cumulative := 0
	kept := make([]*rule.Rule, 0, len(list))

	for i, r := range list {
		r, ok := p.cover(r)
		if !ok {
			dropped++
			continue
		}
		nextClass, nextDefErr := p.Majority()
		if nextDefErr >= defErr {
			dropped += len(list) - i
			break
		}
		kept = append(kept, r)
		cumulative += r.Quality().Errors()
		class, defErr = nextClass, nextDefErr
	}

	return Result{Rules: p.finish(kept, class), Error: cumulative + defErr, Dropped: dropped}
}

// DataCoverage drops rules that cover no transaction left by the rules above them
func (p *Pruner) DataCoverage(rules []*rule.Rule) Result {
	kept := make([]*rule.Rule, 0, len(rules))
	dropped := 0
	cumulative := 0
	for _, r := range rules {
		if r.IsDefault() {
			continue
		}
		covered, _ := r.Antecedent().Support()
		if covered.Len() == 0 {
			dropped++
			continue
		}
		r = r.Recompute(p.table)
		cumulative += r.Quality().Errors()
		p.table.RemoveTransactions(covered, true)
		kept = append(kept, r)
	}
	class, defErr := p.Majority()
	return Result{Rules: p.finish(kept, class), Error: cumulative + defErr, Dropped: dropped}
}
