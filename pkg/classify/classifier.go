/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: classifier.go
Description: Application of a final rule list to a table. First-match walks the rules
in rank order and lets each rule claim the transactions it covers; mixture combines
the annotated class distributions of every rule matching a transaction.
*/

package classify

import (
	"errors"
	"fmt"

	"github.com/kleascm/marc-classifier/pkg/data"
	"github.com/kleascm/marc-classifier/pkg/rule"
	"github.com/sirupsen/logrus"
)

var (
	// ErrDefaultRulePosition is returned when first-match rules do not end in exactly one default rule
	ErrDefaultRulePosition = errors.New("rule list must end in exactly one default rule")
	// ErrNotAnnotated is returned when mixture mode meets a rule without annotation
	ErrNotAnnotated = errors.New("rule is not annotated")
)

// Mode selects the classification strategy
type Mode int

const (
	FirstMatch Mode = iota
	Mixture
)

// String returns the configuration name of the mode
func (m Mode) String() string {
	if m == Mixture {
		return "mixture"
	}
	return "first-match"
}

// ParseMode converts a configuration name into a Mode
func ParseMode(name string) (Mode, error) {
	switch name {
	case "", "first-match", "firstmatch":
		return FirstMatch, nil
	case "mixture":
		return Mixture, nil
	default:
		return FirstMatch, fmt.Errorf("unknown classification mode: %q", name)
	}
}

// Config holds classification options
type Config struct {
	Mode Mode
	TopN int
}

// Classifier applies a rule list to tables bound to the rules' values
type Classifier struct {
	rules  []*rule.Rule
	config Config
	logger *logrus.Logger
}

// NewClassifier validates the rule list for the configured mode
func NewClassifier(rules []*rule.Rule, config Config, logger *logrus.Logger) (*Classifier, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if config.TopN < 1 {
		config.TopN = 1
	}
	switch config.Mode {
	case FirstMatch:
		if err := checkDefaultLast(rules); err != nil {
			return nil, err
		}
	case Mixture:
		for _, r := range rules {
			if !r.IsDefault() && r.Annotation() == nil {
				return nil, fmt.Errorf("%w: rule %d", ErrNotAnnotated, r.ID())
			}
		}
	}
	return &Classifier{rules: rules, config: config, logger: logger}, nil
}

func checkDefaultLast(rules []*rule.Rule) error {
	defaults := 0
	for _, r := range rules {
		if r.IsDefault() {
			defaults++
		}
	}
	if defaults != 1 || !rules[len(rules)-1].IsDefault() {
		return fmt.Errorf("%w: %d default rules, %d rules", ErrDefaultRulePosition, defaults, len(rules))
	}
	return nil
}

// Rules returns the rule list
func (c *Classifier) Rules() []*rule.Rule { return c.rules }

// Classify runs the configured mode over the live transactions of a table
func (c *Classifier) Classify(table *data.Table) ([]Result, Summary) {
	var results []Result
	if c.config.Mode == Mixture {
		results = c.Mixture(table)
	} else {
		results = c.FirstMatch(table)
	}
	summary := Summarize(len(c.rules), results)
	c.logger.WithFields(logrus.Fields{
		"mode":      c.config.Mode.String(),
		"instances": summary.TestInstances,
		"correct":   summary.TruePositives,
		"uncovered": summary.Uncovered,
		"accuracy":  fmt.Sprintf("%.4f", summary.Accuracy()),
	}).Info("Classification complete")
	return results, summary
}

// FirstMatch classifies each transaction by the first rule covering it. Claimed
// transactions are hidden so later rules cannot reclaim them, and are restored
// before returning. Results come back in transaction id order.
func (c *Classifier) FirstMatch(table *data.Table) []Result {
	byTID := make(map[int]Result, table.LiveCount())
	order := table.Live().IDs()

	for _, r := range c.rules {
		var covered data.TxSet
		if r.IsDefault() {
			covered = table.Live()
		} else {
			covered, _ = r.Antecedent().Support()
		}
		for _, id := range covered.IDs() {
			byTID[id] = c.result(table, table.Transaction(id), r, MethodFirstMatch,
				[]Prediction{{Class: r.Consequent().Class(), Trust: r.Confidence()}}, 1)
		}
		table.RemoveTransactions(covered, true)
	}
	table.UnhideAll()

	results := make([]Result, 0, len(order))
	for _, id := range order {
		res, ok := byTID[id]
		if !ok {
			res = c.result(table, table.Transaction(id), nil, MethodUncovered, nil, 0)
		}
		results = append(results, res)
	}
	return results
}

func (c *Classifier) result(table *data.Table, tx *data.Transaction, r *rule.Rule, method Method, preds []Prediction, candidates int) Result {
	res := Result{
		TID:         tx.ID(),
		ExternalID:  table.ExternalID(tx),
		Predictions: preds,
		Rule:        r,
		Candidates:  candidates,
		Method:      method,
	}
	if actual := table.TargetValue(tx); actual != nil {
		res.Actual = actual.Raw()
	}
	return res
}
