/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: engine.go
Description: Run orchestration. The engine sorts the seed rules, passes every seed
through attribute removal, trimming, extension and fuzzification, optionally hides
what each processed rule covers, then restores the data and applies post-pruning,
redundancy removal and annotation to the resulting list.
*/

package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kleascm/marc-classifier/pkg/classify"
	"github.com/kleascm/marc-classifier/pkg/data"
	"github.com/kleascm/marc-classifier/pkg/extend"
	"github.com/kleascm/marc-classifier/pkg/monitoring"
	"github.com/kleascm/marc-classifier/pkg/prune"
	"github.com/kleascm/marc-classifier/pkg/rule"
	"github.com/sirupsen/logrus"
)

// Engine builds a final rule list from seed rules over one training table.
// An engine owns the table for the duration of Run.
type Engine struct {
	table   *data.Table
	options Options
	logger  *logrus.Logger
	metrics *monitoring.Metrics
	runID   string
}

// NewEngine creates an engine with a fresh run id
func NewEngine(table *data.Table, options Options, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if options.Order == nil {
		options.Order = rule.CBA
	}
	runID := uuid.New().String()
	return &Engine{
		table:   table,
		options: options,
		logger:  logger,
		metrics: monitoring.NewMetrics(runID),
		runID:   runID,
	}
}

// SetMetrics replaces the metrics collector, e.g. to share one across commands
func (e *Engine) SetMetrics(m *monitoring.Metrics) {
	e.metrics = m
}

// Metrics returns the collector of the run
func (e *Engine) Metrics() *monitoring.Metrics { return e.metrics }

// RunID returns the id stamped into logs and summaries
func (e *Engine) RunID() string { return e.runID }

// Run processes the seeds and returns the final list. The table is restored to
// its loaded state before Run returns.
func (e *Engine) Run(ctx context.Context, seeds []*rule.Rule) (*RunResult, error) {
	res := &RunResult{RunID: e.runID}
	res.Stats.StartTime = time.Now()
	res.Stats.Seeds = len(seeds)
	defer e.table.UnhideAll()

	ids := rule.NewIDGen(NextID(seeds))
	extender := extend.NewExtender(e.table, e.options.Extend, ids, e.logger)
	pruner := prune.NewPruner(e.table, ids, e.logger)

	e.logger.WithFields(logrus.Fields{
		"run_id":       e.runID,
		"seeds":        len(seeds),
		"transactions": e.table.LiveCount(),
		"strategy":     e.options.Extend.Strategy.String(),
		"post_pruning": e.options.PostPruning.String(),
	}).Info("Starting rule generalization")

	sw := e.metrics.Start(monitoring.PhaseExtend)
	ordered := e.prepareSeeds(seeds, &res.Stats)
	processed := make([]*rule.Rule, 0, len(ordered))
	for _, seed := range ordered {
		if err := ctx.Err(); err != nil {
			sw.Stop()
			return nil, err
		}
		r, err := e.process(extender, seed)
		if err != nil {
			sw.Stop()
			return nil, fmt.Errorf("failed to process rule %d: %w", seed.ID(), err)
		}
		res.Stats.Processed++
		if r.Antecedent().String() != seed.Antecedent().String() {
			res.Stats.Generalized++
		}

		if e.options.ContinuousPruning {
			r = r.Recompute(e.table)
			covered, _ := r.Antecedent().Support()
			if covered.Len() == 0 {
				res.Stats.DroppedContinuous++
				e.logger.WithField("rid", r.ID()).Debug("Rule covers no remaining transaction, dropped")
				continue
			}
			e.table.RemoveTransactions(covered, true)
		}
		processed = append(processed, r)
	}
	e.table.UnhideAll()
	for i, r := range processed {
		processed[i] = r.Recompute(e.table)
	}
	rule.Sort(processed, e.options.Order)
	e.metrics.SetRules("extended", len(processed))
	e.logger.WithFields(logrus.Fields{
		"phase":     string(monitoring.PhaseExtend),
		"rules":     len(processed),
		"processed": res.Stats.Processed,
		"changed":   res.Stats.Generalized,
		"dropped":   res.Stats.DroppedContinuous,
		"duration":  sw.Stop(),
	}).Info("Phase finished")

	sw = e.metrics.Start(monitoring.PhasePrune)
	pruned := pruner.Prune(e.options.PostPruning, processed)
	res.Stats.DroppedPostPrune = pruned.Dropped
	res.Stats.PruningError = pruned.Error
	final := pruned.Rules

	if e.options.Redundancy != prune.RedundancyNone {
		before := len(final)
		var err error
		final, err = pruner.RemoveRedundant(e.options.Redundancy, final)
		if err != nil {
			sw.Stop()
			return nil, fmt.Errorf("failed to remove redundant rules: %w", err)
		}
		res.Stats.DroppedRedundant = before - len(final)
	}
	e.metrics.SetRules("pruned", len(final))
	e.logger.WithFields(logrus.Fields{
		"phase":    string(monitoring.PhasePrune),
		"rules":    len(final),
		"duration": sw.Stop(),
	}).Info("Phase finished")

	if e.options.Annotate {
		sw = e.metrics.Start(monitoring.PhaseAnnotate)
		annotated, err := classify.Annotate(ctx, e.table, final, e.logger)
		sw.Stop()
		if err != nil {
			return nil, fmt.Errorf("failed to annotate rules: %w", err)
		}
		final = annotated
	}

	res.Rules = final
	res.Stats.FinalRules = len(final)
	res.Stats.Duration = time.Since(res.Stats.StartTime)
	res.Timings = e.metrics.Timings()
	e.metrics.SetRules("final", len(final))

	e.logger.WithFields(logrus.Fields{
		"run_id":   e.runID,
		"rules":    len(final),
		"error":    res.Stats.PruningError,
		"duration": res.Stats.Duration,
	}).Info("Rule generalization complete")
	return res, nil
}

// prepareSeeds orders the seeds and removes empty antecedents. The miner emits
// the default rule last; anything else in that position is worth a warning.
func (e *Engine) prepareSeeds(seeds []*rule.Rule, stats *RunStats) []*rule.Rule {
	if len(seeds) > 0 && !seeds[len(seeds)-1].IsDefault() {
		e.logger.WithField("rid", seeds[len(seeds)-1].ID()).Warn("Last seed rule is not a default rule")
	}

	ordered := make([]*rule.Rule, 0, len(seeds))
	for _, s := range seeds {
		if s.IsDefault() {
			stats.SkippedEmpty++
			continue
		}
		ordered = append(ordered, s)
	}
	rule.Sort(ordered, e.options.Order)
	return ordered
}

// process runs the enabled per-rule stages on one seed
func (e *Engine) process(x *extend.Extender, seed *rule.Rule) (*rule.Rule, error) {
	r := seed.Recompute(e.table).WithHistory(seed.History().Copy())
	if r.History().Len() == 0 {
		r.History().Add("seed", r)
	}

	if e.options.AttributeRemoval {
		r = x.RemoveRedundantLiterals(r)
	}
	if e.options.Trimming {
		r = x.Trim(r)
	}
	if e.options.Extension {
		extended, err := x.Extend(r)
		if err != nil {
			return nil, err
		}
		r = extended
	}
	if e.options.Fuzzification {
		r = x.AddFuzzyBorders(r)
	}

	e.logger.WithFields(logrus.Fields{
		"rid":        r.ID(),
		"erid":       r.GenID(),
		"support":    r.Support(),
		"confidence": fmt.Sprintf("%.4f", r.Confidence()),
	}).Debug("Rule accepted")
	return r, nil
}

// NextID returns the first id above every seed id
func NextID(seeds []*rule.Rule) int {
	next := 0
	for _, s := range seeds {
		if s.ID() >= next {
			next = s.ID() + 1
		}
		if s.GenID() >= next {
			next = s.GenID() + 1
		}
	}
	return next
}
