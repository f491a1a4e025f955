/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: prune.go
Description: Prune command implementation. Re-prunes a saved rule list on the training
data without rerunning the generalization.
*/

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/kleascm/marc-classifier/pkg/classify"
	"github.com/kleascm/marc-classifier/pkg/core"
	"github.com/kleascm/marc-classifier/pkg/monitoring"
	"github.com/kleascm/marc-classifier/pkg/prune"
	"github.com/kleascm/marc-classifier/pkg/reporting"
	"github.com/kleascm/marc-classifier/pkg/rule"
	"github.com/kleascm/marc-classifier/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// PruneFlagKeys maps the prune flags to configuration keys
func PruneFlagKeys() map[string]string {
	keys := withDataKeys(pipelineFlagKeys)
	keys["train"] = "data.train"
	keys["rules"] = "data.rules"
	return keys
}

// RunPrune executes the prune command
func RunPrune(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	logger, err := SetupLogging()
	if err != nil {
		return err
	}
	defer logger.Close()
	log := logger.GetLogger()

	opts, err := cfg.Pipeline.Build(cfg.Extend)
	if err != nil {
		return err
	}

	runID := uuid.New().String()
	metrics := monitoring.NewMetrics(runID)

	table, loadTime, err := loadTable(cfg, cfg.Data.Train, true, logger)
	if err != nil {
		return err
	}
	metrics.Observe(monitoring.PhaseLoad, loadTime)

	loaded, _, err := loadRules(cfg.Data.Rules, table)
	if err != nil {
		return err
	}
	rules := make([]*rule.Rule, len(loaded))
	for i, r := range loaded {
		rules[i] = r.Recompute(table)
	}
	rule.Sort(rules, opts.Order)
	metrics.SetRules("loaded", len(rules))

	sw := metrics.Start(monitoring.PhasePrune)
	pruner := prune.NewPruner(table, rule.NewIDGen(core.NextID(rules)), log)
	result := pruner.Prune(opts.PostPruning, rules)
	logger.LogPruning(opts.PostPruning.String(), len(rules), len(result.Rules))
	final := result.Rules

	if opts.Redundancy != prune.RedundancyNone {
		before := len(final)
		final, err = pruner.RemoveRedundant(opts.Redundancy, final)
		if err != nil {
			sw.Stop()
			return fmt.Errorf("failed to remove redundant rules: %w", err)
		}
		logger.LogPruning(opts.Redundancy.String(), before, len(final))
	}
	sw.Stop()
	metrics.SetRules("pruned", len(final))

	if opts.Annotate {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sw = metrics.Start(monitoring.PhaseAnnotate)
		final, err = classify.Annotate(ctx, table, final, log)
		sw.Stop()
		if err != nil {
			return fmt.Errorf("failed to annotate rules: %w", err)
		}
	}
	metrics.SetRules("final", len(final))

	if err := writeRules(cfg, runID, table, final, log); err != nil {
		return err
	}
	fmt.Println(reporting.RulesTable(reporting.RuleRows(final), reporting.ASCII))

	summary := utils.NewRunSummary(runID, "prune")
	summary.Inputs["train"] = cfg.Data.Train
	summary.Inputs["rules"] = cfg.Data.Rules
	summary.Engine = &core.RunStats{
		Seeds:            len(rules),
		DroppedPostPrune: result.Dropped,
		DroppedRedundant: len(result.Rules) - len(final),
		FinalRules:       len(final),
		PruningError:     result.Error,
	}
	summary.Timings = metrics.Timings()
	if err := finishRun(cfg, summary, metrics, logger); err != nil {
		return err
	}

	logger.LogSummary(runID, logrus.Fields{
		"loaded": len(rules),
		"rules":  len(final),
		"error":  result.Error,
	})
	return nil
}
