/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: extend.go
Description: Extend command implementation. Loads training data and seed rules, runs
the generalization engine and writes the final rule list with its run summary.
*/

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kleascm/marc-classifier/pkg/core"
	"github.com/kleascm/marc-classifier/pkg/monitoring"
	"github.com/kleascm/marc-classifier/pkg/parsers"
	"github.com/kleascm/marc-classifier/pkg/reporting"
	"github.com/kleascm/marc-classifier/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var pipelineFlagKeys = map[string]string{
	"extension":          "pipeline.extension",
	"attribute-removal":  "pipeline.attribute_removal",
	"trimming":           "pipeline.trimming",
	"fuzzification":      "pipeline.fuzzification",
	"continuous-pruning": "pipeline.continuous_pruning",
	"annotate":           "pipeline.annotate",
	"post-pruning":       "pipeline.post_pruning",
	"redundancy-removal": "pipeline.redundancy_removal",
	"rule-order":         "pipeline.rule_order",
	"output":             "output.rules",
	"rules-csv":          "output.rules_csv",
	"metrics-dir":        "output.metrics_dir",
	"textfile":           "output.textfile",
}

// ExtendFlagKeys maps the extend flags to configuration keys
func ExtendFlagKeys() map[string]string {
	keys := withDataKeys(pipelineFlagKeys)
	keys["train"] = "data.train"
	keys["seeds"] = "data.seeds"
	keys["strategy"] = "extend.strategy"
	keys["min-improvement"] = "extend.min_improvement"
	keys["min-conditional-improvement"] = "extend.min_conditional_improvement"
	keys["min-confidence"] = "extend.min_confidence"
	keys["numeric-only"] = "extend.numeric_only"
	return keys
}

// RunExtend executes the extend command
func RunExtend(cmd *cobra.Command, args []string) error {
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
	if cfg.Data.Seeds == "" {
		return fmt.Errorf("seed rule file is required (--seeds)")
	}

	table, loadTime, err := loadTable(cfg, cfg.Data.Train, true, logger)
	if err != nil {
		return err
	}
	engine := core.NewEngine(table, opts, log)
	engine.Metrics().Observe(monitoring.PhaseLoad, loadTime)
	runID := engine.RunID()

	seeds, err := parsers.NewRuleReader(table, log).LoadFile(cfg.Data.Seeds)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"run_id": runID,
		"seeds":  len(seeds),
		"file":   cfg.Data.Seeds,
	}).Info("Seed rules loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := engine.Run(ctx, seeds)
	if err != nil {
		return fmt.Errorf("rule generalization failed: %w", err)
	}
	for _, r := range result.Rules {
		logger.LogRuleAccepted(r.ID(), r.GenID(), "final", r.Support(), r.Confidence())
	}

	if err := writeRules(cfg, runID, table, result.Rules, log); err != nil {
		return err
	}
	fmt.Println(reporting.RulesTable(reporting.RuleRows(result.Rules), reporting.ASCII))

	summary := utils.NewRunSummary(runID, "extend")
	summary.Inputs["train"] = cfg.Data.Train
	summary.Inputs["seeds"] = cfg.Data.Seeds
	summary.Engine = &result.Stats
	summary.Timings = engine.Metrics().Timings()
	if err := finishRun(cfg, summary, engine.Metrics(), logger); err != nil {
		return err
	}

	logger.LogSummary(runID, logrus.Fields{
		"seeds":       result.Stats.Seeds,
		"generalized": result.Stats.Generalized,
		"rules":       result.Stats.FinalRules,
		"error":       result.Stats.PruningError,
	})
	return nil
}
