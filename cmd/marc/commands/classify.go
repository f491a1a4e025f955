/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: classify.go
Description: Classify command implementation. Applies a rule list to test data with
first-match or mixture classification and writes predictions, the optional HTML
report and the run summary.
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
	"github.com/kleascm/marc-classifier/pkg/config"
	"github.com/kleascm/marc-classifier/pkg/data"
	"github.com/kleascm/marc-classifier/pkg/logging"
	"github.com/kleascm/marc-classifier/pkg/monitoring"
	"github.com/kleascm/marc-classifier/pkg/parsers"
	"github.com/kleascm/marc-classifier/pkg/reporting"
	"github.com/kleascm/marc-classifier/pkg/rule"
	"github.com/kleascm/marc-classifier/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// ClassifyFlagKeys maps the classify flags to configuration keys
func ClassifyFlagKeys() map[string]string {
	return withDataKeys(map[string]string{
		"test":        "data.test",
		"train":       "data.train",
		"rules":       "data.rules",
		"mode":        "classify.mode",
		"top-n":       "classify.top_n",
		"report":      "classify.report",
		"predictions": "output.predictions",
		"metrics-dir": "output.metrics_dir",
		"textfile":    "output.textfile",
	})
}

// RunClassify executes the classify command
func RunClassify(cmd *cobra.Command, args []string) error {
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

	classifyCfg, err := cfg.Classify.Build()
	if err != nil {
		return err
	}

	runID := uuid.New().String()
	metrics := monitoring.NewMetrics(runID)

	test, loadTime, err := loadTable(cfg, cfg.Data.Test, false, logger)
	if err != nil {
		return err
	}
	metrics.Observe(monitoring.PhaseLoad, loadTime)

	rules, _, err := loadRules(cfg.Data.Rules, test)
	if err != nil {
		return err
	}

	if classifyCfg.Mode == classify.Mixture && !annotated(rules) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		rules, err = annotateOnTraining(ctx, cfg, rules, test, logger, metrics)
		if err != nil {
			return err
		}
	}

	classifier, err := classify.NewClassifier(rules, classifyCfg, log)
	if err != nil {
		return err
	}

	sw := metrics.Start(monitoring.PhaseClassify)
	results, summary := classifier.Classify(test)
	sw.Stop()

	for _, res := range results {
		rid := 0
		if res.Rule != nil {
			rid = res.Rule.ID()
		}
		logger.LogClassification(res.TID, res.Predicted(), rid, string(res.Method))
	}
	metrics.SetRules("final", len(rules))
	metrics.AddTransactions("correct", summary.TruePositives)
	metrics.AddTransactions("wrong", summary.FalsePositives)
	metrics.AddTransactions("uncovered", summary.Uncovered)

	if cfg.Output.Predictions != "" {
		if err := parsers.SavePredictions(cfg.Output.Predictions, results, classifyCfg.TopN); err != nil {
			return err
		}
		log.WithField("path", cfg.Output.Predictions).Info("Predictions written")
	}

	timings := metrics.Timings()
	if cfg.Classify.Report != "" {
		report := reporting.NewReportData(runID, rules, results, summary, timings, reporting.DefaultPredictionRows)
		if _, err := reporting.NewReportGenerator(cfg.Classify.Report, log).Generate(report); err != nil {
			return err
		}
	}
	fmt.Println(reporting.SummaryTable(runID, summary, timings, reporting.ASCII))

	runSummary := utils.NewRunSummary(runID, "classify")
	runSummary.Inputs["test"] = cfg.Data.Test
	runSummary.Inputs["rules"] = cfg.Data.Rules
	runSummary.Inputs["mode"] = classifyCfg.Mode.String()
	runSummary.SetClassification(summary)
	runSummary.Timings = timings
	if err := finishRun(cfg, runSummary, metrics, logger); err != nil {
		return err
	}

	logger.LogSummary(runID, logrus.Fields{
		"instances":           summary.TestInstances,
		"correct":             summary.TruePositives,
		"uncovered":           summary.Uncovered,
		"accuracy":            fmt.Sprintf("%.4f", summary.Accuracy()),
		"accuracy_classified": fmt.Sprintf("%.4f", summary.AccuracyClassified()),
	})
	return nil
}

// annotated reports whether every non-default rule carries an annotation
func annotated(rules []*rule.Rule) bool {
	for _, r := range rules {
		if !r.IsDefault() && r.Annotation() == nil {
			return false
		}
	}
	return true
}

// annotateOnTraining computes the annotations on the training data and rebinds
// the annotated rules onto the test table
func annotateOnTraining(ctx context.Context, cfg *config.Config, rules []*rule.Rule, test *data.Table, logger *logging.Logger, metrics *monitoring.Metrics) ([]*rule.Rule, error) {
	if cfg.Data.Train == "" {
		return nil, fmt.Errorf("mixture classification of unannotated rules needs training data (--train): %w", classify.ErrNotAnnotated)
	}
	log := logger.GetLogger()

	train, loadTime, err := loadTable(cfg, cfg.Data.Train, true, logger)
	if err != nil {
		return nil, err
	}
	metrics.Observe(monitoring.PhaseLoad, loadTime)

	onTrain := make([]*rule.Rule, len(rules))
	for i, r := range rules {
		bound, err := r.Bind(train)
		if err != nil {
			return nil, err
		}
		onTrain[i] = bound
	}

	sw := metrics.Start(monitoring.PhaseAnnotate)
	annotatedRules, err := classify.Annotate(ctx, train, onTrain, log)
	sw.Stop()
	if err != nil {
		return nil, fmt.Errorf("failed to annotate rules: %w", err)
	}

	out := make([]*rule.Rule, len(annotatedRules))
	for i, r := range annotatedRules {
		bound, err := r.Bind(test)
		if err != nil {
			return nil, err
		}
		out[i] = bound
	}
	return out, nil
}
