/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: mine.go
Description: Mine command implementation. Runs the external discretization and
rule mining command and checks that its output loads as seed rules.
*/

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/kleascm/marc-classifier/pkg/execution"
	"github.com/kleascm/marc-classifier/pkg/parsers"
	"github.com/kleascm/marc-classifier/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// MineFlagKeys maps the mine flags to configuration keys
func MineFlagKeys() map[string]string {
	return withDataKeys(map[string]string{
		"train":            "data.train",
		"miner":            "miner.command",
		"miner-args":       "miner.args",
		"output":           "miner.output",
		"timeout":          "miner.timeout",
		"support":          "miner.min_support",
		"confidence":       "miner.min_confidence",
		"min-target-count": "miner.min_target_count",
		"max-length":       "miner.max_length",
	})
}

// RunMine executes the mine command
func RunMine(cmd *cobra.Command, args []string) error {
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

	table, _, err := loadTable(cfg, cfg.Data.Train, true, logger)
	if err != nil {
		return err
	}

	support := cfg.Miner.MinSupport
	if cfg.Miner.MinTargetCount > 0 {
		support = table.MinSupportForTargetCount(cfg.Miner.MinTargetCount)
		log.WithFields(logrus.Fields{
			"min_target_count": cfg.Miner.MinTargetCount,
			"support":          support,
		}).Info("Support derived from the rarest class")
	}

	miner, err := execution.NewMiner(execution.MinerOptions{
		Command: cfg.Miner.Command,
		Args:    cfg.Miner.Args,
		Timeout: cfg.Miner.Timeout,
	}, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := miner.Run(ctx, execution.MineRequest{
		DataPath:      cfg.Data.Train,
		Target:        cfg.Data.Target,
		Output:        cfg.Miner.Output,
		MinSupport:    support,
		MinConfidence: cfg.Miner.MinConfidence,
		MaxLength:     cfg.Miner.MaxLength,
	})
	if err != nil {
		return err
	}

	seeds, err := parsers.NewRuleReader(table, log).LoadFile(result.Output)
	if err != nil {
		return fmt.Errorf("miner output is not a valid rule file: %w", err)
	}
	log.WithFields(logrus.Fields{
		"rules": len(seeds),
		"file":  result.Output,
	}).Info("Seed rules verified")

	if cfg.Output.MetricsDir != "" {
		path, err := utils.WriteMetricsResult(cfg.Output.MetricsDir, "mine", uuid.New().String(), result)
		if err != nil {
			return err
		}
		log.WithField("path", path).Info("Run summary written")
	}
	return nil
}
