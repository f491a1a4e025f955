/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Shared utilities for the MARC commands. Provides configuration loading,
logging setup, flag binding and the table, rule and summary I/O used by every
command.
*/

package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/kleascm/marc-classifier/pkg/config"
	"github.com/kleascm/marc-classifier/pkg/data"
	"github.com/kleascm/marc-classifier/pkg/logging"
	"github.com/kleascm/marc-classifier/pkg/monitoring"
	"github.com/kleascm/marc-classifier/pkg/parsers"
	"github.com/kleascm/marc-classifier/pkg/rule"
	"github.com/kleascm/marc-classifier/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// LoadConfig loads configuration from the --config file, MARC_ environment
// variables and bound flags
func LoadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper(), viper.GetString("config"))
}

// SetupLogging configures the run logger from the log_* keys
func SetupLogging() (*logging.Logger, error) {
	cfg := logging.DefaultLoggerConfig()
	if level := viper.GetString("log_level"); level != "" {
		cfg.Level = logging.LogLevel(level)
	}
	if format := viper.GetString("log_format"); format != "" {
		cfg.Format = logging.LogFormat(format)
	}
	cfg.OutputDir = viper.GetString("log_dir")
	if maxFiles := viper.GetInt("log_max_files"); maxFiles > 0 {
		cfg.MaxFiles = maxFiles
	}
	cfg.Compress = viper.GetBool("log_compress")

	logger, err := logging.NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	return logger, nil
}

// BindFlags binds command flags to viper keys. Commands bind in PreRunE so that
// flags with the same key on different commands do not replace each other.
func BindFlags(cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			return fmt.Errorf("unknown flag %q", flag)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// AddDataFlags registers the flags describing the tabular input
func AddDataFlags(cmd *cobra.Command) {
	d := config.DefaultDataConfig()
	cmd.Flags().String("target", d.Target, "Name of the class attribute (required)")
	cmd.Flags().String("id-column", d.IDColumn, "Name of the external id column")
	cmd.Flags().StringSlice("types", d.Types, "Attribute types in column order (numeric, nominal)")
	cmd.Flags().String("separator", d.Separator, "CSV field separator")
	cmd.Flags().Bool("skip-malformed", d.SkipMalformed, "Skip malformed rows instead of aborting")
}

// dataFlagKeys maps the data flags to their configuration keys
var dataFlagKeys = map[string]string{
	"target":         "data.target",
	"id-column":      "data.id_column",
	"types":          "data.types",
	"separator":      "data.separator",
	"skip-malformed": "data.skip_malformed",
}

// withDataKeys returns keys extended by the data flag keys
func withDataKeys(keys map[string]string) map[string]string {
	out := make(map[string]string, len(keys)+len(dataFlagKeys))
	for k, v := range dataFlagKeys {
		out[k] = v
	}
	for k, v := range keys {
		out[k] = v
	}
	return out
}

// loadTable reads a training or test table as configured and returns the load time
func loadTable(cfg *config.Config, path string, training bool, logger *logging.Logger) (*data.Table, time.Duration, error) {
	if path == "" {
		return nil, 0, fmt.Errorf("no data file given")
	}
	types, err := cfg.Data.AttributeTypes()
	if err != nil {
		return nil, 0, err
	}
	opts := parsers.TableOptions{
		Target:        cfg.Data.Target,
		IDColumn:      cfg.Data.IDColumn,
		Types:         types,
		SkipMalformed: cfg.Data.SkipMalformed,
		Training:      training,
	}
	if cfg.Data.Separator != "" {
		opts.Separator = []rune(cfg.Data.Separator)[0]
	}

	start := time.Now()
	table, stats, err := parsers.LoadTable(path, opts, logger.GetLogger())
	if err != nil {
		return nil, 0, err
	}
	elapsed := time.Since(start)
	logger.LogPhase(string(monitoring.PhaseLoad), elapsed, logrus.Fields{
		"file":    path,
		"loaded":  stats.Loaded,
		"skipped": stats.Skipped,
	})
	return table, elapsed, nil
}

// loadRules reads a YAML rule file and binds it onto a table
func loadRules(path string, table *data.Table) ([]*rule.Rule, *parsers.RuleFile, error) {
	if path == "" {
		return nil, nil, fmt.Errorf("no rule file given")
	}
	doc, err := parsers.LoadRuleFile(path)
	if err != nil {
		return nil, nil, err
	}
	rules, err := doc.Bind(table)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to bind rules from %s: %w", path, err)
	}
	return rules, doc, nil
}

// writeRules saves the rule list as YAML and, when configured, as arules CSV
func writeRules(cfg *config.Config, runID string, table *data.Table, rules []*rule.Rule, logger *logrus.Logger) error {
	if cfg.Output.Rules != "" {
		doc := parsers.NewRuleFile(runID, table.Target().Name(), rules)
		if err := parsers.SaveRuleFile(cfg.Output.Rules, doc); err != nil {
			return err
		}
		logger.WithField("path", cfg.Output.Rules).Info("Rules written")
	}
	if cfg.Output.RulesCSV != "" {
		f, err := os.Create(cfg.Output.RulesCSV)
		if err != nil {
			return fmt.Errorf("failed to create rule CSV: %w", err)
		}
		if err := parsers.WriteRules(f, rules, table.LiveCount()); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close rule CSV: %w", err)
		}
		logger.WithField("path", cfg.Output.RulesCSV).Info("Rule CSV written")
	}
	return nil
}

// finishRun writes the summary JSON and the Prometheus textfile when configured
func finishRun(cfg *config.Config, summary *utils.RunSummary, metrics *monitoring.Metrics, logger *logging.Logger) error {
	if cfg.Output.MetricsDir != "" {
		path, err := utils.WriteRunSummary(cfg.Output.MetricsDir, summary)
		if err != nil {
			return err
		}
		logger.GetLogger().WithField("path", path).Info("Run summary written")
	}
	if cfg.Output.Textfile != "" && metrics != nil {
		if err := metrics.WriteTextfile(cfg.Output.Textfile); err != nil {
			return fmt.Errorf("failed to write metrics textfile: %w", err)
		}
	}
	return nil
}
