/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Command-line interface for the MARC classifier. Wires the extend, prune,
classify, mine and inspect commands, the persistent logging flags and the viper
configuration layer.
*/

package main

import (
	"fmt"
	"os"

	"github.com/kleascm/marc-classifier/cmd/marc/commands"
	"github.com/kleascm/marc-classifier/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "marc",
		Short: "MARC - rule generalization and classification for association rules",
		Long: `MARC post-processes class association rules mined from discretized data.
Seed rules are generalized back onto the original numeric values by hill climbing,
pruned with data coverage, and used to classify new data with first-match or
rule-mixture classification.`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Configuration file path")
	rootCmd.PersistentFlags().String("log-level", "info", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "custom", "Log format (text, json, custom)")
	rootCmd.PersistentFlags().String("log-dir", "", "Log output directory (empty logs to the console only)")
	rootCmd.PersistentFlags().Int("log-max-files", 10, "Maximum number of log files to keep")
	rootCmd.PersistentFlags().Bool("log-compress", false, "Compress rotated log files")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("log_dir", rootCmd.PersistentFlags().Lookup("log-dir"))
	viper.BindPFlag("log_max_files", rootCmd.PersistentFlags().Lookup("log-max-files"))
	viper.BindPFlag("log_compress", rootCmd.PersistentFlags().Lookup("log-compress"))

	rootCmd.AddCommand(
		newExtendCmd(),
		newPruneCmd(),
		newClassifyCmd(),
		newMineCmd(),
		newInspectCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newExtendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extend",
		Short: "Generalize seed rules against training data",
		Long: `Load the training data and the mined seed rules, run the per-rule pipeline
(literal removal, trimming, extension, fuzzification) with continuous pruning,
post-prune the result and write the final rule list.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return commands.BindFlags(cmd, commands.ExtendFlagKeys())
		},
		RunE: commands.RunExtend,
	}

	commands.AddDataFlags(cmd)
	addPipelineFlags(cmd)

	e := config.DefaultExtendConfig()
	cmd.Flags().String("train", "", "Training data CSV (required)")
	cmd.Flags().String("seeds", "", "Seed rules in arules CSV format (required)")
	cmd.Flags().String("strategy", e.Strategy, "Extension acceptance strategy (vs-last, vs-seed, min-confidence)")
	cmd.Flags().Float64("min-improvement", e.MinImprovement, "Minimum confidence improvement of an accepted extension")
	cmd.Flags().Float64("min-conditional-improvement", e.MinConditionalImprovement, "Minimum improvement while a conditional extension is pending")
	cmd.Flags().Float64("min-confidence", e.MinConfidence, "Confidence floor for the min-confidence strategy")
	cmd.Flags().Bool("numeric-only", e.NumericOnly, "Only extend numeric literals")
	addOutputFlags(cmd)
	return cmd
}

func newPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Post-prune an existing rule list",
		Long: `Load a rule list written by extend, recompute its qualities on the training
data and apply post-pruning, redundancy removal and optional annotation.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return commands.BindFlags(cmd, commands.PruneFlagKeys())
		},
		RunE: commands.RunPrune,
	}

	commands.AddDataFlags(cmd)
	addPipelineFlags(cmd)
	cmd.Flags().String("train", "", "Training data CSV (required)")
	cmd.Flags().String("rules", "", "Rule list in YAML format (required)")
	addOutputFlags(cmd)
	return cmd
}

func newClassifyCmd() *cobra.Command {
	c := config.DefaultClassifyConfig()
	o := config.DefaultOutputConfig()
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify test data with a rule list",
		Long: `Classify every transaction of the test data with first-match or rule-mixture
classification, write the predictions and print accuracy figures. Mixture
classification annotates the rules on the training data when they carry no
annotations.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return commands.BindFlags(cmd, commands.ClassifyFlagKeys())
		},
		RunE: commands.RunClassify,
	}

	commands.AddDataFlags(cmd)
	cmd.Flags().String("test", "", "Test data CSV (required)")
	cmd.Flags().String("train", "", "Training data CSV used to annotate rules for mixture classification")
	cmd.Flags().String("rules", "", "Rule list in YAML format (required)")
	cmd.Flags().String("mode", c.Mode, "Classification mode (first-match, mixture)")
	cmd.Flags().Int("top-n", c.TopN, "Number of predictions written per transaction")
	cmd.Flags().String("report", c.Report, "Directory for the HTML report (empty disables it)")
	cmd.Flags().String("predictions", o.Predictions, "Prediction CSV output")
	cmd.Flags().String("metrics-dir", o.MetricsDir, "Directory for run summaries")
	cmd.Flags().String("textfile", o.Textfile, "Prometheus textfile output")
	return cmd
}

func newMineCmd() *cobra.Command {
	m := config.DefaultMinerConfig()
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "Run the external frequent itemset miner",
		Long: `Run the configured discretization and rule mining command on the training
data and verify that its output parses as seed rules.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return commands.BindFlags(cmd, commands.MineFlagKeys())
		},
		RunE: commands.RunMine,
	}

	commands.AddDataFlags(cmd)
	cmd.Flags().String("train", "", "Training data CSV (required)")
	cmd.Flags().String("miner", m.Command, "Miner executable")
	cmd.Flags().StringSlice("miner-args", m.Args, "Leading miner arguments")
	cmd.Flags().String("output", m.Output, "Seed rule CSV written by the miner")
	cmd.Flags().Duration("timeout", m.Timeout, "Maximum miner run time")
	cmd.Flags().Float64("support", m.MinSupport, "Minimum rule support")
	cmd.Flags().Float64("confidence", m.MinConfidence, "Minimum rule confidence")
	cmd.Flags().Int("min-target-count", m.MinTargetCount, "Derive the support from a minimum number of transactions of the rarest class")
	cmd.Flags().Int("max-length", m.MaxLength, "Maximum rule length (0 = unlimited)")
	return cmd
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the attributes of a data file and optionally a rule list",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return commands.BindFlags(cmd, commands.InspectFlagKeys())
		},
		RunE: commands.RunInspect,
	}

	commands.AddDataFlags(cmd)
	cmd.Flags().String("train", "", "Data CSV (required)")
	cmd.Flags().String("rules", "", "Rule list in YAML format")
	cmd.Flags().Bool("markdown", false, "Render Markdown tables")
	return cmd
}

func addPipelineFlags(cmd *cobra.Command) {
	p := config.DefaultPipelineConfig()
	cmd.Flags().Bool("extension", p.Extension, "Generalize literals by hill climbing")
	cmd.Flags().Bool("attribute-removal", p.AttributeRemoval, "Drop literals that do not lower confidence")
	cmd.Flags().Bool("trimming", p.Trimming, "Trim numeric literals to correctly classified values")
	cmd.Flags().Bool("fuzzification", p.Fuzzification, "Add fuzzy borders to numeric literals")
	cmd.Flags().Bool("continuous-pruning", p.ContinuousPruning, "Hide transactions covered by processed rules")
	cmd.Flags().Bool("annotate", p.Annotate, "Annotate the final rules for mixture classification")
	cmd.Flags().String("post-pruning", p.PostPruning, "Post-pruning strategy (none, global, greedy, data-coverage)")
	cmd.Flags().String("redundancy-removal", p.Redundancy, "Redundant rule removal (none, transaction, range)")
	cmd.Flags().String("rule-order", p.RuleOrder, "Rule ordering (cba, preserve)")
}

func addOutputFlags(cmd *cobra.Command) {
	o := config.DefaultOutputConfig()
	cmd.Flags().String("output", o.Rules, "Rule list YAML output")
	cmd.Flags().String("rules-csv", o.RulesCSV, "Rule list arules CSV output")
	cmd.Flags().String("metrics-dir", o.MetricsDir, "Directory for run summaries")
	cmd.Flags().String("textfile", o.Textfile, "Prometheus textfile output")
}
