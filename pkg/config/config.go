/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: config.go
Description: Typed configuration for the MARC classifier. Each section has defaults,
validator tags and a conversion into the option types of the package it drives.
Values are loaded through viper from a config file, MARC_ environment variables
and bound command-line flags.
*/

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kleascm/marc-classifier/pkg/classify"
	"github.com/kleascm/marc-classifier/pkg/core"
	"github.com/kleascm/marc-classifier/pkg/data"
	"github.com/kleascm/marc-classifier/pkg/extend"
	"github.com/kleascm/marc-classifier/pkg/prune"
	"github.com/kleascm/marc-classifier/pkg/rule"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by Load
const EnvPrefix = "MARC"

// DataConfig describes the tabular inputs
type DataConfig struct {
	Train         string   `mapstructure:"train" yaml:"train"`
	Test          string   `mapstructure:"test" yaml:"test"`
	Seeds         string   `mapstructure:"seeds" yaml:"seeds"`
	Rules         string   `mapstructure:"rules" yaml:"rules"`
	Target        string   `mapstructure:"target" yaml:"target" validate:"required"`
	IDColumn      string   `mapstructure:"id_column" yaml:"id_column" validate:"nefield=Target"`
	Types         []string `mapstructure:"types" yaml:"types" validate:"dive,oneof=numeric numerical integer float nominal string categorical"`
	Separator     string   `mapstructure:"separator" yaml:"separator" validate:"len=1"`
	SkipMalformed bool     `mapstructure:"skip_malformed" yaml:"skip_malformed"`
}

// DefaultDataConfig returns comma separated input that aborts on malformed rows
func DefaultDataConfig() DataConfig {
	return DataConfig{Separator: ","}
}

// AttributeTypes parses the configured type list
func (c DataConfig) AttributeTypes() ([]data.AttributeType, error) {
	return data.ParseAttributeTypes(c.Types)
}

// ExtendConfig holds the hill-climbing thresholds
type ExtendConfig struct {
	Strategy                  string  `mapstructure:"strategy" yaml:"strategy" validate:"oneof=vs-last vs-seed min-confidence"`
	MinImprovement            float64 `mapstructure:"min_improvement" yaml:"min_improvement" validate:"gte=-1,lte=1"`
	MinConditionalImprovement float64 `mapstructure:"min_conditional_improvement" yaml:"min_conditional_improvement" validate:"gte=-1,lte=1"`
	MinConfidence             float64 `mapstructure:"min_confidence" yaml:"min_confidence" validate:"gte=0,lte=1"`
	NumericOnly               bool    `mapstructure:"numeric_only" yaml:"numeric_only"`
}

// DefaultExtendConfig mirrors extend.DefaultConfig
func DefaultExtendConfig() ExtendConfig {
	d := extend.DefaultConfig()
	return ExtendConfig{
		Strategy:                  d.Strategy.String(),
		MinImprovement:            d.MinImprovement,
		MinConditionalImprovement: d.MinConditionalImprovement,
		MinConfidence:             d.MinConfidence,
		NumericOnly:               d.NumericOnly,
	}
}

// Build converts the section into extension options
func (c ExtendConfig) Build() (extend.Config, error) {
	strategy, err := extend.ParseStrategy(c.Strategy)
	if err != nil {
		return extend.Config{}, err
	}
	return extend.Config{
		Strategy:                  strategy,
		MinImprovement:            c.MinImprovement,
		MinConditionalImprovement: c.MinConditionalImprovement,
		MinConfidence:             c.MinConfidence,
		NumericOnly:               c.NumericOnly,
	}, nil
}

// PipelineConfig switches the stages of a run
type PipelineConfig struct {
	Extension         bool   `mapstructure:"extension" yaml:"extension"`
	AttributeRemoval  bool   `mapstructure:"attribute_removal" yaml:"attribute_removal"`
	Trimming          bool   `mapstructure:"trimming" yaml:"trimming"`
	Fuzzification     bool   `mapstructure:"fuzzification" yaml:"fuzzification"`
	ContinuousPruning bool   `mapstructure:"continuous_pruning" yaml:"continuous_pruning"`
	Annotate          bool   `mapstructure:"annotate" yaml:"annotate"`
	PostPruning       string `mapstructure:"post_pruning" yaml:"post_pruning" validate:"oneof=none global greedy data-coverage"`
	Redundancy        string `mapstructure:"redundancy_removal" yaml:"redundancy_removal" validate:"oneof=none transaction range"`
	RuleOrder         string `mapstructure:"rule_order" yaml:"rule_order" validate:"oneof=cba preserve"`
}

// DefaultPipelineConfig enables extension, continuous and global pruning
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Extension:         true,
		ContinuousPruning: true,
		PostPruning:       "global",
		Redundancy:        "none",
		RuleOrder:         "cba",
	}
}

// Build converts the pipeline and extension sections into engine options
func (c PipelineConfig) Build(ext ExtendConfig) (core.Options, error) {
	extCfg, err := ext.Build()
	if err != nil {
		return core.Options{}, err
	}
	post, err := prune.ParseStrategy(c.PostPruning)
	if err != nil {
		return core.Options{}, err
	}
	redundancy, err := prune.ParseRedundancyMode(c.Redundancy)
	if err != nil {
		return core.Options{}, err
	}
	order, err := rule.ComparatorByName(c.RuleOrder)
	if err != nil {
		return core.Options{}, err
	}
	return core.Options{
		Extend:            extCfg,
		Extension:         c.Extension,
		AttributeRemoval:  c.AttributeRemoval,
		Trimming:          c.Trimming,
		Fuzzification:     c.Fuzzification,
		ContinuousPruning: c.ContinuousPruning,
		Annotate:          c.Annotate,
		PostPruning:       post,
		Redundancy:        redundancy,
		Order:             order,
	}, nil
}

// ClassifyConfig holds classification options
type ClassifyConfig struct {
	Mode   string `mapstructure:"mode" yaml:"mode" validate:"oneof=first-match mixture"`
	TopN   int    `mapstructure:"top_n" yaml:"top_n" validate:"gte=1"`
	Report string `mapstructure:"report" yaml:"report"`
}

// DefaultClassifyConfig returns first-match with a single prediction
func DefaultClassifyConfig() ClassifyConfig {
	return ClassifyConfig{Mode: "first-match", TopN: 1}
}

// Build converts the section into classifier options
func (c ClassifyConfig) Build() (classify.Config, error) {
	mode, err := classify.ParseMode(c.Mode)
	if err != nil {
		return classify.Config{}, err
	}
	return classify.Config{Mode: mode, TopN: c.TopN}, nil
}

// MinerConfig describes the external frequent-itemset miner
type MinerConfig struct {
	Command        string        `mapstructure:"command" yaml:"command"`
	Args           []string      `mapstructure:"args" yaml:"args"`
	Output         string        `mapstructure:"output" yaml:"output"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gte=0"`
	MinSupport     float64       `mapstructure:"min_support" yaml:"min_support" validate:"gte=0,lte=1"`
	MinConfidence  float64       `mapstructure:"min_confidence" yaml:"min_confidence" validate:"gte=0,lte=1"`
	MinTargetCount int           `mapstructure:"min_target_count" yaml:"min_target_count" validate:"gte=0"`
	MaxLength      int           `mapstructure:"max_length" yaml:"max_length" validate:"gte=0"`
}

// DefaultMinerConfig returns the thresholds used by the bundled R script
func DefaultMinerConfig() MinerConfig {
	return MinerConfig{
		Command:       "Rscript",
		Args:          []string{"discretize_and_mine.R"},
		Output:        "seeds.csv",
		Timeout:       10 * time.Minute,
		MinSupport:    0.01,
		MinConfidence: 0.5,
		MaxLength:     5,
	}
}

// OutputConfig names the files a run writes. Empty paths are skipped.
type OutputConfig struct {
	Rules       string `mapstructure:"rules" yaml:"rules"`
	RulesCSV    string `mapstructure:"rules_csv" yaml:"rules_csv"`
	Predictions string `mapstructure:"predictions" yaml:"predictions"`
	MetricsDir  string `mapstructure:"metrics_dir" yaml:"metrics_dir"`
	Textfile    string `mapstructure:"textfile" yaml:"textfile"`
}

// DefaultOutputConfig writes rules, predictions and run summaries into the working directory
func DefaultOutputConfig() OutputConfig {
	return OutputConfig{Rules: "rules.yaml", Predictions: "predictions.csv", MetricsDir: "metrics"}
}

// Config is the complete configuration of a run
type Config struct {
	Data     DataConfig     `mapstructure:"data" yaml:"data"`
	Extend   ExtendConfig   `mapstructure:"extend" yaml:"extend"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	Classify ClassifyConfig `mapstructure:"classify" yaml:"classify"`
	Miner    MinerConfig    `mapstructure:"miner" yaml:"miner"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Data:     DefaultDataConfig(),
		Extend:   DefaultExtendConfig(),
		Pipeline: DefaultPipelineConfig(),
		Classify: DefaultClassifyConfig(),
		Miner:    DefaultMinerConfig(),
		Output:   DefaultOutputConfig(),
	}
}

var validate = validator.New()

// Validate checks every section against its tags
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// SetDefaults registers the defaults with viper so that environment variables
// and config files can override every key
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("data.train", d.Data.Train)
	v.SetDefault("data.test", d.Data.Test)
	v.SetDefault("data.seeds", d.Data.Seeds)
	v.SetDefault("data.rules", d.Data.Rules)
	v.SetDefault("data.target", d.Data.Target)
	v.SetDefault("data.id_column", d.Data.IDColumn)
	v.SetDefault("data.types", d.Data.Types)
	v.SetDefault("data.separator", d.Data.Separator)
	v.SetDefault("data.skip_malformed", d.Data.SkipMalformed)
	v.SetDefault("extend.strategy", d.Extend.Strategy)
	v.SetDefault("extend.min_improvement", d.Extend.MinImprovement)
	v.SetDefault("extend.min_conditional_improvement", d.Extend.MinConditionalImprovement)
	v.SetDefault("extend.min_confidence", d.Extend.MinConfidence)
	v.SetDefault("extend.numeric_only", d.Extend.NumericOnly)
	v.SetDefault("pipeline.extension", d.Pipeline.Extension)
	v.SetDefault("pipeline.attribute_removal", d.Pipeline.AttributeRemoval)
	v.SetDefault("pipeline.trimming", d.Pipeline.Trimming)
	v.SetDefault("pipeline.fuzzification", d.Pipeline.Fuzzification)
	v.SetDefault("pipeline.continuous_pruning", d.Pipeline.ContinuousPruning)
	v.SetDefault("pipeline.annotate", d.Pipeline.Annotate)
	v.SetDefault("pipeline.post_pruning", d.Pipeline.PostPruning)
	v.SetDefault("pipeline.redundancy_removal", d.Pipeline.Redundancy)
	v.SetDefault("pipeline.rule_order", d.Pipeline.RuleOrder)
	v.SetDefault("classify.mode", d.Classify.Mode)
	v.SetDefault("classify.top_n", d.Classify.TopN)
	v.SetDefault("classify.report", d.Classify.Report)
	v.SetDefault("miner.command", d.Miner.Command)
	v.SetDefault("miner.args", d.Miner.Args)
	v.SetDefault("miner.output", d.Miner.Output)
	v.SetDefault("miner.min_target_count", d.Miner.MinTargetCount)
	v.SetDefault("miner.timeout", d.Miner.Timeout)
	v.SetDefault("miner.min_support", d.Miner.MinSupport)
	v.SetDefault("miner.min_confidence", d.Miner.MinConfidence)
	v.SetDefault("miner.max_length", d.Miner.MaxLength)
	v.SetDefault("output.rules", d.Output.Rules)
	v.SetDefault("output.rules_csv", d.Output.RulesCSV)
	v.SetDefault("output.predictions", d.Output.Predictions)
	v.SetDefault("output.metrics_dir", d.Output.MetricsDir)
	v.SetDefault("output.textfile", d.Output.Textfile)
}

// Load reads the optional config file, applies MARC_ environment overrides
// and returns the validated configuration
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
