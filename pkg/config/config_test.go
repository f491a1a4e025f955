/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: config_test.go
Description: Tests for configuration defaults, validation, option building and
loading through viper.
*/

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kleascm/marc-classifier/pkg/classify"
	"github.com/kleascm/marc-classifier/pkg/data"
	"github.com/kleascm/marc-classifier/pkg/extend"
	"github.com/kleascm/marc-classifier/pkg/prune"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Data.Target = "class"
	return cfg
}

// TestDefaultValidation tests that defaults need only a target
func TestDefaultValidation(t *testing.T) {
	err := Default().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Config.Data.Target")

	assert.NoError(t, validConfig().Validate())
}

// TestValidationErrors tests rejected section values
func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"id equals target", func(c *Config) { c.Data.IDColumn = "class" }, "IDColumn"},
		{"unknown type", func(c *Config) { c.Data.Types = []string{"numeric", "date"} }, "Types[1]"},
		{"long separator", func(c *Config) { c.Data.Separator = ";;" }, "Separator"},
		{"strategy", func(c *Config) { c.Extend.Strategy = "best" }, "Strategy"},
		{"confidence", func(c *Config) { c.Extend.MinConfidence = 1.5 }, "MinConfidence"},
		{"post pruning", func(c *Config) { c.Pipeline.PostPruning = "all" }, "PostPruning"},
		{"redundancy", func(c *Config) { c.Pipeline.Redundancy = "rules" }, "Redundancy"},
		{"order", func(c *Config) { c.Pipeline.RuleOrder = "random" }, "RuleOrder"},
		{"mode", func(c *Config) { c.Classify.Mode = "vote" }, "Mode"},
		{"top n", func(c *Config) { c.Classify.TopN = 0 }, "TopN"},
		{"miner support", func(c *Config) { c.Miner.MinSupport = 2 }, "MinSupport"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

// TestBuild tests conversion into engine and classifier options
func TestBuild(t *testing.T) {
	cfg := validConfig()
	cfg.Extend.Strategy = "min-confidence"
	cfg.Extend.MinConfidence = 0.7
	cfg.Pipeline.PostPruning = "data-coverage"
	cfg.Pipeline.Redundancy = "range"
	cfg.Pipeline.Annotate = true

	opts, err := cfg.Pipeline.Build(cfg.Extend)
	require.NoError(t, err)
	assert.Equal(t, extend.MinConfidence, opts.Extend.Strategy)
	assert.Equal(t, 0.7, opts.Extend.MinConfidence)
	assert.Equal(t, prune.DataCoverage, opts.PostPruning)
	assert.Equal(t, prune.RedundancyRange, opts.Redundancy)
	assert.True(t, opts.Extension)
	assert.True(t, opts.ContinuousPruning)
	assert.True(t, opts.Annotate)
	assert.NotNil(t, opts.Order)

	cfg.Classify.Mode = "mixture"
	cfg.Classify.TopN = 3
	cc, err := cfg.Classify.Build()
	require.NoError(t, err)
	assert.Equal(t, classify.Config{Mode: classify.Mixture, TopN: 3}, cc)

	cfg.Extend.Strategy = "best"
	_, err = cfg.Pipeline.Build(cfg.Extend)
	assert.Error(t, err)
}

// TestDefaultExtendConfig tests that the section defaults match the extender
func TestDefaultExtendConfig(t *testing.T) {
	built, err := DefaultExtendConfig().Build()
	require.NoError(t, err)
	assert.Equal(t, extend.DefaultConfig(), built)
}

// TestAttributeTypes tests type name parsing
func TestAttributeTypes(t *testing.T) {
	types, err := DataConfig{Types: []string{"numeric", "nominal"}}.AttributeTypes()
	require.NoError(t, err)
	assert.Equal(t, []data.AttributeType{data.Numeric, data.Nominal}, types)
}

// TestLoad tests file values and environment overrides
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "marc.yaml")
	content := `data:
  train: train.csv
  target: class
  types: [numeric, nominal, nominal]
pipeline:
  post_pruning: greedy
  trimming: true
miner:
  timeout: 30s
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))
	t.Setenv("MARC_CLASSIFY_TOP_N", "2")
	t.Setenv("MARC_EXTEND_MIN_CONFIDENCE", "0.75")

	cfg, err := Load(viper.New(), file)
	require.NoError(t, err)
	assert.Equal(t, "train.csv", cfg.Data.Train)
	assert.Equal(t, "class", cfg.Data.Target)
	assert.Equal(t, []string{"numeric", "nominal", "nominal"}, cfg.Data.Types)
	assert.Equal(t, ",", cfg.Data.Separator)
	assert.Equal(t, "greedy", cfg.Pipeline.PostPruning)
	assert.True(t, cfg.Pipeline.Trimming)
	assert.True(t, cfg.Pipeline.Extension)
	assert.Equal(t, 30*time.Second, cfg.Miner.Timeout)
	assert.Equal(t, "Rscript", cfg.Miner.Command)
	assert.Equal(t, 2, cfg.Classify.TopN)
	assert.Equal(t, 0.75, cfg.Extend.MinConfidence)
}

// TestLoadErrors tests a missing file and an invalid result
func TestLoadErrors(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(viper.New(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
