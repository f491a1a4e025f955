/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils_test.go
Description: Tests for the shared command helpers.
*/

package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kleascm/marc-classifier/pkg/config"
	"github.com/kleascm/marc-classifier/pkg/rule"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFlagKeys tests that every command map carries the data flags
func TestFlagKeys(t *testing.T) {
	for name, keys := range map[string]map[string]string{
		"extend":   ExtendFlagKeys(),
		"prune":    PruneFlagKeys(),
		"classify": ClassifyFlagKeys(),
		"mine":     MineFlagKeys(),
		"inspect":  InspectFlagKeys(),
	} {
		assert.Equal(t, "data.target", keys["target"], name)
		assert.Equal(t, "data.separator", keys["separator"], name)
	}
	assert.Equal(t, "miner.output", MineFlagKeys()["output"])
	assert.Equal(t, "output.rules", ExtendFlagKeys()["output"])
}

// TestBindFlags tests binding and unknown flags
func TestBindFlags(t *testing.T) {
	defer viper.Reset()
	cmd := &cobra.Command{Use: "test"}
	AddDataFlags(cmd)
	require.NoError(t, cmd.Flags().Set("target", "class"))

	require.NoError(t, BindFlags(cmd, dataFlagKeys))
	assert.Equal(t, "class", viper.GetString("data.target"))
	assert.Equal(t, ",", viper.GetString("data.separator"))

	assert.Error(t, BindFlags(cmd, map[string]string{"missing": "data.missing"}))
}

// TestLoadAndWriteRules tests the table and rule file helpers together
func TestLoadAndWriteRules(t *testing.T) {
	dir := t.TempDir()
	train := filepath.Join(dir, "train.csv")
	require.NoError(t, os.WriteFile(train, []byte("age,class\n10,no\n20,yes\n30,yes\n40,no\n"), 0644))

	cfg := config.Default()
	cfg.Data.Target = "class"
	cfg.Data.Types = []string{"numeric", "nominal"}
	cfg.Output.Rules = filepath.Join(dir, "rules.yaml")
	cfg.Output.RulesCSV = filepath.Join(dir, "rules.csv")

	logger, err := SetupLogging()
	require.NoError(t, err)
	defer logger.Close()

	table, _, err := loadTable(cfg, train, true, logger)
	require.NoError(t, err)
	assert.Equal(t, 4, table.LoadedCount())

	age, err := table.Attribute("age")
	require.NoError(t, err)
	yes, ok := table.Target().Lookup("yes")
	require.True(t, ok)
	ant, err := rule.NewAntecedent(rule.NewIntervalLiteral(age, 20, true, 30, true, rule.OriginCore))
	require.NoError(t, err)
	cons := rule.ConsequentFor(table.Target(), yes)
	rules := []*rule.Rule{rule.New(1, 1, ant, cons, rule.ComputeQuality(table, ant, cons))}

	log, _ := logtest.NewNullLogger()
	require.NoError(t, writeRules(cfg, "run-1", table, rules, log))
	assert.FileExists(t, cfg.Output.RulesCSV)

	loaded, doc, err := loadRules(cfg.Output.Rules, table)
	require.NoError(t, err)
	assert.Equal(t, "run-1", doc.RunID)
	require.Len(t, loaded, 1)
	assert.Equal(t, 2, loaded[0].Support())

	_, _, err = loadTable(cfg, "", true, logger)
	assert.Error(t, err)
}
