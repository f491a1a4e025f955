/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: inspect.go
Description: Inspect command implementation. Prints the attributes of a data file and
optionally a rule list bound onto it.
*/

package commands

import (
	"fmt"

	"github.com/kleascm/marc-classifier/pkg/reporting"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// InspectFlagKeys maps the inspect flags to configuration keys
func InspectFlagKeys() map[string]string {
	return withDataKeys(map[string]string{
		"train":    "data.train",
		"rules":    "data.rules",
		"markdown": "inspect.markdown",
	})
}

// RunInspect executes the inspect command
func RunInspect(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	logger, err := SetupLogging()
	if err != nil {
		return err
	}
	defer logger.Close()

	mode := reporting.ASCII
	if viper.GetBool("inspect.markdown") {
		mode = reporting.Markdown
	}

	table, _, err := loadTable(cfg, cfg.Data.Train, true, logger)
	if err != nil {
		return err
	}
	fmt.Println(reporting.AttributeTable(table, mode))

	if cfg.Data.Rules == "" {
		return nil
	}
	rules, doc, err := loadRules(cfg.Data.Rules, table)
	if err != nil {
		return err
	}
	if doc.RunID != "" {
		fmt.Printf("Rules from run %s\n", doc.RunID)
	}
	fmt.Println(reporting.RulesTable(reporting.RuleRows(rules), mode))
	return nil
}
