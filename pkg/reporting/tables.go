/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: tables.go
Description: Terminal tables for run summaries, rule lists and loaded tables,
rendered with go-pretty as box-drawn text or Markdown.
*/

package reporting

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/kleascm/marc-classifier/pkg/classify"
	"github.com/kleascm/marc-classifier/pkg/data"
	"github.com/kleascm/marc-classifier/pkg/monitoring"
)

// Mode selects the table rendering
type Mode int

const (
	ASCII Mode = iota
	Markdown
)

// antecedentWidth wraps long antecedents in terminal output
const antecedentWidth = 60

func newWriter(m Mode) table.Writer {
	w := table.NewWriter()
	if m == ASCII {
		w.SetStyle(table.StyleLight)
	}
	return w
}

func render(w table.Writer, m Mode) string {
	if m == Markdown {
		return w.RenderMarkdown()
	}
	return w.Render()
}

// SummaryTable renders the classification counters and phase timings
func SummaryTable(runID string, summary classify.Summary, timings []monitoring.PhaseTiming, m Mode) string {
	w := newWriter(m)
	w.SetTitle("Run %s", runID)
	w.AppendHeader(table.Row{"Metric", "Value"})
	w.AppendRows([]table.Row{
		{"Rules", summary.Rules},
		{"Test instances", summary.TestInstances},
		{"True positives", summary.TruePositives},
		{"False positives", summary.FalsePositives},
		{"Uncovered", summary.Uncovered},
		{"Accuracy", fmt.Sprintf("%.4f", summary.Accuracy())},
		{"Accuracy (classified)", fmt.Sprintf("%.4f", summary.AccuracyClassified())},
	})
	if summary.Mixture+summary.OneRule+summary.Fallback > 0 {
		w.AppendSeparator()
		w.AppendRows([]table.Row{
			{"Mixture", summary.Mixture},
			{"One rule", summary.OneRule},
			{"Fallback", summary.Fallback},
		})
	}
	if len(timings) > 0 {
		w.AppendSeparator()
		for _, t := range timings {
			w.AppendRow(table.Row{"Phase " + string(t.Phase), t.Duration.Round(time.Microsecond).String()})
		}
	}
	w.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	return render(w, m)
}

// RulesTable renders a rule list in list order
func RulesTable(rows []RuleRow, m Mode) string {
	w := newWriter(m)
	w.AppendHeader(table.Row{"#", "RID", "ERID", "Antecedent", "Class", "Support", "Errors", "Confidence"})
	for _, r := range rows {
		ant := r.Antecedent
		if r.Default {
			ant = "(default)"
		}
		w.AppendRow(table.Row{r.Position, r.ID, r.GenID, ant, r.Class, r.Support, r.Errors, fmt.Sprintf("%.4f", r.Confidence)})
	}
	w.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d rules", len(rows))})
	configs := []table.ColumnConfig{
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	}
	if m == ASCII {
		configs = append(configs, table.ColumnConfig{Number: 4, WidthMax: antecedentWidth})
	}
	w.SetColumnConfigs(configs)
	return render(w, m)
}

// AttributeTable renders the attributes of a loaded table with their value counts
func AttributeTable(t *data.Table, m Mode) string {
	w := newWriter(m)
	w.SetTitle("%d transactions", t.LoadedCount())
	w.AppendHeader(table.Row{"Attribute", "Role", "Type", "Values", "Breakpoints", "With support"})
	for _, attr := range t.Attributes() {
		w.AppendRow(table.Row{
			attr.Name(),
			attr.Role().String(),
			attr.Type().String(),
			len(attr.Values()),
			len(attr.Breakpoints()),
			attr.ValuesWithSupport(),
		})
	}
	w.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	return render(w, m)
}
