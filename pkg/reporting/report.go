/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: report.go
Description: HTML report of a classification run. Shows summary tiles with accuracy
and method counters, the phase timings, the final rule list and the first rows of
the predictions. The page is self-contained and needs no external assets.
*/

package reporting

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/kleascm/marc-classifier/pkg/classify"
	"github.com/kleascm/marc-classifier/pkg/monitoring"
	"github.com/kleascm/marc-classifier/pkg/rule"
	"github.com/sirupsen/logrus"
)

// DefaultPredictionRows is the number of predictions shown when nothing is configured
const DefaultPredictionRows = 50

// ReportGenerator renders classification reports
type ReportGenerator struct {
	outputDir string
	logger    *logrus.Logger
	templates *template.Template
}

// ReportData contains everything shown on the page
type ReportData struct {
	Title            string                   `json:"title"`
	GeneratedAt      time.Time                `json:"generated_at"`
	RunID            string                   `json:"run_id"`
	Summary          classify.Summary         `json:"summary"`
	Accuracy         float64                  `json:"accuracy"`
	AccuracyCovered  float64                  `json:"accuracy_classified"`
	Timings          []monitoring.PhaseTiming `json:"timings"`
	Rules            []RuleRow                `json:"rules"`
	Predictions      []PredictionRow          `json:"predictions"`
	TotalPredictions int                      `json:"total_predictions"`
}

// RuleRow is one line of the rule table
type RuleRow struct {
	Position   int     `json:"position"`
	ID         int     `json:"id"`
	GenID      int     `json:"erid"`
	Antecedent string  `json:"antecedent"`
	Class      string  `json:"class"`
	Support    int     `json:"support"`
	Errors     int     `json:"errors"`
	Confidence float64 `json:"confidence"`
	Default    bool    `json:"default"`
	Annotated  bool    `json:"annotated"`
}

// PredictionRow is one line of the prediction table
type PredictionRow struct {
	TID        int     `json:"tid"`
	ExternalID string  `json:"external_id"`
	Actual     string  `json:"actual"`
	Predicted  string  `json:"predicted"`
	Trust      float64 `json:"trust"`
	RuleID     int     `json:"rule_id"`
	Method     string  `json:"method"`
	Correct    bool    `json:"correct"`
	Classified bool    `json:"classified"`
}

// NewReportData collects the report contents. At most maxRows predictions are
// kept; a non-positive maxRows uses DefaultPredictionRows.
func NewReportData(runID string, rules []*rule.Rule, results []classify.Result, summary classify.Summary, timings []monitoring.PhaseTiming, maxRows int) *ReportData {
	if maxRows <= 0 {
		maxRows = DefaultPredictionRows
	}
	data := &ReportData{
		Title:            "MARC classification report",
		GeneratedAt:      time.Now(),
		RunID:            runID,
		Summary:          summary,
		Accuracy:         summary.Accuracy(),
		AccuracyCovered:  summary.AccuracyClassified(),
		Timings:          timings,
		Rules:            RuleRows(rules),
		TotalPredictions: len(results),
	}

	for i, res := range results {
		if i >= maxRows {
			break
		}
		row := PredictionRow{
			TID:        res.TID,
			ExternalID: res.ExternalID,
			Actual:     res.Actual,
			Method:     string(res.Method),
			Classified: res.Classified(),
			Correct:    res.Correct(),
		}
		if row.Classified {
			row.Predicted = res.Predicted()
			row.Trust = res.Predictions[0].Trust
		}
		if res.Rule != nil {
			row.RuleID = res.Rule.ID()
		}
		data.Predictions = append(data.Predictions, row)
	}
	return data
}

// RuleRows converts a rule list into table rows in list order
func RuleRows(rules []*rule.Rule) []RuleRow {
	rows := make([]RuleRow, 0, len(rules))
	for i, r := range rules {
		q := r.Quality()
		rows = append(rows, RuleRow{
			Position:   i + 1,
			ID:         r.ID(),
			GenID:      r.GenID(),
			Antecedent: r.Antecedent().String(),
			Class:      r.Consequent().Class(),
			Support:    q.Support(),
			Errors:     q.Errors(),
			Confidence: q.Confidence(),
			Default:    r.IsDefault(),
			Annotated:  r.Annotation() != nil,
		})
	}
	return rows
}

// NewReportGenerator creates a generator writing into outputDir
func NewReportGenerator(outputDir string, logger *logrus.Logger) *ReportGenerator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	funcs := template.FuncMap{
		"percent": func(x float64) string { return fmt.Sprintf("%.2f%%", x*100) },
		"fixed":   func(x float64) string { return fmt.Sprintf("%.4f", x) },
		"duration": func(d time.Duration) string {
			return d.Round(time.Millisecond).String()
		},
	}
	return &ReportGenerator{
		outputDir: outputDir,
		logger:    logger,
		templates: template.Must(template.New("report").Funcs(funcs).Parse(reportTemplate)),
	}
}

// Render writes the report page
func (rg *ReportGenerator) Render(w io.Writer, data *ReportData) error {
	if err := rg.templates.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

// Generate writes index.html into the output directory and returns its path
func (rg *ReportGenerator) Generate(data *ReportData) (string, error) {
	if err := os.MkdirAll(rg.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	outputFile := filepath.Join(rg.outputDir, "index.html")
	file, err := os.Create(outputFile)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	if err := rg.Render(file, data); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close report: %w", err)
	}

	rg.logger.WithFields(logrus.Fields{
		"run_id": data.RunID,
		"path":   outputFile,
	}).Info("Classification report generated")
	return outputFile, nil
}
