/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: metrics_writer.go
Description: Writer for run summaries. Each command run leaves a timestamped JSON
file under <dir>/<command>/ holding the run id, the engine statistics, the
classification counters and the phase timings.
*/

package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kleascm/marc-classifier/pkg/classify"
	"github.com/kleascm/marc-classifier/pkg/core"
	"github.com/kleascm/marc-classifier/pkg/monitoring"
)

// RunSummary is the JSON document written after a command finishes
type RunSummary struct {
	RunID       string                   `json:"run_id"`
	Command     string                   `json:"command"`
	GeneratedAt time.Time                `json:"generated_at"`
	Inputs      map[string]string        `json:"inputs,omitempty"`
	Engine      *core.RunStats           `json:"engine,omitempty"`
	Summary     *classify.Summary        `json:"classification,omitempty"`
	Accuracy    *Accuracy                `json:"accuracy,omitempty"`
	Timings     []monitoring.PhaseTiming `json:"timings,omitempty"`
}

// Accuracy holds both accuracy figures of a classification run
type Accuracy struct {
	All        float64 `json:"all"`
	Classified float64 `json:"classified"`
}

// NewRunSummary starts a summary for a command
func NewRunSummary(runID, command string) *RunSummary {
	return &RunSummary{RunID: runID, Command: command, GeneratedAt: time.Now(), Inputs: map[string]string{}}
}

// SetClassification records the classification counters and accuracies
func (s *RunSummary) SetClassification(summary classify.Summary) {
	s.Summary = &summary
	s.Accuracy = &Accuracy{All: summary.Accuracy(), Classified: summary.AccuracyClassified()}
}

// WriteMetricsResult writes a result to <dir>/<command>/ with a timestamped name
func WriteMetricsResult(dir, command, runID string, result interface{}) (string, error) {
	metricsDir := filepath.Join(dir, command)
	if err := os.MkdirAll(metricsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create metrics directory: %w", err)
	}

	// 2024-06-11_01-30-00_classify_<run>.json
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("%s_%s_%s.json", timestamp, command, shortID(runID))
	filePath := filepath.Join(metricsDir, filename)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write metrics file: %w", err)
	}
	return filePath, nil
}

// WriteRunSummary writes a summary under its own command name
func WriteRunSummary(dir string, s *RunSummary) (string, error) {
	return WriteMetricsResult(dir, s.Command, s.RunID, s)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "run"
	}
	return id
}
