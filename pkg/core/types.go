/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: types.go
Description: Options and statistics of a rule-building run. Options switch the
per-rule stages and select the post-pruning, redundancy removal and ordering;
RunStats counts what each stage did.
*/

package core

import (
	"time"

	"github.com/kleascm/marc-classifier/pkg/extend"
	"github.com/kleascm/marc-classifier/pkg/monitoring"
	"github.com/kleascm/marc-classifier/pkg/prune"
	"github.com/kleascm/marc-classifier/pkg/rule"
)

// Options configures a run
type Options struct {
	Extend extend.Config

	Extension         bool // hill-climbing generalization of every seed
	AttributeRemoval  bool // drop literals that do not lower confidence
	Trimming          bool // shrink numeric literals to their correctly classified values
	Fuzzification     bool // add the adjacent breakpoints as fuzzy borders
	ContinuousPruning bool // hide what each processed rule covers before the next one
	Annotate          bool // attach per-value class distributions to the final list

	PostPruning prune.Strategy
	Redundancy  prune.RedundancyMode
	Order       rule.Comparator
}

// DefaultOptions enables extension, continuous and global pruning
func DefaultOptions() Options {
	return Options{
		Extend:            extend.DefaultConfig(),
		Extension:         true,
		ContinuousPruning: true,
		PostPruning:       prune.GlobalOptimum,
		Redundancy:        prune.RedundancyNone,
		Order:             rule.CBA,
	}
}

// RunStats counts the work done by each stage of a run
type RunStats struct {
	Seeds             int           `json:"seeds"`
	SkippedEmpty      int           `json:"skipped_empty"`
	Processed         int           `json:"processed"`
	Generalized       int           `json:"generalized"`
	DroppedContinuous int           `json:"dropped_continuous"`
	DroppedPostPrune  int           `json:"dropped_post_prune"`
	DroppedRedundant  int           `json:"dropped_redundant"`
	FinalRules        int           `json:"final_rules"`
	PruningError      int           `json:"pruning_error"`
	StartTime         time.Time     `json:"start_time"`
	Duration          time.Duration `json:"duration"`
}

// RunResult is the outcome of a run
type RunResult struct {
	RunID   string                   `json:"run_id"`
	Rules   []*rule.Rule             `json:"-"`
	Stats   RunStats                 `json:"stats"`
	Timings []monitoring.PhaseTiming `json:"timings"`
}
