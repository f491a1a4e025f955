/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: result.go
Description: Classification results, top-N predictions and the run summary.
*/

package classify

import (
	"sort"

	"github.com/kleascm/marc-classifier/pkg/rule"
)

// Method records how a transaction was classified
type Method string

const (
	MethodFirstMatch Method = "first-match"
	MethodOneRule    Method = "one-rule"
	MethodMixture    Method = "mixture"
	MethodFallback   Method = "fallback"
	MethodUncovered  Method = "uncovered"
)

// Prediction is one class with its trust score
type Prediction struct {
	Class string  `json:"class"`
	Trust float64 `json:"trust"`
}

// Result is the classification of one transaction
type Result struct {
	TID         int          `json:"tid"`
	ExternalID  string       `json:"external_id,omitempty"`
	Actual      string       `json:"actual,omitempty"`
	Predictions []Prediction `json:"predictions,omitempty"`
	Rule        *rule.Rule   `json:"-"`
	Candidates  int          `json:"candidates"`
	Method      Method       `json:"method"`
}

// Classified reports whether a class was predicted
func (r Result) Classified() bool { return len(r.Predictions) > 0 }

// Predicted returns the best class, or ""
func (r Result) Predicted() string {
	if len(r.Predictions) == 0 {
		return ""
	}
	return r.Predictions[0].Class
}

// Correct reports whether the best class equals the known class
func (r Result) Correct() bool {
	return r.Classified() && r.Actual != "" && r.Predicted() == r.Actual
}

// TopN returns up to n classes ordered by probability, ties by class order
func TopN(classes []string, dist []float64, n int) []Prediction {
	idx := make([]int, len(dist))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return dist[idx[a]] > dist[idx[b]] })
	if n > len(idx) {
		n = len(idx)
	}
	out := make([]Prediction, 0, n)
	for _, i := range idx[:n] {
		out = append(out, Prediction{Class: classes[i], Trust: dist[i]})
	}
	return out
}

// Summary aggregates the results of a run
type Summary struct {
	Rules          int `json:"rules"`
	TestInstances  int `json:"test_instances"`
	TruePositives  int `json:"true_positives"`
	FalsePositives int `json:"false_positives"`
	Uncovered      int `json:"uncovered"`
	FirstMatch     int `json:"first_match"`
	OneRule        int `json:"one_rule"`
	Mixture        int `json:"mixture"`
	Fallback       int `json:"fallback"`
}

// Summarize counts results
func Summarize(rules int, results []Result) Summary {
	s := Summary{Rules: rules, TestInstances: len(results)}
	for _, r := range results {
		switch r.Method {
		case MethodFirstMatch:
			s.FirstMatch++
		case MethodOneRule:
			s.OneRule++
		case MethodMixture:
			s.Mixture++
		case MethodFallback:
			s.Fallback++
		}
		switch {
		case !r.Classified():
			s.Uncovered++
		case r.Correct():
			s.TruePositives++
		default:
			s.FalsePositives++
		}
	}
	return s
}

// Accuracy is the share of all test instances classified correctly
func (s Summary) Accuracy() float64 {
	if s.TestInstances == 0 {
		return 0
	}
	return float64(s.TruePositives) / float64(s.TestInstances)
}

// AccuracyClassified ignores unclassified instances
func (s Summary) AccuracyClassified() float64 {
	classified := s.TruePositives + s.FalsePositives
	if classified == 0 {
		return 0
	}
	return float64(s.TruePositives) / float64(classified)
}
