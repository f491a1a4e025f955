/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: config.go
Description: Acceptance strategies and thresholds of the hill-climbing search.
*/

package extend

import (
	"fmt"

	"github.com/kleascm/marc-classifier/pkg/rule"
)

// Strategy selects what a candidate's confidence is compared against
type Strategy int

const (
	// VsLast compares with the currently accepted rule
	VsLast Strategy = iota
	// VsSeed compares with the seed rule
	VsSeed
	// MinConfidence requires an absolute confidence
	MinConfidence
)

// String returns the configuration name of the strategy
func (s Strategy) String() string {
	switch s {
	case VsSeed:
		return "vs-seed"
	case MinConfidence:
		return "min-confidence"
	default:
		return "vs-last"
	}
}

// ParseStrategy converts a configuration name into a Strategy
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "", "vs-last":
		return VsLast, nil
	case "vs-seed":
		return VsSeed, nil
	case "min-confidence":
		return MinConfidence, nil
	default:
		return VsLast, fmt.Errorf("unknown extension strategy: %q", name)
	}
}

// Config holds the search thresholds
type Config struct {
	Strategy                  Strategy
	MinImprovement            float64
	MinConditionalImprovement float64
	MinConfidence             float64
	NumericOnly               bool
}

// DefaultConfig returns the thresholds used when nothing is configured
func DefaultConfig() Config {
	return Config{
		Strategy:                  VsLast,
		MinImprovement:            0,
		MinConditionalImprovement: -0.05,
		MinConfidence:             0.5,
	}
}

// Verdict is the outcome of testing a candidate
type Verdict int

const (
	Reject Verdict = iota
	Conditional
	Accept
)

// String returns a readable verdict
func (v Verdict) String() string {
	switch v {
	case Accept:
		return "accept"
	case Conditional:
		return "conditional"
	default:
		return "reject"
	}
}

// Judge tests a candidate against the seed and the currently accepted rule.
// A candidate losing support is always rejected. A candidate failing the
// strategy but within the conditional slack of the accepted rule is conditional.
func (c Config) Judge(seed, accepted, candidate rule.Quality) Verdict {
	if candidate.Support() < accepted.Support() {
		return Reject
	}
	delta := candidate.Confidence() - accepted.Confidence()

	var ok bool
	switch c.Strategy {
	case VsSeed:
		ok = candidate.Confidence()-seed.Confidence() >= c.MinImprovement
	case MinConfidence:
		ok = candidate.Confidence() >= c.MinConfidence
	default:
		ok = delta >= c.MinImprovement
	}
	if ok {
		return Accept
	}
	if delta >= c.MinConditionalImprovement {
		return Conditional
	}
	return Reject
}
