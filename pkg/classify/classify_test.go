/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: classify_test.go
Description: Tests for annotation, first-match and mixture classification.
*/

package classify_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/kleascm/marc-classifier/pkg/classify"
	"github.com/kleascm/marc-classifier/pkg/data"
	"github.com/kleascm/marc-classifier/pkg/rule"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTable(t *testing.T) *data.Table {
	t.Helper()
	table, err := data.NewTable(data.TableConfig{
		Columns:     []string{"id", "age", "color", "class"},
		Types:       []data.AttributeType{data.Nominal, data.Numeric, data.Nominal, data.Nominal},
		Target:      "class",
		IDColumn:    "id",
		Breakpoints: true,
	})
	require.NoError(t, err)
	for _, row := range [][]string{
		{"t0", "20", "red", "a"},
		{"t1", "25", "red", "a"},
		{"t2", "30", "blue", "b"},
		{"t3", "40", "blue", "b"},
		{"t4", "30", "red", "a"},
	} {
		_, err := table.AddTransaction(row)
		require.NoError(t, err)
	}
	return table
}

func consequent(t *testing.T, table *data.Table, class string) rule.Consequent {
	t.Helper()
	v, ok := table.Target().Lookup(class)
	require.True(t, ok)
	return rule.ConsequentFor(table.Target(), v)
}

func ageRule(t *testing.T, table *data.Table, id int, lo, hi float64, class string) *rule.Rule {
	t.Helper()
	age, err := table.Attribute("age")
	require.NoError(t, err)
	ant, err := rule.NewAntecedent(rule.NewIntervalLiteral(age, lo, true, hi, true, rule.OriginCore))
	require.NoError(t, err)
	cons := consequent(t, table, class)
	return rule.New(id, id, ant, cons, rule.ComputeQuality(table, ant, cons))
}

func colorRule(t *testing.T, table *data.Table, id int, color, class string) *rule.Rule {
	t.Helper()
	attr, err := table.Attribute("color")
	require.NoError(t, err)
	v, ok := attr.Lookup(color)
	require.True(t, ok)
	ant, err := rule.NewAntecedent(rule.NewLiteral(attr, []*data.AttributeValue{v}, nil, rule.OriginCore))
	require.NoError(t, err)
	cons := consequent(t, table, class)
	return rule.New(id, id, ant, cons, rule.ComputeQuality(table, ant, cons))
}

func defaultRule(t *testing.T, table *data.Table, class string) *rule.Rule {
	t.Helper()
	cons := consequent(t, table, class)
	return rule.New(99, 99, rule.Antecedent{}, cons, rule.ComputeQuality(table, rule.Antecedent{}, cons))
}

// annotated attaches a hand-built age annotation and a fixed quality
func annotated(r *rule.Rule, q rule.Quality, values ...rule.ValueAnnotation) *rule.Rule {
	ann := rule.NewAnnotation([]string{"a", "b"})
	ann.Add(&rule.LiteralAnnotation{Attribute: "age", Numeric: true, Values: values})
	return r.WithQuality(q).WithAnnotation(ann)
}

func value(x float64, raw string, origin rule.Origin, dist ...float64) rule.ValueAnnotation {
	return rule.ValueAnnotation{Raw: raw, Numeric: x, Origin: origin, Distribution: dist}
}

// TestAnnotate tests per-value class distributions
func TestAnnotate(t *testing.T) {
	table := newTable(t)
	rules := []*rule.Rule{ageRule(t, table, 1, 20, 30, "a"), defaultRule(t, table, "a")}

	got, err := classify.Annotate(context.Background(), table, rules, quietLogger())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Nil(t, rules[0].Annotation(), "annotation must not modify the input rule")
	assert.Nil(t, got[1].Annotation())

	ann := got[0].Annotation()
	require.NotNil(t, ann)
	assert.Equal(t, []string{"a", "b"}, ann.Classes)

	la, ok := ann.Literal("age")
	require.True(t, ok)
	require.Len(t, la.Values, 3)
	assert.Equal(t, []float64{1, 0}, la.Values[0].Distribution)
	assert.Equal(t, []float64{1, 0}, la.Values[1].Distribution)
	assert.Equal(t, []float64{0.5, 0.5}, la.Values[2].Distribution)
	assert.Equal(t, rule.Quality{A: 1, B: 1, C: 2, D: 1}, la.Values[2].Qualities[0])
}

// TestAnnotateCancelled tests that a cancelled context stops annotation
func TestAnnotateCancelled(t *testing.T) {
	table := newTable(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := classify.Annotate(ctx, table, []*rule.Rule{ageRule(t, table, 1, 20, 30, "a")}, quietLogger())
	assert.True(t, errors.Is(err, context.Canceled))
}

// TestFirstMatch tests rank-order claiming of transactions
func TestFirstMatch(t *testing.T) {
	table := newTable(t)
	red := colorRule(t, table, 1, "red", "a")
	old := ageRule(t, table, 2, 30, 40, "b")

	c, err := classify.NewClassifier([]*rule.Rule{red, old, defaultRule(t, table, "a")}, classify.Config{}, quietLogger())
	require.NoError(t, err)
	results, summary := c.Classify(table)

	require.Len(t, results, 5)
	wantRule := []int{1, 1, 2, 2, 1}
	for i, res := range results {
		assert.Equal(t, i, res.TID)
		assert.Equal(t, wantRule[i], res.Rule.ID(), "tid %d", i)
		assert.True(t, res.Correct())
	}
	assert.Equal(t, "t4", results[4].ExternalID)
	assert.Equal(t, 5, summary.TruePositives)
	assert.Equal(t, 5, summary.FirstMatch)
	assert.Equal(t, 1.0, summary.Accuracy())

	assert.Equal(t, 5, table.LiveCount())
	assert.Equal(t, 0, table.HiddenCount())
}

// TestFirstMatchDefault tests claiming by the default rule
func TestFirstMatchDefault(t *testing.T) {
	table := newTable(t)
	c, err := classify.NewClassifier([]*rule.Rule{ageRule(t, table, 2, 30, 40, "b"), defaultRule(t, table, "b")}, classify.Config{}, quietLogger())
	require.NoError(t, err)

	results, summary := c.Classify(table)
	assert.True(t, results[0].Rule.IsDefault())
	assert.Equal(t, "b", results[4].Predicted())
	assert.InDelta(t, 2.0/3.0, results[4].Predictions[0].Trust, 1e-9)
	assert.Equal(t, 2, summary.TruePositives)
	assert.Equal(t, 3, summary.FalsePositives)
	assert.InDelta(t, 0.4, summary.AccuracyClassified(), 1e-9)
}

// TestNewClassifierErrors tests rule list preconditions
func TestNewClassifierErrors(t *testing.T) {
	table := newTable(t)
	r := ageRule(t, table, 1, 20, 30, "a")

	_, err := classify.NewClassifier([]*rule.Rule{r}, classify.Config{}, quietLogger())
	assert.True(t, errors.Is(err, classify.ErrDefaultRulePosition))

	_, err = classify.NewClassifier([]*rule.Rule{defaultRule(t, table, "a"), r}, classify.Config{}, quietLogger())
	assert.True(t, errors.Is(err, classify.ErrDefaultRulePosition))

	_, err = classify.NewClassifier([]*rule.Rule{r, defaultRule(t, table, "a"), defaultRule(t, table, "b")}, classify.Config{}, quietLogger())
	assert.True(t, errors.Is(err, classify.ErrDefaultRulePosition))

	_, err = classify.NewClassifier([]*rule.Rule{r}, classify.Config{Mode: classify.Mixture}, quietLogger())
	assert.True(t, errors.Is(err, classify.ErrNotAnnotated))
}

// TestMixtureWeightedAverage tests support-weighted averaging of two rules
func TestMixtureWeightedAverage(t *testing.T) {
	table := newTable(t)
	r1 := annotated(ageRule(t, table, 1, 20, 30, "a"), rule.Quality{A: 30, B: 5}, value(30, "30", rule.OriginCore, 0.9, 0.1))
	r2 := annotated(ageRule(t, table, 2, 30, 40, "b"), rule.Quality{A: 10, B: 5}, value(30, "30", rule.OriginCore, 0.4, 0.6))

	classes, dist := classify.Distribution([]*rule.Rule{r1, r2}, table.Transaction(2))
	assert.Equal(t, []string{"a", "b"}, classes)
	require.Len(t, dist, 2)
	assert.InDelta(t, 0.775, dist[0], 1e-9)
	assert.InDelta(t, 0.225, dist[1], 1e-9)

	c, err := classify.NewClassifier([]*rule.Rule{r1, r2, defaultRule(t, table, "a")}, classify.Config{Mode: classify.Mixture, TopN: 2}, quietLogger())
	require.NoError(t, err)
	results, summary := c.Classify(table)

	res := results[2]
	assert.Equal(t, classify.MethodMixture, res.Method)
	assert.Equal(t, 3, res.Candidates)
	require.Len(t, res.Predictions, 2)
	assert.Equal(t, "a", res.Predicted())
	assert.InDelta(t, 0.775, res.Predictions[0].Trust, 1e-9)
	assert.Equal(t, "b", res.Predictions[1].Class)
	assert.Same(t, r1, res.Rule)

	// t3 (age 40) matches only r2 and the default rule
	assert.Equal(t, classify.MethodMixture, results[3].Method)
	assert.Equal(t, 2, results[3].Candidates)
	assert.Equal(t, 5, summary.Mixture)
}

// TestMixtureInterpolation tests linear interpolation between annotated values
func TestMixtureInterpolation(t *testing.T) {
	table := newTable(t)
	r := annotated(ageRule(t, table, 1, 20, 40, "a"), rule.Quality{A: 3, B: 2},
		value(20, "20", rule.OriginCore, 1, 0),
		value(40, "40", rule.OriginCore, 0, 1),
	)

	_, dist := classify.Distribution([]*rule.Rule{r}, table.Transaction(1))
	require.Len(t, dist, 2)
	assert.InDelta(t, 0.75, dist[0], 1e-9)
	assert.InDelta(t, 0.25, dist[1], 1e-9)

	_, dist = classify.Distribution([]*rule.Rule{r}, table.Transaction(2))
	assert.InDelta(t, 0.5, dist[0], 1e-9)

	// beyond the last annotated value the nearest one is used
	edge := annotated(ageRule(t, table, 2, 20, 40, "a"), rule.Quality{A: 3, B: 2}, value(20, "20", rule.OriginCore, 1, 0))
	_, dist = classify.Distribution([]*rule.Rule{edge}, table.Transaction(3))
	assert.Equal(t, []float64{1, 0}, dist)
}

// TestMixtureFuzzyBorder tests preference for rules matching outside fuzzy borders
func TestMixtureFuzzyBorder(t *testing.T) {
	table := newTable(t)
	fuzzy := annotated(ageRule(t, table, 1, 20, 30, "a"), rule.Quality{A: 30, B: 5}, value(30, "30", rule.OriginFuzzyBorder, 0.9, 0.1))
	core := annotated(ageRule(t, table, 2, 30, 40, "b"), rule.Quality{A: 10, B: 5}, value(30, "30", rule.OriginCore, 0.4, 0.6))

	assert.True(t, classify.MatchesInFuzzyBorder(fuzzy, table.Transaction(2)))
	assert.False(t, classify.MatchesInFuzzyBorder(core, table.Transaction(2)))

	c, err := classify.NewClassifier([]*rule.Rule{fuzzy, core, defaultRule(t, table, "a")}, classify.Config{Mode: classify.Mixture}, quietLogger())
	require.NoError(t, err)
	results, _ := c.Classify(table)

	res := results[2]
	assert.Equal(t, 2, res.Candidates)
	assert.Equal(t, "b", res.Predicted())
	assert.InDelta(t, 0.6, res.Predictions[0].Trust, 1e-9)
}

// TestMixtureFallback tests the highest-confidence fallback on an all-zero distribution
func TestMixtureFallback(t *testing.T) {
	table := newTable(t)
	weak := annotated(ageRule(t, table, 1, 20, 30, "a"), rule.Quality{A: 1, B: 3}, value(30, "30", rule.OriginCore, 0, 0))
	strong := annotated(ageRule(t, table, 2, 30, 40, "b"), rule.Quality{A: 3, B: 1}, value(30, "30", rule.OriginCore, 0, 0))

	c, err := classify.NewClassifier([]*rule.Rule{weak, strong}, classify.Config{Mode: classify.Mixture}, quietLogger())
	require.NoError(t, err)
	results, summary := c.Classify(table)

	res := results[2]
	assert.Equal(t, classify.MethodFallback, res.Method)
	assert.Equal(t, "b", res.Predicted())
	assert.Same(t, strong, res.Rule)

	// t0 (age 20) matches a single rule and every row is matched by something
	assert.Equal(t, classify.MethodOneRule, results[0].Method)
	assert.Equal(t, 0, summary.Uncovered)
}

// TestTopN tests ordering and tie-breaks of ranked predictions
func TestTopN(t *testing.T) {
	got := classify.TopN([]string{"x", "y", "z"}, []float64{0.2, 0.5, 0.3}, 2)
	assert.Equal(t, []classify.Prediction{{Class: "y", Trust: 0.5}, {Class: "z", Trust: 0.3}}, got)

	tie := classify.TopN([]string{"x", "y"}, []float64{0.5, 0.5}, 5)
	require.Len(t, tie, 2)
	assert.Equal(t, "x", tie[0].Class)
}

// TestParseMode tests mode names
func TestParseMode(t *testing.T) {
	for _, m := range []classify.Mode{classify.FirstMatch, classify.Mixture} {
		got, err := classify.ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := classify.ParseMode("vote")
	assert.Error(t, err)
}
