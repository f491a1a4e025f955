/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: rule_test.go
Description: Tests for the rule model. Covers quality computation, literal growth and
contiguity, consequent validation, rule orderings, history isolation and annotation lookups.
*/

package rule_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kleascm/marc-classifier/pkg/data"
	"github.com/kleascm/marc-classifier/pkg/rule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	table *data.Table
	age   *data.Attribute
	color *data.Attribute
	class *data.Attribute
}

func newFixture(t *testing.T) fixture {
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
		{"r1", "20", "red", "yes"},
		{"r2", "25", "red", "yes"},
		{"r3", "30", "blue", "no"},
		{"r4", "35", "blue", "yes"},
		{"r5", "40", "green", "no"},
		{"r6", "25", "red", "no"},
	} {
		_, err := table.AddTransaction(row)
		require.NoError(t, err)
	}
	f := fixture{table: table, class: table.Target()}
	f.age, err = table.Attribute("age")
	require.NoError(t, err)
	f.color, err = table.Attribute("color")
	require.NoError(t, err)
	return f
}

func (f fixture) values(t *testing.T, attr *data.Attribute, raws ...string) []*data.AttributeValue {
	t.Helper()
	out := make([]*data.AttributeValue, 0, len(raws))
	for _, raw := range raws {
		v, ok := attr.Lookup(raw)
		require.True(t, ok, "value %s", raw)
		out = append(out, v)
	}
	return out
}

func (f fixture) consequent(t *testing.T, class string) rule.Consequent {
	t.Helper()
	v := f.values(t, f.class, class)
	cons, err := rule.NewConsequent(rule.NewLiteral(f.class, v, []rule.Origin{rule.OriginConsequent}, rule.OriginConsequent))
	require.NoError(t, err)
	return cons
}

func valueRaws(l *rule.Literal) []string {
	var out []string
	for _, v := range l.Values() {
		out = append(out, v.Raw())
	}
	return out
}

// TestQualityConfidence tests the confidence formula and its zero case
func TestQualityConfidence(t *testing.T) {
	q := rule.Quality{A: 40, B: 10}
	assert.Equal(t, 40, q.Support())
	assert.InDelta(t, 0.8, q.Confidence(), 1e-9)
	assert.Equal(t, 50, q.Coverage())

	assert.Equal(t, 0.0, rule.Quality{}.Confidence())

	extended := rule.Quality{A: 42, B: 9}
	assert.InDelta(t, 0.8235, extended.Confidence(), 1e-4)
}

// TestQualityFromRelative tests conversion of relative measures to counts
func TestQualityFromRelative(t *testing.T) {
	q := rule.QualityFromRelative(0.4, 0.8, 100)
	assert.Equal(t, rule.Quality{A: 40, B: 10, C: 0, D: 50}, q)
}

// TestComputeQuality tests the contingency table against live transactions
func TestComputeQuality(t *testing.T) {
	f := newFixture(t)
	yes := f.consequent(t, "yes")

	ant, err := rule.NewAntecedent(rule.NewLiteral(f.age, f.values(t, f.age, "20", "25", "30"), nil, rule.OriginCore))
	require.NoError(t, err)

	q := rule.ComputeQuality(f.table, ant, yes)
	assert.Equal(t, rule.Quality{A: 2, B: 2, C: 1, D: 1}, q)
	assert.InDelta(t, 0.5, q.Confidence(), 1e-9)

	// the empty antecedent covers everything live
	q = rule.ComputeQuality(f.table, rule.Antecedent{}, yes)
	assert.Equal(t, rule.Quality{A: 3, B: 3, C: 0, D: 0}, q)

	f.table.RemoveTransactions(data.NewTxSet(0, 2), true)
	q = rule.ComputeQuality(f.table, ant, yes)
	assert.Equal(t, rule.Quality{A: 1, B: 1, C: 1, D: 1}, q)
	f.table.UnhideAll()
}

// TestAntecedentDuplicateAttribute tests the one-literal-per-attribute rule
func TestAntecedentDuplicateAttribute(t *testing.T) {
	f := newFixture(t)
	l := rule.NewLiteral(f.color, f.values(t, f.color, "red"), nil, rule.OriginCore)
	_, err := rule.NewAntecedent(l, l)
	assert.True(t, errors.Is(err, rule.ErrDuplicateAttribute))
}

// TestNewConsequentErrors tests consequent validation
func TestNewConsequentErrors(t *testing.T) {
	f := newFixture(t)

	_, err := rule.NewConsequent(rule.NewLiteral(f.class, f.values(t, f.class, "yes", "no"), nil, rule.OriginConsequent))
	assert.True(t, errors.Is(err, rule.ErrInvalidConsequent))

	_, err = rule.NewConsequent(rule.NewLiteral(f.color, f.values(t, f.color, "red"), nil, rule.OriginConsequent))
	assert.True(t, errors.Is(err, rule.ErrInvalidConsequent))
}

// TestLiteralExtended tests breakpoint growth in each direction
func TestLiteralExtended(t *testing.T) {
	f := newFixture(t)
	l := rule.NewLiteral(f.age, f.values(t, f.age, "25", "30"), nil, rule.OriginCore)

	low := l.Extended(rule.OriginExtendLow)
	require.NotNil(t, low)
	assert.Equal(t, []string{"20", "25", "30"}, valueRaws(low))
	assert.Equal(t, []rule.Origin{rule.OriginExtendLow, rule.OriginCore, rule.OriginCore}, low.Origins())
	assert.Equal(t, rule.OriginExtendLow, low.LastModification())

	fuzzy := l.Extended(rule.OriginFuzzyBorder)
	assert.Equal(t, []string{"20", "25", "30", "35"}, valueRaws(fuzzy))
	assert.Equal(t, "age=[20;35]", fuzzy.String())

	assert.Nil(t, low.Extended(rule.OriginExtendLow))
	assert.Equal(t, 2, l.Len(), "growth must not modify the source literal")
}

// TestCheckContiguous tests detection of skipped breakpoints
func TestCheckContiguous(t *testing.T) {
	f := newFixture(t)
	ok := rule.NewLiteral(f.age, f.values(t, f.age, "20", "25", "30"), nil, rule.OriginCore)
	assert.NoError(t, ok.CheckContiguous())

	gap := rule.NewLiteral(f.age, f.values(t, f.age, "20", "30"), nil, rule.OriginCore)
	assert.True(t, errors.Is(gap.CheckContiguous(), rule.ErrNonContiguous))
}

// TestGreedyExtensions tests nominal fan-out over missing domain values
func TestGreedyExtensions(t *testing.T) {
	f := newFixture(t)
	l := rule.NewLiteral(f.color, f.values(t, f.color, "red"), nil, rule.OriginCore)

	var got []string
	for _, ext := range l.GreedyExtensions() {
		got = append(got, ext.ValueText())
	}
	if diff := cmp.Diff([]string{"red|blue", "red|green"}, got); diff != "" {
		t.Errorf("unexpected extensions (-want +got):\n%s", diff)
	}
	assert.Nil(t, rule.NewLiteral(f.age, f.values(t, f.age, "20"), nil, rule.OriginCore).GreedyExtensions())
}

// TestIntervalLiteral tests interval construction from bounds
func TestIntervalLiteral(t *testing.T) {
	f := newFixture(t)
	l := rule.NewIntervalLiteral(f.age, 20, false, 35, true, rule.OriginCore)
	assert.Equal(t, []string{"25", "30", "35"}, valueRaws(l))
	assert.Equal(t, 4, l.Support().Len())
}

// TestCBAOrdering tests the rank order of rules
func TestCBAOrdering(t *testing.T) {
	f := newFixture(t)
	yes := f.consequent(t, "yes")
	red, err := rule.NewAntecedent(rule.NewLiteral(f.color, f.values(t, f.color, "red"), nil, rule.OriginCore))
	require.NoError(t, err)
	long, err := rule.NewAntecedent(
		rule.NewLiteral(f.color, f.values(t, f.color, "red"), nil, rule.OriginCore),
		rule.NewLiteral(f.age, f.values(t, f.age, "20"), nil, rule.OriginCore),
	)
	require.NoError(t, err)

	def := rule.New(1, 1, rule.Antecedent{}, yes, rule.Quality{A: 90, B: 0})
	strong := rule.New(2, 2, red, yes, rule.Quality{A: 8, B: 2})
	bigger := rule.New(3, 3, red, yes, rule.Quality{A: 16, B: 4})
	longer := rule.New(4, 4, long, yes, rule.Quality{A: 16, B: 4})
	weak := rule.New(5, 5, red, yes, rule.Quality{A: 5, B: 5})

	rules := []*rule.Rule{def, weak, longer, strong, bigger}
	rule.Sort(rules, rule.CBA)
	ids := make([]int, 0, len(rules))
	for _, r := range rules {
		ids = append(ids, r.ID())
	}
	assert.Equal(t, []int{3, 4, 2, 5, 1}, ids)

	rule.Sort(rules, rule.Preserve)
	ids = ids[:0]
	for _, r := range rules {
		ids = append(ids, r.ID())
	}
	assert.Equal(t, []int{2, 3, 4, 5, 1}, ids)

	_, err = rule.ComparatorByName("random")
	assert.Error(t, err)
}

// TestHistoryCopyIsolation tests that derived rules do not share history
func TestHistoryCopyIsolation(t *testing.T) {
	f := newFixture(t)
	yes := f.consequent(t, "yes")
	ant, err := rule.NewAntecedent(rule.NewLiteral(f.color, f.values(t, f.color, "red"), nil, rule.OriginCore))
	require.NoError(t, err)

	ids := rule.NewIDGen(10)
	seed := rule.New(1, ids.Next(), ant, yes, rule.ComputeQuality(f.table, ant, yes))
	seed.History().Add("seed", seed)

	child := seed.Derive(ids.Next(), ant, seed.Quality())
	child.History().Add("extend", child)

	assert.Equal(t, 1, seed.History().Len())
	assert.Equal(t, 2, child.History().Len())
	assert.Equal(t, 10, seed.GenID())
	assert.Equal(t, 11, child.GenID())
	assert.Equal(t, seed.ID(), child.ID())
	assert.Contains(t, child.History().String(), "extend(ERID=11)")
}

// TestWithQualityCopiesHistory tests that a requalified rule keeps the history
// entries without sharing them with its source
func TestWithQualityCopiesHistory(t *testing.T) {
	f := newFixture(t)
	yes := f.consequent(t, "yes")
	ant, err := rule.NewAntecedent(rule.NewLiteral(f.color, f.values(t, f.color, "red"), nil, rule.OriginCore))
	require.NoError(t, err)

	seed := rule.New(1, 1, ant, yes, rule.ComputeQuality(f.table, ant, yes))
	seed.History().Add("seed", seed)

	requalified := seed.WithQuality(rule.Quality{A: 1, B: 1})
	require.NotSame(t, seed.History(), requalified.History())
	assert.Equal(t, 1, requalified.History().Len())

	requalified.History().Add("prune", requalified)
	assert.Equal(t, 1, seed.History().Len())
	assert.Equal(t, 2, requalified.History().Len())

	recomputed := seed.Recompute(f.table)
	recomputed.History().Add("recompute", recomputed)
	assert.Equal(t, 1, seed.History().Len())
}

// TestRuleString tests the rendered rule text
func TestRuleString(t *testing.T) {
	f := newFixture(t)
	yes := f.consequent(t, "yes")
	ant, err := rule.NewAntecedent(
		rule.NewLiteral(f.age, f.values(t, f.age, "20", "25", "30"), nil, rule.OriginCore),
		rule.NewLiteral(f.color, f.values(t, f.color, "red", "blue"), nil, rule.OriginCore),
	)
	require.NoError(t, err)
	r := rule.New(7, 1, ant, yes, rule.Quality{A: 40, B: 10})
	assert.Equal(t, "RID=7:{age=[20;30],color=red|blue} => {class=yes},40,0.8000", r.String())
}

// TestAnnotationNeighbours tests exact and neighbouring annotated values
func TestAnnotationNeighbours(t *testing.T) {
	f := newFixture(t)
	la := &rule.LiteralAnnotation{
		Attribute: "age",
		Numeric:   true,
		Values: []rule.ValueAnnotation{
			{Raw: "30", Numeric: 30, Distribution: []float64{0.2, 0.8}},
			{Raw: "20", Numeric: 20, Distribution: []float64{0.6, 0.4}},
		},
	}
	ann := rule.NewAnnotation([]string{"no", "yes"})
	ann.Add(la)

	got, ok := ann.Literal("age")
	require.True(t, ok)
	assert.Equal(t, 20.0, got.Values[0].Numeric)

	v25 := f.values(t, f.age, "25")[0]
	_, found := got.Find(v25)
	assert.False(t, found)

	lo, hi := got.Neighbours(25)
	require.NotNil(t, lo)
	require.NotNil(t, hi)
	assert.Equal(t, "20", lo.Raw)
	assert.Equal(t, "30", hi.Raw)

	lo, hi = got.Neighbours(35)
	assert.Equal(t, "30", lo.Raw)
	assert.Nil(t, hi)
}

// TestBind tests rebinding a rule onto a table with another column order
func TestBind(t *testing.T) {
	f := newFixture(t)
	yes := f.consequent(t, "yes")
	ant, err := rule.NewAntecedent(
		rule.NewLiteral(f.age, f.values(t, f.age, "20", "25", "30"), []rule.Origin{rule.OriginFuzzyBorder}, rule.OriginFuzzyBorder),
		rule.NewLiteral(f.color, f.values(t, f.color, "red", "blue"), nil, rule.OriginGreedy),
	)
	require.NoError(t, err)
	trained := rule.New(3, 9, ant, yes, rule.Quality{A: 40, B: 10})

	test, err := data.NewTable(data.TableConfig{
		Columns: []string{"class", "color", "age"},
		Types:   []data.AttributeType{data.Nominal, data.Nominal, data.Numeric},
		Target:  "class",
	})
	require.NoError(t, err)
	for _, row := range [][]string{{"yes", "red", "22"}, {"no", "blue", "30"}, {"no", "red", "50"}} {
		_, err := test.AddTransaction(row)
		require.NoError(t, err)
	}

	bound, err := trained.Bind(test)
	require.NoError(t, err)
	assert.Equal(t, trained.ID(), bound.ID())
	assert.Equal(t, trained.Quality(), bound.Quality())

	age, ok := bound.Antecedent().Literal(2)
	require.True(t, ok)
	assert.Equal(t, []string{"20", "22", "25", "30"}, valueRaws(age))
	assert.Equal(t, rule.OriginFuzzyBorder, age.Origins()[0])
	assert.Equal(t, rule.OriginCore, age.Origins()[1])

	support, ok := bound.Antecedent().Support()
	require.True(t, ok)
	assert.Equal(t, []int{0, 1}, support.IDs())
	assert.True(t, bound.Antecedent().Matches(test.Transaction(0)))
	assert.False(t, bound.Antecedent().Matches(test.Transaction(2)))

	// training values become breakpoints of the test table
	v20, ok := test.AttributeByID(2).Lookup("20")
	require.True(t, ok)
	assert.Equal(t, data.KindBreakpoint, v20.Kind())

	_, err = rule.BindLiteral(test, rule.LiteralSpec{Attribute: "color", Numeric: true})
	assert.True(t, errors.Is(err, rule.ErrLiteralType))
	_, err = rule.BindLiteral(test, rule.LiteralSpec{Attribute: "height"})
	assert.True(t, errors.Is(err, data.ErrAttributeNotFound))
}
