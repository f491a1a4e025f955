/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: table_test.go
Description: Tests for the tabular index. Covers table construction errors, value
uniqueness, breakpoint adjacency, hide/unhide round trips and support thresholds.
*/

package data_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kleascm/marc-classifier/pkg/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTable(t *testing.T, breakpoints bool) *data.Table {
	t.Helper()
	table, err := data.NewTable(data.TableConfig{
		Columns:     []string{"id", "age", "color", "class"},
		Types:       []data.AttributeType{data.Nominal, data.Numeric, data.Nominal, data.Nominal},
		Target:      "class",
		IDColumn:    "id",
		Breakpoints: breakpoints,
	})
	require.NoError(t, err)

	rows := [][]string{
		{"r1", "20", "red", "yes"},
		{"r2", "25", "red", "yes"},
		{"r3", "30", "blue", "no"},
		{"r4", "35", "blue", "yes"},
		{"r5", "40", "green", "no"},
		{"r6", "25.0", "red", "no"},
	}
	for _, row := range rows {
		_, err := table.AddTransaction(row)
		require.NoError(t, err)
	}
	return table
}

func raws(values []*data.AttributeValue) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.Raw())
	}
	return out
}

// TestNewTableErrors tests column layout validation
func TestNewTableErrors(t *testing.T) {
	cases := []struct {
		name string
		cfg  data.TableConfig
		want error
	}{
		{
			name: "type count mismatch",
			cfg:  data.TableConfig{Columns: []string{"a", "class"}, Types: []data.AttributeType{data.Numeric}, Target: "class"},
			want: data.ErrTypeCountMismatch,
		},
		{
			name: "equals in column name",
			cfg:  data.TableConfig{Columns: []string{"a=b", "class"}, Types: []data.AttributeType{data.Numeric, data.Nominal}, Target: "class"},
			want: data.ErrInvalidColumn,
		},
		{
			name: "missing target",
			cfg:  data.TableConfig{Columns: []string{"a", "b"}, Types: []data.AttributeType{data.Numeric, data.Nominal}, Target: "class"},
			want: data.ErrAttributeNotFound,
		},
		{
			name: "missing id column",
			cfg:  data.TableConfig{Columns: []string{"a", "class"}, Types: []data.AttributeType{data.Numeric, data.Nominal}, Target: "class", IDColumn: "id"},
			want: data.ErrAttributeNotFound,
		},
		{
			name: "no predictor",
			cfg:  data.TableConfig{Columns: []string{"id", "class"}, Types: []data.AttributeType{data.Nominal, data.Nominal}, Target: "class", IDColumn: "id"},
			want: data.ErrNoPredictor,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := data.NewTable(tc.cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

// TestAddTransactionMalformed tests that bad rows are rejected without side effects
func TestAddTransactionMalformed(t *testing.T) {
	table := newTable(t, true)

	_, err := table.AddTransaction([]string{"r7", "old", "red", "yes"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, data.ErrMalformedRow))

	var rowErr *data.MalformedRowError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, "age", rowErr.Column)
	assert.Equal(t, "old", rowErr.Value)

	_, err = table.AddTransaction([]string{"r7", "20"})
	assert.True(t, errors.Is(err, data.ErrMalformedRow))

	assert.Equal(t, 6, table.LoadedCount())
	red, ok := mustAttr(t, table, "color").Lookup("red")
	require.True(t, ok)
	assert.Equal(t, 3, red.Support())
}

func mustAttr(t *testing.T, table *data.Table, name string) *data.Attribute {
	t.Helper()
	attr, err := table.Attribute(name)
	require.NoError(t, err)
	return attr
}

// TestValueUniqueness tests that equal numbers share one value
func TestValueUniqueness(t *testing.T) {
	table := newTable(t, true)
	age := mustAttr(t, table, "age")

	v25, ok := age.Lookup("25")
	require.True(t, ok)
	assert.Equal(t, 2, v25.Support())
	assert.Equal(t, "25", v25.Raw())

	if diff := cmp.Diff([]string{"20", "25", "30", "35", "40"}, raws(age.Values())); diff != "" {
		t.Errorf("unexpected values (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"blue", "green", "red"}, raws(mustAttr(t, table, "color").Values())); diff != "" {
		t.Errorf("unexpected nominal order (-want +got):\n%s", diff)
	}
}

// TestAdjacency tests breakpoint-restricted neighbour queries
func TestAdjacency(t *testing.T) {
	table := newTable(t, false)
	age := mustAttr(t, table, "age")

	v30, _ := age.Lookup("30")
	assert.Equal(t, "35", age.AdjacentHigher(v30, false).Raw())
	assert.Equal(t, "25", age.AdjacentLower(v30, false).Raw())

	// nothing is a breakpoint in a test table until registered
	assert.Nil(t, age.AdjacentHigher(v30, true))

	_, err := age.RegisterBreakpoint("40")
	require.NoError(t, err)
	_, err = age.RegisterBreakpoint("22")
	require.NoError(t, err)

	assert.Equal(t, "40", age.AdjacentHigher(v30, true).Raw())
	assert.Equal(t, "22", age.AdjacentLower(v30, true).Raw())

	v22, _ := age.Lookup("22")
	assert.Equal(t, data.KindBreakpoint, v22.Kind())
	v40, _ := age.Lookup("40")
	assert.Equal(t, data.KindDataBackedBreakpoint, v40.Kind())

	color := mustAttr(t, table, "color")
	red, _ := color.Lookup("red")
	assert.Nil(t, color.AdjacentHigher(red, false))

	assert.Equal(t, []string{"25", "30"}, raws(age.ValuesInRange(22, false, 35, false)))
	assert.Equal(t, []string{"22", "25", "30", "35"}, raws(age.ValuesInRange(22, true, 35, true)))
}

// TestHideUnhideRoundTrip tests that unhiding restores membership exactly
func TestHideUnhideRoundTrip(t *testing.T) {
	table := newTable(t, true)
	red, _ := mustAttr(t, table, "color").Lookup("red")
	before := red.Transactions().Clone()
	liveBefore := table.Live()

	removed := table.RemoveTransactions(data.NewTxSet(0, 1, 4), true)
	assert.Equal(t, 3, removed)
	assert.Equal(t, 3, table.LiveCount())
	assert.Equal(t, 3, table.HiddenCount())
	assert.Equal(t, 1, red.Support())
	assert.True(t, table.IsHidden(0))

	// removing twice is a no-op
	assert.False(t, table.RemoveTransaction(0, true))

	assert.Equal(t, 3, table.UnhideAll())
	assert.Equal(t, 0, table.HiddenCount())
	assert.Equal(t, liveBefore, table.Live())
	assert.Equal(t, before, red.Transactions())
}

// TestRemoveWithoutHide tests that plain removal is not restored
func TestRemoveWithoutHide(t *testing.T) {
	table := newTable(t, true)
	require.True(t, table.RemoveTransaction(2, false))
	assert.Equal(t, 0, table.UnhideAll())
	assert.Equal(t, 5, table.LiveCount())
}

// TestMinSupportForTargetCount tests the one-item support cut
func TestMinSupportForTargetCount(t *testing.T) {
	table := newTable(t, true)

	// supports: id 1 x6, age 1,2,1,1,1 and color 2,1,3
	assert.InDelta(t, 2.0/6.0, table.MinSupportForTargetCount(3), 1e-9)
	assert.InDelta(t, 3.0/6.0, table.MinSupportForTargetCount(1), 1e-9)
	assert.InDelta(t, 1.0/6.0, table.MinSupportForTargetCount(8), 1e-9)
	assert.Equal(t, 0.0, table.MinSupportForTargetCount(14))
}

// TestExternalID tests id column lookups
func TestExternalID(t *testing.T) {
	table := newTable(t, true)
	tx := table.Transaction(3)
	require.NotNil(t, tx)
	assert.Equal(t, "r4", table.ExternalID(tx))
	assert.Equal(t, "yes", table.TargetValue(tx).Raw())
}
