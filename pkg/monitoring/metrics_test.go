/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: metrics_test.go
Description: Tests for phase stopwatches and the metrics registry.
*/

package monitoring

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStopwatch tests that stopping twice records a single observation
func TestStopwatch(t *testing.T) {
	m := NewMetrics("run-1")
	sw := m.Start(PhaseExtend)
	first := sw.Stop()
	second := sw.Stop()

	assert.Equal(t, first, second)
	assert.Equal(t, first, m.Duration(PhaseExtend))
	assert.Equal(t, 1, testutil.CollectAndCount(m.phaseDuration))
}

// TestTimingsOrder tests accumulation and first-seen ordering of phases
func TestTimingsOrder(t *testing.T) {
	m := NewMetrics("run-2")
	m.Observe(PhasePrune, 2*time.Millisecond)
	m.Observe(PhaseExtend, time.Millisecond)
	m.Observe(PhasePrune, 3*time.Millisecond)

	assert.Equal(t, []PhaseTiming{
		{Phase: PhasePrune, Duration: 5 * time.Millisecond},
		{Phase: PhaseExtend, Duration: time.Millisecond},
	}, m.Timings())
}

// TestCounters tests the rule gauge and the transaction counter
func TestCounters(t *testing.T) {
	m := NewMetrics("run-3")
	m.SetRules("extended", 12)
	m.SetRules("extended", 9)
	m.AddTransactions("correct", 4)
	m.AddTransactions("correct", 1)
	m.AddTransactions("uncovered", 0)

	assert.Equal(t, 9.0, testutil.ToFloat64(m.rules.WithLabelValues("extended")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.transactions.WithLabelValues("correct")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.transactions))
}

// TestWriteTextfile tests the exposition file export
func TestWriteTextfile(t *testing.T) {
	m := NewMetrics("run-4")
	m.SetRules("final", 3)
	path := filepath.Join(t.TempDir(), "marc.prom")
	require.NoError(t, m.WriteTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `marc_rules{run_id="run-4",stage="final"} 3`)
}
