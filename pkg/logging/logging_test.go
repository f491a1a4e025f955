/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logging_test.go
Description: Tests for the logger wrapper, the custom formatter and log retention.
*/

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoggerConfigValidate tests rejection of unknown levels and formats
func TestLoggerConfigValidate(t *testing.T) {
	cfg := DefaultLoggerConfig()
	require.NoError(t, cfg.Validate())

	bad := *cfg
	bad.Level = "verbose"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Format = "xml"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.OutputDir = t.TempDir()
	bad.MaxFiles = 0
	assert.Error(t, bad.Validate())
}

// TestCustomFormatter tests the plain rendering with a stage prefix and sorted fields
func TestCustomFormatter(t *testing.T) {
	f := &CustomFormatter{}
	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Level:   logrus.InfoLevel,
		Message: "Phase finished",
		Data: logrus.Fields{
			"phase": "extend",
			"rules": 3,
			"acc":   0.5,
		},
	}
	out, err := f.Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "INFO [EXTEND] Phase finished acc=0.5000 phase=extend rules=3\n", string(out))
}

// TestStagePrefix tests prefixes derived from messages
func TestStagePrefix(t *testing.T) {
	cases := map[string]string{
		"Pruning complete":        "PRUNE",
		"Annotation complete":     "ANNOTATE",
		"Classification complete": "CLASSIFY",
		"Run summary":             "SUMMARY",
		"Loaded table":            "",
	}
	for msg, want := range cases {
		t.Run(msg, func(t *testing.T) {
			assert.Equal(t, want, stagePrefix(&logrus.Entry{Message: msg, Data: logrus.Fields{}}))
		})
	}
}

// TestLoggerFileOutput tests that entries reach both the console and the log file
func TestLoggerFileOutput(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	cfg := &LoggerConfig{
		Level:     LogLevelInfo,
		Format:    LogFormatText,
		OutputDir: dir,
		MaxFiles:  5,
		Console:   &console,
	}
	l, err := NewLogger(cfg)
	require.NoError(t, err)

	l.LogPruning("global", 10, 4)
	l.LogPhase("extend", 2*time.Millisecond, logrus.Fields{"rules": 4})
	path := l.FilePath()
	require.NoError(t, l.Close())

	assert.True(t, strings.HasPrefix(filepath.Base(path), "marc_"))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "removed=6")
	assert.Contains(t, console.String(), "phase=extend")
}

// TestCleanupOldLogs tests that only the newest files are kept
func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"marc_2024-01-01_00-00-00.log",
		"marc_2024-01-02_00-00-00.log",
		"marc_2024-01-03_00-00-00.log",
	}
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	require.NoError(t, NewLogManager(dir, 2, false).CleanupOldLogs())
	_, err := os.Stat(filepath.Join(dir, names[0]))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, NewLogManager(dir, 2, true).CleanupOldLogs())
	left, err := filepath.Glob(filepath.Join(dir, "marc_*"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, names[1]+".gz"),
		filepath.Join(dir, names[2]+".gz"),
	}, left)
}
