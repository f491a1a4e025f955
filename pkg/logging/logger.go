/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logger.go
Description: Logging system for the MARC classifier. Wraps a logrus logger with
timestamped log files, selectable output formats and helpers for the events of a
run: phases, accepted rules, pruning, classification and the final summary.
*/

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warn"
	LogLevelError   LogLevel = "error"
)

// LogFormat represents the logging format
type LogFormat string

const (
	LogFormatJSON   LogFormat = "json"
	LogFormatText   LogFormat = "text"
	LogFormatCustom LogFormat = "custom"
)

// logFilePrefix names every file the logger creates
const logFilePrefix = "marc_"

// LoggerConfig holds the configuration for the logger
type LoggerConfig struct {
	Level     LogLevel  `json:"level" mapstructure:"log_level"`
	Format    LogFormat `json:"format" mapstructure:"log_format"`
	OutputDir string    `json:"output_dir" mapstructure:"log_dir"` // empty disables file output
	MaxFiles  int       `json:"max_files" mapstructure:"log_max_files"`
	Timestamp bool      `json:"timestamp"`
	Caller    bool      `json:"caller"`
	Colors    bool      `json:"colors"`
	Compress  bool      `json:"compress" mapstructure:"log_compress"`

	// Console receives the log stream besides the file; nil means stderr
	Console io.Writer `json:"-"`
}

// DefaultLoggerConfig returns console-only info logging with the custom format
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:     LogLevelInfo,
		Format:    LogFormatCustom,
		MaxFiles:  10,
		Timestamp: true,
		Colors:    true,
	}
}

// Validate checks the LoggerConfig for invalid or missing values.
func (c *LoggerConfig) Validate() error {
	if c.OutputDir != "" && c.MaxFiles <= 0 {
		return fmt.Errorf("max_files must be positive")
	}
	switch c.Format {
	case LogFormatJSON, LogFormatText, LogFormatCustom:
	default:
		return fmt.Errorf("unsupported log format: %s", c.Format)
	}
	switch c.Level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
	default:
		return fmt.Errorf("unsupported log level: %s", c.Level)
	}
	return nil
}

// Logger provides the logging functionality of a run
type Logger struct {
	config     *LoggerConfig
	logger     *logrus.Logger
	fileHandle *os.File
	filePath   string
	startTime  time.Time
}

// NewLogger creates a new logger instance
func NewLogger(config *LoggerConfig) (*Logger, error) {
	if config == nil {
		config = DefaultLoggerConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}

	l := &Logger{
		config:    config,
		logger:    logrus.New(),
		startTime: time.Now(),
	}
	if err := l.setup(); err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	return l, nil
}

// setup configures the logger with the given configuration
func (l *Logger) setup() error {
	level, err := logrus.ParseLevel(string(l.config.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.logger.SetLevel(level)
	l.logger.SetReportCaller(l.config.Caller)

	if err := l.setFormatter(); err != nil {
		return err
	}

	console := l.config.Console
	if console == nil {
		console = os.Stderr
	}
	l.logger.SetOutput(console)

	return l.setupFileOutput(console)
}

// setFormatter configures the log formatter
func (l *Logger) setFormatter() error {
	callerPrettyfier := func(f *runtime.Frame) (string, string) {
		return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
	}

	switch l.config.Format {
	case LogFormatJSON:
		l.logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: callerPrettyfier,
		})
	case LogFormatText:
		l.logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    l.config.Timestamp,
			TimestampFormat:  time.RFC3339,
			ForceColors:      l.config.Colors,
			DisableColors:    !l.config.Colors,
			CallerPrettyfier: callerPrettyfier,
		})
	case LogFormatCustom:
		l.logger.SetFormatter(&CustomFormatter{
			Timestamp: l.config.Timestamp,
			Caller:    l.config.Caller,
			Colors:    l.config.Colors,
		})
	default:
		return fmt.Errorf("unsupported log format: %s", l.config.Format)
	}
	return nil
}

// setupFileOutput tees the log stream into a timestamped file
func (l *Logger) setupFileOutput(console io.Writer) error {
	if l.config.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(l.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := l.startTime.Format("2006-01-02_15-04-05")
	path := filepath.Join(l.config.OutputDir, fmt.Sprintf("%s%s.log", logFilePrefix, timestamp))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	l.fileHandle = file
	l.filePath = path
	l.logger.SetOutput(io.MultiWriter(console, file))

	l.logger.WithFields(logrus.Fields{
		"start_time": l.startTime.Format(time.RFC3339),
		"log_file":   path,
		"level":      l.config.Level,
		"format":     l.config.Format,
	}).Debug("Logging system initialized")
	return nil
}

// FilePath returns the log file of this run, or "" without file output
func (l *Logger) FilePath() string { return l.filePath }

// GetLogger returns the underlying logrus logger
func (l *Logger) GetLogger() *logrus.Logger {
	return l.logger
}

// LogPhase logs the end of a named processing phase
func (l *Logger) LogPhase(phase string, duration time.Duration, fields logrus.Fields) {
	entry := l.logger.WithFields(fields).WithFields(logrus.Fields{
		"phase":    phase,
		"duration": duration,
	})
	entry.Info("Phase finished")
}

// LogRuleAccepted logs a rule that survived the per-rule pipeline
func (l *Logger) LogRuleAccepted(rid, genID int, step string, support int, confidence float64) {
	l.logger.WithFields(logrus.Fields{
		"rid":        rid,
		"erid":       genID,
		"step":       step,
		"support":    support,
		"confidence": fmt.Sprintf("%.4f", confidence),
	}).Debug("Rule accepted")
}

// LogPruning logs the outcome of a pruning stage
func (l *Logger) LogPruning(stage string, before, after int) {
	l.logger.WithFields(logrus.Fields{
		"stage":   stage,
		"before":  before,
		"after":   after,
		"removed": before - after,
	}).Info("Pruning stage finished")
}

// LogClassification logs the result of a single transaction
func (l *Logger) LogClassification(tid int, predicted string, rid int, method string) {
	l.logger.WithFields(logrus.Fields{
		"tid":       tid,
		"predicted": predicted,
		"rid":       rid,
		"method":    method,
	}).Debug("Transaction classified")
}

// LogSummary logs aggregate counts of a run
func (l *Logger) LogSummary(runID string, fields logrus.Fields) {
	l.logger.WithFields(fields).WithFields(logrus.Fields{
		"run_id": runID,
		"uptime": time.Since(l.startTime),
	}).Info("Run summary")
}

// Close closes the log file and removes log files beyond the retention limit
func (l *Logger) Close() error {
	if l.fileHandle == nil {
		return nil
	}
	if err := l.fileHandle.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	l.fileHandle = nil

	manager := NewLogManager(l.config.OutputDir, l.config.MaxFiles, l.config.Compress)
	if err := manager.CleanupOldLogs(); err != nil {
		return fmt.Errorf("failed to cleanup log files: %w", err)
	}
	return nil
}
