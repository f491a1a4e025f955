/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Log file retention for the MARC classifier. Compresses finished run
logs on request and removes the oldest files beyond the configured limit.
*/

package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LogManager applies the retention policy to a log directory
type LogManager struct {
	logDir   string
	maxFiles int
	compress bool
}

// NewLogManager creates a new log manager
func NewLogManager(logDir string, maxFiles int, compress bool) *LogManager {
	return &LogManager{
		logDir:   logDir,
		maxFiles: maxFiles,
		compress: compress,
	}
}

// files lists run logs oldest first. Names carry a sortable timestamp.
func (lm *LogManager) files() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(lm.logDir, logFilePrefix+"*.log*"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob log files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// CleanupOldLogs compresses plain logs when enabled and keeps at most maxFiles
func (lm *LogManager) CleanupOldLogs() error {
	if lm.logDir == "" {
		return nil
	}
	if lm.compress {
		files, err := lm.files()
		if err != nil {
			return err
		}
		for _, file := range files {
			if strings.HasSuffix(file, ".gz") {
				continue
			}
			if err := compressFile(file); err != nil {
				return fmt.Errorf("failed to compress %s: %w", file, err)
			}
		}
	}

	files, err := lm.files()
	if err != nil {
		return err
	}
	if lm.maxFiles <= 0 || len(files) <= lm.maxFiles {
		return nil
	}
	for _, file := range files[:len(files)-lm.maxFiles] {
		if err := os.Remove(file); err != nil {
			return fmt.Errorf("failed to remove file %s: %w", file, err)
		}
	}
	return nil
}

// compressFile replaces a log file with its gzip form
func compressFile(path string) error {
	source, err := os.Open(path)
	if err != nil {
		return err
	}
	defer source.Close()

	compressed, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	gzipWriter := gzip.NewWriter(compressed)
	if _, err := io.Copy(gzipWriter, source); err != nil {
		compressed.Close()
		return err
	}
	if err := gzipWriter.Close(); err != nil {
		compressed.Close()
		return err
	}
	if err := compressed.Close(); err != nil {
		return err
	}
	source.Close()
	return os.Remove(path)
}
