/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: table.go
Description: CSV loader for tabular data. The header row names the columns; values
may be quoted and the file may start with a UTF-8 byte order mark. Training tables
register every loaded value as a breakpoint, test tables keep them data-backed.
*/

package parsers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kleascm/marc-classifier/pkg/data"
	"github.com/sirupsen/logrus"
)

const bom = "\ufeff"

// TableOptions describes how a CSV file maps onto a table
type TableOptions struct {
	Target   string
	IDColumn string
	// Types lists one attribute type per column; empty means every column is nominal
	Types         []data.AttributeType
	Separator     rune
	SkipMalformed bool
	// Training registers loaded values as breakpoints
	Training bool
}

// LoadStats reports what a load did
type LoadStats struct {
	Rows    int `json:"rows"`
	Loaded  int `json:"loaded"`
	Skipped int `json:"skipped"`
}

// LoadTable reads a CSV file into a new table
func LoadTable(path string, opts TableOptions, logger *logrus.Logger) (*data.Table, LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()

	table, stats, err := ReadTable(f, opts, logger)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return table, stats, nil
}

// ReadTable reads CSV records into a new table. Malformed rows abort the load
// unless SkipMalformed is set, in which case they are logged and skipped.
func ReadTable(r io.Reader, opts TableOptions, logger *logrus.Logger) (*data.Table, LoadStats, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	var stats LoadStats

	reader := csv.NewReader(r)
	if opts.Separator != 0 {
		reader.Comma = opts.Separator
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, fmt.Errorf("missing header row")
		}
		return nil, stats, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], bom)
	}
	for i := range header {
		header[i] = trimQuotes(header[i])
	}

	types := opts.Types
	if len(types) == 0 {
		types = make([]data.AttributeType, len(header))
	}
	table, err := data.NewTable(data.TableConfig{
		Columns:     header,
		Types:       types,
		Target:      opts.Target,
		IDColumn:    opts.IDColumn,
		Breakpoints: opts.Training,
	})
	if err != nil {
		return nil, stats, err
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("failed to read row %d: %w", stats.Rows+1, err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		stats.Rows++
		for i := range record {
			record[i] = trimQuotes(record[i])
		}

		if _, err := table.AddTransaction(record); err != nil {
			if !opts.SkipMalformed {
				return nil, stats, err
			}
			stats.Skipped++
			logger.WithFields(logrus.Fields{
				"row":   stats.Rows,
				"error": err.Error(),
			}).Warn("Skipping malformed row")
			continue
		}
		stats.Loaded++
	}

	logger.WithFields(logrus.Fields{
		"columns":  len(header),
		"loaded":   stats.Loaded,
		"skipped":  stats.Skipped,
		"training": opts.Training,
	}).Info("Loaded table")
	return table, stats, nil
}

// trimQuotes removes a pair of enclosing double quotes left by lazy parsing
func trimQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}
