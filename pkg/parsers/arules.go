/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: arules.go
Description: Reader and writer for rule lists in the CSV layout produced by the R
arules package: an optional row id, the rule text {a=[1;2],b=x} => {class=y}, and
relative support and confidence. Intervals use [ or ( and ] or ) with Inf bounds.
*/

package parsers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/kleascm/marc-classifier/pkg/data"
	"github.com/kleascm/marc-classifier/pkg/rule"
	"github.com/sirupsen/logrus"
)

// ErrInvalidRule is returned for rule text that cannot be bound to the table
var ErrInvalidRule = errors.New("invalid rule")

var (
	literalPattern  = regexp.MustCompile(`^([^,]*?)=([^,]*)$`)
	intervalPattern = regexp.MustCompile(`^([\[(])\s*(-?(?:Inf|Infinity|\d+(?:\.\d+)?(?:[Ee][-+]?\d+)?))\s*;\s*(-?(?:Inf|Infinity|\d+(?:\.\d+)?(?:[Ee][-+]?\d+)?))\s*([\])])$`)
)

// RuleReader binds arules rule text to a table
type RuleReader struct {
	table  *data.Table
	logger *logrus.Logger
}

// NewRuleReader creates a reader over the table the rules were mined from
func NewRuleReader(table *data.Table, logger *logrus.Logger) *RuleReader {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RuleReader{table: table, logger: logger}
}

// LoadFile reads a rule CSV file
func (rr *RuleReader) LoadFile(path string) ([]*rule.Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rule file: %w", err)
	}
	defer f.Close()
	rules, err := rr.Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return rules, nil
}

// Read parses every record. A header row and rows without rule text are skipped.
func (rr *RuleReader) Read(r io.Reader) ([]*rule.Rule, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rules []*rule.Rule
	for row := 0; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read rule row %d: %w", row, err)
		}

		offset := -1
		for i, field := range record {
			if strings.Contains(field, "=>") {
				offset = i
				break
			}
		}
		if offset < 0 || len(record) < offset+3 {
			rr.logger.WithField("row", row).Debug("Skipping row without rule text")
			continue
		}

		id := len(rules) + 1
		if offset > 0 {
			if parsed, err := strconv.Atoi(strings.Trim(record[0], `" `)); err == nil {
				id = parsed
			}
		}
		support, err := strconv.ParseFloat(strings.TrimSpace(record[offset+1]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d support %q", ErrInvalidRule, row, record[offset+1])
		}
		confidence, err := strconv.ParseFloat(strings.TrimSpace(record[offset+2]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d confidence %q", ErrInvalidRule, row, record[offset+2])
		}

		r, err := rr.ParseRule(record[offset], id, support, confidence)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		rules = append(rules, r)
	}

	rr.logger.WithField("rules", len(rules)).Info("Loaded seed rules")
	return rules, nil
}

// ParseRule binds one rule text. Relative support and confidence are converted
// to counts over the live transactions of the table.
func (rr *RuleReader) ParseRule(text string, id int, support, confidence float64) (*rule.Rule, error) {
	parts := strings.SplitN(strings.ReplaceAll(text, `"`, ""), "=>", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: %q has no consequent", ErrInvalidRule, text)
	}

	specs, err := rr.parsePart(parts[0])
	if err != nil {
		return nil, err
	}
	literals := make([]*rule.Literal, 0, len(specs))
	for _, spec := range specs {
		l, err := rule.BindLiteral(rr.table, spec)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
		}
		literals = append(literals, l)
	}
	ant, err := rule.NewAntecedent(literals...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}

	consSpecs, err := rr.parsePart(parts[1])
	if err != nil {
		return nil, err
	}
	if len(consSpecs) != 1 || len(consSpecs[0].Values) != 1 {
		return nil, fmt.Errorf("%w: consequent %q must be a single class", ErrInvalidRule, parts[1])
	}
	cons, err := rule.BindConsequent(rr.table, consSpecs[0].Attribute, consSpecs[0].Values[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}

	q := rule.QualityFromRelative(support, confidence, rr.table.LiveCount())
	return rule.New(id, id, ant, cons, q), nil
}

// parsePart splits {a=x,b=[1;2]} into literal descriptions
func (rr *RuleReader) parsePart(part string) ([]rule.LiteralSpec, error) {
	part = strings.TrimSpace(part)
	part = strings.TrimSuffix(strings.TrimPrefix(part, "{"), "}")
	if strings.TrimSpace(part) == "" {
		return nil, nil
	}

	var specs []rule.LiteralSpec
	for _, item := range strings.Split(part, ",") {
		m := literalPattern.FindStringSubmatch(strings.TrimSpace(item))
		if m == nil {
			return nil, fmt.Errorf("%w: literal %q", ErrInvalidRule, item)
		}
		name, value := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		attr, err := rr.table.Attribute(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
		}
		spec, err := literalSpec(attr, value)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// literalSpec interprets a literal value as an interval, a single number or
// nominal values joined by '|'
func literalSpec(attr *data.Attribute, value string) (rule.LiteralSpec, error) {
	spec := rule.LiteralSpec{Attribute: attr.Name(), Numeric: attr.IsNumeric(), Last: rule.OriginCore}

	if m := intervalPattern.FindStringSubmatch(value); m != nil {
		if !attr.IsNumeric() {
			return spec, fmt.Errorf("%w: interval %q on nominal attribute %s", ErrInvalidRule, value, attr.Name())
		}
		spec.LowInclusive = m[1] == "["
		spec.HighInclusive = m[4] == "]"
		var err error
		if spec.Low, err = parseBound(m[2]); err != nil {
			return spec, fmt.Errorf("%w: bound of %q for %s: %v", ErrInvalidRule, value, attr.Name(), err)
		}
		if spec.High, err = parseBound(m[3]); err != nil {
			return spec, fmt.Errorf("%w: bound of %q for %s: %v", ErrInvalidRule, value, attr.Name(), err)
		}
		return spec, nil
	}

	if attr.IsNumeric() {
		x, err := strconv.ParseFloat(value, 64)
		if err != nil {
			if value != "" && value != "NA" && value != "?" {
				return spec, fmt.Errorf("%w: %q is not numeric for %s", ErrInvalidRule, value, attr.Name())
			}
			spec.Values = []string{value}
			spec.Low, spec.High = math.Inf(1), math.Inf(-1)
			return spec, nil
		}
		spec.Values = []string{value}
		spec.Low, spec.High = x, x
		spec.LowInclusive, spec.HighInclusive = true, true
		return spec, nil
	}

	if _, known := attr.Lookup(value); !known && strings.Contains(value, "|") {
		spec.Values = strings.Split(value, "|")
	} else {
		spec.Values = []string{value}
	}
	return spec, nil
}

// parseBound reads one interval bound. Infinite bounds must be spelled out.
func parseBound(s string) (float64, error) {
	switch strings.TrimSpace(s) {
	case "Inf", "Infinity":
		return math.Inf(1), nil
	case "-Inf", "-Infinity":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// WriteRules writes rules in the same CSV layout. Support is relative to total.
func WriteRules(w io.Writer, rules []*rule.Rule, total int) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"", "rules", "support", "confidence"}); err != nil {
		return fmt.Errorf("failed to write rule header: %w", err)
	}
	for _, r := range rules {
		support := 0.0
		if total > 0 {
			support = float64(r.Support()) / float64(total)
		}
		record := []string{
			strconv.Itoa(r.ID()),
			RuleText(r),
			strconv.FormatFloat(support, 'g', -1, 64),
			strconv.FormatFloat(r.Confidence(), 'g', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write rule %d: %w", r.ID(), err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// RuleText renders a rule as {a=[1;2],b=x|y} => {class=c}
func RuleText(r *rule.Rule) string {
	literals := r.Antecedent().Literals()
	parts := make([]string, 0, len(literals))
	for _, l := range literals {
		parts = append(parts, l.String())
	}
	return "{" + strings.Join(parts, ",") + "} => " + r.Consequent().String()
}
