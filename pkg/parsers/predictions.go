/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: predictions.go
Description: CSV output of classification results: one row per test transaction
with the internal id, the predicted class, the external id, the covering rule and
the trust score. Extra prediction/trust column pairs follow for top-N output.
*/

package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/kleascm/marc-classifier/pkg/classify"
)

// WritePredictions writes one row per result. Unclassified rows have empty fields.
func WritePredictions(w io.Writer, results []classify.Result, topN int) error {
	if topN < 1 {
		topN = 1
	}
	header := []string{"tid", "prediction", "id", "rule", "trust"}
	for k := 2; k <= topN; k++ {
		header = append(header, fmt.Sprintf("prediction_%d", k), fmt.Sprintf("trust_%d", k))
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write prediction header: %w", err)
	}
	for _, res := range results {
		record := make([]string, len(header))
		record[0] = strconv.Itoa(res.TID)
		record[2] = res.ExternalID
		if res.Classified() {
			record[1] = res.Predicted()
			record[4] = formatTrust(res.Predictions[0].Trust)
			if res.Rule != nil {
				record[3] = strconv.Itoa(res.Rule.ID())
			}
			for k := 1; k < topN && k < len(res.Predictions); k++ {
				record[5+2*(k-1)] = res.Predictions[k].Class
				record[6+2*(k-1)] = formatTrust(res.Predictions[k].Trust)
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write prediction %d: %w", res.TID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// SavePredictions writes results to a CSV file
func SavePredictions(path string, results []classify.Result, topN int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create prediction file: %w", err)
	}
	if err := WritePredictions(f, results, topN); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatTrust(x float64) string {
	return strconv.FormatFloat(x, 'f', 4, 64)
}
