// Package resale predicts end-of-lease vehicle resale values. The pricing
// core consumes predictions through the Predictor interface and has no
// opinion on how they are produced; this package supplies a trained linear
// model and an LLM-backed estimator.
package resale

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// Dataset is a loaded CSV of vehicle rows: a header and string cells. Typing
// of columns (numeric vs categorical) happens at encoding time.
type Dataset struct {
	Header []string
	Rows   [][]string
}

// LoadCSV reads a whole CSV file into memory.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("LoadCSV: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("LoadCSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("LoadCSV: %s has no data rows", path)
	}
	return &Dataset{Header: records[0], Rows: records[1:]}, nil
}

// ColumnIndex returns the position of a named column, or -1.
func (d *Dataset) ColumnIndex(name string) int {
	for i, h := range d.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Schema is the fitted feature encoding of a training set: which columns are
// numeric (with imputation medians) and which are categorical (with one-hot
// vocabularies and most-frequent fallbacks). It is persisted with the model
// so predictions encode features identically.
type Schema struct {
	NumericCols     []string            `json:"numeric_cols"`
	Medians         []float64           `json:"medians"`
	CategoricalCols []string            `json:"categorical_cols"`
	Categories      map[string][]string `json:"categories"`
	MostFrequent    map[string]string   `json:"most_frequent"`
}

// fitSchema decides column types and imputation statistics from the data. A
// column is numeric when every non-empty cell parses as a float.
func fitSchema(d *Dataset, targetCol string) (Schema, error) {
	s := Schema{
		Categories:   map[string][]string{},
		MostFrequent: map[string]string{},
	}

	for ci, name := range d.Header {
		if name == targetCol {
			continue
		}

		numeric := true
		var values []float64
		counts := map[string]int{}
		for _, row := range d.Rows {
			cell := row[ci]
			if cell == "" {
				continue
			}
			if v, err := strconv.ParseFloat(cell, 64); err == nil {
				values = append(values, v)
			} else {
				numeric = false
			}
			counts[cell]++
		}

		if numeric && len(values) > 0 {
			s.NumericCols = append(s.NumericCols, name)
			s.Medians = append(s.Medians, median(values))
			continue
		}

		// Categorical: sorted vocabulary for a stable one-hot layout.
		var vocab []string
		best, bestCount := "", -1
		for v, c := range counts {
			vocab = append(vocab, v)
			if c > bestCount || (c == bestCount && v < best) {
				best, bestCount = v, c
			}
		}
		sort.Strings(vocab)
		s.CategoricalCols = append(s.CategoricalCols, name)
		s.Categories[name] = vocab
		s.MostFrequent[name] = best
	}

	if len(s.NumericCols)+len(s.CategoricalCols) == 0 {
		return Schema{}, fmt.Errorf("fitSchema: no feature columns besides target %q", targetCol)
	}
	return s, nil
}

// featureWidth is the encoded vector length (without intercept).
func (s Schema) featureWidth() int {
	n := len(s.NumericCols)
	for _, col := range s.CategoricalCols {
		n += len(s.Categories[col])
	}
	return n
}

// encodeRow turns one raw feature map into the fixed-layout vector:
// numerics first (median-imputed), then one-hot blocks per categorical
// column. Unknown categories encode as all zeros rather than erroring, so
// the model degrades gracefully on unseen vehicles.
func (s Schema) encodeRow(features map[string]string) []float64 {
	x := make([]float64, 0, s.featureWidth())

	for i, col := range s.NumericCols {
		cell, ok := features[col]
		v := s.Medians[i]
		if ok && cell != "" {
			if parsed, err := strconv.ParseFloat(cell, 64); err == nil {
				v = parsed
			}
		}
		x = append(x, v)
	}

	for _, col := range s.CategoricalCols {
		cell, ok := features[col]
		if !ok || cell == "" {
			cell = s.MostFrequent[col]
		}
		for _, category := range s.Categories[col] {
			if cell == category {
				x = append(x, 1.0)
			} else {
				x = append(x, 0.0)
			}
		}
	}

	return x
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2.0
}

// rowFeatures converts a dataset row into the map form encodeRow expects,
// dropping the target column.
func rowFeatures(d *Dataset, row []string, targetCol string) map[string]string {
	features := make(map[string]string, len(d.Header))
	for i, name := range d.Header {
		if name == targetCol {
			continue
		}
		features[name] = row[i]
	}
	return features
}
