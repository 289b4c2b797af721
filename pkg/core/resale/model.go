package resale

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strconv"
)

// Predictor is the black-box resale estimator the pricing surfaces consume:
// vehicle features in, one non-negative scalar estimate out.
type Predictor interface {
	PredictResale(ctx context.Context, vehicle map[string]interface{}) (float64, error)
}

// Model is a fitted ridge regression over encoded vehicle features.
type Model struct {
	TargetCol string    `json:"target_col"`
	Alpha     float64   `json:"alpha"`
	Schema    Schema    `json:"schema"`
	Weights   []float64 `json:"weights"` // intercept first
}

// Metrics summarize hold-out performance of a training run.
type Metrics struct {
	MAE   float64 `json:"mae"`
	R2    float64 `json:"r2"`
	NRows int     `json:"n_rows"`
}

// TrainOptions control the hold-out split.
type TrainOptions struct {
	TestFrac float64 // 0 selects 0.2
	Seed     int64
	Alpha    float64 // 0 selects 1.0
}

const minTrainingRows = 50

// Train fits a ridge model on the dataset, holding out a test fraction for
// MAE/R2 metrics. Rows with a missing or unparseable target are dropped.
func Train(d *Dataset, targetCol string, opts TrainOptions) (*Model, Metrics, error) {
	ti := d.ColumnIndex(targetCol)
	if ti < 0 {
		return nil, Metrics{}, fmt.Errorf("Train: target column %q not found", targetCol)
	}

	testFrac := opts.TestFrac
	if testFrac == 0 {
		testFrac = 0.2
	}
	if testFrac < 0 || testFrac >= 1 {
		return nil, Metrics{}, fmt.Errorf("Train: test fraction must be in [0,1), got %f", testFrac)
	}
	alpha := opts.Alpha
	if alpha == 0 {
		alpha = 1.0
	}

	var rows [][]string
	var targets []float64
	for _, row := range d.Rows {
		v, err := strconv.ParseFloat(row[ti], 64)
		if err != nil {
			continue
		}
		rows = append(rows, row)
		targets = append(targets, v)
	}
	if len(rows) < minTrainingRows {
		return nil, Metrics{}, fmt.Errorf("Train: need at least %d rows with a target, got %d", minTrainingRows, len(rows))
	}

	clean := &Dataset{Header: d.Header, Rows: rows}
	schema, err := fitSchema(clean, targetCol)
	if err != nil {
		return nil, Metrics{}, err
	}

	// Deterministic shuffle, then split.
	rng := rand.New(rand.NewSource(opts.Seed))
	idx := rng.Perm(len(rows))
	split := int(float64(len(rows)) * (1.0 - testFrac))
	if split < 1 {
		split = 1
	}

	encode := func(i int) []float64 {
		features := rowFeatures(clean, rows[i], targetCol)
		return append([]float64{1.0}, schema.encodeRow(features)...)
	}

	var xTrain [][]float64
	var yTrain []float64
	for _, i := range idx[:split] {
		xTrain = append(xTrain, encode(i))
		yTrain = append(yTrain, targets[i])
	}

	weights, err := solveRidge(xTrain, yTrain, alpha)
	if err != nil {
		return nil, Metrics{}, err
	}

	m := &Model{TargetCol: targetCol, Alpha: alpha, Schema: schema, Weights: weights}

	metrics := Metrics{NRows: len(rows)}
	testIdx := idx[split:]
	if len(testIdx) > 0 {
		var sumAbs, sumSq, sumY float64
		for _, i := range testIdx {
			sumY += targets[i]
		}
		meanY := sumY / float64(len(testIdx))
		var ssTot float64
		for _, i := range testIdx {
			pred := dot(weights, encode(i))
			diff := pred - targets[i]
			sumAbs += abs(diff)
			sumSq += diff * diff
			ssTot += (targets[i] - meanY) * (targets[i] - meanY)
		}
		metrics.MAE = sumAbs / float64(len(testIdx))
		if ssTot > 0 {
			metrics.R2 = 1.0 - sumSq/ssTot
		}
	}

	return m, metrics, nil
}

// Predict estimates the resale value for one vehicle described as loose
// JSON-ish features (numbers or strings). Estimates are floored at zero.
func (m *Model) Predict(vehicle map[string]interface{}) (float64, error) {
	if len(m.Weights) != m.Schema.featureWidth()+1 {
		return 0, fmt.Errorf("Predict: weight vector does not match schema")
	}
	features := make(map[string]string, len(vehicle))
	for k, v := range vehicle {
		switch val := v.(type) {
		case string:
			features[k] = val
		case float64:
			features[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case int:
			features[k] = strconv.Itoa(val)
		case bool:
			features[k] = strconv.FormatBool(val)
		case nil:
			// Missing: imputation handles it.
		default:
			return 0, fmt.Errorf("Predict: unsupported feature type %T for %q", v, k)
		}
	}

	x := append([]float64{1.0}, m.Schema.encodeRow(features)...)
	pred := dot(m.Weights, x)
	if pred < 0 {
		pred = 0
	}
	return pred, nil
}

// PredictResale implements Predictor. The model itself is in-memory and
// context-free.
func (m *Model) PredictResale(_ context.Context, vehicle map[string]interface{}) (float64, error) {
	return m.Predict(vehicle)
}

// Save writes the model as JSON.
func (m *Model) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	return nil
}

// Load reads a model saved by Save.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	return &m, nil
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
