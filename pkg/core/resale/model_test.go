package resale

import (
	"fmt"
	"math"
	"path/filepath"
	"testing"
)

// buildLinearDataset creates rows following an exact linear rule so the
// ridge fit (with its small penalty) must recover it closely.
func buildLinearDataset(n int) *Dataset {
	d := &Dataset{Header: []string{"age_months", "mileage", "region", "resale_value_end"}}
	regions := []string{"NE", "SE", "MW"}
	regionBump := map[string]float64{"NE": 500, "SE": -300, "MW": 0}
	for i := 0; i < n; i++ {
		age := float64(i % 96)
		mileage := age * 1100
		region := regions[i%len(regions)]
		value := 40000 - 150*age - 0.05*mileage + regionBump[region]
		d.Rows = append(d.Rows, []string{
			fmt.Sprintf("%.0f", age),
			fmt.Sprintf("%.0f", mileage),
			region,
			fmt.Sprintf("%.2f", value),
		})
	}
	return d
}

func TestTrainRecoversLinearRelationship(t *testing.T) {
	d := buildLinearDataset(300)
	m, metrics, err := Train(d, "resale_value_end", TrainOptions{Seed: 1, Alpha: 1e-6})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if metrics.NRows != 300 {
		t.Errorf("expected 300 usable rows, got %d", metrics.NRows)
	}
	if metrics.R2 < 0.99 {
		t.Errorf("expected near-perfect fit on noiseless data, got R2=%f", metrics.R2)
	}

	pred, err := m.Predict(map[string]interface{}{
		"age_months": 24.0,
		"mileage":    26400.0,
		"region":     "NE",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 40000.0 - 150*24 - 0.05*26400 + 500
	if math.Abs(pred-want) > 50 {
		t.Errorf("prediction %f too far from %f", pred, want)
	}
}

func TestTrainRejectsTinyDatasets(t *testing.T) {
	d := buildLinearDataset(10)
	if _, _, err := Train(d, "resale_value_end", TrainOptions{}); err == nil {
		t.Error("expected error for too few rows")
	}
}

func TestTrainRejectsMissingTarget(t *testing.T) {
	d := buildLinearDataset(100)
	if _, _, err := Train(d, "no_such_column", TrainOptions{}); err == nil {
		t.Error("expected error for unknown target column")
	}
}

func TestPredictUnknownCategoryDoesNotFail(t *testing.T) {
	d := buildLinearDataset(300)
	m, _, err := Train(d, "resale_value_end", TrainOptions{Seed: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A region the training data never saw encodes as all zeros.
	pred, err := m.Predict(map[string]interface{}{
		"age_months": 24.0,
		"mileage":    26400.0,
		"region":     "ZZ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred < 0 {
		t.Errorf("prediction should be floored at zero, got %f", pred)
	}
}

func TestPredictImputesMissingNumerics(t *testing.T) {
	d := buildLinearDataset(300)
	m, _, err := Train(d, "resale_value_end", TrainOptions{Seed: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.Predict(map[string]interface{}{"region": "NE"}); err != nil {
		t.Errorf("missing numerics should be imputed, got error: %v", err)
	}
}

func TestModelSaveLoadRoundTrip(t *testing.T) {
	d := buildLinearDataset(300)
	m, _, err := Train(d, "resale_value_end", TrainOptions{Seed: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "model.json")
	if err := m.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	vehicle := map[string]interface{}{"age_months": 36.0, "mileage": 40000.0, "region": "SE"}
	p1, err := m.Predict(vehicle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p2, err := loaded.Predict(vehicle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(p1-p2) > 1e-9 {
		t.Errorf("loaded model predicts differently: %f vs %f", p1, p2)
	}
}

func TestWriteSyntheticCSVAndTrain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleet.csv")
	if err := WriteSyntheticCSV(path, 500, 7); err != nil {
		t.Fatalf("generator failed: %v", err)
	}

	d, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(d.Rows) != 500 {
		t.Fatalf("expected 500 rows, got %d", len(d.Rows))
	}

	m, metrics, err := Train(d, "resale_value_end", TrainOptions{Seed: 7})
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}
	// The synthetic rule is non-linear with noise; the linear model should
	// still explain a decent share of variance.
	if metrics.R2 < 0.4 {
		t.Errorf("suspiciously poor fit on synthetic data: R2=%f", metrics.R2)
	}

	pred, err := m.Predict(map[string]interface{}{
		"model":               "Transit",
		"trim":                "XL",
		"region":              "MW",
		"age_months":          36.0,
		"mileage":             43000.0,
		"inflation_cpi":       0.03,
		"consumer_confidence": 95.0,
	})
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	if pred <= 0 {
		t.Errorf("expected a positive resale estimate, got %f", pred)
	}
}

func TestDecodeEstimate(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    float64
		wantErr bool
	}{
		{"clean", `{"resale_value_end_per_vehicle": 27270}`, 27270, false},
		{"fenced", "```json\n{\"resale_value_end_per_vehicle\": 18500.5}\n```", 18500.5, false},
		{"single quotes", `{'resale_value_end_per_vehicle': 9000}`, 9000, false},
		{"missing field", `{"price": 1}`, 0, true},
		{"negative", `{"resale_value_end_per_vehicle": -5}`, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeEstimate(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("expected %f, got %f", tc.want, got)
			}
		})
	}
}
