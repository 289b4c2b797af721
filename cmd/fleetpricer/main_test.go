package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fleet_pricing/pkg/models"
)

func TestLoadScenarioHJSON(t *testing.T) {
	doc := `{
  // commented scenario
  term_months: 36
  num_vehicles: 10
  loan_payment_monthly: 1316.12
  discount_annual: 0.07
  target_profit_pv: 5000
  resale_value_end_per_vehicle: 27270
}`
	path := filepath.Join(t.TempDir(), "scenario.hjson")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	req, err := loadScenario(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.TermMonths != 36 || req.NumVehicles != 10 {
		t.Errorf("lease terms did not decode: %+v", req)
	}
	if req.LoanPaymentMonthly == nil || *req.LoanPaymentMonthly != 1316.12 {
		t.Errorf("loan payment did not decode: %+v", req.LoanPaymentMonthly)
	}
	if req.ResaleValueEndPerVehicle == nil || *req.ResaleValueEndPerVehicle != 27270 {
		t.Errorf("resale value did not decode: %+v", req.ResaleValueEndPerVehicle)
	}
	if req.NeedsResalePrediction() {
		t.Error("scenario carries an explicit resale value")
	}
}

func TestLoadScenarioPlainJSON(t *testing.T) {
	doc := `{"term_months": 24, "num_vehicles": 5, "loan_payment_monthly": 900, "discount_annual": 0.05, "target_profit_pv": 1000, "resale_value_end_per_vehicle": 15000}`
	path := filepath.Join(t.TempDir(), "scenario.json")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	req, err := loadScenario(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.TermMonths != 24 {
		t.Errorf("expected 24 months, got %d", req.TermMonths)
	}
}

func TestLoadScenarioMissingFile(t *testing.T) {
	if _, err := loadScenario("/no/such/scenario.hjson"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteReport(t *testing.T) {
	req := &models.PricingRequest{TermMonths: 36, NumVehicles: 10, TargetProfitPV: 5000}
	resp := &models.PricingResponse{RunID: "run-42"}
	resp.Result.BaseFee = 865.96
	resp.Result.FinalFee = 870.01
	resp.Result.Breakdown.NPV = 5000.15

	path := filepath.Join(t.TempDir(), "report.html")
	if err := writeReport(path, req, resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	html, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	out := string(html)
	if !strings.Contains(out, "run-42") || !strings.Contains(out, "870.01") {
		t.Errorf("report missing run details: %s", out)
	}
	if !strings.Contains(out, "<h1>") {
		t.Errorf("report is not rendered HTML: %s", out)
	}
}
