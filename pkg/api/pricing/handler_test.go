package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fleet_pricing/pkg/models"
)

type stubPredictor struct {
	value float64
	calls int
}

func (s *stubPredictor) PredictResale(ctx context.Context, vehicle map[string]interface{}) (float64, error) {
	s.calls++
	return s.value, nil
}

func postPricing(t *testing.T, h *Handler, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	req := httptest.NewRequest("POST", "/api/price-lease", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	h.HandlePriceLease(rec, req)
	return rec
}

func baseRequest() map[string]interface{} {
	return map[string]interface{}{
		"term_months":                  36,
		"num_vehicles":                 10,
		"loan_payment_monthly":         1316.12,
		"maintenance_monthly":          120,
		"overhead_monthly":             40,
		"inflation_annual":             0.02,
		"discount_annual":              0.07,
		"target_profit_pv":             5000,
		"resale_value_end_per_vehicle": 27270,
		"resale_risk_factor":           0.9,
	}
}

func TestHandlePriceLease(t *testing.T) {
	h := NewHandler(nil, nil)
	rec := postPricing(t, h, baseRequest())

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp models.PricingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response did not decode: %v", err)
	}
	if resp.RunID == "" {
		t.Error("expected a run id")
	}
	if resp.Result.FinalFee <= 0 {
		t.Errorf("expected a positive final fee, got %f", resp.Result.FinalFee)
	}
	if resp.Result.Breakdown.NPV < 5000 {
		t.Errorf("base fee should meet the target, got NPV %f", resp.Result.Breakdown.NPV)
	}
}

func TestHandlePriceLeaseFillsResaleFromPredictor(t *testing.T) {
	predictor := &stubPredictor{value: 27270}
	h := NewHandler(predictor, nil)

	body := baseRequest()
	delete(body, "resale_value_end_per_vehicle")
	body["vehicle"] = map[string]interface{}{"model": "Transit", "age_months": 36}

	rec := postPricing(t, h, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if predictor.calls != 1 {
		t.Errorf("expected one predictor call, got %d", predictor.calls)
	}

	var resp models.PricingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response did not decode: %v", err)
	}
	if resp.PredictedResalePerVehicle == nil || *resp.PredictedResalePerVehicle != 27270 {
		t.Errorf("expected predicted resale echoed back, got %+v", resp.PredictedResalePerVehicle)
	}
}

func TestHandlePriceLeaseInvalidInput(t *testing.T) {
	h := NewHandler(nil, nil)

	body := baseRequest()
	body["term_months"] = 0

	rec := postPricing(t, h, body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandlePriceLeaseInfeasibleTarget(t *testing.T) {
	h := NewHandler(nil, nil)

	body := baseRequest()
	body["target_profit_pv"] = 1e12
	body["max_fee"] = 100.0

	rec := postPricing(t, h, body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp infeasibleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("infeasible response did not decode: %v", err)
	}
	if resp.TargetProfitPV != 1e12 {
		t.Errorf("expected target echoed back, got %f", resp.TargetProfitPV)
	}
	if resp.MaxFee != 100 {
		t.Errorf("expected max fee echoed back, got %f", resp.MaxFee)
	}
}

func TestHandlePriceLeaseRejectsGet(t *testing.T) {
	h := NewHandler(nil, nil)
	req := httptest.NewRequest("GET", "/api/price-lease", nil)
	rec := httptest.NewRecorder()
	h.HandlePriceLease(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}
