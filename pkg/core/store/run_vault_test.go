package store

import (
	"context"
	"testing"

	"fleet_pricing/pkg/models"
)

// These tests exercise the file backend only; no DATABASE_URL is set.

func sampleRun(runID string, finalFee float64) (*models.PricingRequest, *models.PricingResponse) {
	payment := 1316.12
	resale := 27270.0
	req := &models.PricingRequest{
		TermMonths:               36,
		NumVehicles:              10,
		LoanPaymentMonthly:       &payment,
		MaintenanceMonthly:       120,
		OverheadMonthly:          40,
		DiscountAnnual:           0.07,
		TargetProfitPV:           5000,
		ResaleValueEndPerVehicle: &resale,
	}
	resp := &models.PricingResponse{RunID: runID}
	resp.Result.FinalFee = finalFee
	resp.Result.Breakdown.NPV = 5000.4
	return req, resp
}

func TestRunVaultFileSaveLoad(t *testing.T) {
	vault := NewRunVault(t.TempDir())
	ctx := context.Background()

	req, resp := sampleRun("11111111-2222-3333-4444-555555555555", 1450.25)
	if err := vault.Save(ctx, "acme-logistics", req, resp); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	record, err := vault.Load(ctx, resp.RunID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if record.Client != "acme-logistics" {
		t.Errorf("expected client acme-logistics, got %q", record.Client)
	}
	if record.Request == nil || record.Request.TermMonths != 36 {
		t.Errorf("request did not round-trip: %+v", record.Request)
	}
	if record.Response.Result.FinalFee != 1450.25 {
		t.Errorf("expected final fee 1450.25, got %f", record.Response.Result.FinalFee)
	}
}

func TestRunVaultLoadMissing(t *testing.T) {
	vault := NewRunVault(t.TempDir())
	if _, err := vault.Load(context.Background(), "no-such-run"); err == nil {
		t.Error("expected error for missing run")
	}
}

func TestRunVaultListRecent(t *testing.T) {
	vault := NewRunVault(t.TempDir())
	ctx := context.Background()

	for i, id := range []string{"run-a", "run-b", "run-c"} {
		req, resp := sampleRun(id, float64(1000+i))
		if err := vault.Save(ctx, "client", req, resp); err != nil {
			t.Fatalf("save %s failed: %v", id, err)
		}
	}

	summaries, err := vault.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	for _, s := range summaries {
		if s.NPV == 0 {
			t.Errorf("summary %s missing NPV", s.RunID)
		}
	}
}
