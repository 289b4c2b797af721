// Package pricing exposes the lease pricing engine over HTTP.
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"fleet_pricing/pkg/core/npv"
	"fleet_pricing/pkg/core/pricing"
	"fleet_pricing/pkg/core/resale"
	"fleet_pricing/pkg/core/store"
	"fleet_pricing/pkg/models"
)

// Handler holds dependencies for the pricing endpoint. Predictor and Vault
// are both optional: without a predictor, requests must carry an explicit
// resale value; without a vault, runs are not persisted.
type Handler struct {
	Predictor resale.Predictor
	Vault     *store.RunVault
}

// NewHandler creates a new pricing handler.
func NewHandler(predictor resale.Predictor, vault *store.RunVault) *Handler {
	return &Handler{
		Predictor: predictor,
		Vault:     vault,
	}
}

type infeasibleResponse struct {
	Error          string  `json:"error"`
	TargetProfitPV float64 `json:"target_profit_pv"`
	AchievedNPV    float64 `json:"achieved_npv_at_max_fee"`
	MaxFee         float64 `json:"max_fee"`
}

// HandlePriceLease prices one lease request: POST /api/price-lease.
func (h *Handler) HandlePriceLease(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.PricingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp := models.PricingResponse{RunID: uuid.NewString()}
	fmt.Printf("[PRICING] Run %s: term=%dmo vehicles=%d\n", resp.RunID, req.TermMonths, req.NumVehicles)

	// Fill the resale estimate from vehicle features when the caller left
	// it out.
	if req.NeedsResalePrediction() && req.Vehicle != nil {
		if h.Predictor == nil {
			http.Error(w, "No resale predictor configured; supply resale_value_end_per_vehicle", http.StatusBadRequest)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
		defer cancel()

		predicted, err := h.Predictor.PredictResale(ctx, req.Vehicle)
		if err != nil {
			http.Error(w, fmt.Sprintf("Resale prediction failed: %v", err), http.StatusInternalServerError)
			return
		}
		fmt.Printf("[PRICING] Run %s: predicted resale %.2f per vehicle\n", resp.RunID, predicted)
		req.ResaleValueEndPerVehicle = &predicted
		resp.PredictedResalePerVehicle = &predicted
	}

	coreReq, err := req.ToCore()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := pricing.PriceLease(coreReq)
	if err != nil {
		var infeasible *npv.InfeasibleTargetError
		switch {
		case errors.As(err, &infeasible):
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(infeasibleResponse{
				Error:          err.Error(),
				TargetProfitPV: infeasible.TargetProfitPV,
				AchievedNPV:    infeasible.AchievedNPV,
				MaxFee:         infeasible.MaxFee,
			})
		case errors.Is(err, pricing.ErrInvalidInput):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	resp.Result = result

	// Persistence is best-effort; a storage hiccup must not fail the quote.
	if h.Vault != nil {
		if err := h.Vault.Save(r.Context(), r.URL.Query().Get("client"), &req, &resp); err != nil {
			fmt.Printf("[WARNING] Failed to save run %s: %v\n", resp.RunID, err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// HandleListRuns returns recent pricing runs: GET /api/runs.
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if h.Vault == nil {
		http.Error(w, "Run storage not configured", http.StatusNotFound)
		return
	}

	summaries, err := h.Vault.ListRecent(r.Context(), 20)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summaries)
}
