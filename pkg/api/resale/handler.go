// Package resale exposes resale value prediction over HTTP.
package resale

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"fleet_pricing/pkg/core/resale"
	"fleet_pricing/pkg/core/utils"
)

// Handler holds the predictor behind the endpoint.
type Handler struct {
	Predictor resale.Predictor
}

// NewHandler creates a new resale handler.
func NewHandler(predictor resale.Predictor) *Handler {
	return &Handler{Predictor: predictor}
}

type predictResponse struct {
	ResaleValueEndPerVehicle float64 `json:"resale_value_end_per_vehicle"`
}

// HandlePredictResale estimates one vehicle's end-of-lease value:
// POST /api/predict-resale. The body is a vehicle feature document; sloppy
// JSON (single quotes, unquoted keys) is repaired before decoding.
func (h *Handler) HandlePredictResale(w http.ResponseWriter, r *http.Request) {
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

	if h.Predictor == nil {
		http.Error(w, "No resale predictor configured", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	vehicle, err := utils.DecodeVehicleJSON(string(body))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	predicted, err := h.Predictor.PredictResale(ctx, vehicle)
	if err != nil {
		http.Error(w, fmt.Sprintf("Prediction failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(predictResponse{ResaleValueEndPerVehicle: predicted})
}
