package resale

import (
	"context"
	"encoding/json"
	"fmt"

	"fleet_pricing/pkg/core/agent"
	"fleet_pricing/pkg/core/llm"
	"fleet_pricing/pkg/core/utils"
)

// EstimatorRole is the agent role LLM resale estimation runs under; the
// provider behind it is assigned in config/models.yaml.
const EstimatorRole = "resale_estimation"

const estimatorSystemPrompt = `You are a used commercial vehicle appraiser.
Given a vehicle description, estimate its resale value in USD at the end of
its current usage period. Respond with a single JSON object:
{"resale_value_end_per_vehicle": <number>}
No prose, no markdown.`

// LLMPredictor estimates resale values by prompting a configured LLM
// provider. Useful for vehicles outside the trained model's feature space;
// estimates are opinions, not appraisals, and callers should prefer the
// trained model when one fits.
type LLMPredictor struct {
	manager *agent.Manager
}

var _ Predictor = (*LLMPredictor)(nil)

func NewLLMPredictor(manager *agent.Manager) *LLMPredictor {
	return &LLMPredictor{manager: manager}
}

type estimatorReply struct {
	ResaleValueEndPerVehicle *float64 `json:"resale_value_end_per_vehicle"`
}

// PredictResale implements Predictor. The model reply is repaired before
// decoding: LLMs routinely fence or single-quote their JSON.
func (p *LLMPredictor) PredictResale(ctx context.Context, vehicle map[string]interface{}) (float64, error) {
	features, err := json.Marshal(vehicle)
	if err != nil {
		return 0, fmt.Errorf("LLMPredictor: encode vehicle: %w", err)
	}

	prompt := fmt.Sprintf("Vehicle: %s", features)
	raw, err := p.manager.ExecutePrompt(ctx, EstimatorRole, prompt, estimatorSystemPrompt, llm.JSONResponseOptions())
	if err != nil {
		return 0, fmt.Errorf("LLMPredictor: %w", err)
	}

	return decodeEstimate(raw)
}

func decodeEstimate(raw string) (float64, error) {
	repaired, err := utils.RepairJSON(raw)
	if err != nil {
		return 0, fmt.Errorf("estimator reply is not JSON: %w", err)
	}
	var reply estimatorReply
	if err := json.Unmarshal([]byte(repaired), &reply); err != nil {
		return 0, fmt.Errorf("estimator reply did not decode: %w", err)
	}
	if reply.ResaleValueEndPerVehicle == nil {
		return 0, fmt.Errorf("estimator reply missing resale_value_end_per_vehicle: %s", raw)
	}
	if *reply.ResaleValueEndPerVehicle < 0 {
		return 0, fmt.Errorf("estimator returned a negative value: %f", *reply.ResaleValueEndPerVehicle)
	}
	return *reply.ResaleValueEndPerVehicle, nil
}
