// Package utils holds small shared helpers: tolerant JSON decoding for
// user- and LLM-supplied documents, and markdown report rendering.
package utils

import (
	"encoding/json"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
)

// RepairJSON fixes common JSON defects: single quotes, unquoted keys,
// trailing commas, markdown code fences, unclosed brackets. Used for LLM
// output and for hand-typed CLI documents.
func RepairJSON(malformed string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformed)
	if err != nil {
		return "", fmt.Errorf("json repair failed: %w", err)
	}
	return repaired, nil
}

// DecodeVehicleJSON parses a vehicle feature document into a loose map.
// Strict JSON is tried first; on failure the document is repaired and
// re-parsed, so `{model: 'Transit', age_months: 24}` is accepted. The
// repair step collapses non-JSON input to an empty object, so a decoded
// map with no features is rejected rather than passed on as a vehicle.
func DecodeVehicleJSON(doc string) (map[string]interface{}, error) {
	var vehicle map[string]interface{}
	if err := json.Unmarshal([]byte(doc), &vehicle); err == nil && len(vehicle) > 0 {
		return vehicle, nil
	}

	repaired, err := RepairJSON(doc)
	if err != nil {
		return nil, fmt.Errorf("vehicle document is not valid JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &vehicle); err != nil {
		return nil, fmt.Errorf("vehicle document did not decode to an object: %w", err)
	}
	if len(vehicle) == 0 {
		return nil, fmt.Errorf("vehicle document has no features")
	}
	return vehicle, nil
}
