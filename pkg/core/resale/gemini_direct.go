package resale

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DirectGeminiPredictor is a standalone Gemini-backed estimator for
// environments without the agent manager (the CLI's --llm path). It holds
// its own client rather than going through the role routing layer.
type DirectGeminiPredictor struct {
	client    *genai.Client
	modelName string
}

var _ Predictor = (*DirectGeminiPredictor)(nil)

// NewDirectGeminiPredictor builds a predictor from GEMINI_API_KEY.
func NewDirectGeminiPredictor(ctx context.Context, modelName string) (*DirectGeminiPredictor, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if modelName == "" {
		modelName = "gemini-2.0-flash-exp"
	}
	return &DirectGeminiPredictor{client: client, modelName: modelName}, nil
}

// Close releases the underlying client.
func (p *DirectGeminiPredictor) Close() error {
	return p.client.Close()
}

// PredictResale implements Predictor.
func (p *DirectGeminiPredictor) PredictResale(ctx context.Context, vehicle map[string]interface{}) (float64, error) {
	features, err := json.Marshal(vehicle)
	if err != nil {
		return 0, fmt.Errorf("DirectGeminiPredictor: encode vehicle: %w", err)
	}

	model := p.client.GenerativeModel(p.modelName)
	prompt := fmt.Sprintf("%s\n\nVehicle: %s", estimatorSystemPrompt, features)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return 0, fmt.Errorf("DirectGeminiPredictor: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return 0, fmt.Errorf("DirectGeminiPredictor: empty response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}

	return decodeEstimate(sb.String())
}
