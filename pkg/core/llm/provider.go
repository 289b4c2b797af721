// Package llm abstracts the chat-completion providers used for LLM-assisted
// resale estimation. Providers are stateless; API keys come from the
// environment.
package llm

import (
	"context"
)

// Provider is the interface all chat-completion backends implement.
type Provider interface {
	// GenerateResponse sends one prompt (with an optional system prompt) and
	// returns the model's text. Options carry provider-specific knobs such
	// as "model" or "response_format".
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
}

// JSONResponseOptions requests a JSON object response from providers that
// support constrained output.
func JSONResponseOptions() map[string]interface{} {
	return map[string]interface{}{
		"response_format": map[string]interface{}{"type": "json_object"},
	}
}
