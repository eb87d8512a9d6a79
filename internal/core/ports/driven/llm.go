package driven

import "context"

// LLMService issues single-turn chat completions.
// There is no conversation memory between calls.
//
// Implementations may include:
//   - OpenAI-compatible APIs (OpenAI, OpenRouter)
//   - Ollama (local models)
type LLMService interface {
	// Complete sends a system and user message and returns the reply text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// ModelName returns the default model used when a request names none.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompletionRequest configures one completion call.
type CompletionRequest struct {
	// System is the system instruction.
	System string

	// User is the user message. May be empty.
	User string

	// Model overrides the service default when set.
	Model string

	// JSON requests a strict JSON object response.
	JSON bool

	// MaxTokens is the maximum number of tokens to generate. Zero uses the provider default.
	MaxTokens int

	// Temperature is sent when non-nil, including 0 for deterministic
	// output. Nil leaves the provider default.
	Temperature *float64
}
