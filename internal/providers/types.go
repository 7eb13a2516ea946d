package providers

import "context"

// Provider is the generation backend interface. The backend may be slow
// (multi-second) or fail; callers own the timeout via ctx and must never let a
// failed call leak a session lock.
type Provider interface {
	// Generate sends a prompt and returns the completion. No streaming.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// DefaultModel returns the provider's default model name.
	DefaultModel() string

	// Name returns the provider identifier (e.g. "ollama").
	Name() string
}

// GenerateRequest contains the input for a Generate call.
type GenerateRequest struct {
	Model  string `json:"model,omitempty"` // overrides the default
	Prompt string `json:"prompt"`
}

// GenerateResponse is the result of a completed generation.
type GenerateResponse struct {
	Content string `json:"content"`
}
