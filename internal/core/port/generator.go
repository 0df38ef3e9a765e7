package port

import (
	"agribot/internal/core/domain"
	"context"
)

type TextGenerator interface {
	// GenerateFromPrompt sends the conversation to the given upstream model and returns its reply.
	GenerateFromPrompt(ctx context.Context, model domain.Model, prompts []domain.Prompt) (domain.ModelResponse, error)
	// Configured reports whether the generator has a credential and may contact upstream.
	Configured() bool
}

type ModelInspector interface {
	// State reports the availability of an upstream model, e.g. "closed" or "open" for a circuit breaker.
	State(model domain.Model) string
}
