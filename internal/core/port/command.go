package port

import (
	"agribot/internal/core/domain"
	"context"
)

type ChatResponder interface {
	// Respond relays a chat request upstream. It fails only on invalid input.
	Respond(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error)
}

type StatsResponder interface {
	// Respond reports the running spend and the number of exchanges held in history.
	Respond(ctx context.Context) domain.Stats
}

type ClearResponder interface {
	// Respond empties the conversation history and returns the number of exchanges removed.
	Respond(ctx context.Context) int
}

type ModelsResponder interface {
	// Respond lists the upstream models in fallback order with their availability.
	Respond(ctx context.Context) []domain.ModelStatus
}
