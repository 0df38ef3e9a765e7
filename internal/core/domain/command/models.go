package command

import (
	"agribot/internal/core/domain"
	"agribot/internal/core/port"
	"context"
)

// Models lists the fallback chain in the order it is attempted.
type Models struct {
	ch        *Chat
	inspector port.ModelInspector
}

func NewModels(ch *Chat, inspector port.ModelInspector) *Models {
	return &Models{
		ch:        ch,
		inspector: inspector,
	}
}

func (m *Models) Respond(_ context.Context) []domain.ModelStatus {
	models := m.ch.Models()

	statuses := make([]domain.ModelStatus, len(models))
	for i, model := range models {
		state := "unknown"
		if m.inspector != nil {
			state = m.inspector.State(model)
		}

		statuses[i] = domain.ModelStatus{Identifier: model.Identifier, State: state}
	}

	return statuses
}
