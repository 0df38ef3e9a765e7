package command

import (
	"agribot/internal/core/domain"
	"agribot/internal/core/port"
	"context"
	"fmt"
)

type Stats struct {
	tracker port.CostTracker
	history port.HistoryStore
}

func NewStats(tracker port.CostTracker, history port.HistoryStore) *Stats {
	return &Stats{
		tracker: tracker,
		history: history,
	}
}

func (s *Stats) Respond(_ context.Context) domain.Stats {
	return domain.Stats{
		TotalCostUSD:    fmt.Sprintf(domain.StatsCostFormat, s.tracker.GetSpent()),
		SessionMessages: s.history.Len(),
	}
}
