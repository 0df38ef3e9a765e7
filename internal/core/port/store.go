package port

import "agribot/internal/core/domain"

type HistoryStore interface {
	// Recent returns a copy of the last n exchanges, oldest first.
	Recent(n int) []domain.Exchange
	// Append records an exchange, evicting the oldest entries beyond the cap.
	Append(exchange domain.Exchange)
	// Clear empties the history and returns how many exchanges were removed.
	Clear() int
	Len() int
}

type CostTracker interface {
	AddCost(cost float64)
	GetSpent() float64
}
