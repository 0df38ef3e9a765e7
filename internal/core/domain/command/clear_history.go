package command

import (
	"agribot/internal/core/port"
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ClearHistory drops the replayed conversation context. The spend total is left untouched.
type ClearHistory struct {
	history port.HistoryStore
	l       *zerolog.Logger
}

func NewClearHistory(history port.HistoryStore) *ClearHistory {
	logger := log.With().
		Str("handler", "clear-history").
		Logger()

	return &ClearHistory{history: history, l: &logger}
}

// Respond clears the history and returns the number of exchanges that were removed.
func (c *ClearHistory) Respond(_ context.Context) int {
	size := c.history.Clear()

	var plural string
	if size != 1 {
		plural = "s"
	}

	c.l.Info().Int("cleared", size).Msgf("cleared conversation context with %d exchange%s", size, plural)

	return size
}
