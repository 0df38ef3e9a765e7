package service

import (
	"agribot/internal/core/domain"
	"sync"

	"github.com/rs/zerolog/log"
)

// History is the capped, oldest-first list of exchanges shared by all requests.
type History struct {
	entries []domain.Exchange
	limit   int
	mutex   *sync.Mutex
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = domain.DefaultHistoryCap
	}

	return &History{
		entries: make([]domain.Exchange, 0, limit),
		limit:   limit,
		mutex:   &sync.Mutex{},
	}
}

func (h *History) Recent(n int) []domain.Exchange {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if n <= 0 {
		return nil
	}

	start := len(h.entries) - n
	if start < 0 {
		start = 0
	}

	out := make([]domain.Exchange, len(h.entries)-start)
	copy(out, h.entries[start:])

	return out
}

func (h *History) Append(exchange domain.Exchange) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.entries = append(h.entries, exchange)
	if overflow := len(h.entries) - h.limit; overflow > 0 {
		log.Trace().Int("evicted", overflow).Msg("trimming history")
		h.entries = append(h.entries[:0:0], h.entries[overflow:]...)
	}
}

func (h *History) Clear() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	size := len(h.entries)
	h.entries = make([]domain.Exchange, 0, h.limit)

	return size
}

func (h *History) Len() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	return len(h.entries)
}
