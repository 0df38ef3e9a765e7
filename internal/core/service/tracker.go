package service

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// UsageTracker accumulates the estimated upstream spend for the running process.
type UsageTracker struct {
	total float64
	mutex *sync.Mutex
}

func NewUsageTracker() *UsageTracker {
	return &UsageTracker{mutex: &sync.Mutex{}}
}

func (t *UsageTracker) AddCost(cost float64) {
	if cost < 0 {
		log.Warn().Float64("cost", cost).Msg("ignoring negative cost")
		return
	}

	t.mutex.Lock()
	t.total += cost
	t.mutex.Unlock()
}

func (t *UsageTracker) GetSpent() float64 {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return t.total
}
