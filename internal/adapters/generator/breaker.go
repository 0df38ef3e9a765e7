package generator

import (
	"agribot/internal/core/domain"
	"agribot/internal/core/port"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// AttemptObserver receives the outcome of every upstream attempt.
type AttemptObserver interface {
	ObserveAttempt(model, outcome string, elapsed time.Duration)
}

const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

type BreakerSettings struct {
	// MaxFailures is the number of consecutive failures that opens a model's breaker.
	MaxFailures uint32
	// Timeout is how long an open breaker stays open before letting a probe through.
	Timeout time.Duration
}

// Breaker wraps a TextGenerator with one circuit breaker per upstream model, so a model that
// keeps failing is skipped by the fallback loop until its cool-down expires.
type Breaker struct {
	next     port.TextGenerator
	settings BreakerSettings
	observer AttemptObserver
	breakers map[string]*gobreaker.CircuitBreaker
	mutex    *sync.Mutex
	l        *zerolog.Logger
}

func NewBreaker(next port.TextGenerator, settings BreakerSettings, observer AttemptObserver) *Breaker {
	if settings.MaxFailures == 0 {
		settings.MaxFailures = 5
	}

	if settings.Timeout <= 0 {
		settings.Timeout = time.Minute
	}

	logger := log.With().
		Str("adapter", "breaker").
		Logger()

	return &Breaker{
		next:     next,
		settings: settings,
		observer: observer,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		mutex:    &sync.Mutex{},
		l:        &logger,
	}
}

func (b *Breaker) Configured() bool {
	return b.next.Configured()
}

func (b *Breaker) GenerateFromPrompt(
	ctx context.Context, model domain.Model, prompts []domain.Prompt) (domain.ModelResponse, error) {
	cb := b.breakerFor(model.Identifier)
	start := time.Now()

	result, err := cb.Execute(func() (interface{}, error) {
		return b.next.GenerateFromPrompt(ctx, model, prompts)
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		b.observe(model.Identifier, OutcomeRejected, start)
		return domain.ModelResponse{}, fmt.Errorf("model %s unavailable: %w", model.Identifier, err)
	case err != nil:
		b.observe(model.Identifier, OutcomeFailure, start)
		return domain.ModelResponse{}, err
	}

	b.observe(model.Identifier, OutcomeSuccess, start)

	response, ok := result.(domain.ModelResponse)
	if !ok {
		return domain.ModelResponse{}, errors.New("unexpected response type from generator")
	}

	return response, nil
}

// State reports the breaker state of a model. Models that were never attempted are closed.
func (b *Breaker) State(model domain.Model) string {
	b.mutex.Lock()
	cb, ok := b.breakers[model.Identifier]
	b.mutex.Unlock()

	if !ok {
		return gobreaker.StateClosed.String()
	}

	return cb.State().String()
}

func (b *Breaker) breakerFor(identifier string) *gobreaker.CircuitBreaker {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if cb, ok := b.breakers[identifier]; ok {
		return cb
	}

	maxFailures := b.settings.MaxFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        identifier,
		MaxRequests: 1,
		Timeout:     b.settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			// a caller hanging up says nothing about the model
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			b.l.Info().
				Str("model", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})
	b.breakers[identifier] = cb

	return cb
}

func (b *Breaker) observe(model, outcome string, start time.Time) {
	if b.observer == nil {
		return
	}

	b.observer.ObserveAttempt(model, outcome, time.Since(start))
}
