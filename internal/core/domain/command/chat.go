package command

import (
	"agribot/internal/core/domain"
	"agribot/internal/core/port"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Chat relays a user query to the first upstream model that answers and records the exchange.
type Chat struct {
	textGenerator port.TextGenerator
	history       port.HistoryStore
	track         port.CostTracker
	models        []domain.Model
	timeout       time.Duration
	costPerToken  float64
	replayDepth   int

	l *zerolog.Logger
}

type ChatParams struct {
	TextGenerator port.TextGenerator
	History       port.HistoryStore
	Track         port.CostTracker
	Models        []domain.Model
	Timeout       time.Duration
	CostPerToken  float64
	ReplayDepth   int
}

func NewChat(p ChatParams) (*Chat, error) {
	if len(p.Models) == 0 {
		return nil, domain.ErrNoModelsConfigured
	}

	if p.TextGenerator == nil || p.History == nil || p.Track == nil {
		return nil, errors.New("chat requires a generator, a history store and a cost tracker")
	}

	if p.Timeout <= 0 {
		p.Timeout = 30 * time.Second
	}

	if p.ReplayDepth <= 0 {
		p.ReplayDepth = domain.DefaultReplayDepth
	}

	logger := log.With().
		Str("handler", "chat").
		Logger()

	return &Chat{
		textGenerator: p.TextGenerator,
		history:       p.History,
		track:         p.Track,
		models:        p.Models,
		timeout:       p.Timeout,
		costPerToken:  p.CostPerToken,
		replayDepth:   p.ReplayDepth,
		l:             &logger,
	}, nil
}

func (c *Chat) Models() []domain.Model {
	out := make([]domain.Model, len(c.models))
	copy(out, c.models)

	return out
}

// Respond returns domain.ErrEmptyInput when there is neither text nor an image. Configuration and
// upstream failures are reported inside the response, not as an error.
func (c *Chat) Respond(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	l := c.logger(ctx)

	query := strings.TrimSpace(req.Query)
	imageURL := strings.TrimSpace(req.ImageURL)

	l.Debug().Str("query", query).
		Bool("image", imageURL != "").
		Str("language", req.Language).
		Msg("handling request")

	if query == "" && imageURL == "" {
		return domain.ChatResponse{}, domain.ErrEmptyInput
	}

	if !c.textGenerator.Configured() {
		l.Error().Err(domain.ErrMissingCredential).Send()
		return domain.ChatResponse{
			Reply:     domain.MissingKeyReply,
			Error:     true,
			ErrorType: domain.ConfigError,
		}, nil
	}

	remembered, upstream := c.composeQuery(query, imageURL, req.Language)
	prompts := c.buildPrompts(upstream, imageURL)

	response, err := c.attempt(ctx, prompts)
	if err != nil {
		l.Error().Err(err).Msg("failed to generate response")
		zero := 0.0
		return domain.ChatResponse{
			Reply:     domain.OverloadedReply,
			Error:     true,
			ErrorType: domain.APIError,
			Cost:      &zero,
		}, nil
	}

	cost := float64(response.Metadata.TotalTokens) * c.costPerToken
	c.track.AddCost(cost)
	c.history.Append(domain.Exchange{User: remembered, Bot: response.Response})

	l.Info().Str("model", response.Metadata.Model).
		Int("totalTokens", response.Metadata.TotalTokens).
		Float64("cost", cost).
		Msg("reply generated")

	return domain.ChatResponse{
		Reply: response.Response,
		Cost:  &cost,
	}, nil
}

// composeQuery returns the text kept in history and the augmented text sent upstream.
func (c *Chat) composeQuery(query, imageURL, language string) (string, string) {
	remembered, upstream := query, query
	if query == "" {
		remembered = domain.ImagePlaceholder
		upstream = domain.DefaultImageQuery
	}

	if imageURL != "" {
		upstream += domain.ImageInstruction
	}

	language = strings.TrimSpace(language)
	if language == "" {
		language = domain.DefaultLanguage
	}

	return remembered, upstream + fmt.Sprintf(domain.LanguageDirective, language)
}

func (c *Chat) buildPrompts(text, imageURL string) []domain.Prompt {
	recent := c.history.Recent(c.replayDepth)

	prompts := make([]domain.Prompt, 0, len(recent)*2+1)
	for _, exchange := range recent {
		prompts = append(prompts,
			domain.Prompt{Author: domain.User, Prompt: exchange.User},
			domain.Prompt{Author: domain.Assistant, Prompt: exchange.Bot})
	}

	return append(prompts, domain.Prompt{
		Author:   domain.User,
		Prompt:   text,
		ImageURL: imageURL,
	})
}

// attempt tries each model once, in order, and returns the first successful response.
func (c *Chat) attempt(ctx context.Context, prompts []domain.Prompt) (domain.ModelResponse, error) {
	l := c.logger(ctx)

	for i, model := range c.models {
		if err := ctx.Err(); err != nil {
			return domain.ModelResponse{}, fmt.Errorf("request aborted before %s: %w", model.Identifier, err)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		response, err := c.textGenerator.GenerateFromPrompt(attemptCtx, model, prompts)
		cancel()

		if err != nil {
			l.Warn().Err(err).
				Str("model", model.Identifier).
				Int("attempt", i+1).
				Msg("upstream model failed, falling back")
			continue
		}

		if response.Metadata.Model == "" {
			response.Metadata.Model = model.Identifier
		}

		return response, nil
	}

	return domain.ModelResponse{}, domain.ErrModelsExhausted
}

func (c *Chat) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		scoped := l.With().Str("handler", "chat").Logger()
		return &scoped
	}

	return c.l
}
