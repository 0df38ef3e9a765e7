package generator

import (
	"agribot/internal/core/domain"
	"context"
	"fmt"
	"strings"

	"github.com/revrost/go-openrouter"
)

type openRouterClient interface {
	CreateChatCompletion(ctx context.Context,
		ccr openrouter.ChatCompletionRequest) (openrouter.ChatCompletionResponse, error)
}

type OpenRouter struct {
	client       openRouterClient
	configured   bool
	systemPrompt string
	maxTokens    int
	temperature  float32
}

type OpenRouterParams struct {
	APIKey       string
	SiteURL      string
	SiteName     string
	SystemPrompt string
	MaxTokens    int
	Temperature  float32
}

func NewOpenRouter(p OpenRouterParams) *OpenRouter {
	return &OpenRouter{
		configured:   strings.TrimSpace(p.APIKey) != "",
		systemPrompt: p.SystemPrompt,
		maxTokens:    p.MaxTokens,
		temperature:  p.Temperature,
		client: openrouter.NewClient(
			p.APIKey,
			openrouter.WithHTTPReferer(p.SiteURL),
			openrouter.WithXTitle(p.SiteName),
		),
	}
}

func (c *OpenRouter) Configured() bool {
	return c.configured
}

func (c *OpenRouter) GenerateFromPrompt(
	ctx context.Context, model domain.Model, prompts []domain.Prompt) (domain.ModelResponse, error) {
	if !c.configured {
		return domain.ModelResponse{}, domain.ErrMissingCredential
	}

	messages := make([]openrouter.ChatCompletionMessage, len(prompts)+1)

	messages[0] = openrouter.ChatCompletionMessage{
		Role: openrouter.ChatMessageRoleSystem,
		Content: openrouter.Content{
			Text: c.systemPrompt,
		},
	}

	for i, prompt := range prompts {
		switch prompt.Author {
		case domain.Assistant:
			messages[i+1] = openrouter.ChatCompletionMessage{
				Role: openrouter.ChatMessageRoleAssistant,
				Content: openrouter.Content{
					Text: prompt.Prompt,
				},
			}
		default:
			messages[i+1] = createUserMessage(prompt)
		}
	}

	ccr := openrouter.ChatCompletionRequest{
		Model:       model.Identifier,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	resp, err := c.client.CreateChatCompletion(ctx, ccr)
	if err != nil {
		return domain.ModelResponse{}, fmt.Errorf("openrouter API error for %s: %w", model.Identifier, err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content.Text) == "" {
		return domain.ModelResponse{}, fmt.Errorf("%s: %w", model.Identifier, domain.ErrEmptyCompletion)
	}

	name := resp.Model
	if name == "" {
		name = model.Identifier
	}

	metadata := domain.ResponseMetadata{Model: name}

	// usage is optional upstream, a missing block costs nothing
	if resp.Usage != nil {
		metadata.CompletionTokens = resp.Usage.CompletionTokens
		metadata.TotalTokens = resp.Usage.TotalTokens
	}

	return domain.ModelResponse{
		Response: resp.Choices[0].Message.Content.Text,
		Metadata: metadata,
	}, nil
}

func createUserMessage(prompt domain.Prompt) openrouter.ChatCompletionMessage {
	if prompt.ImageURL != "" {
		return openrouter.ChatCompletionMessage{
			Role: openrouter.ChatMessageRoleUser,
			Content: openrouter.Content{Multi: []openrouter.ChatMessagePart{
				{
					Type: openrouter.ChatMessagePartTypeText,
					Text: prompt.Prompt,
				},
				{
					Type:     openrouter.ChatMessagePartTypeImageURL,
					ImageURL: &openrouter.ChatMessageImageURL{URL: prompt.ImageURL},
				},
			},
			},
		}
	}

	return openrouter.ChatCompletionMessage{
		Role: openrouter.ChatMessageRoleUser,
		Content: openrouter.Content{
			Text: prompt.Prompt,
		},
	}
}
