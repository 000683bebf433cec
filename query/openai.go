package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIBackend answers queries with OpenAI chat completions.
type OpenAIBackend struct {
	client openai.Client
	model  string
}

func NewOpenAIBackend(baseURL, apiKey, model string) (*OpenAIBackend, error) {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &OpenAIBackend{client: client, model: model}, nil
}

func (b *OpenAIBackend) Name() string {
	return string(BackendOpenAI)
}

func (b *OpenAIBackend) Ask(ctx context.Context, req Request) (Result, error) {
	resp, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(b.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt(req)),
			openai.UserMessage(req.Query),
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("OpenAI request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return Result{Success: false}, nil
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	return Result{Success: answer != "", Answer: answer}, nil
}

// Ping lists models, which needs a valid key but costs no tokens
func (b *OpenAIBackend) Ping(ctx context.Context) error {
	if _, err := b.client.Models.List(ctx); err != nil {
		return fmt.Errorf("OpenAI ping failed: %w", err)
	}
	return nil
}
