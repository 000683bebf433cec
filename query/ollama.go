package query

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// OllamaBackend answers queries with a local Ollama model.
type OllamaBackend struct {
	client *api.Client
	model  string
}

func NewOllamaBackend(baseURL, model string, httpClient *http.Client) (*OllamaBackend, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.1"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	return &OllamaBackend{
		client: api.NewClient(parsedURL, httpClient),
		model:  model,
	}, nil
}

func (b *OllamaBackend) Name() string {
	return string(BackendOllama)
}

func (b *OllamaBackend) Ask(ctx context.Context, req Request) (Result, error) {
	stream := false
	chatReq := &api.ChatRequest{
		Model: b.model,
		Messages: []api.Message{
			{Role: "system", Content: systemPrompt(req)},
			{Role: "user", Content: req.Query},
		},
		Stream: &stream,
	}

	var sb strings.Builder
	err := b.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("Ollama request failed: %w", err)
	}

	answer := strings.TrimSpace(sb.String())
	return Result{Success: answer != "", Answer: answer}, nil
}

func (b *OllamaBackend) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := b.client.List(ctx); err != nil {
		return fmt.Errorf("Ollama ping failed: %w", err)
	}
	return nil
}
