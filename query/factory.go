package query

import (
	"fmt"
	"net/http"
	"strings"
)

// NewBackend creates a backend from configuration. httpClient is used by the
// backends that accept one (wheely, ollama); nil means http.DefaultClient.
func NewBackend(cfg Config, httpClient *http.Client) (Backend, error) {
	switch cfg.Type {
	case BackendWheely:
		return NewWheelyBackend(cfg.URL, httpClient)
	case BackendOpenAI:
		return NewOpenAIBackend(cfg.URL, cfg.APIKey, cfg.Model)
	case BackendAnthropic:
		return NewAnthropicBackend(cfg.URL, cfg.APIKey, cfg.Model)
	case BackendOllama:
		return NewOllamaBackend(cfg.URL, cfg.Model, httpClient)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Type)
	}
}

// MapBackendID converts a config backend id to a BackendType. Unknown ids are
// passed through so that NewBackend reports them.
func MapBackendID(id string) BackendType {
	switch strings.ToLower(strings.TrimSpace(id)) {
	case "", "wheely", "service":
		return BackendWheely
	case "openai":
		return BackendOpenAI
	case "anthropic", "claude":
		return BackendAnthropic
	case "ollama":
		return BackendOllama
	default:
		return BackendType(id)
	}
}

// NeedsAPIKey reports whether the backend reads a key from the credential store
func NeedsAPIKey(t BackendType) bool {
	return t == BackendOpenAI || t == BackendAnthropic
}
