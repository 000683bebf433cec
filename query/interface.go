// Package query talks to whatever answers the user's questions.
//
// The default backend is the Wheely query service: a single REST endpoint that
// takes {username, query} and returns {success, answer}. The LLM backends
// (OpenAI, Anthropic, Ollama) answer the same request directly and are meant
// for demos and offline use when the service is not reachable.
//
// All backends are non-streaming. An exchange either produces a Result or an
// error; callers decide how failures are shown to the user.
package query

import (
	"context"
	"errors"
)

// BackendType identifies a backend implementation.
type BackendType string

const (
	BackendWheely    BackendType = "wheely"
	BackendOpenAI    BackendType = "openai"
	BackendAnthropic BackendType = "anthropic"
	BackendOllama    BackendType = "ollama"
)

var ErrUnknownBackend = errors.New("unknown query backend")

// Request is one question from one user
type Request struct {
	Username string
	Role     string
	Query    string
}

// Result mirrors the service reply. Success=false is a service-reported
// failure, not a transport error.
type Result struct {
	Success bool
	Answer  string
}

// Backend answers queries
type Backend interface {
	Ask(ctx context.Context, req Request) (Result, error)
	Name() string
	Ping(ctx context.Context) error
}

// Config holds backend-specific configuration.
type Config struct {
	Type   BackendType
	URL    string
	Model  string
	APIKey string // OpenAI/Anthropic only
}
