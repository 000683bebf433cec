package query

import (
	"errors"
	"strings"
	"testing"
)

func TestNewBackend(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		wantName    string
	}{
		{
			name:     "wheely service",
			config:   Config{Type: BackendWheely, URL: "http://127.0.0.1:8000/api/query"},
			wantName: "wheely",
		},
		{
			name:        "wheely without url",
			config:      Config{Type: BackendWheely},
			expectError: true,
		},
		{
			name:     "ollama with defaults",
			config:   Config{Type: BackendOllama},
			wantName: "ollama",
		},
		{
			name:     "openai",
			config:   Config{Type: BackendOpenAI, Model: "gpt-4o-mini", APIKey: "test-key"},
			wantName: "openai",
		},
		{
			name:        "openai without key",
			config:      Config{Type: BackendOpenAI},
			expectError: true,
		},
		{
			name:     "anthropic",
			config:   Config{Type: BackendAnthropic, APIKey: "test-key"},
			wantName: "anthropic",
		},
		{
			name:        "anthropic without key",
			config:      Config{Type: BackendAnthropic},
			expectError: true,
		},
		{
			name:        "unknown",
			config:      Config{Type: BackendType("carrier-pigeon")},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBackend(tt.config, nil)
			if tt.expectError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if b.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", b.Name(), tt.wantName)
			}
		})
	}
}

func TestNewBackendUnknownIsSentinel(t *testing.T) {
	_, err := NewBackend(Config{Type: "nope"}, nil)
	if !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
}

func TestMapBackendID(t *testing.T) {
	tests := []struct {
		id   string
		want BackendType
	}{
		{"", BackendWheely},
		{"wheely", BackendWheely},
		{"OpenAI", BackendOpenAI},
		{"claude", BackendAnthropic},
		{"ollama", BackendOllama},
		{"mystery", BackendType("mystery")},
	}

	for _, tt := range tests {
		if got := MapBackendID(tt.id); got != tt.want {
			t.Errorf("MapBackendID(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestSystemPrompt(t *testing.T) {
	p := systemPrompt(Request{Username: "sam.rep", Role: "sales_rep"})
	for _, want := range []string{"sam.rep", "sales_rep", "Context:"} {
		if !strings.Contains(p, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
	if !strings.Contains(systemPrompt(Request{}), "guest") {
		t.Error("empty request should be described as a guest")
	}
}
