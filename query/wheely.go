package query

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"wheely/config"
)

// maxResponseBytes caps how much of a reply is read
const maxResponseBytes = 4 << 20

// WheelyBackend posts queries to the Wheely query service.
type WheelyBackend struct {
	url    string
	client *http.Client
}

func NewWheelyBackend(url string, client *http.Client) (*WheelyBackend, error) {
	if url == "" {
		return nil, fmt.Errorf("query service URL is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &WheelyBackend{url: url, client: client}, nil
}

func (b *WheelyBackend) Name() string {
	return string(BackendWheely)
}

type wheelyRequest struct {
	Username string `json:"username"`
	Query    string `json:"query"`
}

// Ask sends {username, query} and reads {success, answer}. Non-2xx status,
// an unparseable body and transport failures are errors.
func (b *WheelyBackend) Ask(ctx context.Context, req Request) (Result, error) {
	body, err := json.Marshal(wheelyRequest{Username: req.Username, Query: req.Query})
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("query service unreachable: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Result{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("query service returned %s", resp.Status)
	}

	return parseWheelyResponse(data)
}

func parseWheelyResponse(data []byte) (Result, error) {
	if !gjson.ValidBytes(data) {
		return Result{}, fmt.Errorf("query service returned malformed JSON")
	}

	parsed := gjson.ParseBytes(data)
	if !parsed.IsObject() {
		return Result{}, fmt.Errorf("query service returned %s, want object", parsed.Type)
	}

	if !parsed.Get("success").Bool() {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[query] service reported failure: %s", parsed.Get("message").String())
		}
		return Result{Success: false}, nil
	}

	answer := parsed.Get("answer")
	if !answer.Exists() || answer.String() == "" {
		// success without an answer is indistinguishable from a refusal
		return Result{Success: false}, nil
	}

	return Result{Success: true, Answer: answer.String()}, nil
}

// Ping succeeds when the service answers HTTP at all; a 405 on GET is still a live server.
func (b *WheelyBackend) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.url, nil)
	if err != nil {
		return err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("query service ping failed: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("query service ping failed: %s", resp.Status)
	}
	return nil
}
