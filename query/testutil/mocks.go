package testutil

import (
	"context"
	"sync"

	"wheely/query"
)

// MockBackend implements query.Backend for tests. AskFunc decides the reply;
// every request is recorded.
type MockBackend struct {
	AskFunc  func(ctx context.Context, req query.Request) (query.Result, error)
	PingFunc func(ctx context.Context) error

	mu    sync.Mutex
	calls []query.Request
}

// NewMockBackend answers every query with answer
func NewMockBackend(answer string) *MockBackend {
	m := &MockBackend{}
	m.AskFunc = func(ctx context.Context, req query.Request) (query.Result, error) {
		return query.Result{Success: true, Answer: answer}, nil
	}
	m.PingFunc = func(ctx context.Context) error { return nil }
	return m
}

func (m *MockBackend) Ask(ctx context.Context, req query.Request) (query.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()
	return m.AskFunc(ctx, req)
}

func (m *MockBackend) Name() string {
	return "mock"
}

func (m *MockBackend) Ping(ctx context.Context) error {
	if m.PingFunc == nil {
		return nil
	}
	return m.PingFunc(ctx)
}

// Calls returns a copy of the recorded requests
func (m *MockBackend) Calls() []query.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]query.Request(nil), m.calls...)
}

// GatedBackend holds every Ask until Release is called, so tests can act
// while a request is in flight.
type GatedBackend struct {
	*MockBackend
	started chan query.Request
	gate    chan struct{}
}

func NewGatedBackend(answer string) *GatedBackend {
	g := &GatedBackend{
		MockBackend: NewMockBackend(answer),
		started:     make(chan query.Request, 16),
		gate:        make(chan struct{}),
	}
	inner := g.MockBackend.AskFunc
	g.MockBackend.AskFunc = func(ctx context.Context, req query.Request) (query.Result, error) {
		g.started <- req
		select {
		case <-g.gate:
		case <-ctx.Done():
			return query.Result{}, ctx.Err()
		}
		return inner(ctx, req)
	}
	return g
}

// Started receives each request as it reaches the backend
func (g *GatedBackend) Started() <-chan query.Request {
	return g.started
}

// Release lets every held and future request complete
func (g *GatedBackend) Release() {
	close(g.gate)
}
