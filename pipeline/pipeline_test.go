package pipeline_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"wheely/identity"
	"wheely/model"
	"wheely/pipeline"
	"wheely/query"
	"wheely/query/testutil"
	"wheely/storage"
)

var dealer = identity.User{Username: "jane.doe", Role: identity.RoleDealer, Email: "jane@wheely.io"}

func newStore() *model.Store {
	return model.NewStore(storage.NewMemoryStore(), identity.StorageKey(dealer))
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		context   string
		want      string
	}{
		{"no context", "Show me my claims", "", "Show me my claims"},
		{"blank context", "Show me my claims", "   ", "Show me my claims"},
		{"with context", "Show me my claims", "Claim #123", "Context: Claim #123\nQuery: Show me my claims"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pipeline.BuildQuery(tt.utterance, tt.context); got != tt.want {
				t.Errorf("BuildQuery = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSubmitBlankUtterance(t *testing.T) {
	for _, utterance := range []string{"", "   ", "\n\t "} {
		store := newStore()
		backend := testutil.NewMockBackend("unused")
		p := pipeline.New(store, backend, dealer)

		_, err := p.Submit(context.Background(), utterance)
		if !errors.Is(err, pipeline.ErrEmptyUtterance) {
			t.Errorf("Submit(%q) error = %v", utterance, err)
		}
		if len(store.Active().Messages) != 0 {
			t.Errorf("Submit(%q) appended a message", utterance)
		}
		if len(backend.Calls()) != 0 {
			t.Errorf("Submit(%q) called the backend", utterance)
		}
		if p.Pending() {
			t.Error("blank submit left the pipeline pending")
		}
	}
}

func TestSubmitSuccess(t *testing.T) {
	store := newStore()
	backend := testutil.NewMockBackend(testutil.SuccessAnswer)
	p := pipeline.New(store, backend, dealer)

	reply, err := p.Submit(context.Background(), "Show me SKU Availability")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Content != testutil.SuccessAnswer || reply.Sender != storage.SenderAssistant {
		t.Errorf("unexpected reply: %+v", reply)
	}

	msgs := store.Active().Messages
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Sender != storage.SenderUser || msgs[0].Content != "Show me SKU Availability" {
		t.Errorf("unexpected user message: %+v", msgs[0])
	}
	if !msgs[0].Confirmed || !msgs[1].Confirmed {
		t.Error("both messages should be confirmed after resolution")
	}
	if p.Pending() {
		t.Error("pending not cleared")
	}

	calls := backend.Calls()
	if len(calls) != 1 || calls[0].Username != "jane.doe" || calls[0].Role != "dealer" {
		t.Errorf("unexpected backend calls: %+v", calls)
	}
}

func TestSubmitWithContext(t *testing.T) {
	store := newStore()
	backend := testutil.NewMockBackend("ok")
	p := pipeline.New(store, backend, dealer)

	p.SetContext("Claim #123")
	if _, err := p.Submit(context.Background(), "Show me my claims"); err != nil {
		t.Fatal(err)
	}

	want := "Context: Claim #123\nQuery: Show me my claims"
	if got := backend.Calls()[0].Query; got != want {
		t.Errorf("outbound query = %q, want %q", got, want)
	}
	if got := store.Active().Messages[0].Content; got != want {
		t.Errorf("user message = %q, want %q", got, want)
	}
	if p.Context() != "" {
		t.Error("context should be cleared after submission")
	}
}

func TestSubmitSendsUtteranceAsTyped(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		context   string
		want      string
	}{
		{"surrounding spaces", "  Show me my claims ", "", "  Show me my claims "},
		{"trailing newline", "Order 4711?\n", "", "Order 4711?\n"},
		{"with context", " SKU 1042 ", "Claim #123", "Context: Claim #123\nQuery:  SKU 1042 "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore()
			backend := testutil.NewMockBackend("ok")
			p := pipeline.New(store, backend, dealer)
			p.SetContext(tt.context)

			if _, err := p.Submit(context.Background(), tt.utterance); err != nil {
				t.Fatal(err)
			}
			if got := backend.Calls()[0].Query; got != tt.want {
				t.Errorf("outbound query = %q, want %q", got, tt.want)
			}
			if got := store.Active().Messages[0].Content; got != tt.want {
				t.Errorf("user message = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPing(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"reachable", nil, false},
		{"unreachable", errors.New("connection refused"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := testutil.NewMockBackend("unused")
			var hasDeadline bool
			backend.PingFunc = func(ctx context.Context) error {
				_, hasDeadline = ctx.Deadline()
				return tt.err
			}
			p := pipeline.New(newStore(), backend, dealer, pipeline.WithTimeout(time.Second))

			if err := p.Ping(context.Background()); (err != nil) != tt.wantErr {
				t.Errorf("Ping error = %v, wantErr %v", err, tt.wantErr)
			}
			if !hasDeadline {
				t.Error("ping ran without the request timeout")
			}
		})
	}
}

func TestContextClearedOnFailure(t *testing.T) {
	store := newStore()
	backend := testutil.NewMockBackend("")
	backend.AskFunc = func(ctx context.Context, req query.Request) (query.Result, error) {
		return query.Result{}, errors.New("connection refused")
	}
	p := pipeline.New(store, backend, dealer)

	p.SetContext("Claim #123")
	if _, err := p.Submit(context.Background(), "Show me my claims"); err != nil {
		t.Fatal(err)
	}
	if p.Context() != "" {
		t.Error("context should be cleared regardless of outcome")
	}
}

func TestFallbackForEveryFailure(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		handler http.HandlerFunc
	}{
		{name: "service failure", status: http.StatusOK, body: testutil.FailureBody},
		{name: "server error", status: http.StatusInternalServerError, body: `{"detail":"boom"}`},
		{name: "malformed body", status: http.StatusOK, body: testutil.MalformedBody},
		{name: "success without answer", status: http.StatusOK, body: testutil.NoAnswerBody},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
		},
	}

	var answers []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := tt.handler
			if handler == nil {
				handler = func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
					_, _ = w.Write([]byte(tt.body))
				}
			}
			srv := httptest.NewServer(handler)
			defer srv.Close()

			backend, err := query.NewWheelyBackend(srv.URL, srv.Client())
			if err != nil {
				t.Fatal(err)
			}
			store := newStore()
			p := pipeline.New(store, backend, dealer, pipeline.WithTimeout(100*time.Millisecond))

			reply, err := p.Submit(context.Background(), "Show me my claims")
			if err != nil {
				t.Fatal(err)
			}

			msgs := store.Active().Messages
			if len(msgs) != 2 {
				t.Fatalf("expected exactly one assistant message after the user message, got %d messages", len(msgs))
			}
			if msgs[1].Content != pipeline.FallbackAnswer || reply.Content != pipeline.FallbackAnswer {
				t.Errorf("reply = %q, want fallback", msgs[1].Content)
			}
			if p.Pending() {
				t.Error("pending not cleared after failure")
			}
			answers = append(answers, reply.Content)
		})
	}

	for _, a := range answers {
		if a != answers[0] {
			t.Errorf("fallback text differs between failure causes: %q vs %q", a, answers[0])
		}
	}
}

func TestPendingDuringRequest(t *testing.T) {
	store := newStore()
	backend := testutil.NewGatedBackend("done")
	p := pipeline.New(store, backend, dealer)

	ex, ok := p.Prepare("Show me orders placed for me")
	if !ok {
		t.Fatal("Prepare rejected a valid utterance")
	}
	if !p.Pending() || !p.Status().Pending {
		t.Error("pipeline should be pending after Prepare")
	}
	if msgs := store.Active().Messages; len(msgs) != 1 || msgs[0].Confirmed {
		t.Errorf("expected one unconfirmed user message, got %+v", msgs)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := p.Resolve(context.Background(), ex); err != nil {
			t.Errorf("Resolve: %v", err)
		}
	}()

	<-backend.Started()
	if !p.Pending() {
		t.Error("pipeline should stay pending while the backend is working")
	}
	backend.Release()
	<-done

	if p.Pending() {
		t.Error("pending not cleared")
	}
}

func TestAnswerLandsInSubmittingConversation(t *testing.T) {
	store := newStore()
	a := store.ActiveID()
	b := store.Create().ID
	store.Select(a)

	backend := testutil.NewGatedBackend("answer for A")
	p := pipeline.New(store, backend, dealer)

	ex, ok := p.Prepare("question in A")
	if !ok {
		t.Fatal("Prepare failed")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.Resolve(context.Background(), ex)
	}()

	<-backend.Started()
	store.Select(b)
	backend.Release()
	<-done

	convA, _ := store.Get(a)
	convB, _ := store.Get(b)
	if len(convA.Messages) != 2 || convA.Messages[1].Content != "answer for A" {
		t.Errorf("conversation A: %+v", convA.Messages)
	}
	if len(convB.Messages) != 0 {
		t.Errorf("answer leaked into B: %+v", convB.Messages)
	}
	if store.ActiveID() != b {
		t.Error("resolution must not change the selection")
	}
}

func TestDeleteWhileInFlightDropsAnswer(t *testing.T) {
	store := newStore()
	a := store.ActiveID()
	store.Create()
	store.Select(a)

	backend := testutil.NewGatedBackend("late answer")
	p := pipeline.New(store, backend, dealer)

	ex, ok := p.Prepare("question in A")
	if !ok {
		t.Fatal("Prepare failed")
	}

	var (
		resolveErr error
		wg         sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, resolveErr = p.Resolve(context.Background(), ex)
	}()

	<-backend.Started()
	store.Delete(a)
	backend.Release()
	wg.Wait()

	if !errors.Is(resolveErr, model.ErrConversationNotFound) {
		t.Errorf("expected ErrConversationNotFound, got %v", resolveErr)
	}
	for _, c := range store.List() {
		for _, m := range c.Messages {
			if m.Content == "late answer" {
				t.Errorf("dropped answer re-homed into %s", c.ID)
			}
		}
	}
	if p.Pending() {
		t.Error("pending not cleared after dropped answer")
	}
}

func TestConcurrentSubmissions(t *testing.T) {
	store := newStore()
	backend := testutil.NewGatedBackend("ok")
	p := pipeline.New(store, backend, dealer)

	first, _ := p.Prepare("one")
	second, _ := p.Prepare("two")

	var wg sync.WaitGroup
	for _, ex := range []*pipeline.Exchange{first, second} {
		wg.Add(1)
		go func(ex *pipeline.Exchange) {
			defer wg.Done()
			_, _ = p.Resolve(context.Background(), ex)
		}(ex)
	}

	<-backend.Started()
	<-backend.Started()
	backend.Release()
	wg.Wait()

	if p.Pending() {
		t.Error("pending should clear once every exchange resolved")
	}
	if got := len(store.Active().Messages); got != 4 {
		t.Errorf("expected 4 messages, got %d", got)
	}
}

func TestResolveTwice(t *testing.T) {
	store := newStore()
	p := pipeline.New(store, testutil.NewMockBackend("ok"), dealer)

	ex, _ := p.Prepare("hello")
	if _, err := p.Resolve(context.Background(), ex); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Resolve(context.Background(), ex); !errors.Is(err, pipeline.ErrAlreadyResolved) {
		t.Errorf("expected ErrAlreadyResolved, got %v", err)
	}
	if len(store.Active().Messages) != 2 {
		t.Error("second Resolve must not append")
	}
}
