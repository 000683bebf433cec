// Package pipeline turns a submitted utterance into a finished exchange: an
// optimistic user message, one backend call, and exactly one assistant reply.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"wheely/config"
	"wheely/identity"
	"wheely/model"
	"wheely/query"
	"wheely/storage"
)

// FallbackAnswer is shown for every failed exchange, whatever the cause.
const FallbackAnswer = "Sorry, I can't assist with that."

var (
	ErrEmptyUtterance  = errors.New("empty utterance")
	ErrAlreadyResolved = errors.New("exchange already resolved")
)

// Exchange is a submitted utterance waiting for its answer. The target
// conversation is fixed at submission time.
type Exchange struct {
	ConversationID string
	UserMessage    storage.Message
	Query          string

	resolved atomic.Bool
}

// Pipeline sends utterances to a query backend and records the exchange in the store.
type Pipeline struct {
	store   *model.Store
	backend query.Backend
	user    identity.User
	timeout time.Duration

	mu          sync.Mutex
	contextNote string
	inFlight    int
}

type Option func(*Pipeline)

// WithTimeout bounds each backend call; zero leaves it to the transport
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

func New(store *model.Store, backend query.Backend, user identity.User, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:   store,
		backend: backend,
		user:    user,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BuildQuery prefixes the utterance with the context note, if there is one.
func BuildQuery(utterance, contextNote string) string {
	if strings.TrimSpace(contextNote) == "" {
		return utterance
	}
	return fmt.Sprintf("Context: %s\nQuery: %s", contextNote, utterance)
}

// SetContext sets the note attached to the next submission
func (p *Pipeline) SetContext(note string) {
	p.mu.Lock()
	p.contextNote = strings.TrimSpace(note)
	p.mu.Unlock()
}

func (p *Pipeline) Context() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.contextNote
}

func (p *Pipeline) ClearContext() {
	p.SetContext("")
}

// Pending reports whether any exchange is waiting on the backend
func (p *Pipeline) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight > 0
}

// Status is the presentation-facing snapshot of the pipeline
func (p *Pipeline) Status() model.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return model.Status{Pending: p.inFlight > 0, ContextNote: p.contextNote}
}

// Prepare validates the utterance, records it unconfirmed on the active
// conversation, marks the pipeline pending and consumes the context note.
// It returns false, with nothing recorded, for a blank utterance. A non-blank
// utterance is sent exactly as typed.
func (p *Pipeline) Prepare(utterance string) (*Exchange, bool) {
	if strings.TrimSpace(utterance) == "" {
		return nil, false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	q := BuildQuery(utterance, p.contextNote)
	conversationID := p.store.ActiveID()

	msg, err := p.store.Append(conversationID, storage.Message{
		Content: q,
		Sender:  storage.SenderUser,
	})
	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[pipeline] could not record utterance in %s: %v", conversationID, err)
		}
		return nil, false
	}

	p.inFlight++
	p.contextNote = ""

	if config.DebugLog != nil {
		config.DebugLog.Printf("[pipeline] submitted to %s (%d in flight)", conversationID, p.inFlight)
	}

	return &Exchange{
		ConversationID: conversationID,
		UserMessage:    msg,
		Query:          q,
	}, true
}

// Resolve calls the backend for a prepared exchange and appends the answer,
// or FallbackAnswer on any failure, to the conversation captured by Prepare.
// The pending count is released however it returns. When that conversation
// has been deleted meanwhile, the answer is dropped and
// model.ErrConversationNotFound is returned.
func (p *Pipeline) Resolve(ctx context.Context, ex *Exchange) (storage.Message, error) {
	if !ex.resolved.CompareAndSwap(false, true) {
		return storage.Message{}, ErrAlreadyResolved
	}
	defer p.release()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	answer := p.ask(ctx, ex.Query)

	msg, err := p.store.Append(ex.ConversationID, storage.Message{
		Content:   answer,
		Sender:    storage.SenderAssistant,
		Confirmed: true,
	})
	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[pipeline] dropping answer for %s: %v", ex.ConversationID, err)
		}
		return storage.Message{}, err
	}

	if err := p.store.Confirm(ex.ConversationID, ex.UserMessage.ID); err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[pipeline] confirm %s: %v", ex.UserMessage.ID, err)
	}

	return msg, nil
}

// ask maps every failure onto FallbackAnswer; the cause only goes to the debug log
func (p *Pipeline) ask(ctx context.Context, q string) string {
	res, err := p.backend.Ask(ctx, query.Request{
		Username: p.user.Username,
		Role:     p.user.Role.String(),
		Query:    q,
	})

	switch {
	case err != nil:
		if config.DebugLog != nil {
			config.DebugLog.Printf("[pipeline] %s backend error: %v", p.backend.Name(), err)
		}
		return FallbackAnswer
	case !res.Success || strings.TrimSpace(res.Answer) == "":
		if config.DebugLog != nil {
			config.DebugLog.Printf("[pipeline] %s backend reported no answer", p.backend.Name())
		}
		return FallbackAnswer
	default:
		return res.Answer
	}
}

func (p *Pipeline) release() {
	p.mu.Lock()
	if p.inFlight > 0 {
		p.inFlight--
	}
	p.mu.Unlock()
}

// Ping checks that the backend is reachable, bounded by the request timeout
func (p *Pipeline) Ping(ctx context.Context) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.backend.Ping(ctx); err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[pipeline] %s backend ping: %v", p.backend.Name(), err)
		}
		return err
	}
	return nil
}

// Submit runs Prepare and Resolve back to back
func (p *Pipeline) Submit(ctx context.Context, utterance string) (storage.Message, error) {
	ex, ok := p.Prepare(utterance)
	if !ok {
		return storage.Message{}, ErrEmptyUtterance
	}
	return p.Resolve(ctx, ex)
}
