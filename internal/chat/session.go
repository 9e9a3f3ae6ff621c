// Package chat runs one conversation: it appends the user turn, asks a
// responder and always appends exactly one assistant turn.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/interactive-resume/internal/identity"
	"github.com/spigell/interactive-resume/internal/logger"
	"github.com/spigell/interactive-resume/internal/reply"
	"github.com/spigell/interactive-resume/internal/thread"
)

var (
	// ErrBusy is returned when a message is sent while another is in flight.
	ErrBusy = errors.New("a reply is still pending")
	// ErrEmptyMessage is returned for blank input.
	ErrEmptyMessage = errors.New("message is empty")
)

// Responder answers one user turn.
type Responder interface {
	Send(ctx context.Context, r reply.Request) (*reply.Reply, error)
}

// Options tune the fixed texts of a session.
type Options struct {
	Welcome      string
	ContactEmail string
}

type Session struct {
	identity  identity.Identity
	thread    *thread.Tracker
	responder Responder
	logger    *zap.Logger
	opts      Options

	busy atomic.Bool

	mu       sync.RWMutex
	messages []Message
}

func NewSession(id identity.Identity, tracker *thread.Tracker, responder Responder, log *zap.Logger, opts Options) (*Session, error) {
	if tracker == nil {
		return nil, errors.New("thread tracker is required")
	}
	if responder == nil {
		return nil, errors.New("responder is required")
	}
	s := &Session{
		identity:  id,
		thread:    tracker,
		responder: responder,
		logger:    logger.WithSession(log, id.ClientID, id.SessionID),
		opts:      opts,
	}

	s.messages = []Message{Welcome(opts)}

	return s, nil
}

func (s *Session) Identity() identity.Identity {
	return s.identity
}

// PreviousResponseID is the id the next request will continue from.
func (s *Session) PreviousResponseID() string {
	return s.thread.Current()
}

// Busy reports whether a reply is pending.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// Messages returns a copy of the conversation so far.
func (s *Session) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Send appends content as a user turn, waits for the responder and appends
// the assistant turn. Responder failures never surface as errors: they are
// turned into a fallback assistant message. Only ErrEmptyMessage and ErrBusy
// are returned, and in that case nothing is appended.
func (s *Session) Send(ctx context.Context, content string) (user Message, assistant Message, err error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Message{}, Message{}, ErrEmptyMessage
	}
	if !s.busy.CompareAndSwap(false, true) {
		return Message{}, Message{}, ErrBusy
	}
	defer s.busy.Store(false)

	user = Message{ID: "user-" + uuid.NewString(), Role: RoleUser, Content: content}
	s.append(user)

	previous := s.thread.Current()
	log := s.logger.With(zap.String(logger.FieldResponseID, previous))

	res, sendErr := s.respond(ctx, reply.Request{
		ClientID:           s.identity.ClientID,
		SessionID:          s.identity.SessionID,
		Message:            content,
		PreviousResponseID: previous,
	})

	assistant = s.settle(log, res, sendErr)
	s.append(assistant)

	return user, assistant, nil
}

// respond shields the session from a panicking responder.
func (s *Session) respond(ctx context.Context, r reply.Request) (res *reply.Reply, err error) {
	defer func() {
		if p := recover(); p != nil {
			res, err = nil, &reply.TransportError{Err: fmt.Errorf("responder panic: %v", p)}
		}
	}()
	return s.responder.Send(ctx, r)
}

func (s *Session) settle(log *zap.Logger, res *reply.Reply, err error) Message {
	fallbackID := "assistant-" + uuid.NewString()

	var contentErr *reply.ContentError
	switch {
	case errors.Is(err, reply.ErrQuotaExceeded):
		log.Warn("reply quota exceeded")
		return Message{ID: fallbackID, Role: RoleAssistant, Content: QuotaMessage(s.opts.ContactEmail)}

	case errors.As(err, &contentErr) && res != nil:
		log.Warn("reply without text", zap.String("response_id", res.ID))
		s.advance(log, res.ID)
		return Message{ID: idOr(res.ID, fallbackID), Role: RoleAssistant, Content: NoReplyMessage, Token: res.Token}

	case err != nil || res == nil:
		log.Warn("reply failed", zap.Error(err))
		return Message{ID: fallbackID, Role: RoleAssistant, Content: UnavailableMessage}
	}

	s.advance(log, res.ID)
	log.Debug("reply received", zap.String("response_id", res.ID))

	return Message{ID: idOr(res.ID, fallbackID), Role: RoleAssistant, Content: res.Text, Token: res.Token}
}

func (s *Session) advance(log *zap.Logger, id string) {
	if id == "" {
		return
	}
	if err := s.thread.Update(id); err != nil {
		log.Error("persisting response id", zap.String("response_id", id), zap.Error(err))
	}
}

func (s *Session) append(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
}

func idOr(id, fallback string) string {
	if id == "" {
		return fallback
	}
	return id
}
