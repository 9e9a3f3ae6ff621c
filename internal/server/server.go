// Package server serves the rendered résumé and a JSON chat API. Visitor
// identity lives in cookies; conversations live in memory, one per session
// id, with their thread id kept in the durable store until the session
// expires.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/spigell/interactive-resume/internal/chat"
	"github.com/spigell/interactive-resume/internal/identity"
	"github.com/spigell/interactive-resume/internal/logger"
	"github.com/spigell/interactive-resume/internal/render"
	"github.com/spigell/interactive-resume/internal/resume"
	"github.com/spigell/interactive-resume/internal/storage"
	"github.com/spigell/interactive-resume/internal/thread"
)

const (
	maxRequestBody    = 64 << 10
	defaultSessionTTL = 30 * time.Minute
)

type Keys struct {
	ClientID  string
	SessionID string
	Thread    string
	HideIntro string
}

func (k Keys) withDefaults() Keys {
	if k.ClientID == "" {
		k.ClientID = identity.DefaultClientIDKey
	}
	if k.SessionID == "" {
		k.SessionID = identity.DefaultSessionIDKey
	}
	if k.Thread == "" {
		k.Thread = thread.DefaultKey
	}
	if k.HideIntro == "" {
		k.HideIntro = chat.DefaultHideIntroKey
	}
	return k
}

type Config struct {
	Keys             Keys
	PDFPath          string
	Title            string
	Lang             string
	Intro            string
	TranscriptPrefix string
	TranscriptHeader chat.TranscriptHeader
	QuickQuestions   []string
	Chat             chat.Options
	// SessionTTL is how long an unused chat session is kept.
	SessionTTL time.Duration
}

// Server is an http.Handler. Document and LoadError describe the résumé
// loaded at start-up; a load failure is rendered inline and does not stop
// the chat API.
type Server struct {
	cfg       Config
	logger    *zap.Logger
	renderer  *render.Renderer
	responder chat.Responder
	threads   storage.Store
	document  *resume.Document
	loadErr   error
	sessions  *registry
	now       func() time.Time
	router    chi.Router
}

func New(cfg Config, logger *zap.Logger, renderer *render.Renderer, responder chat.Responder, threads storage.Store, doc *resume.Document, loadErr error) (*Server, error) {
	if renderer == nil {
		return nil, errors.New("renderer is required")
	}
	if responder == nil {
		return nil, errors.New("responder is required")
	}
	if threads == nil {
		threads = storage.NewMemory()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.QuickQuestions) == 0 {
		cfg.QuickQuestions = chat.DefaultQuickQuestions
	}
	if cfg.Intro == "" {
		cfg.Intro = chat.DefaultIntro
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	cfg.Keys = cfg.Keys.withDefaults()

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		renderer:  renderer,
		responder: responder,
		threads:   threads,
		document:  doc,
		loadErr:   loadErr,
		sessions:  newRegistry(cfg.SessionTTL),
		now:       time.Now,
	}
	s.router = s.routes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Get("/", s.handlePage)
	r.Post("/chat", s.handlePageSend)
	r.Post("/intro", s.handlePageIntro)
	r.Get("/"+resume.FileName, s.handleDocument)
	if s.cfg.PDFPath != "" {
		r.Get("/"+path.Base(s.cfg.PDFPath), s.handlePDF)
	}
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/chat", s.handleMessages)
		r.Post("/chat", s.handleSend)
		r.Get("/chat/transcript", s.handleTranscript)
		r.Post("/intro", s.handleIntro)
	})

	return r
}

// Janitor expires idle sessions every interval until ctx is done.
func (s *Server) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.expireSessions()
		}
	}
}

// expireSessions drops idle sessions together with their stored thread id.
func (s *Server) expireSessions() int {
	expired := s.sessions.expire(s.now())
	for _, sid := range expired {
		if err := s.threadStore(sid).Remove(s.cfg.Keys.Thread); err != nil {
			s.logger.Warn("removing expired thread", zap.String(logger.FieldSessionID, sid), zap.Error(err))
		}
	}
	if len(expired) > 0 {
		s.logger.Debug("expired idle chat sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}

func (s *Server) threadStore(sid string) storage.Store {
	return storage.WithPrefix(s.threads, sid+":")
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	if s.document == nil || s.document.Data == nil {
		msg := "résumé is not loaded"
		if s.loadErr != nil {
			msg = s.loadErr.Error()
		}
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": msg})
		return
	}

	if len(s.document.Raw) == 0 {
		writeJSON(w, http.StatusOK, s.document)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(s.document.Raw)
}

func (s *Server) handlePDF(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, s.cfg.PDFPath)
}

type chatState struct {
	Messages           []chat.Message  `json:"messages"`
	Stats              chat.TokenStats `json:"stats"`
	Busy               bool            `json:"busy"`
	PreviousResponseID string          `json:"previousResponseId"`
	HideIntro          bool            `json:"hideIntro"`
	QuickQuestions     []string        `json:"quickQuestions"`
}

// state describes the visitor's conversation, or a fresh one when the
// visitor has none yet. It never creates a session.
func (s *Server) state(w http.ResponseWriter, r *http.Request) chatState {
	st := chatState{
		Messages:           []chat.Message{chat.Welcome(s.cfg.Chat)},
		PreviousResponseID: thread.None,
		HideIntro:          chat.IntroHidden(newCookieStore(w, r, true), s.cfg.Keys.HideIntro),
		QuickQuestions:     s.cfg.QuickQuestions,
	}

	if sess, ok := s.existingSession(w, r); ok {
		st.Messages = sess.Messages()
		st.Busy = sess.Busy()
		st.PreviousResponseID = sess.PreviousResponseID()
	}
	st.Stats = chat.Stats(st.Messages)

	return st
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state(w, r))
}

type sendRequest struct {
	Message string `json:"message"`
}

type sendResponse struct {
	User      chat.Message `json:"user"`
	Assistant chat.Message `json:"assistant"`
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	user, assistant, err := s.send(w, r, req.Message)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	case errors.Is(err, chat.ErrBusy):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to send message"})
		return
	}

	writeJSON(w, http.StatusOK, sendResponse{User: user, Assistant: assistant})
}

// send validates the message before a session is created for it, so empty
// posts leave nothing behind.
func (s *Server) send(w http.ResponseWriter, r *http.Request, message string) (chat.Message, chat.Message, error) {
	if strings.TrimSpace(message) == "" {
		return chat.Message{}, chat.Message{}, chat.ErrEmptyMessage
	}

	sess, err := s.session(w, r)
	if err != nil {
		s.logger.Error("resolving chat session", zap.Error(err))
		return chat.Message{}, chat.Message{}, err
	}

	// A reply always settles into a message, even if the visitor goes away.
	return sess.Send(context.WithoutCancel(r.Context()), message)
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	messages := s.state(w, r).Messages

	now := s.now()
	body := chat.Transcript(s.cfg.TranscriptHeader, messages, now)
	name := chat.TranscriptFileName(s.cfg.TranscriptPrefix, now)

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	_, _ = w.Write([]byte(body))
}

type introRequest struct {
	Hide bool `json:"hide"`
}

func (s *Server) handleIntro(w http.ResponseWriter, r *http.Request) {
	var req introRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	s.setIntroHidden(w, r, req.Hide)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setIntroHidden(w http.ResponseWriter, r *http.Request, hide bool) {
	if err := chat.SetIntroHidden(newCookieStore(w, r, true), s.cfg.Keys.HideIntro, hide); err != nil {
		s.logger.Warn("storing intro flag", zap.Error(err))
	}
}

// existingSession looks the visitor's session up without creating ids or
// sessions.
func (s *Server) existingSession(w http.ResponseWriter, r *http.Request) (*chat.Session, bool) {
	sid, err := newCookieStore(w, r, false).Get(s.cfg.Keys.SessionID)
	if err != nil || sid == "" {
		return nil, false
	}
	return s.sessions.get(sid, s.now())
}

// session resolves the visitor identity from cookies, creating missing ids,
// and returns the chat session bound to its session id.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*chat.Session, error) {
	ids := identity.New(newCookieStore(w, r, true), newCookieStore(w, r, false))
	id, err := ids.Resolve(s.cfg.Keys.ClientID, s.cfg.Keys.SessionID)
	if err != nil {
		return nil, err
	}

	return s.sessions.getOrCreate(id.SessionID, s.now(), func() (*chat.Session, error) {
		tracker, err := thread.NewTracker(s.threadStore(id.SessionID), s.cfg.Keys.Thread, thread.None)
		if err != nil {
			return nil, err
		}
		s.logger.Info("chat session started", zap.String(logger.FieldSessionID, id.SessionID))
		return chat.NewSession(id, tracker, s.responder, s.logger, s.cfg.Chat)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
