package server

import (
	"bytes"
	"errors"
	"net/http"
	"path"

	"go.uber.org/zap"

	"github.com/spigell/interactive-resume/internal/chat"
	"github.com/spigell/interactive-resume/internal/render"
)

// The page chat works with plain form posts that redirect back to the page.
const (
	pageSendAction  = "/chat"
	pageIntroAction = "/intro"
	chatAnchor      = "/#chat"
)

func (s *Server) links() []render.Link {
	links := []render.Link{{Label: "對話記錄", Href: "/api/chat/transcript", Download: true}}
	if s.cfg.PDFPath != "" {
		links = append([]render.Link{{Label: "PDF", Href: "/" + path.Base(s.cfg.PDFPath), Download: true}}, links...)
	}
	return links
}

func (s *Server) chatView(st chatState) *render.ChatView {
	view := &render.ChatView{
		Messages:       make([]render.ChatMessage, 0, len(st.Messages)),
		QuickQuestions: st.QuickQuestions,
		SendAction:     pageSendAction,
		IntroAction:    pageIntroAction,
	}
	if !st.HideIntro {
		view.Intro = s.cfg.Intro
	}

	for _, m := range st.Messages {
		cm := render.ChatMessage{Role: string(m.Role), Content: m.Content}
		if m.Role == chat.RoleAssistant {
			cm.Tooltip = chat.TokenSummary(m)
		}
		view.Messages = append(view.Messages, cm)
	}

	return view
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	view := render.View{
		Title:    s.cfg.Title,
		Lang:     s.cfg.Lang,
		Document: s.document,
		Links:    s.links(),
		Chat:     s.chatView(s.state(w, r)),
	}
	if s.loadErr != nil {
		view.Error = s.loadErr.Error()
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, view); err != nil {
		s.logger.Error("rendering page", zap.Error(err))
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handlePageSend(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	_, _, err := s.send(w, r, r.PostFormValue("message"))
	switch {
	case errors.Is(err, chat.ErrBusy):
		http.Error(w, "A reply is still pending", http.StatusConflict)
		return
	case err != nil && !errors.Is(err, chat.ErrEmptyMessage):
		http.Error(w, "Failed to send message", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, chatAnchor, http.StatusSeeOther)
}

func (s *Server) handlePageIntro(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	s.setIntroHidden(w, r, r.PostFormValue("hide") == "true")
	http.Redirect(w, r, chatAnchor, http.StatusSeeOther)
}
