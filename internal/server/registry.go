package server

import (
	"sync"
	"time"

	"github.com/spigell/interactive-resume/internal/chat"
)

type entry struct {
	session  *chat.Session
	lastSeen time.Time
}

// registry keeps one chat session per session id. Sessions idle for longer
// than ttl are dropped by expire.
type registry struct {
	ttl time.Duration

	mu       sync.Mutex
	sessions map[string]*entry
}

func newRegistry(ttl time.Duration) *registry {
	return &registry{ttl: ttl, sessions: make(map[string]*entry)}
}

// get returns the live session for sid and marks it as used.
func (r *registry) get(sid string, now time.Time) (*chat.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[sid]
	if !ok {
		return nil, false
	}
	e.lastSeen = now
	return e.session, true
}

func (r *registry) getOrCreate(sid string, now time.Time, create func() (*chat.Session, error)) (*chat.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.sessions[sid]; ok {
		e.lastSeen = now
		return e.session, nil
	}

	s, err := create()
	if err != nil {
		return nil, err
	}
	r.sessions[sid] = &entry{session: s, lastSeen: now}
	return s, nil
}

// expire removes idle sessions and returns their ids. A session waiting
// for a reply is kept.
func (r *registry) expire(now time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []string
	for sid, e := range r.sessions {
		if now.Sub(e.lastSeen) < r.ttl || e.session.Busy() {
			continue
		}
		delete(r.sessions, sid)
		expired = append(expired, sid)
	}
	return expired
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
