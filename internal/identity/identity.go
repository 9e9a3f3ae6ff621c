// Package identity keeps the ids that tie chat requests to one browser
// profile (client id) and one session (session id).
package identity

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spigell/interactive-resume/internal/storage"
)

const (
	DefaultClientIDKey  = "interactive-ai-resume-cid"
	DefaultSessionIDKey = "interactive-ai-resume-sid"
)

// Identity is the pair of ids sent with every remote chat request.
type Identity struct {
	ClientID  string
	SessionID string
}

// Store creates ids on first read and returns the stored value afterwards.
type Store struct {
	durable storage.Store
	session storage.Store
	newID   func() string
}

func New(durable, session storage.Store) *Store {
	return &Store{
		durable: durable,
		session: session,
		newID:   NewID,
	}
}

// GetOrCreateDurableID returns the value under key in the durable store,
// generating and writing one when absent.
func (s *Store) GetOrCreateDurableID(key string) (string, error) {
	return getOrCreate(s.durable, key, s.newID)
}

// GetOrCreateSessionID is GetOrCreateDurableID against the session store.
func (s *Store) GetOrCreateSessionID(key string) (string, error) {
	return getOrCreate(s.session, key, s.newID)
}

// Resolve returns both ids. It is called once when a chat session starts.
func (s *Store) Resolve(clientKey, sessionKey string) (Identity, error) {
	cid, err := s.GetOrCreateDurableID(clientKey)
	if err != nil {
		return Identity{}, fmt.Errorf("client id: %w", err)
	}

	sid, err := s.GetOrCreateSessionID(sessionKey)
	if err != nil {
		return Identity{}, fmt.Errorf("session id: %w", err)
	}

	return Identity{ClientID: cid, SessionID: sid}, nil
}

func getOrCreate(store storage.Store, key string, newID func() string) (string, error) {
	if store == nil {
		return "", errors.New("store is not configured")
	}

	existing, err := store.Get(key)
	switch {
	case err == nil && strings.TrimSpace(existing) != "":
		return existing, nil
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		return "", fmt.Errorf("read %s: %w", key, err)
	}

	next := newID()
	if err := store.Set(key, next); err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}

	return next, nil
}

// NewID returns a random UUID, or a timestamp based id when the system
// random source is unavailable.
func NewID() string {
	id, err := uuid.NewRandom()
	if err == nil {
		return id.String()
	}
	return fallbackID(time.Now())
}

func fallbackID(now time.Time) string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("id-%d-%x", now.UnixMilli(), now.UnixNano())
	}
	return fmt.Sprintf("id-%d-%s", now.UnixMilli(), hex.EncodeToString(buf))
}
