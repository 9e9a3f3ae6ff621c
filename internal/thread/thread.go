// Package thread tracks the server-issued response id that continues a
// multi-turn conversation.
package thread

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spigell/interactive-resume/internal/storage"
)

const (
	DefaultKey = "interactive-ai-resume-previous-response-id"
	// None is sent before any reply has been received.
	None = "none"
)

// Tracker mirrors the persisted previous response id in memory.
type Tracker struct {
	store storage.Store
	key   string

	mu      sync.RWMutex
	current string
}

// NewTracker reads the persisted id, writing fallback when there is none.
func NewTracker(store storage.Store, key, fallback string) (*Tracker, error) {
	if store == nil {
		return nil, errors.New("thread store is required")
	}

	value, err := store.Get(key)
	switch {
	case err == nil && strings.TrimSpace(value) != "":
	case err == nil, errors.Is(err, storage.ErrNotFound):
		if err := store.Set(key, fallback); err != nil {
			return nil, fmt.Errorf("write %s: %w", key, err)
		}
		value = fallback
	default:
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	return &Tracker{store: store, key: key, current: value}, nil
}

func (t *Tracker) Current() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// Update persists id and then replaces the in-memory value. Readers see
// either the old or the new id, never a value that failed to persist.
func (t *Tracker) Update(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("response id must not be empty")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.Set(t.key, id); err != nil {
		return fmt.Errorf("write %s: %w", t.key, err)
	}
	t.current = id
	return nil
}
