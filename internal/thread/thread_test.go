package thread

import (
	"errors"
	"testing"

	"github.com/spigell/interactive-resume/internal/storage"
)

type failingStore struct {
	*storage.Memory
	failSet bool
}

func (f *failingStore) Set(key, value string) error {
	if f.failSet {
		return errors.New("disk full")
	}
	return f.Memory.Set(key, value)
}

func TestNewTrackerWritesFallback(t *testing.T) {
	store := storage.NewMemory()

	tracker, err := NewTracker(store, DefaultKey, None)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := tracker.Current(); got != None {
		t.Fatalf("expected sentinel, got %q", got)
	}

	persisted, err := store.Get(DefaultKey)
	if err != nil || persisted != None {
		t.Fatalf("expected fallback to be persisted, got %q (%v)", persisted, err)
	}
}

func TestNewTrackerReadsPersisted(t *testing.T) {
	store := storage.NewMemory()
	if err := store.Set(DefaultKey, "resp_saved"); err != nil {
		t.Fatalf("set: %v", err)
	}

	tracker, err := NewTracker(store, DefaultKey, None)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := tracker.Current(); got != "resp_saved" {
		t.Fatalf("expected persisted id, got %q", got)
	}
}

func TestUpdate(t *testing.T) {
	store := storage.NewMemory()
	tracker, err := NewTracker(store, DefaultKey, None)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := tracker.Update("resp_first"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := tracker.Current(); got != "resp_first" {
		t.Fatalf("expected resp_first, got %q", got)
	}
	if persisted, _ := store.Get(DefaultKey); persisted != "resp_first" {
		t.Fatalf("expected persisted resp_first, got %q", persisted)
	}

	if err := tracker.Update("  "); err == nil {
		t.Fatalf("expected error for blank id")
	}
	if got := tracker.Current(); got != "resp_first" {
		t.Fatalf("blank update must not change the id, got %q", got)
	}
}

func TestUpdateFailureKeepsMirror(t *testing.T) {
	store := &failingStore{Memory: storage.NewMemory()}
	tracker, err := NewTracker(store, DefaultKey, None)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store.failSet = true
	if err := tracker.Update("resp_lost"); err == nil {
		t.Fatalf("expected write error")
	}
	if got := tracker.Current(); got != None {
		t.Fatalf("expected mirror to stay at sentinel, got %q", got)
	}
}
