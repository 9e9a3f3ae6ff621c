package chat

import (
	"errors"

	"github.com/spigell/interactive-resume/internal/storage"
)

const (
	DefaultHideIntroKey = "interactive-ai-resume-hide-intro"

	DefaultIntro = "這是一份互動式 AI 履歷，可以在下方輸入問題，或點選快速提問。"
)

// DefaultQuickQuestions are offered as one-click prompts.
var DefaultQuickQuestions = []string{
	"他是一位怎麼樣的工程師？",
	"介紹一下這個互動式 AI 履歷？",
	"高雄有什麼好吃的？",
	"他的專長是什麼？",
}

// IntroHidden reports whether the visitor asked not to see the intro again.
// Read failures count as not hidden.
func IntroHidden(store storage.Store, key string) bool {
	v, err := store.Get(key)
	if err != nil {
		return false
	}
	return v == "true"
}

// SetIntroHidden stores the flag. Clearing it removes the key.
func SetIntroHidden(store storage.Store, key string, hidden bool) error {
	if hidden {
		return store.Set(key, "true")
	}
	if err := store.Remove(key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return nil
}
