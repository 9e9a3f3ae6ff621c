package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/interactive-resume/internal/chat"
	"github.com/spigell/interactive-resume/internal/mock"
	"github.com/spigell/interactive-resume/internal/reply"
)

func testConfig() *Config {
	return &Config{
		Resume:     &ResumeConfig{},
		Chat:       &ChatConfig{},
		Storage:    &StorageConfig{},
		Keys:       &KeysConfig{},
		Server:     &ServerConfig{},
		Transcript: &TranscriptConfig{},
	}
}

func TestNewResponder(t *testing.T) {
	t.Setenv("AI_RESUME_ENDPOINT", "")

	endpointFile := filepath.Join(t.TempDir(), "endpoint")
	if err := os.WriteFile(endpointFile, []byte("https://script.example.com/exec\n"), 0o600); err != nil {
		t.Fatalf("write endpoint file: %v", err)
	}

	tests := []struct {
		name       string
		configure  func(c *ChatConfig)
		wantRemote bool
	}{
		{
			name:      "no endpoint falls back to mock",
			configure: func(c *ChatConfig) {},
		},
		{
			name: "inline endpoint",
			configure: func(c *ChatConfig) {
				c.Endpoint = "https://script.example.com/exec"
			},
			wantRemote: true,
		},
		{
			name: "endpoint file",
			configure: func(c *ChatConfig) {
				c.EndpointFile = endpointFile
			},
			wantRemote: true,
		},
		{
			name: "mock wins over endpoint",
			configure: func(c *ChatConfig) {
				c.Endpoint = "https://script.example.com/exec"
				c.Mock = true
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testConfig()
			tt.configure(config.Chat)

			responder := newResponder(config, nil, zap.NewNop())

			switch responder.(type) {
			case *reply.Client:
				if !tt.wantRemote {
					t.Fatalf("expected the mock responder")
				}
			case *mock.Responder:
				if tt.wantRemote {
					t.Fatalf("expected the remote client")
				}
			default:
				t.Fatalf("unexpected responder %T", responder)
			}
		})
	}
}

func TestKeyDefaults(t *testing.T) {
	keys := &KeysConfig{SessionID: "custom-sid"}

	if got := keys.clientIDKey(); got != "interactive-ai-resume-cid" {
		t.Fatalf("unexpected client id key %q", got)
	}
	if got := keys.sessionIDKey(); got != "custom-sid" {
		t.Fatalf("unexpected session id key %q", got)
	}
	if got := keys.threadKey(); got != "interactive-ai-resume-previous-response-id" {
		t.Fatalf("unexpected thread key %q", got)
	}
	if got := keys.hideIntroKey(); got != chat.DefaultHideIntroKey {
		t.Fatalf("unexpected hide intro key %q", got)
	}
}

func TestTranscriptHeaderContact(t *testing.T) {
	config := testConfig()
	config.Chat.ContactEmail = "me@example.com"

	if got := transcriptHeader(config).Contact; got != "me@example.com" {
		t.Fatalf("expected contact to fall back to the chat contact, got %q", got)
	}

	config.Transcript.Contact = "hr@example.com"
	if got := transcriptHeader(config).Contact; got != "hr@example.com" {
		t.Fatalf("expected transcript contact, got %q", got)
	}

	if got := quickQuestions(config); len(got) != len(chat.DefaultQuickQuestions) {
		t.Fatalf("expected default quick questions, got %v", got)
	}
}

func TestRedacted(t *testing.T) {
	config := testConfig()
	config.Chat.Endpoint = "https://script.example.com/macros/s/SECRET-DEPLOYMENT-KEY/exec"

	out := redacted(config)
	if out.Chat.Endpoint == config.Chat.Endpoint {
		t.Fatalf("endpoint must be shortened")
	}
	if config.Chat.Endpoint != "https://script.example.com/macros/s/SECRET-DEPLOYMENT-KEY/exec" {
		t.Fatalf("original config must not change")
	}
}
