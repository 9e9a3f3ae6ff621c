package cmd

import (
	"context"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interactive-resume/internal/chat"
	"github.com/spigell/interactive-resume/internal/identity"
	"github.com/spigell/interactive-resume/internal/logger"
	"github.com/spigell/interactive-resume/internal/mock"
	"github.com/spigell/interactive-resume/internal/render"
	"github.com/spigell/interactive-resume/internal/reply"
	"github.com/spigell/interactive-resume/internal/resume"
	"github.com/spigell/interactive-resume/internal/secrets"
	"github.com/spigell/interactive-resume/internal/thread"
	"github.com/spigell/interactive-resume/internal/utils"
)

// setup builds the logger and reads the config. Failures here are fatal.
func setup() (*zap.Logger, *Config) {
	logger, err := logger.New(logger.Options{
		JSON:  viper.GetBool("json"),
		Debug: viper.GetBool("debug"),
		Fields: []logger.StringField{
			{Key: logger.FieldApp, Value: app},
			{Key: logger.FieldVersion, Value: version},
		},
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Debug("starting", zap.Any("config", redacted(config)))

	return logger, config
}

// redacted hides the endpoint, which carries the deployment key.
func redacted(config *Config) Config {
	c := *config
	if c.Chat != nil && c.Chat.Endpoint != "" {
		chatCfg := *c.Chat
		chatCfg.Endpoint = utils.Truncate(chatCfg.Endpoint, 24)
		c.Chat = &chatCfg
	}
	return c
}

// loadResume loads the document with the configured timeout. The error is
// meant to be shown, never to stop the program.
func loadResume(ctx context.Context, config *Config, logger *zap.Logger) (*resume.Document, error) {
	timeout := config.Resume.LoadTimeout
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	doc, err := resume.NewLoader(logger).Load(ctx, config.Resume.Source)
	if err != nil {
		logger.Warn("loading resume", zap.String("source", config.Resume.Source), zap.Error(err))
		return nil, err
	}

	return doc, nil
}

// newResponder returns the remote client, or the mock engine when asked for
// or when no endpoint is configured.
func newResponder(config *Config, doc *resume.Document, logger *zap.Logger) chat.Responder {
	cfg := config.Chat

	knowledge := resume.NewKnowledge(doc, render.NewSanitizer())
	offline := mock.NewResponder(func() resume.Knowledge { return knowledge })

	if cfg.Mock {
		logger.Info("using the offline reply engine", zap.String("reason", "mock mode requested"))
		return offline
	}

	endpoint, err := secrets.Load(secrets.Source{
		Name:  "chat endpoint",
		Value: cfg.Endpoint,
		Env:   "AI_RESUME_ENDPOINT",
		File:  cfg.EndpointFile,
	})
	if err != nil {
		logger.Warn("using the offline reply engine",
			zap.Error(err),
			zap.String("hint", "set AI_RESUME_ENDPOINT or AI_RESUME_ENDPOINT_FILE, or chat.endpoint in the configuration file"),
		)
		return offline
	}

	client, err := reply.New(endpoint, cfg.Timeout, logger.With(zap.String("component", "reply")))
	if err != nil {
		logger.Fatal("creating the reply client", zap.Error(err))
	}
	if ua := strings.TrimSpace(cfg.UserAgent); ua != "" {
		client.UserAgent = ua
	}
	if cfg.MaxLogLength > 0 {
		client.MaxLogLen = cfg.MaxLogLength
	}

	return client
}

func (k *KeysConfig) clientIDKey() string {
	return utils.FirstNonEmpty(k.ClientID, identity.DefaultClientIDKey)
}

func (k *KeysConfig) sessionIDKey() string {
	return utils.FirstNonEmpty(k.SessionID, identity.DefaultSessionIDKey)
}

func (k *KeysConfig) threadKey() string {
	return utils.FirstNonEmpty(k.PreviousResponseID, thread.DefaultKey)
}

func (k *KeysConfig) hideIntroKey() string {
	return utils.FirstNonEmpty(k.HideIntro, chat.DefaultHideIntroKey)
}

func chatOptions(config *Config) chat.Options {
	return chat.Options{
		Welcome:      config.Chat.Welcome,
		ContactEmail: config.Chat.ContactEmail,
	}
}

func transcriptHeader(config *Config) chat.TranscriptHeader {
	t := config.Transcript
	return chat.TranscriptHeader{
		Greeting:   t.Greeting,
		ResumeURL:  t.ResumeURL,
		PartnerURL: t.PartnerURL,
		Contact:    utils.FirstNonEmpty(t.Contact, config.Chat.ContactEmail),
	}
}

func quickQuestions(config *Config) []string {
	if len(config.Chat.QuickQuestions) > 0 {
		return config.Chat.QuickQuestions
	}
	return chat.DefaultQuickQuestions
}
