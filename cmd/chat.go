package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interactive-resume/internal/chat"
	"github.com/spigell/interactive-resume/internal/identity"
	"github.com/spigell/interactive-resume/internal/storage"
	"github.com/spigell/interactive-resume/internal/thread"
)

const (
	PromptTranscript = "下載對話記錄"
	PromptStats      = "Token 使用統計"
	PromptHideIntro  = "不再顯示介紹"
	PromptBack       = "back"
	PromptQuit       = "quit"

	commandMenu = "/menu"
	commandQuit = "/quit"

	intro = "這是一份互動式 AI 履歷，可以直接輸入問題後按 Enter 送出。\n" +
		"輸入 " + commandMenu + " 開啟選單（快速提問、下載對話記錄、token 統計），輸入 " + commandQuit + " 離開。"
)

var errExit = errors.New("exit requested")

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat about the résumé in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		runChat(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().BoolP("mock", "m", false, "answer from the résumé with the offline engine")

	viper.BindPFlag("chat.mock", chatCmd.Flags().Lookup("mock"))
}

type terminal struct {
	out       io.Writer
	session   *chat.Session
	durable   storage.Store
	config    *Config
	logger    *zap.Logger
	questions []string
}

func runChat(ctx context.Context, out io.Writer) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger, config := setup()

	durable, err := storage.Open(config.Storage.Driver, config.Storage.Path)
	if err != nil {
		logger.Fatal("opening the durable store", zap.String("driver", config.Storage.Driver), zap.Error(err))
	}
	defer func() {
		if err := storage.Close(durable); err != nil {
			logger.Warn("closing the durable store", zap.Error(err))
		}
	}()

	// One process is one session.
	sessionStore := storage.NewMemory()

	id, err := identity.New(durable, sessionStore).Resolve(config.Keys.clientIDKey(), config.Keys.sessionIDKey())
	if err != nil {
		logger.Fatal("resolving identity", zap.Error(err))
	}

	tracker, err := thread.NewTracker(sessionStore, config.Keys.threadKey(), thread.None)
	if err != nil {
		logger.Fatal("starting the conversation thread", zap.Error(err))
	}

	doc, loadErr := loadResume(ctx, config, logger)
	if loadErr != nil {
		fmt.Fprintf(out, "無法載入履歷：%s\n\n", loadErr)
	}

	session, err := chat.NewSession(id, tracker, newResponder(config, doc, logger), logger, chatOptions(config))
	if err != nil {
		logger.Fatal("starting the chat session", zap.Error(err))
	}

	t := &terminal{
		out:       out,
		session:   session,
		durable:   durable,
		config:    config,
		logger:    logger,
		questions: quickQuestions(config),
	}

	if err := t.loop(ctx); err != nil && !errors.Is(err, errExit) {
		logger.Fatal("exiting", zap.Error(err))
	}
}

func (t *terminal) loop(ctx context.Context) error {
	if !chat.IntroHidden(t.durable, t.config.Keys.hideIntroKey()) {
		fmt.Fprintf(t.out, "%s\n\n", intro)
	}
	for _, m := range t.session.Messages() {
		t.print(m)
	}

	input := promptui.Prompt{Label: "你"}

	for {
		line, err := input.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return errExit
			}
			return err
		}

		switch strings.TrimSpace(line) {
		case "":
			continue
		case commandQuit:
			return errExit
		case commandMenu:
			if err := t.menu(ctx); err != nil {
				return err
			}
			continue
		}

		t.send(ctx, line)
	}
}

func (t *terminal) menu(ctx context.Context) error {
	items := append([]string{}, t.questions...)
	items = append(items, PromptTranscript, PromptStats, PromptHideIntro, PromptBack, PromptQuit)

	menu := promptui.Select{
		Label: "Choose an action and press ENTER",
		Items: items,
		Size:  len(items),
	}

	_, selected, err := menu.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			return nil
		}
		return err
	}

	return t.handleAction(ctx, selected)
}

func (t *terminal) handleAction(ctx context.Context, action string) error {
	switch action {
	case PromptBack:
		return nil
	case PromptQuit:
		return errExit
	case PromptTranscript:
		filename, err := t.dumpTranscript(time.Now())
		if err != nil {
			return fmt.Errorf("dump transcript to file: %w", err)
		}
		t.logger.Info("dumping transcript to file", zap.String("filename", filename))
		return nil
	case PromptStats:
		fmt.Fprintf(t.out, "%s\n\n", chat.Stats(t.session.Messages()))
		return nil
	case PromptHideIntro:
		if err := chat.SetIntroHidden(t.durable, t.config.Keys.hideIntroKey(), true); err != nil {
			return fmt.Errorf("storing intro flag: %w", err)
		}
		t.logger.Info("intro will not be shown again")
		return nil
	default:
		// quick question
		t.send(ctx, action)
		return nil
	}
}

func (t *terminal) send(ctx context.Context, line string) {
	_, assistant, err := t.session.Send(ctx, line)
	if err != nil {
		t.logger.Warn("message not sent", zap.Error(err))
		return
	}
	t.print(assistant)
}

func (t *terminal) print(m chat.Message) {
	if m.Role == chat.RoleUser {
		fmt.Fprintf(t.out, "你: %s\n\n", m.Content)
		return
	}

	fmt.Fprintf(t.out, "AI: %s\n\n", m.Content)
	if m.Token != nil {
		t.logger.Debug("token usage", zap.String("usage", chat.TokenSummary(m)))
	}
}

func (t *terminal) dumpTranscript(now time.Time) (string, error) {
	filename := chat.TranscriptFileName(t.config.Transcript.Prefix, now)
	body := chat.Transcript(transcriptHeader(t.config), t.session.Messages(), now)

	if err := os.WriteFile(filename, []byte(body), 0o644); err != nil {
		return "", err
	}
	return filename, nil
}
