package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interactive-resume/internal/render"
	"github.com/spigell/interactive-resume/internal/server"
	"github.com/spigell/interactive-resume/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the résumé page and the chat API",
}

func init() {
	serveCmd.Run = func(cmd *cobra.Command, _ []string) {
		runServe(cmd.Context())
	}
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("addr", "a", "", "listen address (default :8080)")
	serveCmd.Flags().BoolP("mock", "m", false, "answer from the résumé with the offline engine")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger, config := setup()
	if mock, _ := serveCmd.Flags().GetBool("mock"); mock {
		config.Chat.Mock = true
	}

	threads, err := storage.Open(config.Storage.Driver, config.Storage.Path)
	if err != nil {
		logger.Fatal("opening the durable store", zap.String("driver", config.Storage.Driver), zap.Error(err))
	}
	defer func() {
		if err := storage.Close(threads); err != nil {
			logger.Warn("closing the durable store", zap.Error(err))
		}
	}()

	renderer, err := render.New(render.NewSanitizer())
	if err != nil {
		logger.Fatal("creating the renderer", zap.Error(err))
	}

	doc, loadErr := loadResume(ctx, config, logger)

	pdf := config.Resume.PDF
	if pdf != "" {
		pdf = filepath.Clean(pdf)
	}

	handler, err := server.New(server.Config{
		Keys: server.Keys{
			ClientID:  config.Keys.clientIDKey(),
			SessionID: config.Keys.sessionIDKey(),
			Thread:    config.Keys.threadKey(),
			HideIntro: config.Keys.hideIntroKey(),
		},
		PDFPath:          pdf,
		Title:            config.Resume.Title,
		Lang:             config.Resume.Lang,
		TranscriptPrefix: config.Transcript.Prefix,
		TranscriptHeader: transcriptHeader(config),
		QuickQuestions:   quickQuestions(config),
		Chat:             chatOptions(config),
		Intro:            config.Server.Intro,
		SessionTTL:       config.Server.SessionTTL,
	}, logger, renderer, newResponder(config, doc, logger), threads, doc, loadErr)
	if err != nil {
		logger.Fatal("creating the server", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              config.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		// replies from the remote endpoint can be slow
		WriteTimeout: config.Chat.Timeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go handler.Janitor(ctx, time.Minute)

	errs := make(chan error, 1)
	go func() {
		logger.Info("starting the server", zap.String("addr", srv.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		if err != nil {
			logger.Fatal("listening", zap.String("addr", srv.Addr), zap.Error(err))
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down the server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
}
