package cmd

import (
	"bytes"
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/interactive-resume/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the résumé into a sanitized HTML page",
	Run: func(cmd *cobra.Command, _ []string) {
		out, _ := cmd.Flags().GetString("out")
		runRender(cmd.Context(), cmd.OutOrStdout(), out)
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringP("out", "o", "", "write the page to a file instead of stdout")
}

func runRender(ctx context.Context, stdout io.Writer, out string) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger, config := setup()

	renderer, err := render.New(render.NewSanitizer())
	if err != nil {
		logger.Fatal("creating the renderer", zap.Error(err))
	}

	view := render.View{Title: config.Resume.Title, Lang: config.Resume.Lang}

	doc, err := loadResume(ctx, config, logger)
	if err != nil {
		view.Error = err.Error()
	}
	view.Document = doc

	var buf bytes.Buffer
	if err := renderer.Render(&buf, view); err != nil {
		logger.Fatal("rendering the page", zap.Error(err))
	}

	if out == "" {
		if _, err := buf.WriteTo(stdout); err != nil {
			logger.Fatal("writing the page", zap.Error(err))
		}
		return
	}

	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		logger.Fatal("writing the page", zap.String("filename", out), zap.Error(err))
	}
	logger.Info("page written", zap.String("filename", out))
}
