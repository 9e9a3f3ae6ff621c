// Package resume loads the published résumé document and derives plain-text
// knowledge from it.
package resume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const (
	// FileName is the document name resolved against the base URL.
	FileName = "resume.json"

	maxDocumentBytes = 8 << 20
)

// LoadError reports a résumé that could not be fetched or parsed.
type LoadError struct {
	Source     string
	StatusCode int
	Err        error
}

func (e *LoadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("load resume from %s: bad status %d", e.Source, e.StatusCode)
	}
	return fmt.Sprintf("load resume from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

type Loader struct {
	logger     *zap.Logger
	HTTPClient *http.Client
}

func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		logger: logger,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Load reads the document from source. An http(s) source is treated as the
// base URL the document is published under; anything else is a local file
// or a directory containing resume.json. A cancelled ctx is returned as is
// so callers can drop the result.
func (l *Loader) Load(ctx context.Context, source string) (*Document, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, &LoadError{Source: source, Err: errors.New("resume source is not configured")}
	}

	var (
		data []byte
		err  error
		from string
	)
	if isURL(source) {
		from = DocumentURL(source)
		data, err = l.fetch(ctx, from)
	} else {
		from, err = localPath(source)
		if err == nil {
			data, err = os.ReadFile(from)
		}
		if err != nil {
			err = &LoadError{Source: source, Err: err}
		}
	}
	if err != nil {
		return nil, err
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, &LoadError{Source: from, Err: err}
	}

	l.logger.Debug("resume loaded", zap.String("source", from), zap.Int("bytes", len(data)))
	return doc, nil
}

// DocumentURL joins the base URL with the document name.
func DocumentURL(base string) string {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + FileName
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &LoadError{Source: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	l.logger.Debug("make request", zap.String("url", url))
	resp, err := l.HTTPClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &LoadError{Source: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &LoadError{Source: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &LoadError{Source: url, Err: err}
	}
	return data, nil
}

// Parse decodes a résumé document. Values with a loose type (for example
// "hidden": "true") are coerced.
func Parse(data []byte) (*Document, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse resume json: %w", err)
	}

	var doc Document
	cfg := &mapstructure.DecoderConfig{
		Result:           &doc,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode resume: %w", err)
	}
	doc.Raw = append([]byte(nil), data...)

	return &doc, nil
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func localPath(source string) (string, error) {
	info, err := os.Stat(source)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return filepath.Join(source, FileName), nil
	}
	return source, nil
}
