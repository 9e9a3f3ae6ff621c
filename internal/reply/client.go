// Package reply talks to the remote script endpoint that answers chat
// messages.
package reply

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/spigell/interactive-resume/internal/logger"
	"github.com/spigell/interactive-resume/internal/utils"
)

const (
	// The endpoint does not answer preflight requests.
	contentType = "text/plain;charset=utf-8"

	actionTypeText = "text"
	actionTarget   = "none"

	defaultTimeout   = 30 * time.Second
	defaultMaxLogLen = 200
	maxResponseBytes = 1 << 20
	defaultUserAgent = "spigell/interactive-resume"
)

// Request is one user turn.
type Request struct {
	ClientID           string
	SessionID          string
	Message            string
	PreviousResponseID string
}

// TokenUsage is the optional token accounting attached to a reply.
type TokenUsage struct {
	Input  int `json:"input"`
	Cached int `json:"cached"`
	Output int `json:"output"`
}

// Reply is a successful or partial answer from the endpoint.
type Reply struct {
	ID    string
	Text  string
	Token *TokenUsage
}

type Client struct {
	endpoint   string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	MaxLogLen  int
}

func New(endpoint string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("reply endpoint is required")
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return nil, fmt.Errorf("reply endpoint must be an http(s) url: %s", endpoint)
	}

	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		endpoint: endpoint,
		logger:   logger,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		UserAgent: defaultUserAgent,
		MaxLogLen: defaultMaxLogLen,
	}, nil
}

// Send posts one message and classifies the answer. It never retries.
func (c *Client) Send(ctx context.Context, r Request) (*Reply, error) {
	body, err := buildPayload(r)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("build payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", c.UserAgent)

	c.logger.Debug("make reply request",
		zap.String(logger.FieldResponseID, r.PreviousResponseID),
		zap.Int("message_length", utf8.RuneCountInString(r.Message)),
		zap.String("message_preview", utils.Truncate(r.Message, c.MaxLogLen)),
	)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("bad status: %s", resp.Status)}
	}

	c.logger.Debug("got reply response",
		zap.Int("status", resp.StatusCode),
		zap.Int("response_length", len(data)),
		zap.String("response_preview", utils.Truncate(string(data), c.MaxLogLen)),
	)

	return parseReply(data)
}

func buildPayload(r Request) ([]byte, error) {
	fields := []struct {
		path  string
		value string
	}{
		{"cid", r.ClientID},
		{"sid", r.SessionID},
		{"actionType", actionTypeText},
		{"actionTarget", actionTarget},
		{"actionMessage", r.Message},
		{"previous_response_id", r.PreviousResponseID},
	}

	payload := []byte(`{}`)
	for _, f := range fields {
		var err error
		payload, err = sjson.SetBytes(payload, f.path, f.value)
		if err != nil {
			return nil, fmt.Errorf("set %s: %w", f.path, err)
		}
	}
	return payload, nil
}

func parseReply(data []byte) (*Reply, error) {
	if !gjson.ValidBytes(data) {
		return nil, &TransportError{Err: errors.New("response is not valid json")}
	}

	body := gjson.ParseBytes(data)
	if !body.IsObject() {
		return nil, &TransportError{Err: errors.New("response is not a json object")}
	}

	if body.Get("error").String() == QuotaExceededMarker {
		return nil, ErrQuotaExceeded
	}

	reply := &Reply{ID: strings.TrimSpace(body.Get("id").String())}

	if token := body.Get("token"); token.IsObject() {
		reply.Token = &TokenUsage{
			Input:  int(token.Get("input").Int()),
			Cached: int(token.Get("cached").Int()),
			Output: int(token.Get("output").Int()),
		}
	}

	text := body.Get("text")
	if !text.Exists() || text.Type == gjson.Null {
		return reply, &ContentError{ID: reply.ID}
	}
	reply.Text = text.String()

	return reply, nil
}
