package reply

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(srv.URL, time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestSendPayload(t *testing.T) {
	var (
		gotBody        map[string]string
		gotContentType string
		gotMethod      string
	)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(data, &gotBody); err != nil {
			t.Errorf("payload is not json: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"completed","id":"resp_1","text":"hello","token":{"input":10,"cached":2,"output":5}}`))
	})

	reply, err := client.Send(context.Background(), Request{
		ClientID:           "cid-1",
		SessionID:          "sid-1",
		Message:            "第一個問題",
		PreviousResponseID: "none",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Fatalf("expected POST, got %s", gotMethod)
	}
	if gotContentType != "text/plain;charset=utf-8" {
		t.Fatalf("unexpected content type %q", gotContentType)
	}

	want := map[string]string{
		"cid":                  "cid-1",
		"sid":                  "sid-1",
		"actionType":           "text",
		"actionTarget":         "none",
		"actionMessage":        "第一個問題",
		"previous_response_id": "none",
	}
	for k, v := range want {
		if gotBody[k] != v {
			t.Fatalf("payload field %s: expected %q, got %q", k, v, gotBody[k])
		}
	}

	if reply.ID != "resp_1" || reply.Text != "hello" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if reply.Token == nil || *reply.Token != (TokenUsage{Input: 10, Cached: 2, Output: 5}) {
		t.Fatalf("unexpected token usage: %+v", reply.Token)
	}
}

func TestSendFollowsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/exec", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/echo", http.StatusFound)
	})
	mux.HandleFunc("/echo", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"resp_redirected","text":"ok"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := New(srv.URL+"/exec", time.Second, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	reply, err := client.Send(context.Background(), Request{Message: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.ID != "resp_redirected" {
		t.Fatalf("expected redirected reply, got %+v", reply)
	}
}

func TestSendClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, reply *Reply, err error)
	}{
		{
			name:   "bad status",
			status: http.StatusInternalServerError,
			body:   `{"id":"resp_x","text":"ignored"}`,
			check: func(t *testing.T, reply *Reply, err error) {
				var te *TransportError
				if !errors.As(err, &te) || te.StatusCode != http.StatusInternalServerError {
					t.Fatalf("expected transport error with status, got %v", err)
				}
				if reply != nil {
					t.Fatalf("expected no reply, got %+v", reply)
				}
			},
		},
		{
			name:   "quota exceeded",
			status: http.StatusOK,
			body:   `{"error":"Daily quota exceeded."}`,
			check: func(t *testing.T, reply *Reply, err error) {
				if !errors.Is(err, ErrQuotaExceeded) {
					t.Fatalf("expected quota error, got %v", err)
				}
			},
		},
		{
			name:   "malformed json",
			status: http.StatusOK,
			body:   `<html>oops</html>`,
			check: func(t *testing.T, _ *Reply, err error) {
				var te *TransportError
				if !errors.As(err, &te) {
					t.Fatalf("expected transport error, got %v", err)
				}
			},
		},
		{
			name:   "missing text keeps id",
			status: http.StatusOK,
			body:   `{"id":"resp_partial"}`,
			check: func(t *testing.T, reply *Reply, err error) {
				var ce *ContentError
				if !errors.As(err, &ce) {
					t.Fatalf("expected content error, got %v", err)
				}
				if reply == nil || reply.ID != "resp_partial" || reply.Text != "" {
					t.Fatalf("expected partial reply with id, got %+v", reply)
				}
			},
		},
		{
			name:   "other error marker without text",
			status: http.StatusOK,
			body:   `{"error":"something else"}`,
			check: func(t *testing.T, reply *Reply, err error) {
				var ce *ContentError
				if !errors.As(err, &ce) {
					t.Fatalf("expected content error, got %v", err)
				}
				if reply.ID != "" {
					t.Fatalf("expected empty id, got %q", reply.ID)
				}
			},
		},
		{
			name:   "empty text is still text",
			status: http.StatusOK,
			body:   `{"id":"resp_empty","text":""}`,
			check: func(t *testing.T, reply *Reply, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if reply.ID != "resp_empty" || reply.Token != nil {
					t.Fatalf("unexpected reply: %+v", reply)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			reply, err := client.Send(context.Background(), Request{Message: "q"})
			tt.check(t, reply, err)
		})
	}
}

func TestSendNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	client, err := New(url, time.Second, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Send(context.Background(), Request{Message: "q"})
	var te *TransportError
	if !errors.As(err, &te) || te.StatusCode != 0 {
		t.Fatalf("expected network transport error, got %v", err)
	}
}

func TestNewValidatesEndpoint(t *testing.T) {
	if _, err := New("", 0, nil); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}
	if _, err := New("ftp://example.com", 0, nil); err == nil {
		t.Fatalf("expected error for non-http endpoint")
	}
}
