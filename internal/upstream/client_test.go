package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{}, zaptest.NewLogger(t))
	if err == nil {
		t.Fatalf("expected validation error, got nil")
	}
}

func TestInvokeWithoutCredential(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("no network call may happen without a credential")
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.Invoke(context.Background(), &OutboundRequest{Model: "m"})
	if !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
}

func TestInvokeJSONBody(t *testing.T) {
	t.Parallel()

	var gotReq OutboundRequest
	var gotAuth string

	upstreamBody := `{"id":"chatcmpl-1","choices":[{"message":{"role":"assistant","content":"hello"}}]}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}

		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("unmarshal request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, upstreamBody)
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	req := &OutboundRequest{
		Model:       "meta-llama/Llama-3.1-8B-Instruct",
		Messages:    []Message{{Role: RoleUser, Content: "ping"}},
		Temperature: 0.7,
		MaxTokens:   1000,
	}

	res, err := client.Invoke(context.Background(), req)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected Authorization header: %s", gotAuth)
	}
	if gotReq.Model != req.Model {
		t.Fatalf("expected model %s, got %s", req.Model, gotReq.Model)
	}
	if gotReq.Temperature != 0.7 || gotReq.MaxTokens != 1000 {
		t.Fatalf("defaults not forwarded: %#v", gotReq)
	}

	if res.IsLive() {
		t.Fatalf("JSON reply must not classify as live stream")
	}
	if res.Status != http.StatusOK {
		t.Fatalf("upstream status not preserved: %d", res.Status)
	}
	if strings.TrimSpace(string(res.Body)) != upstreamBody {
		t.Fatalf("body not forwarded unchanged: %s", res.Body)
	}
	if got := AnswerText(res.Body); got != "hello" {
		t.Fatalf("unexpected answer text: %q", got)
	}
}

func TestInvokeNonTwoHundred(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, "rate limit exceeded")
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "key"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.Invoke(context.Background(), &OutboundRequest{
		Model:    "m",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})

	var serr *StatusError
	if !errors.As(err, &serr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if serr.Status != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", serr.Status)
	}
	if serr.Body != "rate limit exceeded" {
		t.Fatalf("raw body not preserved: %q", serr.Body)
	}
}

func TestInvokeLiveStream(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"delta\":{\"content\":\"hel\"}}\n\n")
		flusher.Flush()
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "key"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	res, err := client.Invoke(context.Background(), &OutboundRequest{
		Model:    "m",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
		Stream:   true,
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !res.IsLive() {
		t.Fatalf("event-stream reply must classify as live")
	}
	defer res.Live.Close()

	body, err := io.ReadAll(res.Live)
	if err != nil {
		t.Fatalf("read live stream: %v", err)
	}
	if !strings.Contains(string(body), "data: [DONE]") {
		t.Fatalf("live stream not handed over uninterpreted: %s", body)
	}
}

func TestIsStreamingContentType(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"text/event-stream":               true,
		"text/event-stream; charset=utf8": true,
		"text/plain; charset=utf-8":       true,
		"application/json":                false,
		"application/json; charset=utf8":  false,
		"":                                false,
	}

	for contentType, want := range cases {
		if got := isStreamingContentType(contentType); got != want {
			t.Fatalf("isStreamingContentType(%q) = %v, want %v", contentType, got, want)
		}
	}
}
