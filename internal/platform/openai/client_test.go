package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/linguaflow/linguaflow-backend/internal/platform/logger"
)

var (
	testLogOnce sync.Once
	testLog     *logger.Logger
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	testLogOnce.Do(func() {
		testLog, _ = logger.New("test")
	})
	if testLog == nil {
		t.Fatal("failed to init logger")
	}
	return testLog
}

func completionBody(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}, "finish_reason": "stop"},
		},
	}
}

func TestGenerateTextSendsMessagesAndParsesContent(t *testing.T) {
	var gotReq chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("auth = %q", auth)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(completionBody(`{"ok": true}`))
	}))
	defer srv.Close()

	c := NewClientWithBase(testLogger(t), srv.URL, "sk-test", "test-model")
	out, err := c.GenerateText(context.Background(), "system prompt", "user prompt", 500)
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if out != `{"ok": true}` {
		t.Fatalf("content = %q", out)
	}
	if gotReq.Model != "test-model" || gotReq.MaxTokens != 500 {
		t.Fatalf("request = %+v", gotReq)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Fatalf("messages = %+v", gotReq.Messages)
	}
}

func TestGenerateTextRetriesRetryableStatus(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(completionBody("recovered"))
	}))
	defer srv.Close()

	c := NewClientWithBase(testLogger(t), srv.URL, "sk-test", "test-model")
	out, err := c.GenerateText(context.Background(), "s", "u", 10)
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if out != "recovered" {
		t.Fatalf("content = %q", out)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestGenerateTextDoesNotRetryClientError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClientWithBase(testLogger(t), srv.URL, "sk-test", "test-model")
	if _, err := c.GenerateText(context.Background(), "s", "u", 10); err == nil {
		t.Fatal("expected error for 400 response")
	}
	if calls != 1 {
		t.Fatalf("400 must not be retried, got %d attempts", calls)
	}
}

func TestGenerateTextRejectsEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	c := NewClientWithBase(testLogger(t), srv.URL, "sk-test", "test-model")
	if _, err := c.GenerateText(context.Background(), "s", "u", 10); err == nil {
		t.Fatal("expected error when no choices returned")
	}
}
