package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/linguaflow/linguaflow-backend/pkg/capture"
)

func submission() capture.Submission {
	return capture.Submission{
		TargetPhrase: "Bonjour",
		EncodedAudio: "YXVkaW8=",
		LanguageID:   uuid.New(),
		Level:        "BEGINNER",
	}
}

func TestSubmitSuccess(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pronunciation-feedback" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"feedback": map[string]any{
				"accuracy":    0.85,
				"feedback":    "nice",
				"suggestions": []string{"slow down"},
				"phonemes":    []any{},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok123")
	feedback, err := c.Submit(context.Background(), submission())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if feedback.Accuracy != 0.85 {
		t.Fatalf("accuracy = %v", feedback.Accuracy)
	}
	if gotAuth != "Bearer tok123" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotBody["targetText"] != "Bonjour" || gotBody["audioData"] != "YXVkaW8=" {
		t.Fatalf("request body = %v", gotBody)
	}
}

func TestSubmitServerErrorIsNotTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "language not found",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	_, err := c.Submit(context.Background(), submission())
	var serr *SubmissionError
	if !errors.As(err, &serr) {
		t.Fatalf("error type = %T", err)
	}
	if serr.Transient {
		t.Fatal("a well-formed server error must not be transient")
	}
	if serr.Status != http.StatusNotFound || serr.Message != "language not found" {
		t.Fatalf("error = %+v", serr)
	}
}

func TestSubmitTransportFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	c := New(srv.URL, "tok")
	_, err := c.Submit(context.Background(), submission())
	var serr *SubmissionError
	if !errors.As(err, &serr) {
		t.Fatalf("error type = %T", err)
	}
	if !serr.Transient {
		t.Fatal("transport failure must be transient")
	}
}

func TestSubmitNeverRetries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "boom"})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	if _, err := c.Submit(context.Background(), submission()); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected a single request, got %d", calls)
	}
}
