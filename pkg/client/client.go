// Package client submits encoded pronunciation recordings to the backend's
// feedback endpoint. It distinguishes transport failures (server never
// answered, retry is reasonable) from well-formed server errors (retrying
// the same payload will fail again). It never retries on its own; that
// policy belongs to the caller.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/linguaflow/linguaflow-backend/internal/generation"
	"github.com/linguaflow/linguaflow-backend/pkg/capture"
)

// SubmissionError wraps every failed submission. Transient means the
// request never produced an HTTP response, so the same payload may succeed
// on retry.
type SubmissionError struct {
	Transient bool
	Status    int
	Message   string
	Err       error
}

func (e *SubmissionError) Error() string {
	if e.Transient {
		return fmt.Sprintf("submission failed (transient): %v", e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("submission rejected (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("submission rejected (status %d)", e.Status)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ capture.Submitter = (*Client)(nil)

func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

// NewWithHTTPClient is for callers that need custom transport behavior
// (tests, proxies).
func NewWithHTTPClient(baseURL, token string, httpClient *http.Client) *Client {
	c := New(baseURL, token)
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c
}

type feedbackResponse struct {
	Success      bool                               `json:"success"`
	Message      string                             `json:"message"`
	Feedback     *generation.PronunciationFeedback `json:"feedback"`
	FallbackUsed bool                               `json:"fallbackUsed"`
}

// Submit posts the encoded audio plus the session's bound phrase to the
// pronunciation-feedback endpoint.
func (c *Client) Submit(ctx context.Context, sub capture.Submission) (*generation.PronunciationFeedback, error) {
	payload := map[string]any{
		"languageId": sub.LanguageID,
		"audioData":  sub.EncodedAudio,
		"targetText": sub.TargetPhrase,
		"level":      sub.Level,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &SubmissionError{Transient: false, Message: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/pronunciation-feedback", bytes.NewReader(body))
	if err != nil {
		return nil, &SubmissionError{Transient: false, Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// No HTTP response at all: the server may never have seen the
		// payload.
		return nil, &SubmissionError{Transient: true, Err: err}
	}
	defer resp.Body.Close()

	var decoded feedbackResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &SubmissionError{Transient: false, Status: resp.StatusCode, Message: "undecodable response", Err: err}
	}
	if resp.StatusCode != http.StatusOK || !decoded.Success {
		return nil, &SubmissionError{Transient: false, Status: resp.StatusCode, Message: decoded.Message}
	}
	if decoded.Feedback == nil {
		return nil, &SubmissionError{Transient: false, Status: resp.StatusCode, Message: "response missing feedback"}
	}
	return decoded.Feedback, nil
}
