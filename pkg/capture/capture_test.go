package capture

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/linguaflow/linguaflow-backend/internal/generation"
)

type fakeHandle struct {
	data     []byte
	startErr error
	stopErr  error
	bytesErr error

	stops    atomic.Int32
	releases atomic.Int32
}

func (h *fakeHandle) Start(ctx context.Context) error { return h.startErr }

func (h *fakeHandle) Stop(ctx context.Context) error {
	h.stops.Add(1)
	return h.stopErr
}

func (h *fakeHandle) Bytes(ctx context.Context) ([]byte, error) {
	if h.bytesErr != nil {
		return nil, h.bytesErr
	}
	return h.data, nil
}

func (h *fakeHandle) Release() { h.releases.Add(1) }

type fakePlatform struct {
	handle     *fakeHandle
	acquireErr error
}

func (p *fakePlatform) Acquire(ctx context.Context) (Handle, error) {
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	return p.handle, nil
}

type fakeSubmitter struct {
	feedback *generation.PronunciationFeedback
	err      error

	calls atomic.Int32
	last  Submission
}

func (s *fakeSubmitter) Submit(ctx context.Context, sub Submission) (*generation.PronunciationFeedback, error) {
	s.calls.Add(1)
	s.last = sub
	if s.err != nil {
		return nil, s.err
	}
	return s.feedback, nil
}

func newTestRecorder(handle *fakeHandle, submitter *fakeSubmitter, cfg Config) *Recorder {
	if cfg.LanguageID == uuid.Nil {
		cfg.LanguageID = uuid.New()
	}
	if cfg.Level == "" {
		cfg.Level = "BEGINNER"
	}
	return NewRecorder(&fakePlatform{handle: handle}, submitter, cfg)
}

func TestSessionHappyPath(t *testing.T) {
	handle := &fakeHandle{data: []byte("pcm-audio")}
	submitter := &fakeSubmitter{feedback: &generation.PronunciationFeedback{Accuracy: 0.9, Feedback: "good"}}
	rec := newTestRecorder(handle, submitter, Config{})

	session, err := rec.Start(context.Background(), "Bonjour")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := session.State(); got != StateRecording {
		t.Fatalf("state after start = %s, want %s", got, StateRecording)
	}

	feedback, err := session.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if feedback.Accuracy != 0.9 {
		t.Fatalf("feedback accuracy = %v", feedback.Accuracy)
	}
	if got := session.State(); got != StateDone {
		t.Fatalf("terminal state = %s, want %s", got, StateDone)
	}
	if got := handle.releases.Load(); got != 1 {
		t.Fatalf("expected exactly 1 release, got %d", got)
	}
	if submitter.last.TargetPhrase != "Bonjour" {
		t.Fatalf("submitted phrase = %q", submitter.last.TargetPhrase)
	}
	if submitter.last.EncodedAudio == "" {
		t.Fatal("expected base64 audio in submission")
	}
}

func TestSecondStartRejectedWhileActive(t *testing.T) {
	handle := &fakeHandle{data: []byte("x")}
	submitter := &fakeSubmitter{feedback: &generation.PronunciationFeedback{}}
	rec := newTestRecorder(handle, submitter, Config{})

	session, err := rec.Start(context.Background(), "Bonjour")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := rec.Start(context.Background(), "Merci"); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("second start error = %v, want ErrSessionActive", err)
	}

	if _, err := session.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	// Terminal session frees the slot.
	if _, err := rec.Start(context.Background(), "Merci"); err != nil {
		t.Fatalf("start after terminal session: %v", err)
	}
}

func TestBoundPhraseIsSnapshot(t *testing.T) {
	handle := &fakeHandle{data: []byte("x")}
	submitter := &fakeSubmitter{feedback: &generation.PronunciationFeedback{}}
	rec := newTestRecorder(handle, submitter, Config{})

	phrase := "Bonjour"
	session, err := rec.Start(context.Background(), phrase)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	phrase = "Merci" // UI selection changed mid-session

	if _, err := session.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if submitter.last.TargetPhrase != "Bonjour" {
		t.Fatalf("submitted phrase = %q, want the bound snapshot", submitter.last.TargetPhrase)
	}
}

func TestCeilingTimerForcesStop(t *testing.T) {
	handle := &fakeHandle{data: []byte("x")}
	submitter := &fakeSubmitter{feedback: &generation.PronunciationFeedback{}}
	rec := newTestRecorder(handle, submitter, Config{MaxDuration: 30 * time.Millisecond})

	session, err := rec.Start(context.Background(), "Bonjour")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-session.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session never auto-stopped")
	}
	if got := session.State(); got != StateDone {
		t.Fatalf("state after ceiling = %s, want %s (err %v)", got, StateDone, session.Err())
	}
	if got := handle.stops.Load(); got != 1 {
		t.Fatalf("expected 1 stop call, got %d", got)
	}
}

func TestManualStopCancelsCeilingTimer(t *testing.T) {
	handle := &fakeHandle{data: []byte("x")}
	submitter := &fakeSubmitter{feedback: &generation.PronunciationFeedback{}}
	rec := newTestRecorder(handle, submitter, Config{MaxDuration: 50 * time.Millisecond})

	session, err := rec.Start(context.Background(), "Bonjour")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := session.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	time.Sleep(100 * time.Millisecond) // past the ceiling
	if got := handle.stops.Load(); got != 1 {
		t.Fatalf("timer fired after manual stop: %d stop calls", got)
	}
	if got := handle.releases.Load(); got != 1 {
		t.Fatalf("expected exactly 1 release, got %d", got)
	}
}

func TestPermissionDenied(t *testing.T) {
	rec := NewRecorder(
		&fakePlatform{acquireErr: errors.New("microphone access denied")},
		&fakeSubmitter{}, Config{LanguageID: uuid.New(), Level: "BEGINNER"},
	)
	_, err := rec.Start(context.Background(), "Bonjour")
	if err == nil {
		t.Fatal("expected acquisition failure")
	}
	var serr *SessionError
	if !errors.As(err, &serr) || serr.Code != CodePermissionDenied {
		t.Fatalf("error = %v, want %s", err, CodePermissionDenied)
	}
	// Slot must be free for a retry.
	if active := rec.Active(); active != nil {
		t.Fatalf("failed session still active: %s", active.State())
	}
}

func TestEmptyCaptureFailsWithNoURI(t *testing.T) {
	handle := &fakeHandle{data: nil}
	rec := newTestRecorder(handle, &fakeSubmitter{}, Config{})

	session, err := rec.Start(context.Background(), "Bonjour")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	_, err = session.Stop(context.Background())
	var serr *SessionError
	if !errors.As(err, &serr) || serr.Code != CodeNoURI {
		t.Fatalf("error = %v, want %s", err, CodeNoURI)
	}
	if got := handle.releases.Load(); got != 1 {
		t.Fatalf("expected release on failure, got %d", got)
	}
}

func TestOversizedRecordingRejectedBeforeSubmit(t *testing.T) {
	handle := &fakeHandle{data: make([]byte, 100)}
	submitter := &fakeSubmitter{feedback: &generation.PronunciationFeedback{}}
	rec := newTestRecorder(handle, submitter, Config{MaxEncodedBytes: 64})

	session, err := rec.Start(context.Background(), "Bonjour")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	_, err = session.Stop(context.Background())
	var serr *SessionError
	if !errors.As(err, &serr) || serr.Code != CodeRecordingTooLarge {
		t.Fatalf("error = %v, want %s", err, CodeRecordingTooLarge)
	}
	if got := submitter.calls.Load(); got != 0 {
		t.Fatalf("oversized payload must not be submitted, got %d calls", got)
	}
}

func TestSubmissionErrorPreserved(t *testing.T) {
	cause := errors.New("server said no")
	handle := &fakeHandle{data: []byte("x")}
	rec := newTestRecorder(handle, &fakeSubmitter{err: cause}, Config{})

	session, err := rec.Start(context.Background(), "Bonjour")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	_, err = session.Stop(context.Background())
	var serr *SessionError
	if !errors.As(err, &serr) || serr.Code != CodeSubmissionFailed {
		t.Fatalf("error = %v, want %s", err, CodeSubmissionFailed)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("underlying cause lost: %v", err)
	}
	if got := handle.releases.Load(); got != 1 {
		t.Fatalf("expected release after failed submission, got %d", got)
	}
}

func TestCancelReleasesOnceAndBlocksPipeline(t *testing.T) {
	handle := &fakeHandle{data: []byte("x")}
	submitter := &fakeSubmitter{feedback: &generation.PronunciationFeedback{}}
	rec := newTestRecorder(handle, submitter, Config{})

	session, err := rec.Start(context.Background(), "Bonjour")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	session.Cancel()
	session.Cancel() // idempotent

	if got := session.State(); got != StateFailed {
		t.Fatalf("state after cancel = %s", got)
	}
	if serr := session.Err(); serr == nil || serr.Code != CodeCancelled {
		t.Fatalf("err after cancel = %v", serr)
	}
	if got := handle.releases.Load(); got != 1 {
		t.Fatalf("expected exactly 1 release, got %d", got)
	}

	if _, err := session.Stop(context.Background()); err == nil {
		t.Fatal("stop after cancel must not submit")
	}
	if got := submitter.calls.Load(); got != 0 {
		t.Fatalf("cancelled session submitted anyway: %d calls", got)
	}
}
