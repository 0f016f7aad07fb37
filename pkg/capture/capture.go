// Package capture drives one pronunciation recording attempt through a
// fixed lifecycle: IDLE → ACQUIRING → RECORDING → STOPPING → ENCODING →
// SUBMITTING → DONE, with FAILED reachable from every state except DONE.
// The transition logic lives here once; platform-specific microphone access
// is behind the Platform/Handle interfaces (see the ffmpegcap and webmedia
// subpackages).
package capture

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/linguaflow/linguaflow-backend/internal/generation"
)

type State string

const (
	StateIdle       State = "IDLE"
	StateAcquiring  State = "ACQUIRING"
	StateRecording  State = "RECORDING"
	StateStopping   State = "STOPPING"
	StateEncoding   State = "ENCODING"
	StateSubmitting State = "SUBMITTING"
	StateDone       State = "DONE"
	StateFailed     State = "FAILED"
)

type ErrorCode string

const (
	CodePermissionDenied  ErrorCode = "PERMISSION_DENIED"
	CodeRecordingTooLarge ErrorCode = "RECORDING_TOO_LARGE"
	CodeNoURI             ErrorCode = "NO_URI"
	CodeSubmissionFailed  ErrorCode = "SUBMISSION_FAILED"
	CodeCancelled         ErrorCode = "CANCELLED"
)

// SessionError is the terminal error of a failed session. Code tells the
// UI which retry affordance to show; Err preserves the underlying cause.
type SessionError struct {
	Code ErrorCode
	Err  error
}

func (e *SessionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

func (e *SessionError) Unwrap() error { return e.Err }

var ErrSessionActive = errors.New("a recording session is already active")

// Platform grants microphone access. Acquire corresponds to the permission
// prompt; a denial error maps to PERMISSION_DENIED.
type Platform interface {
	Acquire(ctx context.Context) (Handle, error)
}

// Handle is one live capture. Bytes is only valid after Stop has returned.
// Release must be safe to call regardless of how far the capture got;
// the session guarantees it runs exactly once.
type Handle interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Bytes(ctx context.Context) ([]byte, error)
	Release()
}

// Submission is the payload handed to the feedback endpoint once encoding
// succeeds.
type Submission struct {
	TargetPhrase string
	EncodedAudio string
	LanguageID   uuid.UUID
	Level        string
}

type Submitter interface {
	Submit(ctx context.Context, sub Submission) (*generation.PronunciationFeedback, error)
}

const (
	DefaultMaxDuration     = 15 * time.Second
	DefaultMaxEncodedBytes = 10 << 20
)

type Config struct {
	// MaxDuration is the recording ceiling; the session force-stops itself
	// when it elapses. Manual stop cancels the timer.
	MaxDuration time.Duration
	// MaxEncodedBytes bounds the base64 payload, not the raw capture.
	MaxEncodedBytes int
	LanguageID      uuid.UUID
	Level           string
}

func (c Config) withDefaults() Config {
	if c.MaxDuration <= 0 {
		c.MaxDuration = DefaultMaxDuration
	}
	if c.MaxEncodedBytes <= 0 {
		c.MaxEncodedBytes = DefaultMaxEncodedBytes
	}
	return c
}

// Recorder owns at most one active session at a time.
type Recorder struct {
	platform  Platform
	submitter Submitter
	cfg       Config

	mu      sync.Mutex
	current *Session
}

func NewRecorder(platform Platform, submitter Submitter, cfg Config) *Recorder {
	return &Recorder{
		platform:  platform,
		submitter: submitter,
		cfg:       cfg.withDefaults(),
	}
}

// Session is one recording attempt for one bound phrase. The phrase is
// snapshotted at Start and never re-read from shared state, so UI selection
// changes cannot affect an in-flight session.
type Session struct {
	recorder     *Recorder
	targetPhrase string
	startedAt    time.Time

	mu        sync.Mutex
	state     State
	handle    Handle
	stopTimer *time.Timer
	feedback  *generation.PronunciationFeedback
	err       *SessionError

	releaseOnce sync.Once
	finishOnce  sync.Once
	done        chan struct{}
}

// Start begins a new session bound to targetPhrase. It returns
// ErrSessionActive while a previous session has not reached DONE or FAILED.
// On return the session is RECORDING and the ceiling timer is armed.
func (r *Recorder) Start(ctx context.Context, targetPhrase string) (*Session, error) {
	r.mu.Lock()
	if r.current != nil && !r.current.terminal() {
		r.mu.Unlock()
		return nil, ErrSessionActive
	}
	s := &Session{
		recorder:     r,
		targetPhrase: targetPhrase,
		state:        StateAcquiring,
		done:         make(chan struct{}),
	}
	r.current = s
	r.mu.Unlock()

	handle, err := r.platform.Acquire(ctx)
	if err != nil {
		s.fail(&SessionError{Code: CodePermissionDenied, Err: err})
		return nil, s.Err()
	}
	s.mu.Lock()
	s.handle = handle
	s.mu.Unlock()

	if err := handle.Start(ctx); err != nil {
		s.fail(&SessionError{Code: CodePermissionDenied, Err: err})
		return nil, s.Err()
	}

	s.mu.Lock()
	s.state = StateRecording
	s.startedAt = time.Now()
	s.stopTimer = time.AfterFunc(r.cfg.MaxDuration, func() {
		// Ceiling hit before a manual stop: finalize on our own context.
		s.finish(context.Background())
	})
	s.mu.Unlock()

	return s, nil
}

// Active reports the recorder's current session, or nil if none is live.
func (r *Recorder) Active() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil || r.current.terminal() {
		return nil
	}
	return r.current
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) TargetPhrase() string { return s.targetPhrase }

func (s *Session) terminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateDone || s.state == StateFailed
}

// Err returns the terminal error, nil while the session is live or DONE.
func (s *Session) Err() *SessionError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Feedback returns the submission result once the session is DONE.
func (s *Session) Feedback() *generation.PronunciationFeedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feedback
}

// Done is closed when the session reaches DONE or FAILED.
func (s *Session) Done() <-chan struct{} { return s.done }

// Stop finalizes the session: stop capture, encode, submit. It is safe to
// race with the ceiling timer; whichever fires first runs the finalize path
// and the other waits for the outcome.
func (s *Session) Stop(ctx context.Context) (*generation.PronunciationFeedback, error) {
	s.finish(ctx)
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.feedback, nil
}

// Cancel tears the session down without submitting. Intended for UI
// teardown while the session is still live; on a terminal session it is a
// no-op.
func (s *Session) Cancel() {
	s.finishOnce.Do(func() {
		s.mu.Lock()
		if s.state == StateDone || s.state == StateFailed {
			s.mu.Unlock()
			return
		}
		if s.stopTimer != nil {
			s.stopTimer.Stop()
		}
		s.state = StateFailed
		s.err = &SessionError{Code: CodeCancelled}
		s.mu.Unlock()
		s.release()
		close(s.done)
	})
}

func (s *Session) finish(ctx context.Context) {
	s.finishOnce.Do(func() {
		s.mu.Lock()
		if s.state != StateRecording {
			// Acquisition never completed; nothing to stop.
			s.mu.Unlock()
			s.failLocked(&SessionError{Code: CodeNoURI, Err: fmt.Errorf("no active capture in state %s", s.state)})
			return
		}
		if s.stopTimer != nil {
			s.stopTimer.Stop()
		}
		s.state = StateStopping
		handle := s.handle
		s.mu.Unlock()

		if err := handle.Stop(ctx); err != nil {
			s.failLocked(&SessionError{Code: CodeNoURI, Err: err})
			return
		}
		raw, err := handle.Bytes(ctx)
		if err != nil || len(raw) == 0 {
			if err == nil {
				err = errors.New("capture produced no audio")
			}
			s.failLocked(&SessionError{Code: CodeNoURI, Err: err})
			return
		}

		s.mu.Lock()
		s.state = StateEncoding
		s.mu.Unlock()

		encoded := base64.StdEncoding.EncodeToString(raw)
		if len(encoded) > s.recorder.cfg.MaxEncodedBytes {
			s.failLocked(&SessionError{
				Code: CodeRecordingTooLarge,
				Err:  fmt.Errorf("encoded payload %d bytes exceeds limit %d", len(encoded), s.recorder.cfg.MaxEncodedBytes),
			})
			return
		}

		s.mu.Lock()
		s.state = StateSubmitting
		s.mu.Unlock()

		feedback, err := s.recorder.submitter.Submit(ctx, Submission{
			TargetPhrase: s.targetPhrase,
			EncodedAudio: encoded,
			LanguageID:   s.recorder.cfg.LanguageID,
			Level:        s.recorder.cfg.Level,
		})
		if err != nil {
			s.failLocked(&SessionError{Code: CodeSubmissionFailed, Err: err})
			return
		}

		s.mu.Lock()
		s.state = StateDone
		s.feedback = feedback
		s.mu.Unlock()
		s.release()
		close(s.done)
	})
}

// fail is the entry for failures before the finalize path exists (e.g.
// acquisition denied). It consumes finishOnce so a later Stop cannot run
// the pipeline on a dead session.
func (s *Session) fail(serr *SessionError) {
	s.finishOnce.Do(func() {
		s.failLocked(serr)
	})
}

// failLocked moves the session to FAILED, releases the handle once, and
// closes done. Callers must already own finishOnce.
func (s *Session) failLocked(serr *SessionError) {
	s.mu.Lock()
	if s.stopTimer != nil {
		s.stopTimer.Stop()
	}
	s.state = StateFailed
	s.err = serr
	s.mu.Unlock()
	s.release()
	close(s.done)
}

// release frees the platform handle exactly once across every terminal
// path, including teardown.
func (s *Session) release() {
	s.releaseOnce.Do(func() {
		s.mu.Lock()
		handle := s.handle
		s.mu.Unlock()
		if handle != nil {
			handle.Release()
		}
	})
}
