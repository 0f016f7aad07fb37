// Package ffmpegcap captures microphone audio on native hosts by running
// ffmpeg against the system audio input and collecting its stdout.
package ffmpegcap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/linguaflow/linguaflow-backend/pkg/capture"
)

type Config struct {
	Command     string // ffmpeg binary, default "ffmpeg"
	SampleRate  int
	Channels    int
	InputFormat string // e.g. pulse, alsa, avfoundation
	InputDevice string
}

func (c Config) withDefaults() Config {
	if c.Command == "" {
		c.Command = "ffmpeg"
	}
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	if c.Channels <= 0 {
		c.Channels = 1
	}
	if c.InputFormat == "" {
		c.InputFormat = "pulse"
	}
	if c.InputDevice == "" {
		c.InputDevice = "default"
	}
	return c
}

type Platform struct {
	cfg Config
}

func New(cfg Config) *Platform {
	return &Platform{cfg: cfg.withDefaults()}
}

// Acquire verifies the ffmpeg binary is present. The actual process starts
// in Handle.Start so acquisition failures map cleanly to PERMISSION_DENIED.
func (p *Platform) Acquire(ctx context.Context) (capture.Handle, error) {
	if _, err := exec.LookPath(p.cfg.Command); err != nil {
		return nil, fmt.Errorf("audio capture unavailable: %w", err)
	}
	return &handle{cfg: p.cfg}, nil
}

type handle struct {
	cfg Config

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	stderr  bytes.Buffer
	buf     bytes.Buffer
	waitErr chan error
	copied  chan struct{}

	releaseOnce sync.Once
}

func (h *handle) Start(ctx context.Context) error {
	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", h.cfg.InputFormat,
		"-i", h.cfg.InputDevice,
		"-ac", strconv.Itoa(h.cfg.Channels),
		"-ar", strconv.Itoa(h.cfg.SampleRate),
		"-f", "s16le",
		"-",
	}
	cmd := exec.Command(h.cfg.Command, args...)
	cmd.Stderr = &h.stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	h.mu.Lock()
	h.cmd = cmd
	h.stdout = stdout
	h.waitErr = make(chan error, 1)
	h.copied = make(chan struct{})
	h.mu.Unlock()

	go func() {
		_, _ = io.Copy(&h.buf, stdout)
		close(h.copied)
	}()
	go func() {
		h.waitErr <- cmd.Wait()
	}()

	// Catch immediate exits (bad device, missing permission) so the caller
	// fails in ACQUIRING rather than mid-recording.
	select {
	case err := <-h.waitErr:
		<-h.copied
		if err != nil {
			return fmt.Errorf("ffmpeg exited before capture started: %w: %s", err, strings.TrimSpace(h.stderr.String()))
		}
		return errors.New("ffmpeg exited before capture started")
	case <-time.After(250 * time.Millisecond):
	}
	return nil
}

func (h *handle) Stop(ctx context.Context) error {
	h.mu.Lock()
	cmd := h.cmd
	h.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return errors.New("capture never started")
	}

	_ = cmd.Process.Signal(os.Interrupt)
	select {
	case <-h.waitErr:
	case <-time.After(2 * time.Second):
		_ = cmd.Process.Kill()
		<-h.waitErr
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-h.waitErr
	}
	<-h.copied
	return nil
}

func (h *handle) Bytes(ctx context.Context) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.buf.Len() == 0 {
		return nil, fmt.Errorf("no audio captured: %s", strings.TrimSpace(h.stderr.String()))
	}
	return h.buf.Bytes(), nil
}

func (h *handle) Release() {
	h.releaseOnce.Do(func() {
		h.mu.Lock()
		cmd := h.cmd
		stdout := h.stdout
		h.mu.Unlock()
		if cmd != nil && cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		if stdout != nil {
			_ = stdout.Close()
		}
	})
}
