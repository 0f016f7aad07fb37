package ffmpegcap

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeScript(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o700); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestCaptureStartStopAndBytes(t *testing.T) {
	script := writeScript(t, "capture.sh", "#!/usr/bin/env bash\nprintf 'pcm-bytes'\nexec sleep 5\n")
	p := New(Config{Command: script})

	h, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer h.Release()

	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	got, err := h.Bytes(context.Background())
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	if !strings.Contains(string(got), "pcm-bytes") {
		t.Fatalf("captured audio = %q", string(got))
	}
}

func TestStartEarlyExitSurfacesStderr(t *testing.T) {
	script := writeScript(t, "fail.sh", "#!/usr/bin/env bash\necho 'device busy' 1>&2\nexit 1\n")
	p := New(Config{Command: script})

	h, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer h.Release()

	err = h.Start(context.Background())
	if err == nil {
		t.Fatal("expected early exit error")
	}
	if !strings.Contains(err.Error(), "exited before capture started") {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), "device busy") {
		t.Fatalf("stderr not surfaced: %v", err)
	}
}

func TestAcquireMissingBinary(t *testing.T) {
	p := New(Config{Command: filepath.Join(t.TempDir(), "no-such-ffmpeg")})
	if _, err := p.Acquire(context.Background()); err == nil {
		t.Fatal("expected acquire failure for missing binary")
	}
}

func TestBytesEmptyCaptureFails(t *testing.T) {
	script := writeScript(t, "silent.sh", "#!/usr/bin/env bash\necho 'no frames' 1>&2\nexec sleep 5\n")
	p := New(Config{Command: script})

	h, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer h.Release()

	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if _, err := h.Bytes(context.Background()); err == nil {
		t.Fatal("expected error for empty capture")
	} else if !strings.Contains(err.Error(), "no frames") {
		t.Fatalf("stderr not surfaced: %v", err)
	}
}
