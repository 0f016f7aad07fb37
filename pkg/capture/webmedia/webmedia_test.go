package webmedia

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

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

// attachPair stands a platform behind an httptest server and dials it as
// the browser page, returning both ends.
func attachPair(t *testing.T) (*Platform, *websocket.Conn) {
	t.Helper()
	p := New(testLogger(t))
	attached := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := p.Attach(w, r); err != nil {
			t.Errorf("attach: %v", err)
			return
		}
		close(attached)
	}))
	t.Cleanup(srv.Close)

	page, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = page.Close() })

	select {
	case <-attached:
	case <-time.After(2 * time.Second):
		t.Fatal("platform never attached the connection")
	}
	return p, page
}

func chunkFrame(t *testing.T, audio []byte) Message {
	t.Helper()
	data, err := json.Marshal(audio)
	if err != nil {
		t.Fatalf("marshal chunk: %v", err)
	}
	return Message{Type: "chunk", Data: data}
}

// ackStart consumes the handle's "start" command and acknowledges it,
// playing the page's MediaRecorder.start path.
func ackStart(t *testing.T, page *websocket.Conn) {
	t.Helper()
	var cmd Message
	if err := page.ReadJSON(&cmd); err != nil {
		t.Errorf("read start command: %v", err)
		return
	}
	if cmd.Type != "start" {
		t.Errorf("expected start command, got %q", cmd.Type)
		return
	}
	if err := page.WriteJSON(Message{Type: "start"}); err != nil {
		t.Errorf("write start ack: %v", err)
	}
}

func TestCaptureCollectsChunksInOrder(t *testing.T) {
	p, page := attachPair(t)

	go func() {
		ackStart(t, page)
		_ = page.WriteJSON(chunkFrame(t, []byte("hola ")))
		_ = page.WriteJSON(chunkFrame(t, []byte("mundo")))

		var cmd Message
		if err := page.ReadJSON(&cmd); err != nil || cmd.Type != "stop" {
			t.Errorf("expected stop command, got %q (err %v)", cmd.Type, err)
			return
		}
		// Final data-available fires before recorder finalization.
		_ = page.WriteJSON(chunkFrame(t, []byte("!")))
		_ = page.WriteJSON(Message{Type: "stop"})
	}()

	h, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer h.Release()

	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	got, err := h.Bytes(context.Background())
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	if string(got) != "hola mundo!" {
		t.Fatalf("assembled audio = %q", string(got))
	}
}

func TestStartRejectedByPage(t *testing.T) {
	p, page := attachPair(t)

	go func() {
		var cmd Message
		if err := page.ReadJSON(&cmd); err != nil {
			t.Errorf("read start command: %v", err)
			return
		}
		_ = page.WriteJSON(Message{Type: "error", Error: "permission denied"})
	}()

	h, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer h.Release()

	err = h.Start(context.Background())
	if err == nil || !strings.Contains(err.Error(), "permission denied") {
		t.Fatalf("expected start rejection, got %v", err)
	}
}

func TestReaderDropsChunksAfterClose(t *testing.T) {
	p, page := attachPair(t)

	h, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	wh := h.(*handle)
	defer wh.Release()

	wh.mu.Lock()
	wh.closed = true
	wh.mu.Unlock()
	go wh.readChunks()

	if err := page.WriteJSON(chunkFrame(t, []byte("stale-audio"))); err != nil {
		t.Fatalf("write stale chunk: %v", err)
	}
	if err := page.WriteJSON(Message{Type: "stop"}); err != nil {
		t.Fatalf("write stop: %v", err)
	}

	select {
	case <-wh.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("reader never drained")
	}

	wh.mu.Lock()
	defer wh.mu.Unlock()
	if len(wh.buf) != 0 {
		t.Fatalf("stale chunk was buffered: %q", string(wh.buf))
	}
	if wh.readErr != nil {
		t.Fatalf("unexpected read error: %v", wh.readErr)
	}
}

func TestReleaseMidRecordingIgnoresLateChunks(t *testing.T) {
	p, page := attachPair(t)

	go func() {
		ackStart(t, page)
		_ = page.WriteJSON(chunkFrame(t, []byte("live-audio")))
	}()

	h, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	wh := h.(*handle)

	if err := wh.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := wh.Bytes(context.Background()); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("live chunk never arrived")
		}
		time.Sleep(5 * time.Millisecond)
	}

	wh.Release()
	// A data-available callback firing after teardown must be a no-op.
	_ = page.WriteJSON(chunkFrame(t, []byte("stale-audio")))

	select {
	case <-wh.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("reader never exited after release")
	}

	got, err := wh.Bytes(context.Background())
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	if string(got) != "live-audio" {
		t.Fatalf("buffer after release = %q", string(got))
	}
	wh.mu.Lock()
	closed := wh.closed
	wh.mu.Unlock()
	if !closed {
		t.Fatal("release must mark the handle closed")
	}
}

func TestOriginAllowlist(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	if !originAllowed(req) {
		t.Fatal("requests without an Origin header must pass")
	}

	req.Header.Set("Origin", "http://localhost:3000")
	if !originAllowed(req) {
		t.Fatal("local development origin must pass")
	}

	req.Header.Set("Origin", "http://evil.example")
	if originAllowed(req) {
		t.Fatal("unlisted origin must be rejected")
	}

	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.linguaflow.io, https://staging.linguaflow.io")
	req.Header.Set("Origin", "https://staging.linguaflow.io")
	if !originAllowed(req) {
		t.Fatal("configured origin must pass")
	}
}

func TestAttachRejectsDisallowedOrigin(t *testing.T) {
	p := New(testLogger(t))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := p.Attach(w, r); err == nil {
			t.Error("expected upgrade rejection")
		}
	}))
	defer srv.Close()

	header := http.Header{"Origin": {"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %+v", resp)
	}
}
