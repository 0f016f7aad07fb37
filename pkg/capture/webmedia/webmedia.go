// Package webmedia backs a capture session with a browser MediaRecorder:
// the page streams data-available chunks over a websocket, and the handle
// assembles them into the session's audio buffer. Chunks that arrive after
// the session has stopped or failed are dropped, so a stale ondataavailable
// callback can never corrupt a later session.
package webmedia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/linguaflow/linguaflow-backend/internal/platform/logger"
	"github.com/linguaflow/linguaflow-backend/pkg/capture"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  32 << 10,
	WriteBufferSize: 4 << 10,
	CheckOrigin:     originAllowed,
}

// originAllowed mirrors the HTTP layer's CORS policy: local development
// origins plus anything listed in CORS_ALLOWED_ORIGINS. Requests without
// an Origin header (non-browser clients) are accepted.
func originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	allowed := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if extra := os.Getenv("CORS_ALLOWED_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			if o = strings.TrimSpace(o); o != "" {
				allowed = append(allowed, o)
			}
		}
	}
	for _, o := range allowed {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// Message is the wire frame the browser side sends. "start" acknowledges
// MediaRecorder.start, "chunk" carries one data-available payload, "stop"
// marks recorder finalization.
type Message struct {
	Type  string          `json:"type"` // start | chunk | stop | error
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

type Platform struct {
	log *logger.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

func New(log *logger.Logger) *Platform {
	return &Platform{log: log.With("component", "webmedia")}
}

// Attach upgrades the request and binds the connection as the platform's
// audio source. One page connection at a time.
func (p *Platform) Attach(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("upgrade websocket: %w", err)
	}
	p.mu.Lock()
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn = conn
	p.mu.Unlock()
	return nil
}

func (p *Platform) Acquire(ctx context.Context) (capture.Handle, error) {
	p.mu.Lock()
	conn := p.conn
	p.mu.Unlock()
	if conn == nil {
		return nil, errors.New("no browser media connection attached")
	}
	return &handle{log: p.log, conn: conn, stopped: make(chan struct{})}, nil
}

type handle struct {
	log  *logger.Logger
	conn *websocket.Conn

	mu      sync.Mutex
	buf     []byte
	closed  bool
	readErr error
	stopped chan struct{}

	releaseOnce sync.Once
}

// Start tells the page to begin MediaRecorder capture and spawns the chunk
// reader. It waits for the page's "start" acknowledgment so a permission
// denial in the browser fails the ACQUIRING phase.
func (h *handle) Start(ctx context.Context) error {
	if err := h.conn.WriteJSON(Message{Type: "start"}); err != nil {
		return fmt.Errorf("request recorder start: %w", err)
	}
	var ack Message
	if err := h.conn.ReadJSON(&ack); err != nil {
		return fmt.Errorf("read recorder ack: %w", err)
	}
	if ack.Type == "error" {
		return fmt.Errorf("recorder start rejected: %s", ack.Error)
	}
	if ack.Type != "start" {
		return fmt.Errorf("unexpected recorder ack %q", ack.Type)
	}

	go h.readChunks()
	return nil
}

func (h *handle) readChunks() {
	defer close(h.stopped)
	for {
		var msg Message
		if err := h.conn.ReadJSON(&msg); err != nil {
			h.mu.Lock()
			if !h.closed {
				h.readErr = err
			}
			h.mu.Unlock()
			return
		}
		switch msg.Type {
		case "chunk":
			var chunk []byte
			if err := json.Unmarshal(msg.Data, &chunk); err != nil {
				h.log.Warn("Dropping undecodable audio chunk", "error", err)
				continue
			}
			h.mu.Lock()
			if h.closed {
				// Stale data-available after stop or failure.
				h.mu.Unlock()
				continue
			}
			h.buf = append(h.buf, chunk...)
			h.mu.Unlock()
		case "stop":
			return
		case "error":
			h.mu.Lock()
			if !h.closed {
				h.readErr = fmt.Errorf("recorder error: %s", msg.Error)
			}
			h.mu.Unlock()
			return
		default:
			h.log.Warn("Unknown media message type", "type", msg.Type)
		}
	}
}

// Stop asks the page to finalize the recorder and waits for the reader to
// drain the remaining chunks.
func (h *handle) Stop(ctx context.Context) error {
	if err := h.conn.WriteJSON(Message{Type: "stop"}); err != nil {
		return fmt.Errorf("request recorder stop: %w", err)
	}
	select {
	case <-h.stopped:
	case <-ctx.Done():
		return ctx.Err()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return h.readErr
}

func (h *handle) Bytes(ctx context.Context) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.buf) == 0 {
		return nil, errors.New("recorder produced no audio")
	}
	return h.buf, nil
}

func (h *handle) Release() {
	h.releaseOnce.Do(func() {
		h.mu.Lock()
		h.closed = true
		h.mu.Unlock()
		_ = h.conn.Close()
	})
}
