package rest

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"automation-service/internal/core/domain"
	"automation-service/internal/core/port"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturingBus - фасад шины, отдающий тесту зарегистрированный колбэк
type capturingBus struct {
	mu          sync.Mutex
	workspaceID string
	handler     port.EventHandler
	subscribed  bool
	disposed    bool
	ready       chan struct{}
}

func newCapturingBus() *capturingBus {
	return &capturingBus{ready: make(chan struct{})}
}

func (b *capturingBus) Publish(_ context.Context, _ domain.RealtimeEvent) {}

func (b *capturingBus) Subscribe(workspaceID string, handler port.EventHandler) port.Disposer {
	b.mu.Lock()
	b.workspaceID = workspaceID
	b.handler = handler
	b.subscribed = true
	b.mu.Unlock()
	close(b.ready)
	return func() {
		b.mu.Lock()
		b.disposed = true
		b.mu.Unlock()
	}
}

func (b *capturingBus) emit(event domain.RealtimeEvent) {
	b.mu.Lock()
	handler := b.handler
	b.mu.Unlock()
	handler(event)
}

// syncRecorder - потокобезопасный ResponseWriter для стриминговых хендлеров.
// Каждая запись сигнализируется в канал writes.
type syncRecorder struct {
	mu     sync.Mutex
	header http.Header
	status int
	body   bytes.Buffer
	writes chan struct{}
}

func newSyncRecorder() *syncRecorder {
	return &syncRecorder{
		header: make(http.Header),
		status: http.StatusOK,
		writes: make(chan struct{}, 16),
	}
}

func (r *syncRecorder) Header() http.Header { return r.header }

func (r *syncRecorder) WriteHeader(code int) {
	r.mu.Lock()
	r.status = code
	r.mu.Unlock()
}

func (r *syncRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	n, err := r.body.Write(p)
	r.mu.Unlock()
	r.writes <- struct{}{}
	return n, err
}

func (r *syncRecorder) Flush() {}

func (r *syncRecorder) bodyString() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.String()
}

func waitForWrite(t *testing.T, recorder *syncRecorder) {
	t.Helper()
	select {
	case <-recorder.writes:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for SSE write")
	}
}

func subscribeRequest(t *testing.T, target string) (*http.Request, context.CancelFunc) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	ctx, cancel := context.WithCancel(req.Context())
	ctx = context.WithValue(ctx, userIDKey, uuid.New())
	return req.WithContext(ctx), cancel
}

func TestSubscribeToEvents_RequiresUserInContext(t *testing.T) {
	bus := newCapturingBus()
	handler := NewEventsHandler(bus)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/subscribe?workspace_id=w1", nil)
	recorder := httptest.NewRecorder()

	handler.SubscribeToEvents(recorder, req)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.False(t, bus.subscribed, "must not subscribe an unauthenticated client")
}

func TestSubscribeToEvents_RequiresWorkspaceID(t *testing.T) {
	bus := newCapturingBus()
	handler := NewEventsHandler(bus)

	req, cancel := subscribeRequest(t, "/api/v1/events/subscribe")
	defer cancel()
	recorder := httptest.NewRecorder()

	handler.SubscribeToEvents(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.False(t, bus.subscribed)
}

func TestSubscribeToEvents_StreamsEventsUntilDisconnect(t *testing.T) {
	bus := newCapturingBus()
	handler := NewEventsHandler(bus)

	req, cancel := subscribeRequest(t, "/api/v1/events/subscribe?workspace_id=w1")
	recorder := newSyncRecorder()

	done := make(chan struct{})
	go func() {
		handler.SubscribeToEvents(recorder, req)
		close(done)
	}()

	// Кадр подтверждения соединения
	waitForWrite(t, recorder)

	select {
	case <-bus.ready:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for subscription")
	}
	assert.Equal(t, "w1", bus.workspaceID)

	bus.emit(domain.RealtimeEvent{
		Type:        domain.EventTaskCreated,
		WorkspaceID: "w1",
		Data:        map[string]interface{}{"taskId": "t1"},
	})
	waitForWrite(t, recorder)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after client disconnect")
	}

	assert.Equal(t, "text/event-stream", recorder.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", recorder.Header().Get("Cache-Control"))
	assert.Equal(t, "keep-alive", recorder.Header().Get("Connection"))

	body := recorder.bodyString()
	assert.Contains(t, body, "event: connected\ndata: {\"status\":\"ok\"}\n\n")
	assert.Contains(t, body, "event: task.created\n")
	assert.Contains(t, body, `"taskId":"t1"`)
	assert.Contains(t, body, `"workspaceId":"w1"`)

	bus.mu.Lock()
	defer bus.mu.Unlock()
	assert.True(t, bus.disposed, "subscription must be released on disconnect")
}

func TestFormatSSEFrame(t *testing.T) {
	frame, err := formatSSEFrame(domain.RealtimeEvent{
		Type:        domain.EventCommentAdded,
		WorkspaceID: "w9",
		Data:        map[string]interface{}{"commentId": "c1"},
	})
	require.NoError(t, err)

	text := string(frame)
	assert.Contains(t, text, "event: comment.added\n")
	assert.Contains(t, text, `"commentId":"c1"`)
	assert.Contains(t, text, `"type":"comment.added"`)
	assert.Contains(t, text, `"workspaceId":"w9"`)
	assert.True(t, bytes.HasSuffix(frame, []byte("\n\n")), "SSE frame must end with a blank line")
}
