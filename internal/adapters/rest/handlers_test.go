package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"automation-service/internal/core/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCreateTaskUC struct {
	task *domain.Task
	err  error
}

func (f *fakeCreateTaskUC) Execute(_ context.Context, workspaceID string, projectID uuid.UUID, name string, createdByUserID uuid.UUID) (*domain.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.task == nil {
		f.task = domain.NewTask(workspaceID, projectID, name, createdByUserID)
	}
	return f.task, nil
}

type fakeCompleteTaskUC struct {
	task *domain.Task
	err  error
}

func (f *fakeCompleteTaskUC) Execute(_ context.Context, _, _ uuid.UUID) (*domain.Task, error) {
	return f.task, f.err
}

type fakeMoveTaskUC struct {
	task *domain.Task
	err  error
}

func (f *fakeMoveTaskUC) Execute(_ context.Context, _, _, _ uuid.UUID) (*domain.Task, error) {
	return f.task, f.err
}

type fakeAddCommentUC struct {
	comment *domain.Comment
	err     error
}

func (f *fakeAddCommentUC) Execute(_ context.Context, _, _ uuid.UUID, _ string) (*domain.Comment, error) {
	return f.comment, f.err
}

func newTestHandler() *TaskHandler {
	return NewTaskHandler(&fakeCreateTaskUC{}, &fakeCompleteTaskUC{}, &fakeMoveTaskUC{}, &fakeAddCommentUC{})
}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := context.WithValue(req.Context(), userIDKey, uuid.New())
	return req.WithContext(ctx)
}

func TestCreateTaskHandler_RequiresUserInContext(t *testing.T) {
	handler := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks", strings.NewReader(`{}`))
	recorder := httptest.NewRecorder()
	handler.CreateTask(recorder, req)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestCreateTaskHandler_RejectsInvalidBody(t *testing.T) {
	handler := newTestHandler()

	recorder := httptest.NewRecorder()
	handler.CreateTask(recorder, authedRequest(http.MethodPost, "/api/v1/tasks", "not json"))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestCreateTaskHandler_RejectsMissingFields(t *testing.T) {
	handler := newTestHandler()

	recorder := httptest.NewRecorder()
	handler.CreateTask(recorder, authedRequest(http.MethodPost, "/api/v1/tasks", `{"name":"only name"}`))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestCreateTaskHandler_Success(t *testing.T) {
	handler := newTestHandler()

	body := `{"workspace_id":"w1","project_id":"` + uuid.NewString() + `","name":"New task"}`
	recorder := httptest.NewRecorder()
	handler.CreateTask(recorder, authedRequest(http.MethodPost, "/api/v1/tasks", body))

	require.Equal(t, http.StatusCreated, recorder.Code)

	var resp TaskResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "New task", resp.Name)
	assert.Equal(t, "w1", resp.WorkspaceID)
	assert.Equal(t, domain.StatusIncomplete, resp.Status)
}

func TestCompleteTaskHandler_NotFound(t *testing.T) {
	handler := NewTaskHandler(&fakeCreateTaskUC{}, &fakeCompleteTaskUC{err: domain.ErrTaskNotFound}, &fakeMoveTaskUC{}, &fakeAddCommentUC{})

	req := authedRequest(http.MethodPost, "/api/v1/tasks/"+uuid.NewString()+"/complete", "")
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("taskID", uuid.NewString())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	recorder := httptest.NewRecorder()
	handler.CompleteTask(recorder, req)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestCompleteTaskHandler_RejectsInvalidTaskID(t *testing.T) {
	handler := newTestHandler()

	req := authedRequest(http.MethodPost, "/api/v1/tasks/not-a-uuid/complete", "")
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("taskID", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	recorder := httptest.NewRecorder()
	handler.CompleteTask(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestAddCommentHandler_RequiresText(t *testing.T) {
	handler := newTestHandler()

	req := authedRequest(http.MethodPost, "/api/v1/tasks/"+uuid.NewString()+"/comments", `{"text":""}`)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("taskID", uuid.NewString())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	recorder := httptest.NewRecorder()
	handler.AddComment(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestAuthMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value(userIDKey).(uuid.UUID)
		assert.True(t, ok)
		assert.NotEqual(t, uuid.Nil, userID)
		w.WriteHeader(http.StatusNoContent)
	})
	mw := AuthMiddleware(next)

	t.Run("missing header", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		mw.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User-ID", "nope")
		recorder := httptest.NewRecorder()
		mw.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("valid header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User-ID", uuid.NewString())
		recorder := httptest.NewRecorder()
		mw.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusNoContent, recorder.Code)
	})
}
