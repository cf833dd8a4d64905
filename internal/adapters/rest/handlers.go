package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"automation-service/internal/contextkeys"
	"automation-service/internal/core/domain"
	"automation-service/internal/core/port"
	"automation-service/internal/core/port/usecases_port"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type TaskHandler struct {
	createTaskUC   usecases_port.CreateTaskUseCasePort
	completeTaskUC usecases_port.CompleteTaskUseCasePort
	moveTaskUC     usecases_port.MoveTaskUseCasePort
	addCommentUC   usecases_port.AddCommentUseCasePort
}

// NewTaskHandler - конструктор
func NewTaskHandler(
	createUC usecases_port.CreateTaskUseCasePort,
	completeUC usecases_port.CompleteTaskUseCasePort,
	moveUC usecases_port.MoveTaskUseCasePort,
	addCommentUC usecases_port.AddCommentUseCasePort,
) *TaskHandler {
	return &TaskHandler{
		createTaskUC:   createUC,
		completeTaskUC: completeUC,
		moveTaskUC:     moveUC,
		addCommentUC:   addCommentUC,
	}
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "CreateTask"})

	userID, ok := r.Context().Value(userIDKey).(uuid.UUID)
	if !ok {
		logger.Error("Invalid or missing user ID in context", nil, nil)
		WriteJSONError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Failed to decode create task request body", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" || req.WorkspaceID == "" || req.ProjectID == "" {
		logger.Warn("Fields 'name', 'workspace_id', and 'project_id' are required", nil)
		WriteJSONError(w, http.StatusBadRequest, "Fields 'name', 'workspace_id', and 'project_id' are required")
		return
	}
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		logger.Warn("Invalid 'project_id' format", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid 'project_id' format")
		return
	}

	handlerLogger := logger.WithFields(port.Fields{
		"task_name":    req.Name,
		"workspace_id": req.WorkspaceID,
		"project_id":   projectID.String(),
		"user_id":      userID.String(),
	})
	handlerLogger.Info("Processing request to create task", nil)

	task, err := h.createTaskUC.Execute(r.Context(), req.WorkspaceID, projectID, req.Name, userID)
	if err != nil {
		handlerLogger.Error("CreateTask use case failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to create task")
		return
	}

	handlerLogger.Info("Task created successfully", port.Fields{"task_id": task.ID.String()})
	RespondWithJSON(w, http.StatusCreated, toTaskResponse(task))
}

func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "CompleteTask"})

	userID, ok := r.Context().Value(userIDKey).(uuid.UUID)
	if !ok {
		logger.Error("Invalid or missing user ID in context", nil, nil)
		WriteJSONError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	taskID, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		logger.Warn("Invalid task ID format in URL", port.Fields{"provided_id": chi.URLParam(r, "taskID")})
		WriteJSONError(w, http.StatusBadRequest, "Invalid task ID in URL")
		return
	}

	handlerLogger := logger.WithFields(port.Fields{
		"task_id": taskID.String(),
		"user_id": userID.String(),
	})
	handlerLogger.Info("Processing request to complete task", nil)

	task, err := h.completeTaskUC.Execute(r.Context(), taskID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			handlerLogger.Warn("Complete failed: task not found", nil)
			WriteJSONError(w, http.StatusNotFound, err.Error())
			return
		}
		handlerLogger.Error("CompleteTask use case failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to complete task")
		return
	}

	handlerLogger.Info("Task completed successfully", nil)
	RespondWithJSON(w, http.StatusOK, toTaskResponse(task))
}

func (h *TaskHandler) MoveTask(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "MoveTask"})

	userID, ok := r.Context().Value(userIDKey).(uuid.UUID)
	if !ok {
		logger.Error("Invalid or missing user ID in context", nil, nil)
		WriteJSONError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	taskID, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		logger.Warn("Invalid task ID format in URL", port.Fields{"provided_id": chi.URLParam(r, "taskID")})
		WriteJSONError(w, http.StatusBadRequest, "Invalid task ID in URL")
		return
	}

	var req MoveTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Failed to decode move task request body", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	sectionID, err := uuid.Parse(req.SectionID)
	if err != nil {
		logger.Warn("Invalid 'section_id' format", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid 'section_id' format")
		return
	}

	handlerLogger := logger.WithFields(port.Fields{
		"task_id":    taskID.String(),
		"section_id": sectionID.String(),
	})
	handlerLogger.Info("Processing request to move task", nil)

	task, err := h.moveTaskUC.Execute(r.Context(), taskID, sectionID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			handlerLogger.Warn("Move failed: task not found", nil)
			WriteJSONError(w, http.StatusNotFound, err.Error())
			return
		}
		handlerLogger.Error("MoveTask use case failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to move task")
		return
	}

	handlerLogger.Info("Task moved successfully", nil)
	RespondWithJSON(w, http.StatusOK, toTaskResponse(task))
}

func (h *TaskHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "AddComment"})

	userID, ok := r.Context().Value(userIDKey).(uuid.UUID)
	if !ok {
		logger.Error("Invalid or missing user ID in context", nil, nil)
		WriteJSONError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	taskID, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		logger.Warn("Invalid task ID format in URL", port.Fields{"provided_id": chi.URLParam(r, "taskID")})
		WriteJSONError(w, http.StatusBadRequest, "Invalid task ID in URL")
		return
	}

	var req AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Failed to decode add comment request body", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Text == "" {
		logger.Warn("Field 'text' is required", nil)
		WriteJSONError(w, http.StatusBadRequest, "Field 'text' is required")
		return
	}

	handlerLogger := logger.WithFields(port.Fields{
		"task_id": taskID.String(),
		"user_id": userID.String(),
	})
	handlerLogger.Info("Processing request to add comment", nil)

	comment, err := h.addCommentUC.Execute(r.Context(), taskID, userID, req.Text)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			handlerLogger.Warn("Add comment failed: task not found", nil)
			WriteJSONError(w, http.StatusNotFound, err.Error())
			return
		}
		handlerLogger.Error("AddComment use case failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to add comment")
		return
	}

	handlerLogger.Info("Comment added successfully", port.Fields{"comment_id": comment.ID.String()})
	RespondWithJSON(w, http.StatusCreated, toCommentResponse(comment))
}
