package rest

import (
	"time"

	"automation-service/internal/core/domain"
)

type CreateTaskRequest struct {
	WorkspaceID string `json:"workspace_id"`
	ProjectID   string `json:"project_id"`
	Name        string `json:"name"`
}

type MoveTaskRequest struct {
	SectionID string `json:"section_id"`
}

type AddCommentRequest struct {
	Text string `json:"text"`
}

// TaskResponse - DTO для ответа с одной задачей
type TaskResponse struct {
	ID              string            `json:"id"`
	WorkspaceID     string            `json:"workspace_id"`
	ProjectID       string            `json:"project_id"`
	SectionID       *string           `json:"section_id,omitempty"`
	Name            string            `json:"name"`
	Status          domain.TaskStatus `json:"status"`
	AssigneeID      *string           `json:"assignee_id,omitempty"`
	DueDate         *string           `json:"due_date,omitempty"`
	CompletedAt     *string           `json:"completed_at,omitempty"`
	CreatedAt       string            `json:"created_at"`
	CreatedByUserID string            `json:"created_by_user_id"`
}

// CommentResponse - DTO для ответа с комментарием
type CommentResponse struct {
	ID        string `json:"id"`
	TaskID    string `json:"task_id"`
	AuthorID  string `json:"author_id"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

// toTaskResponse - маппер из доменной модели в DTO
func toTaskResponse(task *domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:              task.ID.String(),
		WorkspaceID:     task.WorkspaceID,
		ProjectID:       task.ProjectID.String(),
		Name:            task.Name,
		Status:          task.Status,
		CreatedAt:       task.CreatedAt.Format(time.RFC3339),
		CreatedByUserID: task.CreatedByUserID.String(),
	}
	if task.SectionID != nil {
		sectionID := task.SectionID.String()
		resp.SectionID = &sectionID
	}
	if task.AssigneeID != nil {
		assigneeID := task.AssigneeID.String()
		resp.AssigneeID = &assigneeID
	}
	if task.DueDate != nil {
		dueDate := task.DueDate.Format(time.RFC3339)
		resp.DueDate = &dueDate
	}
	if task.CompletedAt != nil {
		completedAt := task.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &completedAt
	}
	return resp
}

func toCommentResponse(comment *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID.String(),
		TaskID:    comment.TaskID.String(),
		AuthorID:  comment.AuthorID.String(),
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt.Format(time.RFC3339),
	}
}
