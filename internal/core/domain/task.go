package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTaskNotFound = errors.New("task not found")
)

// TaskStatus - перечисление для статусов задачи
type TaskStatus string

const (
	StatusIncomplete TaskStatus = "incomplete"
	StatusComplete   TaskStatus = "complete"
)

// Task - основная доменная сущность
type Task struct {
	ID              uuid.UUID  `json:"id"`
	WorkspaceID     string     `json:"workspace_id"`
	ProjectID       uuid.UUID  `json:"project_id"`
	SectionID       *uuid.UUID `json:"section_id,omitempty"`
	Name            string     `json:"name"`
	Status          TaskStatus `json:"status"`
	AssigneeID      *uuid.UUID `json:"assignee_id,omitempty"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	CreatedByUserID uuid.UUID  `json:"created_by_user_id"`
}

// NewTask - конструктор для создания новой задачи
func NewTask(workspaceID string, projectID uuid.UUID, name string, createdByUserID uuid.UUID) *Task {
	return &Task{
		ID:              uuid.New(),
		WorkspaceID:     workspaceID,
		ProjectID:       projectID,
		Name:            name,
		Status:          StatusIncomplete,
		CreatedAt:       time.Now().UTC(),
		CreatedByUserID: createdByUserID,
	}
}

// Comment - комментарий к задаче. Body хранится в структурированном
// документном формате (JSON), который ожидает хранилище комментариев.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"task_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// NewComment - конструктор комментария
func NewComment(taskID, authorID uuid.UUID, body string) *Comment {
	return &Comment{
		ID:        uuid.New(),
		TaskID:    taskID,
		AuthorID:  authorID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
}
