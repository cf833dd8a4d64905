package port

import (
	"context"
	"time"

	"automation-service/internal/core/domain"

	"github.com/google/uuid"
)

// AutomationStore - контракт доменного хранилища, достаточный для движка
// правил и для мутаций задач. Фильтрация неактивных правил выполняется
// в запросе, а не после загрузки: неактивное правило не должно считаться
// "совпавшим" даже для целей логирования.
type AutomationStore interface {
	GetActiveRulesByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Rule, error)

	CreateTask(ctx context.Context, task *domain.Task) error
	GetTaskByID(ctx context.Context, taskID uuid.UUID) (*domain.Task, error)
	UpdateTaskAssignee(ctx context.Context, taskID, assigneeID uuid.UUID) error
	CompleteTask(ctx context.Context, taskID uuid.UUID, completedAt time.Time) error
	MoveTaskToSection(ctx context.Context, taskID, projectID, sectionID uuid.UUID) error
	SetTaskDueDate(ctx context.Context, taskID uuid.UUID, dueDate time.Time) error

	CreateComment(ctx context.Context, comment *domain.Comment) error
}
