package usecases_port

import (
	"context"

	"automation-service/internal/core/domain"

	"github.com/google/uuid"
)

type CreateTaskUseCasePort interface {
	Execute(ctx context.Context, workspaceID string, projectID uuid.UUID, name string, createdByUserID uuid.UUID) (*domain.Task, error)
}
