package usecases_port

import (
	"context"

	"automation-service/internal/core/domain"

	"github.com/google/uuid"
)

type CompleteTaskUseCasePort interface {
	Execute(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error)
}
