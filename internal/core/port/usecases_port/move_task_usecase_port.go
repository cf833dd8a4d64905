package usecases_port

import (
	"context"

	"automation-service/internal/core/domain"

	"github.com/google/uuid"
)

type MoveTaskUseCasePort interface {
	Execute(ctx context.Context, taskID, sectionID, userID uuid.UUID) (*domain.Task, error)
}
