package usecases_port

import (
	"context"

	"automation-service/internal/core/domain"

	"github.com/google/uuid"
)

type AddCommentUseCasePort interface {
	Execute(ctx context.Context, taskID, authorID uuid.UUID, text string) (*domain.Comment, error)
}
