package usecase

import (
	"context"
	"fmt"

	"automation-service/internal/contextkeys"
	"automation-service/internal/core/domain"
	"automation-service/internal/core/port"
	"automation-service/internal/core/port/usecases_port"

	"github.com/google/uuid"
)

// AddCommentUseCase добавляет комментарий к задаче
type AddCommentUseCase struct {
	store    port.AutomationStore
	rules    usecases_port.ExecuteRulesPort
	eventBus port.EventBusPort
}

func NewAddCommentUseCase(store port.AutomationStore, rules usecases_port.ExecuteRulesPort, eventBus port.EventBusPort) *AddCommentUseCase {
	return &AddCommentUseCase{
		store:    store,
		rules:    rules,
		eventBus: eventBus,
	}
}

func (uc *AddCommentUseCase) Execute(ctx context.Context, taskID, authorID uuid.UUID, text string) (*domain.Comment, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "AddComment",
		"task_id":  taskID.String(),
	})

	task, err := uc.store.GetTaskByID(ctx, taskID)
	if err != nil {
		logger.Error("Failed to load task", err, nil)
		return nil, fmt.Errorf("failed to load task %s: %w", taskID, err)
	}

	body, err := WrapCommentBody(text)
	if err != nil {
		return nil, fmt.Errorf("failed to build comment body: %w", err)
	}

	comment := domain.NewComment(taskID, authorID, body)
	if err := uc.store.CreateComment(ctx, comment); err != nil {
		logger.Error("Storage returned an error during comment creation", err, nil)
		return nil, fmt.Errorf("failed to add comment to task %s: %w", taskID, err)
	}

	logger.Info("Comment added", port.Fields{"comment_id": comment.ID.String()})

	uc.rules.Execute(ctx, uc.store, domain.TriggerFieldChanged, domain.TriggerContext{
		ProjectID:   task.ProjectID,
		TaskID:      task.ID,
		UserID:      authorID,
		WorkspaceID: task.WorkspaceID,
	})

	uc.eventBus.Publish(ctx, domain.RealtimeEvent{
		Type:        domain.EventCommentAdded,
		WorkspaceID: task.WorkspaceID,
		Data: map[string]interface{}{
			"taskId":    task.ID.String(),
			"commentId": comment.ID.String(),
			"userId":    authorID.String(),
		},
	})

	return comment, nil
}
