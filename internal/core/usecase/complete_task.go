package usecase

import (
	"context"
	"fmt"
	"time"

	"automation-service/internal/contextkeys"
	"automation-service/internal/core/domain"
	"automation-service/internal/core/port"
	"automation-service/internal/core/port/usecases_port"

	"github.com/google/uuid"
)

// CompleteTaskUseCase завершает задачу от имени пользователя
type CompleteTaskUseCase struct {
	store    port.AutomationStore
	rules    usecases_port.ExecuteRulesPort
	eventBus port.EventBusPort
}

func NewCompleteTaskUseCase(store port.AutomationStore, rules usecases_port.ExecuteRulesPort, eventBus port.EventBusPort) *CompleteTaskUseCase {
	return &CompleteTaskUseCase{
		store:    store,
		rules:    rules,
		eventBus: eventBus,
	}
}

func (uc *CompleteTaskUseCase) Execute(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "CompleteTask",
		"task_id":  taskID.String(),
	})

	task, err := uc.store.GetTaskByID(ctx, taskID)
	if err != nil {
		logger.Error("Failed to load task", err, nil)
		return nil, fmt.Errorf("failed to load task %s: %w", taskID, err)
	}

	completedAt := time.Now().UTC()
	if err := uc.store.CompleteTask(ctx, taskID, completedAt); err != nil {
		logger.Error("Storage returned an error during task completion", err, nil)
		return nil, fmt.Errorf("failed to complete task %s: %w", taskID, err)
	}
	task.Status = domain.StatusComplete
	task.CompletedAt = &completedAt

	logger.Info("Task completed", nil)

	uc.rules.Execute(ctx, uc.store, domain.TriggerTaskCompleted, domain.TriggerContext{
		ProjectID:   task.ProjectID,
		TaskID:      task.ID,
		UserID:      userID,
		WorkspaceID: task.WorkspaceID,
	})

	uc.eventBus.Publish(ctx, domain.RealtimeEvent{
		Type:        domain.EventTaskCompleted,
		WorkspaceID: task.WorkspaceID,
		Data: map[string]interface{}{
			"taskId":      task.ID.String(),
			"projectId":   task.ProjectID.String(),
			"userId":      userID.String(),
			"completedAt": completedAt.Format(time.RFC3339),
		},
	})

	return task, nil
}
