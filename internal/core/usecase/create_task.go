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

// CreateTaskUseCase создает задачу и запускает побочные эффекты:
// правила автоматизации проекта и событие реального времени.
type CreateTaskUseCase struct {
	store    port.AutomationStore
	rules    usecases_port.ExecuteRulesPort
	eventBus port.EventBusPort
}

func NewCreateTaskUseCase(store port.AutomationStore, rules usecases_port.ExecuteRulesPort, eventBus port.EventBusPort) *CreateTaskUseCase {
	return &CreateTaskUseCase{
		store:    store,
		rules:    rules,
		eventBus: eventBus,
	}
}

func (uc *CreateTaskUseCase) Execute(ctx context.Context, workspaceID string, projectID uuid.UUID, name string, createdByUserID uuid.UUID) (*domain.Task, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":   "CreateTask",
		"project_id": projectID.String(),
	})

	task := domain.NewTask(workspaceID, projectID, name, createdByUserID)

	if err := uc.store.CreateTask(ctx, task); err != nil {
		logger.Error("Storage returned an error during task creation", err, nil)
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	logger.Info("Task created", port.Fields{"task_id": task.ID.String()})

	// Автоматизация и нотификация - побочные каналы: их сбой не влияет
	// на результат основной операции
	uc.rules.Execute(ctx, uc.store, domain.TriggerTaskAdded, domain.TriggerContext{
		ProjectID:   projectID,
		TaskID:      task.ID,
		UserID:      createdByUserID,
		WorkspaceID: workspaceID,
	})

	uc.eventBus.Publish(ctx, domain.RealtimeEvent{
		Type:        domain.EventTaskCreated,
		WorkspaceID: workspaceID,
		Data: map[string]interface{}{
			"taskId":    task.ID.String(),
			"projectId": projectID.String(),
			"name":      task.Name,
			"userId":    createdByUserID.String(),
		},
	})

	return task, nil
}
