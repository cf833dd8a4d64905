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

// MoveTaskUseCase переносит задачу в другую секцию проекта
type MoveTaskUseCase struct {
	store    port.AutomationStore
	rules    usecases_port.ExecuteRulesPort
	eventBus port.EventBusPort
}

func NewMoveTaskUseCase(store port.AutomationStore, rules usecases_port.ExecuteRulesPort, eventBus port.EventBusPort) *MoveTaskUseCase {
	return &MoveTaskUseCase{
		store:    store,
		rules:    rules,
		eventBus: eventBus,
	}
}

func (uc *MoveTaskUseCase) Execute(ctx context.Context, taskID, sectionID, userID uuid.UUID) (*domain.Task, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":   "MoveTask",
		"task_id":    taskID.String(),
		"section_id": sectionID.String(),
	})

	task, err := uc.store.GetTaskByID(ctx, taskID)
	if err != nil {
		logger.Error("Failed to load task", err, nil)
		return nil, fmt.Errorf("failed to load task %s: %w", taskID, err)
	}

	if err := uc.store.MoveTaskToSection(ctx, taskID, task.ProjectID, sectionID); err != nil {
		logger.Error("Storage returned an error during task move", err, nil)
		return nil, fmt.Errorf("failed to move task %s: %w", taskID, err)
	}
	task.SectionID = &sectionID

	logger.Info("Task moved to section", nil)

	uc.rules.Execute(ctx, uc.store, domain.TriggerTaskMoved, domain.TriggerContext{
		ProjectID:   task.ProjectID,
		TaskID:      task.ID,
		UserID:      userID,
		WorkspaceID: task.WorkspaceID,
	})

	uc.eventBus.Publish(ctx, domain.RealtimeEvent{
		Type:        domain.EventTaskUpdated,
		WorkspaceID: task.WorkspaceID,
		Data: map[string]interface{}{
			"taskId":    task.ID.String(),
			"projectId": task.ProjectID.String(),
			"sectionId": sectionID.String(),
			"userId":    userID.String(),
		},
	})

	return task, nil
}
