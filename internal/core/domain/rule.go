package domain

import (
	"github.com/google/uuid"
)

// TriggerType - перечисление доменных событий, на которые реагируют правила
type TriggerType string

const (
	TriggerTaskAdded          TriggerType = "TASK_ADDED"
	TriggerTaskMoved          TriggerType = "TASK_MOVED"
	TriggerTaskCompleted      TriggerType = "TASK_COMPLETED"
	TriggerFieldChanged       TriggerType = "FIELD_CHANGED"
	TriggerDueDateApproaching TriggerType = "DUE_DATE_APPROACHING"
)

// ActionType - перечисление поддерживаемых автоматических действий
type ActionType string

const (
	ActionSetAssignee   ActionType = "SET_ASSIGNEE"
	ActionCompleteTask  ActionType = "COMPLETE_TASK"
	ActionMoveToSection ActionType = "MOVE_TO_SECTION"
	ActionAddComment    ActionType = "ADD_COMMENT"
	ActionSetDueDate    ActionType = "SET_DUE_DATE"
)

// Trigger - условие срабатывания правила
type Trigger struct {
	Type TriggerType `json:"type"`
}

// Action - одно действие правила. Config интерпретируется в зависимости
// от типа: id пользователя, id секции, текст комментария, число дней.
type Action struct {
	Type   ActionType `json:"type"`
	Config string     `json:"config,omitempty"`
}

// Rule - правило автоматизации проекта. Сущность принадлежит доменному
// хранилищу: сервис только читает активные правила и никогда их не мутирует.
type Rule struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	Name      string    `json:"name"`
	Trigger   Trigger   `json:"trigger"`
	Actions   []Action  `json:"actions"`
	IsActive  bool      `json:"is_active"`
}

// TriggerContext - неизменяемый набор идентификаторов, передаваемый
// от места вызова к движку правил. Минимум: проект, задача, актор.
type TriggerContext struct {
	ProjectID   uuid.UUID
	TaskID      uuid.UUID
	UserID      uuid.UUID
	WorkspaceID string
}
