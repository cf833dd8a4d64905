package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"automation-service/internal/contextkeys"
	"automation-service/internal/core/domain"
	"automation-service/internal/core/port"

	"github.com/google/uuid"
)

// actionFunc - обработчик одного типа действия
type actionFunc func(ctx context.Context, store port.AutomationStore, action domain.Action, trigCtx domain.TriggerContext) error

// ExecuteRulesUseCase - движок правил автоматизации. На каждый вызов:
// загружает активные правила проекта, сопоставляет тип триггера и
// выполняет список действий совпавших правил строго по порядку.
// Состояние между вызовами не хранится.
type ExecuteRulesUseCase struct {
	// Диспетчеризация по типу действия через таблицу обработчиков:
	// добавление нового типа - это явная запись здесь, а не еще одна
	// ветка строкового сравнения в цикле.
	actions map[domain.ActionType]actionFunc
}

// NewExecuteRulesUseCase создает движок и регистрирует обработчики действий
func NewExecuteRulesUseCase() *ExecuteRulesUseCase {
	uc := &ExecuteRulesUseCase{}
	uc.actions = map[domain.ActionType]actionFunc{
		domain.ActionSetAssignee:   uc.setAssignee,
		domain.ActionCompleteTask:  uc.completeTask,
		domain.ActionMoveToSection: uc.moveToSection,
		domain.ActionAddComment:    uc.addComment,
		domain.ActionSetDueDate:    uc.setDueDate,
	}
	return uc
}

// Execute выполняет правила для триггера. Хранилище передается вызывающим
// на каждый вызов, движок им не владеет. Метод никогда не возвращает
// ошибку наверх: сбой автоматизации не должен ронять доменную операцию.
func (uc *ExecuteRulesUseCase) Execute(ctx context.Context, store port.AutomationStore, triggerType domain.TriggerType, trigCtx domain.TriggerContext) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":     "ExecuteRules",
		"trigger_type": string(triggerType),
		"project_id":   trigCtx.ProjectID.String(),
		"task_id":      trigCtx.TaskID.String(),
	})

	// Неактивные правила отфильтрованы уже в запросе: они не должны
	// считаться совпавшими даже для логирования
	rules, err := store.GetActiveRulesByProject(ctx, trigCtx.ProjectID)
	if err != nil {
		logger.Error("Failed to load active rules, automation skipped", err, nil)
		return
	}

	if len(rules) == 0 {
		logger.Debug("No active rules for project", nil)
		return
	}

	for _, rule := range rules {
		if rule.Trigger.Type != triggerType {
			continue
		}

		ruleLogger := logger.WithFields(port.Fields{
			"rule_id":   rule.ID.String(),
			"rule_name": rule.Name,
		})
		ruleLogger.Info("Rule matched, executing actions", port.Fields{"action_count": len(rule.Actions)})

		// Каждое действие независимо: ошибка логируется, и выполнение
		// продолжается со следующего действия и следующих правил.
		// Откатов ранее выполненных действий нет.
		for i, action := range rule.Actions {
			handler, found := uc.actions[action.Type]
			if !found {
				ruleLogger.Warn("Unknown action type, skipping", port.Fields{
					"action_type":  string(action.Type),
					"action_index": i,
				})
				continue
			}

			if err := handler(ctx, store, action, trigCtx); err != nil {
				ruleLogger.Error("Action failed, continuing with remaining actions", err, port.Fields{
					"action_type":  string(action.Type),
					"action_index": i,
				})
			}
		}
	}
}

// setAssignee назначает исполнителя задачи из конфигурации действия
func (uc *ExecuteRulesUseCase) setAssignee(ctx context.Context, store port.AutomationStore, action domain.Action, trigCtx domain.TriggerContext) error {
	assigneeID, err := uuid.Parse(strings.TrimSpace(action.Config))
	if err != nil {
		return fmt.Errorf("invalid assignee id in action config %q: %w", action.Config, err)
	}
	return store.UpdateTaskAssignee(ctx, trigCtx.TaskID, assigneeID)
}

// completeTask переводит задачу в статус complete с отметкой времени
func (uc *ExecuteRulesUseCase) completeTask(ctx context.Context, store port.AutomationStore, _ domain.Action, trigCtx domain.TriggerContext) error {
	return store.CompleteTask(ctx, trigCtx.TaskID, time.Now().UTC())
}

// moveToSection переносит задачу в секцию проекта из конфигурации
func (uc *ExecuteRulesUseCase) moveToSection(ctx context.Context, store port.AutomationStore, action domain.Action, trigCtx domain.TriggerContext) error {
	sectionID, err := uuid.Parse(strings.TrimSpace(action.Config))
	if err != nil {
		return fmt.Errorf("invalid section id in action config %q: %w", action.Config, err)
	}
	return store.MoveTaskToSection(ctx, trigCtx.TaskID, trigCtx.ProjectID, sectionID)
}

// addComment добавляет комментарий от имени актора триггера
func (uc *ExecuteRulesUseCase) addComment(ctx context.Context, store port.AutomationStore, action domain.Action, trigCtx domain.TriggerContext) error {
	body, err := WrapCommentBody(action.Config)
	if err != nil {
		return fmt.Errorf("failed to build comment body: %w", err)
	}
	return store.CreateComment(ctx, domain.NewComment(trigCtx.TaskID, trigCtx.UserID, body))
}

// setDueDate вычисляет "сейчас + N дней", где N - целое из конфигурации
func (uc *ExecuteRulesUseCase) setDueDate(ctx context.Context, store port.AutomationStore, action domain.Action, trigCtx domain.TriggerContext) error {
	days, err := strconv.Atoi(strings.TrimSpace(action.Config))
	if err != nil {
		return fmt.Errorf("invalid day count in action config %q: %w", action.Config, err)
	}
	dueDate := time.Now().UTC().AddDate(0, 0, days)
	return store.SetTaskDueDate(ctx, trigCtx.TaskID, dueDate)
}

// richTextNode - узел документного формата хранилища комментариев
type richTextNode struct {
	Type    string         `json:"type"`
	Text    string         `json:"text,omitempty"`
	Content []richTextNode `json:"content,omitempty"`
}

// WrapCommentBody оборачивает обычный текст в документный формат,
// который ожидает хранилище комментариев
func WrapCommentBody(text string) (string, error) {
	doc := richTextNode{
		Type: "doc",
		Content: []richTextNode{
			{
				Type: "paragraph",
				Content: []richTextNode{
					{Type: "text", Text: text},
				},
			},
		},
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
