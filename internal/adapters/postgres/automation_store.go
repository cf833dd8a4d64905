package postgres_adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"automation-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AutomationStoreAdapter - реализация AutomationStore поверх PostgreSQL.
// Правила хранятся в automation_rules со списком действий в JSONB.
type AutomationStoreAdapter struct {
	pool *pgxpool.Pool
}

func NewAutomationStoreAdapter(pool *pgxpool.Pool) (*AutomationStoreAdapter, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres adapter: pool cannot be nil")
	}
	return &AutomationStoreAdapter{pool: pool}, nil
}

// GetActiveRulesByProject загружает только активные правила проекта.
// Фильтр по is_active - часть запроса, неактивные правила в движок
// не попадают вообще.
func (a *AutomationStoreAdapter) GetActiveRulesByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Rule, error) {
	query := `
		SELECT id, project_id, name, trigger_type, actions, is_active
		FROM automation_rules
		WHERE project_id = $1 AND is_active = TRUE
		ORDER BY created_at`

	rows, err := a.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query active rules for project %s: %w", projectID, err)
	}
	defer rows.Close()

	var rules []domain.Rule
	for rows.Next() {
		var (
			rule        domain.Rule
			triggerType string
			actionsJSON []byte
		)
		if err := rows.Scan(&rule.ID, &rule.ProjectID, &rule.Name, &triggerType, &actionsJSON, &rule.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan rule row: %w", err)
		}
		rule.Trigger = domain.Trigger{Type: domain.TriggerType(triggerType)}
		if err := json.Unmarshal(actionsJSON, &rule.Actions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal actions of rule %s: %w", rule.ID, err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rule rows: %w", err)
	}

	return rules, nil
}

func (a *AutomationStoreAdapter) CreateTask(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO tasks (id, workspace_id, project_id, section_id, name, status, assignee_id, due_date, completed_at, created_at, created_by_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := a.pool.Exec(ctx, query,
		task.ID, task.WorkspaceID, task.ProjectID, task.SectionID, task.Name,
		task.Status, task.AssigneeID, task.DueDate, task.CompletedAt,
		task.CreatedAt, task.CreatedByUserID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task %s: %w", task.ID, err)
	}
	return nil
}

func (a *AutomationStoreAdapter) GetTaskByID(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	query := `
		SELECT id, workspace_id, project_id, section_id, name, status, assignee_id, due_date, completed_at, created_at, created_by_user_id
		FROM tasks
		WHERE id = $1`

	var task domain.Task
	err := a.pool.QueryRow(ctx, query, taskID).Scan(
		&task.ID, &task.WorkspaceID, &task.ProjectID, &task.SectionID, &task.Name,
		&task.Status, &task.AssigneeID, &task.DueDate, &task.CompletedAt,
		&task.CreatedAt, &task.CreatedByUserID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task %s: %w", taskID, err)
	}
	return &task, nil
}

func (a *AutomationStoreAdapter) UpdateTaskAssignee(ctx context.Context, taskID, assigneeID uuid.UUID) error {
	tag, err := a.pool.Exec(ctx, `UPDATE tasks SET assignee_id = $2 WHERE id = $1`, taskID, assigneeID)
	if err != nil {
		return fmt.Errorf("failed to update assignee of task %s: %w", taskID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (a *AutomationStoreAdapter) CompleteTask(ctx context.Context, taskID uuid.UUID, completedAt time.Time) error {
	tag, err := a.pool.Exec(ctx,
		`UPDATE tasks SET status = $2, completed_at = $3 WHERE id = $1`,
		taskID, domain.StatusComplete, completedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to complete task %s: %w", taskID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (a *AutomationStoreAdapter) MoveTaskToSection(ctx context.Context, taskID, projectID, sectionID uuid.UUID) error {
	tag, err := a.pool.Exec(ctx,
		`UPDATE tasks SET section_id = $3 WHERE id = $1 AND project_id = $2`,
		taskID, projectID, sectionID,
	)
	if err != nil {
		return fmt.Errorf("failed to move task %s to section %s: %w", taskID, sectionID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (a *AutomationStoreAdapter) SetTaskDueDate(ctx context.Context, taskID uuid.UUID, dueDate time.Time) error {
	tag, err := a.pool.Exec(ctx, `UPDATE tasks SET due_date = $2 WHERE id = $1`, taskID, dueDate)
	if err != nil {
		return fmt.Errorf("failed to set due date of task %s: %w", taskID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (a *AutomationStoreAdapter) CreateComment(ctx context.Context, comment *domain.Comment) error {
	query := `
		INSERT INTO comments (id, task_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := a.pool.Exec(ctx, query,
		comment.ID, comment.TaskID, comment.AuthorID, comment.Body, comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert comment %s: %w", comment.ID, err)
	}
	return nil
}
