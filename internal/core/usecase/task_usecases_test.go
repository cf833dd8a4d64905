package usecase

import (
	"context"
	"testing"

	"automation-service/internal/core/domain"
	"automation-service/internal/core/port"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRulesEngine записывает вызовы движка правил
type fakeRulesEngine struct {
	triggers []domain.TriggerType
	contexts []domain.TriggerContext
}

func (f *fakeRulesEngine) Execute(_ context.Context, _ port.AutomationStore, triggerType domain.TriggerType, trigCtx domain.TriggerContext) {
	f.triggers = append(f.triggers, triggerType)
	f.contexts = append(f.contexts, trigCtx)
}

// fakeEventBus записывает опубликованные события
type fakeEventBus struct {
	events []domain.RealtimeEvent
}

func (f *fakeEventBus) Publish(_ context.Context, event domain.RealtimeEvent) {
	f.events = append(f.events, event)
}

func (f *fakeEventBus) Subscribe(_ string, _ port.EventHandler) port.Disposer {
	return func() {}
}

func TestCreateTask_PersistsRunsRulesAndPublishes(t *testing.T) {
	store := newFakeStore()
	rules := &fakeRulesEngine{}
	bus := &fakeEventBus{}
	uc := NewCreateTaskUseCase(store, rules, bus)

	projectID := uuid.New()
	userID := uuid.New()
	task, err := uc.Execute(context.Background(), "w1", projectID, "Prepare release notes", userID)
	require.NoError(t, err)
	require.NotNil(t, task)

	assert.Equal(t, "w1", task.WorkspaceID)
	assert.Equal(t, domain.StatusIncomplete, task.Status)
	require.Len(t, store.createdTasks, 1)

	require.Equal(t, []domain.TriggerType{domain.TriggerTaskAdded}, rules.triggers)
	assert.Equal(t, task.ID, rules.contexts[0].TaskID)
	assert.Equal(t, projectID, rules.contexts[0].ProjectID)
	assert.Equal(t, userID, rules.contexts[0].UserID)

	require.Len(t, bus.events, 1)
	assert.Equal(t, domain.EventTaskCreated, bus.events[0].Type)
	assert.Equal(t, "w1", bus.events[0].WorkspaceID)
	assert.Equal(t, task.ID.String(), bus.events[0].Data["taskId"])
}

func TestCompleteTask_NotFound(t *testing.T) {
	store := newFakeStore()
	rules := &fakeRulesEngine{}
	bus := &fakeEventBus{}
	uc := NewCompleteTaskUseCase(store, rules, bus)

	_, err := uc.Execute(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, domain.ErrTaskNotFound)

	// Ни правил, ни событий при сбое основной операции
	assert.Empty(t, rules.triggers)
	assert.Empty(t, bus.events)
}

func TestCompleteTask_MarksCompleteAndPublishes(t *testing.T) {
	store := newFakeStore()
	userID := uuid.New()
	existing := domain.NewTask("w1", uuid.New(), "Review design", userID)
	store.tasks[existing.ID] = existing

	rules := &fakeRulesEngine{}
	bus := &fakeEventBus{}
	uc := NewCompleteTaskUseCase(store, rules, bus)

	task, err := uc.Execute(context.Background(), existing.ID, userID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusComplete, task.Status)
	require.NotNil(t, task.CompletedAt)

	require.Equal(t, []domain.TriggerType{domain.TriggerTaskCompleted}, rules.triggers)

	require.Len(t, bus.events, 1)
	assert.Equal(t, domain.EventTaskCompleted, bus.events[0].Type)
	assert.Equal(t, "w1", bus.events[0].WorkspaceID)
}

func TestMoveTask_UpdatesSectionAndPublishes(t *testing.T) {
	store := newFakeStore()
	userID := uuid.New()
	existing := domain.NewTask("w1", uuid.New(), "Fix flaky test", userID)
	store.tasks[existing.ID] = existing

	rules := &fakeRulesEngine{}
	bus := &fakeEventBus{}
	uc := NewMoveTaskUseCase(store, rules, bus)

	sectionID := uuid.New()
	task, err := uc.Execute(context.Background(), existing.ID, sectionID, userID)
	require.NoError(t, err)

	require.NotNil(t, task.SectionID)
	assert.Equal(t, sectionID, *task.SectionID)

	require.Equal(t, []domain.TriggerType{domain.TriggerTaskMoved}, rules.triggers)

	require.Len(t, bus.events, 1)
	assert.Equal(t, domain.EventTaskUpdated, bus.events[0].Type)
	assert.Equal(t, sectionID.String(), bus.events[0].Data["sectionId"])
}

func TestAddComment_WrapsBodyAndPublishes(t *testing.T) {
	store := newFakeStore()
	authorID := uuid.New()
	existing := domain.NewTask("w1", uuid.New(), "Write migration", authorID)
	store.tasks[existing.ID] = existing

	rules := &fakeRulesEngine{}
	bus := &fakeEventBus{}
	uc := NewAddCommentUseCase(store, rules, bus)

	comment, err := uc.Execute(context.Background(), existing.ID, authorID, "looks good")
	require.NoError(t, err)

	require.Len(t, store.comments, 1)
	assert.Contains(t, comment.Body, `"type":"doc"`)
	assert.Contains(t, comment.Body, "looks good")

	require.Equal(t, []domain.TriggerType{domain.TriggerFieldChanged}, rules.triggers)

	require.Len(t, bus.events, 1)
	assert.Equal(t, domain.EventCommentAdded, bus.events[0].Type)
	assert.Equal(t, comment.ID.String(), bus.events[0].Data["commentId"])
}
