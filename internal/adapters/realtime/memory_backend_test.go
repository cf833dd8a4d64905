package realtime

import (
	"context"
	"testing"

	"automation-service/internal/core/domain"
	"automation-service/internal/core/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nopLogger - заглушка LoggerPort для тестов пакета
type nopLogger struct{}

func (n *nopLogger) Debug(msg string, fields port.Fields)            {}
func (n *nopLogger) Info(msg string, fields port.Fields)             {}
func (n *nopLogger) Warn(msg string, fields port.Fields)             {}
func (n *nopLogger) Error(msg string, err error, fields port.Fields) {}
func (n *nopLogger) WithFields(fields port.Fields) port.LoggerPort   { return n }

func testEvent(eventType, workspaceID string) domain.RealtimeEvent {
	return domain.RealtimeEvent{
		Type:        eventType,
		WorkspaceID: workspaceID,
		Data:        map[string]interface{}{"taskId": "42"},
	}
}

func TestMemoryBackend_DeliversToSubscribersInOrder(t *testing.T) {
	backend := NewMemoryBackend(&nopLogger{})

	var order []string
	_, err := backend.Subscribe("realtime:w1", func(event domain.RealtimeEvent) {
		order = append(order, "first:"+event.Type)
	})
	require.NoError(t, err)
	_, err = backend.Subscribe("realtime:w1", func(event domain.RealtimeEvent) {
		order = append(order, "second:"+event.Type)
	})
	require.NoError(t, err)

	err = backend.Publish(context.Background(), "realtime:w1", testEvent(domain.EventTaskCreated, "w1"))
	require.NoError(t, err)

	assert.Equal(t, []string{"first:task.created", "second:task.created"}, order)
}

func TestMemoryBackend_ChannelsAreIsolated(t *testing.T) {
	backend := NewMemoryBackend(&nopLogger{})

	var gotW1, gotW2 []domain.RealtimeEvent
	_, err := backend.Subscribe("realtime:w1", func(event domain.RealtimeEvent) {
		gotW1 = append(gotW1, event)
	})
	require.NoError(t, err)
	_, err = backend.Subscribe("realtime:w2", func(event domain.RealtimeEvent) {
		gotW2 = append(gotW2, event)
	})
	require.NoError(t, err)

	require.NoError(t, backend.Publish(context.Background(), "realtime:w1", testEvent(domain.EventTaskUpdated, "w1")))

	assert.Len(t, gotW1, 1)
	assert.Empty(t, gotW2)
}

func TestMemoryBackend_PublishWithoutSubscribersIsNoop(t *testing.T) {
	backend := NewMemoryBackend(&nopLogger{})

	err := backend.Publish(context.Background(), "realtime:empty", testEvent(domain.EventTaskDeleted, "empty"))
	assert.NoError(t, err)
}

func TestMemoryBackend_DisposeStopsDelivery(t *testing.T) {
	backend := NewMemoryBackend(&nopLogger{})

	var count int
	dispose, err := backend.Subscribe("realtime:w1", func(event domain.RealtimeEvent) {
		count++
	})
	require.NoError(t, err)

	require.NoError(t, backend.Publish(context.Background(), "realtime:w1", testEvent(domain.EventTaskCreated, "w1")))
	dispose()
	require.NoError(t, backend.Publish(context.Background(), "realtime:w1", testEvent(domain.EventTaskCreated, "w1")))

	assert.Equal(t, 1, count)
}

func TestMemoryBackend_DoubleDisposeIsSafe(t *testing.T) {
	backend := NewMemoryBackend(&nopLogger{})

	var first, second int
	disposeFirst, err := backend.Subscribe("realtime:w1", func(event domain.RealtimeEvent) {
		first++
	})
	require.NoError(t, err)
	_, err = backend.Subscribe("realtime:w1", func(event domain.RealtimeEvent) {
		second++
	})
	require.NoError(t, err)

	// Повторный dispose не должен задеть чужую подписку
	disposeFirst()
	disposeFirst()

	require.NoError(t, backend.Publish(context.Background(), "realtime:w1", testEvent(domain.EventCommentAdded, "w1")))

	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
}

func TestMemoryBackend_DisposeDuringFanout(t *testing.T) {
	backend := NewMemoryBackend(&nopLogger{})

	var dispose port.Disposer
	var first, second int
	var err error
	dispose, err = backend.Subscribe("realtime:w1", func(event domain.RealtimeEvent) {
		first++
		// Отписка прямо внутри рассылки не должна ломать итерацию
		dispose()
	})
	require.NoError(t, err)
	_, err = backend.Subscribe("realtime:w1", func(event domain.RealtimeEvent) {
		second++
	})
	require.NoError(t, err)

	require.NoError(t, backend.Publish(context.Background(), "realtime:w1", testEvent(domain.EventTaskCreated, "w1")))
	require.NoError(t, backend.Publish(context.Background(), "realtime:w1", testEvent(domain.EventTaskCreated, "w1")))

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestMemoryBackend_ResubscribeAfterChannelRemoved(t *testing.T) {
	backend := NewMemoryBackend(&nopLogger{})

	dispose, err := backend.Subscribe("realtime:w1", func(event domain.RealtimeEvent) {})
	require.NoError(t, err)
	dispose()

	var count int
	_, err = backend.Subscribe("realtime:w1", func(event domain.RealtimeEvent) {
		count++
	})
	require.NoError(t, err)

	require.NoError(t, backend.Publish(context.Background(), "realtime:w1", testEvent(domain.EventTaskCreated, "w1")))
	assert.Equal(t, 1, count)
}
